package core

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/wansing/healthregistry/auth"
	"golang.org/x/text/language"
)

var langMatcher = language.NewMatcher([]language.Tag{
	language.BrazilianPortuguese, // default
	language.AmericanEnglish,
})

var monthNamesPt = strings.NewReplacer(
	"January", "janeiro",
	"February", "fevereiro",
	"March", "março",
	"April", "abril",
	"May", "maio",
	"June", "junho",
	"July", "julho",
	"August", "agosto",
	"September", "setembro",
	"October", "outubro",
	"November", "novembro",
	"December", "dezembro",
)

// Location is the time zone in which times are displayed.
var Location = time.UTC

// A Request is created by CoreDB.NewRequest for each HTTP request.
type Request struct {
	db       *CoreDB // unexported, so it can't be accessed in templates
	Identity *auth.Identity

	// http
	writer  http.ResponseWriter
	request *http.Request

	// robustness
	statusWritten bool

	// caching
	language language.Tag
}

// NewRequest creates a Request with the given http.ResponseWriter and http.Request.
// The http.Request must have passed the session manager. If a user is logged in, Request.Identity is set.
func (c *CoreDB) NewRequest(w http.ResponseWriter, httpreq *http.Request) *Request {

	var req = &Request{
		db:      c,
		writer:  w,
		request: httpreq,
	}

	req.language, _ = language.MatchStrings(langMatcher, httpreq.Header.Get("Accept-Language"))

	if identity, ok := c.Sessions.CurrentIdentity(httpreq.Context()); ok {
		req.Identity = identity
	}

	return req
}

// Context returns the context of the HTTP request, which carries the session.
func (req *Request) Context() context.Context {
	return req.request.Context()
}

// Danger adds a "danger" notification to the session.
func (req *Request) Danger(err error) {
	req.db.notify(req.request.Context(), "danger", "%s", Message(err))
}

// Success adds a "success" notification to the session.
func (req *Request) Success(format string, args ...interface{}) {
	req.db.notify(req.request.Context(), "success", format, args...)
}

// RenderNotifications removes all notifications from the session
// and renders them into an HTML string.
// If the HTTP status had already been written, it does nothing.
func (req *Request) RenderNotifications() template.HTML {
	var r string
	if !req.statusWritten {
		for _, n := range (SessionNotifier{req.db.Sessions.Manager}).PopNotifications(req.request.Context()) {
			r += `<div class="alert alert-` + template.HTMLEscapeString(n.Style) + ` mt-3" role="alert">` + template.HTMLEscapeString(n.Message) + `</div>`
		}
	}
	return template.HTML(r)
}

// Cleanup destroys the session (which means re-setting the cookie with zero lifetime) if the session has been modified and is empty now.
func (req *Request) Cleanup() {
	sessMan := req.db.Sessions.Manager
	if sessMan.Status(req.request.Context()) == scs.Modified && len(sessMan.Keys(req.request.Context())) == 0 {
		_ = sessMan.Destroy(req.request.Context())
	}
}

// SeeOther sets the HTTP header to redirect to an URL.
func (req *Request) SeeOther(format string, args ...interface{}) {
	if req.statusWritten {
		return
	}
	var url = fmt.Sprintf(format, args...)
	http.Redirect(req.writer, req.request, url, http.StatusSeeOther)
	req.statusWritten = true
}

// StatusWritten is used by handlers which write the response themselves.
func (req *Request) StatusWritten() {
	req.statusWritten = true
}

// Login tries to log in a user. On success, the identity is stored in the session.
func (req *Request) Login(cpf string, enteredPass string) error {
	if req.LoggedIn() {
		return nil
	}
	identity, err := req.db.Sessions.Login(req.request.Context(), cpf, enteredPass)
	if err != nil {
		return err // is ErrAuth if cpf or enteredPass is wrong
	}
	req.Identity = identity
	req.Success("Welcome %s!", identity.Name)
	return nil
}

func (req *Request) LoggedIn() bool {
	return req.Identity != nil
}

// Logout removes the identity from the session and destroys it.
func (req *Request) Logout() error {
	req.Identity = nil
	return req.db.Sessions.Logout(req.request.Context())
}

// Can is used in templates to show or hide links and buttons.
func (req *Request) Can(op auth.Operation) bool {
	return auth.Can(req.Identity, op)
}

func (req *Request) CanReview() bool {
	return req.Can(auth.ApproveAssessment) && req.Can(auth.RejectAssessment)
}

func (req *Request) CanExport() bool {
	return req.Can(auth.ExportAssessments)
}

func (req *Request) CanManageUsers() bool {
	return req.Can(auth.ManageUsers)
}

func (req *Request) isPortuguese() bool {
	b, _ := req.language.Base()
	return b.String() == "pt"
}

func (req *Request) FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if req.isPortuguese() {
		return t.Format("02/01/2006")
	}
	return t.Format("01/02/2006")
}

func (req *Request) FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(Location)
	if req.isPortuguese() {
		return monthNamesPt.Replace(t.Format("2 de January de 2006, 15:04"))
	}
	return t.Format("January 2, 2006 3:04 PM")
}
