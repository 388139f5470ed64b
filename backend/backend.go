// Package backend is the web interface of the registry.
package backend

import (
	"errors"
	"html/template"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/healthregistry/core"
)

// we need the CoreDB in the backend
type context struct {
	*core.Request
	Prefix string // with trailing slash
	db     *core.CoreDB
	cep    AddressLookup
}

func (ctx *context) UsersWriteable() bool {
	return ctx.db.Auth.Writeable()
}

// statusCode maps the error kinds to HTTP status codes.
func statusCode(err error) int {
	var collaboratorErr *core.CollaboratorError
	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.As(err, &collaboratorErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type handler func(http.ResponseWriter, *http.Request, *context, httprouter.Params) error

func middleware(db *core.CoreDB, cep AddressLookup, prefix string, requireLoggedIn bool, f handler) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {

		var request = db.NewRequest(w, req)

		var ctx = &context{
			Prefix:  prefix + "/",
			Request: request,
			db:      db,
			cep:     cep,
		}
		defer ctx.Cleanup()

		if requireLoggedIn && !ctx.LoggedIn() {
			if req.Method == http.MethodGet {
				ctx.SeeOther("/login")
				return
			}
			ctx.Danger(core.ErrUnauthenticated)
			renderError(w, req, ctx, core.ErrUnauthenticated)
			return
		}

		if err := f(w, req, ctx, params); err != nil {
			// probably no template has been executed, so execute error template
			renderError(w, req, ctx, err)
		}
	}
}

// renderError writes the status code of err and the error page.
// Errors of a known kind have already been reported to the user by the notifier, the others are logged and shown here.
func renderError(w http.ResponseWriter, req *http.Request, ctx *context, err error) {
	var message string
	if !core.IsKind(err) {
		log.Printf("error handling %s %s: %v", req.Method, req.URL.Path, err)
		message = err.Error()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode(err))
	errorTmpl.Execute(w, struct {
		*context
		Err string
	}{
		context: ctx,
		Err:     message,
	})
}

var errorTmpl = tmpl(`
	{{ with .Err }}
		<div class="alert alert-danger" role="alert">
			{{ . }}
		</div>
	{{ end }}
	<p><a href="dashboard">Back to the dashboard</a></p>`)

func NewBackendRouter(db *core.CoreDB, cep AddressLookup, prefix string) http.Handler {

	var router = httprouter.New()

	var GETAndPOST = func(path string, handle httprouter.Handle) {
		router.GET(path, handle)
		router.POST(path, handle)
	}

	// public
	router.GET("/", middleware(db, cep, prefix, false, root))
	GETAndPOST("/login", middleware(db, cep, prefix, false, login))

	// private
	router.GET("/assessments", middleware(db, cep, prefix, true, assessments))
	GETAndPOST("/assessment-new", middleware(db, cep, prefix, true, assessmentNew))
	router.GET("/assessment/:id", middleware(db, cep, prefix, true, assessment))
	router.POST("/assessment/:id/approve", middleware(db, cep, prefix, true, approve))
	router.POST("/assessment/:id/reject", middleware(db, cep, prefix, true, reject))
	router.GET("/cep/:cep", middleware(db, cep, prefix, true, cepLookup))
	router.GET("/dashboard", middleware(db, cep, prefix, true, dashboard))
	router.GET("/export.csv", middleware(db, cep, prefix, true, export))
	router.GET("/logout", middleware(db, cep, prefix, true, logout))
	router.GET("/patients", middleware(db, cep, prefix, true, patients))
	GETAndPOST("/patient-new", middleware(db, cep, prefix, true, patientNew))
	GETAndPOST("/patient/:id", middleware(db, cep, prefix, true, patient))
	GETAndPOST("/users", middleware(db, cep, prefix, true, users))
	GETAndPOST("/user/:cpf", middleware(db, cep, prefix, true, user))

	return router
}

func tmpl(text string) *template.Template {
	t := template.Must(backendTmpl.Clone())
	t = template.Must(t.Parse(`{{ define "content" }}` + text + `{{ end }}`))
	return t
}

var backendTmpl = template.Must(template.New("backend").Funcs(
	template.FuncMap{
		"Excerpt":     func(s string) string { return core.Excerpt(s, 80) },
		"FormatCEP":   FormatCEP,
		"FormatCPF":   core.FormatCPF,
		"FormatPhone": FormatPhone,
		"Inc":         func(i int) int { return i + 1 },
		"Markdown":    core.RenderMarkdown,
		"StatusBadge": StatusBadge,
	},
).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
	<head>
		<base href="{{ .Prefix }}">
		<link rel="stylesheet" type="text/css" href="https://cdn.jsdelivr.net/npm/bootstrap@4.4.1/dist/css/bootstrap.min.css">
		<meta charset="utf-8">
		<meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no">
		<title>Health Registry</title>

		<style>

			/* bootstrap enhancements */

			.bg-light, .table-light, .table-light > td, .table-light > th {
				background-color: #f4f5f6 !important;
			}

			.col-form-label {
				text-align: right;
			}

			/* html tags */

			body {
				padding-bottom: 1rem;
			}

			h1 {
				font-size: 1.5rem !important;
				margin: 1rem 0 0.7rem !important;
			}

			h2 {
				font-size: 1.3rem !important;
				margin: 0.2rem 0 0.5rem !important;
			}

			table {
				margin-top: 0.5rem;
				border-bottom: 1px solid #dee2e6;
			}

		</style>
	</head>
	<body>

		{{ if .LoggedIn }}

			<nav class="navbar navbar-expand-md bg-light">
				<span class="navbar-brand">{{ .Identity.Municipality }}</span>
				<ul class="navbar-nav">
					<li class="nav-item">
						<a class="nav-link" href="dashboard">Dashboard</a>
					</li>
					<li class="nav-item">
						<a class="nav-link" href="patients">Patients</a>
					</li>
					<li class="nav-item">
						<a class="nav-link" href="assessments">Assessments</a>
					</li>
					<li class="nav-item">
						<a class="nav-link" href="assessment-new">New assessment</a>
					</li>

					{{ if and .CanManageUsers .UsersWriteable }}
						<li class="nav-item">
							<a class="nav-link" href="users">Users</a>
						</li>
					{{ end }}

					<li class="nav-item">
						<a class="nav-link" href="user/{{ .Identity.ID }}">{{ .Identity.Name }} ({{ .Identity.Role.Label }})</a>
					</li>
					<li class="nav-item">
						<a class="nav-link" href="logout">Logout</a>
					</li>
				</ul>
			</nav>

		{{ end }}

		<div class="container pt-3">
			{{ .RenderNotifications }}
			{{ template "content" . }}
		</div>
	</body>
</html>`))
