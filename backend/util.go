package backend

import (
	stdcontext "context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strconv"

	"github.com/wansing/healthregistry/core"
	"github.com/wansing/healthregistry/util"
)

// AddressLookup is implemented by *cep.Client.
type AddressLookup interface {
	Lookup(ctx stdcontext.Context, cep string) (*core.Address, error)
}

const perPage = 20

func FormatCEP(cep string) string {
	return util.Mask(util.Digits(cep), "#####-###")
}

func FormatPhone(phone string) string {
	var digits = util.Digits(phone)
	if len(digits) == 11 {
		return util.Mask(digits, "(##) #####-####")
	}
	return util.Mask(digits, "(##) ####-####")
}

func StatusBadge(status core.Status) template.HTML {
	return template.HTML(fmt.Sprintf(`<span class="badge badge-%s">%s</span>`, status.Style(), template.HTMLEscapeString(status.Label())))
}

// page returns the page number from the query string, at least 1.
func page(query url.Values) int {
	p, err := strconv.Atoi(query.Get("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// statusFilter parses the optional "status" query parameter.
func statusFilter(query url.Values) (core.Status, error) {
	var s = query.Get("status")
	if s == "" {
		return "", nil
	}
	return core.ParseStatus(s)
}

// pageHref returns a function which links to a page, keeping the other query parameters.
func pageHref(path string, query url.Values) func(int) string {
	return func(p int) string {
		var q = url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(p))
		return path + "?" + q.Encode()
	}
}

// isFormError returns true if err is caused by user input, so the form should be shown again.
func isFormError(err error) bool {
	return errors.Is(err, core.ErrInvalidArgument)
}
