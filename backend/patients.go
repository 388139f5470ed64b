package backend

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/healthregistry/core"
	"github.com/wansing/healthregistry/util"
)

var patientsTmpl = tmpl(`<h1>Patients</h1>

	<form method="get" class="form-inline mb-2">
		<input type="text" class="form-control mr-sm-2" name="name" value="{{ .Name }}" placeholder="Name begins with">
		<button type="submit" class="btn btn-outline-primary">Search</button>
		<a class="btn btn-primary ml-auto" href="patient-new">Register patient</a>
	</form>

	<table class="table table-sm">
		<thead>
			<tr>
				<th>Name</th>
				<th>CPF</th>
				<th>Birth date</th>
				<th>Phone</th>
				<th>District</th>
			</tr>
		</thead>
		<tbody>
			{{ range .Patients }}
				<tr>
					<td><a href="patient/{{ .ID }}">{{ .Name }}</a></td>
					<td>{{ FormatCPF .CPF }}</td>
					<td>{{ $.FormatDate .BirthDate }}</td>
					<td>{{ FormatPhone .Phone }}</td>
					<td>{{ .Address.District }}</td>
				</tr>
			{{ else }}
				<tr><td colspan="5">No patients found.</td></tr>
			{{ end }}
		</tbody>
	</table>

	<nav>
		<ul class="pagination">
			{{ range .PageLinks }}
				{{ . }}
			{{ end }}
		</ul>
	</nav>`)

type patientsData struct {
	*context
	Name      string
	Patients  []*core.Patient
	PageLinks []template.HTML
}

func patients(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var query = req.URL.Query()
	var name = strings.TrimSpace(query.Get("name"))

	count, err := ctx.db.CountPatients(ctx.Context(), ctx.Identity, name)
	if err != nil {
		return err
	}

	var numPages = util.NumPages(count, perPage)
	var currentPage = util.ClampPage(page(query), numPages)

	list, err := ctx.db.ListPatients(ctx.Context(), ctx.Identity, name, perPage, (currentPage-1)*perPage)
	if err != nil {
		return err
	}

	return patientsTmpl.Execute(w, &patientsData{
		context:   ctx,
		Name:      name,
		Patients:  list,
		PageLinks: util.PageLinks(currentPage, numPages, pageHref("patients", url.Values{"name": {name}})),
	})
}
