package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/healthregistry/core"
)

var assessmentsTmpl = tmpl(`<h1>Assessments</h1>

	<form method="get" class="form-inline mb-2">
		<select class="form-control mr-sm-2" name="status">
			<option value="">all</option>
			{{ range .Statuses }}
				<option value="{{ . }}" {{ if eq . $.Filter.Status }}selected{{ end }}>{{ .Label }}</option>
			{{ end }}
		</select>
		{{ with .Filter.PatientID }}
			<input type="hidden" name="patient" value="{{ . }}">
		{{ end }}
		<button type="submit" class="btn btn-outline-primary">Filter</button>
		{{ if .CanExport }}
			<a class="btn btn-outline-secondary ml-auto" href="export.csv?status={{ .Filter.Status }}">Export CSV</a>
		{{ end }}
	</form>

	<table class="table table-sm">
		<thead>
			<tr>
				<th>Submitted</th>
				<th>Patient</th>
				<th>Professional</th>
				<th>Answers</th>
				<th>Notes</th>
				<th>Status</th>
			</tr>
		</thead>
		<tbody>
			{{ range .Assessments }}
				<tr>
					<td><a href="assessment/{{ .ID }}">{{ $.FormatDateTime .CreatedAt }}</a></td>
					<td><a href="patient/{{ .PatientID }}">{{ .PatientName }}</a></td>
					<td>{{ .ProfessionalName }}</td>
					<td>{{ .Questionnaire.Answered }}/{{ $.Questions }}</td>
					<td>{{ Excerpt .Notes }}</td>
					<td>{{ StatusBadge .Status }}</td>
				</tr>
			{{ else }}
				<tr><td colspan="6">No assessments found.</td></tr>
			{{ end }}
		</tbody>
	</table>`)

type assessmentsData struct {
	*context
	Filter      core.AssessmentFilter
	Assessments []*core.Assessment
}

func (data *assessmentsData) Statuses() []core.Status {
	return core.AllStatuses
}

func (data *assessmentsData) Questions() int {
	return core.IVCF20Questions + core.IVSF10Questions
}

func assessments(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var query = req.URL.Query()
	status, err := statusFilter(query)
	if err != nil {
		return err
	}
	var filter = core.AssessmentFilter{
		Status:    status,
		PatientID: query.Get("patient"),
	}

	list, err := ctx.db.ListAssessments(ctx.Context(), ctx.Identity, filter)
	if err != nil {
		return err
	}

	return assessmentsTmpl.Execute(w, &assessmentsData{
		context:     ctx,
		Filter:      filter,
		Assessments: list,
	})
}
