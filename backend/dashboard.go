package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/healthregistry/core"
)

var dashboardTmpl = tmpl(`<h1>Dashboard</h1>

	<div class="row text-center">
		<div class="col-sm-3"><div class="card card-body"><h2>{{ .Statistics.Total }}</h2>Total</div></div>
		<div class="col-sm-3"><div class="card card-body"><h2><a href="assessments?status=pending">{{ .Statistics.Pending }}</a></h2>Pending</div></div>
		<div class="col-sm-3"><div class="card card-body"><h2><a href="assessments?status=approved">{{ .Statistics.Approved }}</a></h2>Approved</div></div>
		<div class="col-sm-3"><div class="card card-body"><h2><a href="assessments?status=rejected">{{ .Statistics.Rejected }}</a></h2>Rejected</div></div>
	</div>

	<h2 class="mt-4">Latest pending assessments</h2>

	{{ with .Pending }}
		<table class="table table-sm">
			<thead>
				<tr>
					<th>Submitted</th>
					<th>Patient</th>
					<th>Professional</th>
					<th></th>
				</tr>
			</thead>
			<tbody>
				{{ range . }}
					<tr>
						<td>{{ $.FormatDateTime .CreatedAt }}</td>
						<td>{{ .PatientName }}</td>
						<td>{{ .ProfessionalName }}</td>
						<td><a href="assessment/{{ .ID }}">{{ if $.CanReview }}Review{{ else }}View{{ end }}</a></td>
					</tr>
				{{ end }}
			</tbody>
		</table>
	{{ else }}
		<p>There are no pending assessments.</p>
	{{ end }}

	{{ if .CanExport }}
		<p><a class="btn btn-outline-secondary" href="export.csv">Export all assessments as CSV</a></p>
	{{ end }}`)

const dashboardPending = 10

type dashboardData struct {
	*context
	Statistics core.Statistics
	Pending    []*core.Assessment
}

func dashboard(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	stats, err := ctx.db.Statistics(ctx.Context(), ctx.Identity)
	if err != nil {
		return err
	}

	pending, err := ctx.db.ListAssessments(ctx.Context(), ctx.Identity, core.AssessmentFilter{Status: core.Pending})
	if err != nil {
		return err
	}
	if len(pending) > dashboardPending {
		pending = pending[:dashboardPending]
	}

	return dashboardTmpl.Execute(w, &dashboardData{
		context:    ctx,
		Statistics: stats,
		Pending:    pending,
	})
}
