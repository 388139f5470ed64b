package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/healthregistry/core"
)

var assessmentTmpl = tmpl(`<h1>Assessment of <a href="patient/{{ .Assessment.PatientID }}">{{ .Assessment.PatientName }}</a> {{ StatusBadge .Assessment.Status }}</h1>

	<p>
		CPF {{ FormatCPF .Assessment.PatientCPF }}.
		Submitted by {{ .Assessment.ProfessionalName }} on {{ .FormatDateTime .Assessment.CreatedAt }}.
	</p>

	{{ with .Assessment.Approval }}
		<div class="alert alert-success">
			Approved by {{ .ByName }} on {{ $.FormatDateTime .At }}.
			{{ with .Note }}<div class="mt-2">{{ Markdown . }}</div>{{ end }}
		</div>
	{{ end }}

	{{ with .Assessment.Rejection }}
		<div class="alert alert-danger">
			Rejected by {{ .ByName }} on {{ $.FormatDateTime .At }}.
			<div class="mt-2">{{ Markdown .Note }}</div>
		</div>
	{{ end }}

	{{ with .Assessment.Notes }}
		<h2>Notes</h2>
		<div class="card card-body bg-light mb-3">{{ Markdown . }}</div>
	{{ end }}

	<div class="row">
		<div class="col-md-6">
			<h2>IVCF-20</h2>
			<table class="table table-sm">
				{{ range $i, $answer := .Assessment.Questionnaire.IVCF20 }}
					<tr><th>{{ Inc $i }}</th><td>{{ $answer }}</td></tr>
				{{ end }}
			</table>
		</div>
		<div class="col-md-6">
			<h2>IVSF-10</h2>
			<table class="table table-sm">
				{{ range $i, $answer := .Assessment.Questionnaire.IVSF10 }}
					<tr><th>{{ Inc $i }}</th><td>{{ $answer }}</td></tr>
				{{ end }}
			</table>
		</div>
	</div>

	{{ if and .CanReview (eq .Assessment.Status "pending") }}

		<h2>Review</h2>

		<div class="row">
			<div class="col-md-6">
				<form method="post" action="assessment/{{ .Assessment.ID }}/approve">
					<div class="form-group">
						<label>Observations (optional)</label>
						<textarea class="form-control" name="observations" rows="3"></textarea>
					</div>
					<button type="submit" class="btn btn-success">Approve</button>
				</form>
			</div>
			<div class="col-md-6">
				<form method="post" action="assessment/{{ .Assessment.ID }}/reject">
					<div class="form-group">
						<label>Reason</label>
						<textarea class="form-control" name="reason" rows="3" required></textarea>
					</div>
					<button type="submit" class="btn btn-danger">Reject</button>
				</form>
			</div>
		</div>

	{{ end }}`)

type assessmentData struct {
	*context
	Assessment *core.Assessment
}

func assessment(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	a, err := ctx.db.GetAssessment(ctx.Context(), ctx.Identity, params.ByName("id"))
	if err != nil {
		return err
	}

	return assessmentTmpl.Execute(w, &assessmentData{
		context:    ctx,
		Assessment: a,
	})
}

func approve(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	a, err := ctx.db.Approve(ctx.Context(), ctx.Identity, params.ByName("id"), req.PostFormValue("observations"))
	if err != nil {
		return err
	}
	ctx.SeeOther("/assessment/%s", a.ID)
	return nil
}

func reject(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	a, err := ctx.db.Reject(ctx.Context(), ctx.Identity, params.ByName("id"), req.PostFormValue("reason"))
	if err != nil {
		return err
	}
	ctx.SeeOther("/assessment/%s", a.ID)
	return nil
}
