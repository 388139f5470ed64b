package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/healthregistry/core"
)

var assessmentNewTmpl = tmpl(`<h1>New assessment</h1>

	<form method="get" class="form-inline mb-3">
		<input type="text" class="form-control mr-sm-2" name="cpf" value="{{ .CPF }}" inputmode="numeric" placeholder="CPF of the patient" required autofocus>
		<button type="submit" class="btn btn-outline-primary">Search patient</button>
	</form>

	{{ with .Patient }}

		<div class="card card-body bg-light mb-3">
			<strong>{{ .Name }}</strong>
			CPF {{ FormatCPF .CPF }}, born on {{ $.FormatDate .BirthDate }}
		</div>

		<form method="post">
			<input type="hidden" name="patient" value="{{ .ID }}">

			<div class="row">
				<div class="col-md-6">
					<h2>IVCF-20</h2>
					{{ range $i, $answer := $.Questionnaire.IVCF20 }}
						<div class="form-group row">
							<label class="col-sm-4 col-form-label">Question {{ Inc $i }}</label>
							<div class="col-sm-8">
								<input type="text" class="form-control" name="ivcf_{{ Inc $i }}" value="{{ $answer }}">
							</div>
						</div>
					{{ end }}
				</div>
				<div class="col-md-6">
					<h2>IVSF-10</h2>
					{{ range $i, $answer := $.Questionnaire.IVSF10 }}
						<div class="form-group row">
							<label class="col-sm-4 col-form-label">Question {{ Inc $i }}</label>
							<div class="col-sm-8">
								<input type="text" class="form-control" name="ivsf_{{ Inc $i }}" value="{{ $answer }}">
							</div>
						</div>
					{{ end }}
				</div>
			</div>

			<div class="form-group">
				<label>Notes</label>
				<textarea class="form-control" name="notes" rows="4">{{ $.Notes }}</textarea>
			</div>

			<button type="submit" class="btn btn-primary">Submit for review</button>
		</form>

	{{ else }}
		{{ if .CPF }}
			<p>No patient with this CPF has been registered in {{ .Identity.Municipality }}. <a href="patient-new">Register patient</a></p>
		{{ end }}
	{{ end }}`)

type assessmentNewData struct {
	*context
	CPF           string
	Patient       *core.Patient
	Questionnaire core.Questionnaire
	Notes         string
}

func parseQuestionnaire(req *http.Request) core.Questionnaire {
	var q core.Questionnaire
	for i := range q.IVCF20 {
		q.IVCF20[i] = strings.TrimSpace(req.PostFormValue(fmt.Sprintf("ivcf_%d", i+1)))
	}
	for i := range q.IVSF10 {
		q.IVSF10[i] = strings.TrimSpace(req.PostFormValue(fmt.Sprintf("ivsf_%d", i+1)))
	}
	return q
}

func assessmentNew(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var data = &assessmentNewData{
		context: ctx,
		CPF:     strings.TrimSpace(req.URL.Query().Get("cpf")),
	}

	if req.Method == http.MethodPost {
		data.Questionnaire = parseQuestionnaire(req)
		data.Notes = req.PostFormValue("notes")
		a, err := ctx.db.CreateAssessment(ctx.Context(), ctx.Identity, req.PostFormValue("patient"), data.Questionnaire, data.Notes)
		if err != nil {
			return err
		}
		ctx.SeeOther("/assessment/%s", a.ID)
		return nil
	}

	if data.CPF != "" {
		p, err := ctx.db.FindPatientByCPF(ctx.Context(), ctx.Identity, data.CPF)
		switch {
		case err == nil:
			data.Patient = p
		case errors.Is(err, core.ErrNotFound), isFormError(err):
			// template shows a hint, the notifier has reported err
		default:
			return err
		}
	}

	return assessmentNewTmpl.Execute(w, data)
}
