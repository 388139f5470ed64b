package backend

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/healthregistry/core"
	"github.com/wansing/healthregistry/util"
)

// patientForm is shared by patientNewTmpl and patientTmpl.
const patientForm = `
	<form method="post">

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Name</label>
			<div class="col-sm-9">
				<input type="text" class="form-control" name="name" value="{{ .Input.Name }}" required>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">CPF</label>
			<div class="col-sm-9">
				<input type="text" class="form-control" name="cpf" value="{{ FormatCPF .Input.CPF }}" inputmode="numeric" {{ if .Patient }}readonly{{ else }}required{{ end }}>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Birth date</label>
			<div class="col-sm-9">
				<input type="date" class="form-control" name="birth_date" value="{{ .BirthDate }}" required>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Sex</label>
			<div class="col-sm-9">
				<select class="form-control" name="sex">
					<option value=""></option>
					<option value="F" {{ if eq .Input.Sex "F" }}selected{{ end }}>F</option>
					<option value="M" {{ if eq .Input.Sex "M" }}selected{{ end }}>M</option>
				</select>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Phone</label>
			<div class="col-sm-9">
				<input type="tel" class="form-control" name="phone" value="{{ FormatPhone .Input.Phone }}" required>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Email</label>
			<div class="col-sm-9">
				<input type="email" class="form-control" name="email" value="{{ .Input.Email }}">
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">CEP</label>
			<div class="col-sm-9">
				<input type="text" class="form-control" id="cep" name="cep" value="{{ FormatCEP .Input.Address.CEP }}" inputmode="numeric" required>
				<small class="form-text text-muted">Street, district, city and state are filled in automatically.</small>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Street</label>
			<div class="col-sm-6">
				<input type="text" class="form-control" id="street" name="street" value="{{ .Input.Address.Street }}" required>
			</div>
			<div class="col-sm-3">
				<input type="text" class="form-control" name="number" value="{{ .Input.Address.Number }}" placeholder="Number" required>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Complement</label>
			<div class="col-sm-9">
				<input type="text" class="form-control" id="complement" name="complement" value="{{ .Input.Address.Complement }}">
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">District</label>
			<div class="col-sm-9">
				<input type="text" class="form-control" id="district" name="district" value="{{ .Input.Address.District }}" required>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">City / State</label>
			<div class="col-sm-7">
				<input type="text" class="form-control" id="city" name="city" value="{{ .Input.Address.City }}" required>
			</div>
			<div class="col-sm-2">
				<input type="text" class="form-control" id="state" name="state" value="{{ .Input.Address.State }}" maxlength="2" required>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Notes</label>
			<div class="col-sm-9">
				<textarea class="form-control" name="notes" rows="3">{{ .Input.Notes }}</textarea>
			</div>
		</div>

		<button type="submit" class="btn btn-primary">Save</button>

	</form>

	<script>
		document.getElementById("cep").addEventListener("change", function() {
			var cep = this.value.replace(/\D/g, "");
			if(cep.length != 8) {
				return;
			}
			fetch("cep/" + cep).then(function(response) {
				return response.ok ? response.json() : null;
			}).then(function(address) {
				if(!address) {
					return;
				}
				document.getElementById("street").value = address.street;
				document.getElementById("complement").value = address.complement;
				document.getElementById("district").value = address.district;
				document.getElementById("city").value = address.city;
				document.getElementById("state").value = address.state;
			});
		});
	</script>`

var patientNewTmpl = tmpl(`<h1>Register patient</h1>` + patientForm)

var patientTmpl = tmpl(`<h1>Patient &raquo;{{ .Patient.Name }}&laquo;</h1>

	<p>
		{{ .Age }} years old, registered by {{ FormatCPF .Patient.CreatedBy }} on {{ .FormatDateTime .Patient.CreatedAt }}.
		<a class="btn btn-sm btn-primary ml-2" href="assessment-new?cpf={{ .Patient.CPF }}">New assessment</a>
	</p>

	{{ with .Patient.Notes }}
		<div class="card card-body bg-light mb-3">{{ Markdown . }}</div>
	{{ end }}

	<h2>Assessments</h2>

	<table class="table table-sm">
		<tbody>
			{{ range .Assessments }}
				<tr>
					<td><a href="assessment/{{ .ID }}">{{ $.FormatDateTime .CreatedAt }}</a></td>
					<td>{{ .ProfessionalName }}</td>
					<td>{{ StatusBadge .Status }}</td>
				</tr>
			{{ else }}
				<tr><td>No assessments yet.</td></tr>
			{{ end }}
		</tbody>
	</table>

	<h2>Edit</h2>` + patientForm)

type patientData struct {
	*context
	Input       core.PatientInput
	Patient     *core.Patient      // nil if new
	Assessments []*core.Assessment // of Patient
}

func (data *patientData) BirthDate() string {
	if data.Input.BirthDate.IsZero() {
		return ""
	}
	return data.Input.BirthDate.Format(util.DateLayout)
}

func (data *patientData) Age() int {
	return data.Patient.Age(time.Now())
}

// parsePatientInput reads the patient form. An unparsable birth date is left zero, so the validation catches it.
func parsePatientInput(req *http.Request) core.PatientInput {
	birthDate, _ := util.ParseDate(req.PostFormValue("birth_date"))
	return core.PatientInput{
		Name:      req.PostFormValue("name"),
		CPF:       req.PostFormValue("cpf"),
		BirthDate: birthDate,
		Sex:       req.PostFormValue("sex"),
		Phone:     req.PostFormValue("phone"),
		Email:     req.PostFormValue("email"),
		Address: core.Address{
			CEP:        req.PostFormValue("cep"),
			Street:     req.PostFormValue("street"),
			Number:     req.PostFormValue("number"),
			Complement: req.PostFormValue("complement"),
			District:   req.PostFormValue("district"),
			City:       req.PostFormValue("city"),
			State:      req.PostFormValue("state"),
		},
		Notes: req.PostFormValue("notes"),
	}
}

func patientNew(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var data = &patientData{
		context: ctx,
	}

	if req.Method == http.MethodPost {
		data.Input = parsePatientInput(req)
		p, _, err := ctx.db.CreatePatient(ctx.Context(), ctx.Identity, data.Input)
		switch {
		case err == nil:
			ctx.SeeOther("/patient/%s", p.ID)
			return nil
		case !isFormError(err):
			return err
		}
		// show form again, the notifier has reported err
	}

	return patientNewTmpl.Execute(w, data)
}

func patient(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	p, err := ctx.db.GetPatient(ctx.Context(), ctx.Identity, params.ByName("id"))
	if err != nil {
		return err
	}

	var data = &patientData{
		context: ctx,
		Patient: p,
		Input: core.PatientInput{
			Name:      p.Name,
			CPF:       p.CPF,
			BirthDate: p.BirthDate,
			Sex:       p.Sex,
			Phone:     p.Phone,
			Email:     p.Email,
			Address:   p.Address,
			Notes:     p.Notes,
		},
	}

	if req.Method == http.MethodPost {
		data.Input = parsePatientInput(req)
		_, _, err := ctx.db.UpdatePatient(ctx.Context(), ctx.Identity, p.ID, data.Input)
		switch {
		case err == nil:
			ctx.SeeOther("/patient/%s", p.ID)
			return nil
		case !isFormError(err):
			return err
		}
	}

	data.Assessments, err = ctx.db.ListAssessments(ctx.Context(), ctx.Identity, core.AssessmentFilter{PatientID: p.ID})
	if err != nil {
		return err
	}

	return patientTmpl.Execute(w, data)
}
