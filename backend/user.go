package backend

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/healthregistry/auth"
	"github.com/wansing/healthregistry/core"
)

var userTmpl = tmpl(`<h1>User &raquo;{{ .Selected.Name }}&laquo;</h1>

	<dl class="row">
		<dt class="col-sm-3">CPF</dt><dd class="col-sm-9">{{ FormatCPF .Selected.ID }}</dd>
		<dt class="col-sm-3">Role</dt><dd class="col-sm-9">{{ .Selected.Role.Label }}</dd>
		<dt class="col-sm-3">Municipality</dt><dd class="col-sm-9">{{ .Selected.Municipality }}</dd>
		<dt class="col-sm-3">Position</dt><dd class="col-sm-9">{{ .Selected.Position }}</dd>
		<dt class="col-sm-3">Registration</dt><dd class="col-sm-9">{{ .Selected.Registration }}</dd>
		<dt class="col-sm-3">Email</dt><dd class="col-sm-9">{{ .Selected.Email }}</dd>
		<dt class="col-sm-3">Created</dt><dd class="col-sm-9">{{ .FormatDateTime .Selected.CreatedAt }}</dd>
	</dl>

	{{ if not .IsSelf }}
		<form method="post" class="mb-3">
			{{ if .Selected.Active }}
				<button type="submit" class="btn btn-outline-danger" name="deactivate" value="1">Deactivate</button>
			{{ else }}
				<button type="submit" class="btn btn-outline-success" name="activate" value="1">Activate</button>
			{{ end }}
		</form>
	{{ end }}

	<h2>{{ if .IsSelf }}Change{{ else }}Set{{ end }} Password</h2>

	<form method="post">

		{{ if .IsSelf }}
			<div class="form-group row">
				<label class="col-sm-6 col-form-label">Current password</label>
				<div class="col-sm-6">
					<input type="password" class="form-control" name="old">
				</div>
			</div>
		{{ end }}

		<div class="form-group row">
			<label class="col-sm-6 col-form-label">New password</label>
			<div class="col-sm-6">
				<input type="password" class="form-control" name="new1" minlength="8">
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-6 col-form-label">Repeat new password</label>
			<div class="col-sm-6">
				<input type="password" class="form-control" name="new2" minlength="8">
			</div>
		</div>

		<button type="submit" class="btn btn-primary" name="password" value="1">Save password</button>

	</form>`)

var errPasswordMismatch = errors.New("new passwords don't match")

type userData struct {
	*context
	Selected *auth.Identity
}

func (data *userData) IsSelf() bool {
	return data.Selected.ID == data.Identity.ID
}

func user(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	selected, err := ctx.db.GetUser(ctx.Context(), ctx.Identity, params.ByName("cpf"))
	if err != nil {
		return err
	}

	var data = &userData{
		context:  ctx,
		Selected: selected,
	}

	if req.Method == http.MethodPost {

		switch {
		case req.PostFormValue("activate") != "":
			err = ctx.db.SetUserActive(ctx.Context(), ctx.Identity, selected.ID, true)
		case req.PostFormValue("deactivate") != "":
			err = ctx.db.SetUserActive(ctx.Context(), ctx.Identity, selected.ID, false)
		case req.PostFormValue("new1") != req.PostFormValue("new2"):
			ctx.Danger(errPasswordMismatch)
			err = core.ErrInvalidArgument // notified above
		case data.IsSelf():
			err = ctx.db.ChangePassword(ctx.Context(), ctx.Identity, req.PostFormValue("old"), req.PostFormValue("new1"))
		default:
			err = ctx.db.ResetPassword(ctx.Context(), ctx.Identity, selected.ID, req.PostFormValue("new1"))
		}

		switch {
		case err == nil:
			ctx.SeeOther("/user/%s", selected.ID)
			return nil
		case !isFormError(err):
			return err
		}
	}

	return userTmpl.Execute(w, data)
}
