package backend

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/healthregistry/auth"
)

var usersTmpl = tmpl(`<h1>Users</h1>

	<table class="table table-sm">
		<thead>
			<tr>
				<th>Name</th>
				<th>CPF</th>
				<th>Role</th>
				<th>Municipality</th>
				<th>Position</th>
				<th></th>
			</tr>
		</thead>
		<tbody>
			{{ range .Users }}
				<tr{{ if not .Active }} class="text-muted"{{ end }}>
					<td><a href="user/{{ .ID }}">{{ .Name }}</a></td>
					<td>{{ FormatCPF .ID }}</td>
					<td>{{ .Role.Label }}</td>
					<td>{{ .Municipality }}</td>
					<td>{{ .Position }}</td>
					<td>{{ if not .Active }}inactive{{ end }}</td>
				</tr>
			{{ end }}
		</tbody>
	</table>

	<h2>Create User</h2>

	<form method="post">

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">CPF</label>
			<div class="col-sm-9">
				<input type="text" class="form-control" name="cpf" value="{{ .Input.ID }}" inputmode="numeric" required>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Name</label>
			<div class="col-sm-9">
				<input type="text" class="form-control" name="name" value="{{ .Input.Name }}" required>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Role</label>
			<div class="col-sm-9">
				<select class="form-control" name="role">
					{{ range .Roles }}
						<option value="{{ . }}" {{ if eq . $.Input.Role }}selected{{ end }}>{{ .Label }}</option>
					{{ end }}
				</select>
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Municipality</label>
			<div class="col-sm-9">
				{{ if .Municipalities }}
					<select class="form-control" name="municipality">
						{{ range .Municipalities }}
							<option {{ if eq . $.Input.Municipality }}selected{{ end }}>{{ . }}</option>
						{{ end }}
					</select>
				{{ else }}
					<input type="text" class="form-control" name="municipality" value="{{ .Input.Municipality }}" required>
				{{ end }}
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Position</label>
			<div class="col-sm-9">
				<input type="text" class="form-control" name="position" value="{{ .Input.Position }}">
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Professional registration</label>
			<div class="col-sm-9">
				<input type="text" class="form-control" name="registration" value="{{ .Input.Registration }}">
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Email</label>
			<div class="col-sm-9">
				<input type="email" class="form-control" name="email" value="{{ .Input.Email }}">
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Initial password</label>
			<div class="col-sm-9">
				<input type="password" class="form-control" name="password" minlength="8" required>
			</div>
		</div>

		<button type="submit" class="btn btn-primary">Create user</button>
	</form>`)

type usersData struct {
	*context
	Input auth.Identity
	Users []*auth.Identity
}

// Roles returns the roles which the current identity may assign.
func (data *usersData) Roles() []auth.Role {
	if data.Identity.Role == auth.Admin {
		return auth.AllRoles
	}
	return []auth.Role{auth.Agent, auth.Coordinator, auth.Manager}
}

// Municipalities returns the municipalities which the current identity may assign, or nil if any name is accepted.
func (data *usersData) Municipalities() []string {
	if data.Identity.Role != auth.Admin {
		return []string{data.Identity.Municipality}
	}
	return data.db.Municipalities.Names()
}

func users(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var data = &usersData{
		context: ctx,
		Input: auth.Identity{
			Role:         auth.Agent,
			Municipality: ctx.Identity.Municipality,
		},
	}

	if req.Method == http.MethodPost {

		role, _ := auth.ParseRole(req.PostFormValue("role")) // AuthDB rejects invalid roles

		data.Input = auth.Identity{
			ID:           strings.TrimSpace(req.PostFormValue("cpf")),
			Name:         strings.TrimSpace(req.PostFormValue("name")),
			Municipality: strings.TrimSpace(req.PostFormValue("municipality")),
			Role:         role,
			Position:     strings.TrimSpace(req.PostFormValue("position")),
			Registration: strings.TrimSpace(req.PostFormValue("registration")),
			Email:        strings.TrimSpace(req.PostFormValue("email")),
		}

		var newUser = data.Input // CreateUser modifies it
		err := ctx.db.CreateUser(ctx.Context(), ctx.Identity, &newUser, req.PostFormValue("password"))
		switch {
		case err == nil:
			ctx.SeeOther("/users")
			return nil
		case !isFormError(err):
			return err
		}
	}

	var err error
	data.Users, err = ctx.db.ListUsers(ctx.Context(), ctx.Identity, 100000, 0) // assuming there are not more than 100k users
	if err != nil {
		return err
	}

	return usersTmpl.Execute(w, data)
}
