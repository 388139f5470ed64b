package backend

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

var ErrLogin = errors.New("wrong CPF or password")

var loginTmpl = tmpl(`<h1>Login</h1>
	<form method="post" style="max-width: 20rem; margin: auto;">
		<div class="form-group">
			<label>CPF</label>
			<input type="text" class="form-control" name="cpf" value="{{ .CPF }}" inputmode="numeric" placeholder="000.000.000-00" required autofocus>
		</div>
		<div class="form-group">
			<label>Password</label>
			<input type="password" class="form-control" name="password" required>
		</div>
		<div class="form-group">
			<button type="submit" class="btn btn-primary" name="login">Login</button>
		</div>
	</form>`)

type loginData struct {
	*context
	CPF string
}

func login(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if ctx.LoggedIn() {
		ctx.SeeOther("/dashboard")
		return nil
	}

	var cpf string

	if req.Method == http.MethodPost {

		cpf = req.PostFormValue("cpf")
		password := req.PostFormValue("password")

		err := ctx.Login(cpf, password)
		if err == nil {
			ctx.SeeOther("/dashboard")
			return nil
		} else {
			ctx.Danger(ErrLogin)
			// keep POST data for cpf field
		}
	}

	return loginTmpl.Execute(w, &loginData{
		context: ctx,
		CPF:     cpf,
	})
}
