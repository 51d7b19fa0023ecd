package web

import (
	"errors"
	"net/http"

	"github.com/phosio/phosio/api/_apimeta"
	"github.com/phosio/phosio/api/_auth_cache"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/controllers/auth_controller"
	"github.com/phosio/phosio/session"
	"github.com/phosio/phosio/templating"
	"github.com/phosio/phosio/util"
)

func LoginForm(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	if user.IsAuthenticated() {
		return _responses.Redirect("/app")
	}
	return renderPage(rctx, "login", &templating.LoginModel{LayoutModel: layout("Sign in", user)}, http.StatusOK)
}

func Login(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	if err := r.ParseForm(); err != nil {
		return _responses.BadRequest("Unreadable form")
	}
	model := &templating.LoginModel{
		LayoutModel: layout("Sign in", user),
		Email:       r.PostForm.Get("email"),
	}

	data, err := auth_controller.Login(rctx, model.Email, r.PostForm.Get("password"))
	if err != nil {
		var formErr *auth_controller.FormError
		if errors.As(err, &formErr) {
			model.Message = formErr.Message
			return renderPage(rctx, "login", model, formErr.StatusCode)
		}
		rctx.Log.Error("Error signing in: ", err)
		model.Message = "Sign in is unavailable right now. Try again later."
		return renderPage(rctx, "login", model, statusFor(err))
	}

	cookie, err := session.Cookie(rctx.Config, *data)
	if err != nil {
		return errorFor(rctx, err)
	}
	return _responses.WithCookies(_responses.Redirect("/app"), cookie)
}

func SignupForm(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	if user.IsAuthenticated() {
		return _responses.Redirect("/app")
	}
	return renderPage(rctx, "signup", &templating.SignupModel{LayoutModel: layout("Create account", user)}, http.StatusOK)
}

func Signup(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	if err := r.ParseForm(); err != nil {
		return _responses.BadRequest("Unreadable form")
	}
	req := &auth_controller.SignupRequest{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
		Username: r.PostForm.Get("username"),
	}

	origin := rctx.Config.General.Origin
	if origin == "" {
		origin = util.RequestOrigin(r)
	}

	if err := auth_controller.Signup(rctx, origin, req); err != nil {
		model := &templating.SignupModel{
			LayoutModel: layout("Create account", user),
			Email:       req.Email,
			Username:    req.Username,
		}
		var formErr *auth_controller.FormError
		if errors.As(err, &formErr) {
			model.Message = formErr.Message
			model.FieldErrors = formErr.FieldErrors
			return renderPage(rctx, "signup", model, formErr.StatusCode)
		}
		rctx.Log.Error("Error creating account: ", err)
		model.Message = "Sign up is unavailable right now. Try again later."
		return renderPage(rctx, "signup", model, statusFor(err))
	}
	return _responses.Redirect("/verify-email?status=sent")
}

func VerifyEmail(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	return renderPage(rctx, "verify_email", &templating.VerifyEmailModel{
		LayoutModel: layout("Check your e-mail", user),
		Sent:        r.URL.Query().Get("status") == "sent",
	}, http.StatusOK)
}

func Logout(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	if user.IsAuthenticated() {
		auth_controller.Logout(rctx, &session.Data{AccessToken: user.AccessToken})
		_auth_cache.ForgetToken(user.AccessToken)
	}
	return &_responses.DoNotCacheResponse{
		Payload: _responses.WithCookies(_responses.Redirect("/"), session.DestroyCookie(rctx.Config)),
	}
}
