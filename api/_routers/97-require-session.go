package _routers

import (
	"net/http"

	"github.com/phosio/phosio/api/_apimeta"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/session"
	"github.com/sirupsen/logrus"
)

type GeneratorWithUserFn = func(r *http.Request, ctx rcontext.RequestContext, user _apimeta.UserInfo) interface{}

// RequireSession only runs the generator for visitors carrying a session
// with an access token. Everyone else is sent to the login page.
func RequireSession(generator GeneratorWithUserFn) GeneratorFn {
	return func(r *http.Request, ctx rcontext.RequestContext) interface{} {
		data := session.FromRequest(ctx.Config, r)
		if !data.HasAccessToken() {
			ctx.Log.Debug("No session on request, redirecting to login")
			return _responses.LoginRedirect(ctx.Config)
		}
		ctx = ctx.LogWithFields(logrus.Fields{"authUserId": data.UserId})
		return generator(r, ctx, _apimeta.UserInfoFromSession(data))
	}
}

// OptionalSession passes an empty UserInfo when there is no usable session.
func OptionalSession(generator GeneratorWithUserFn) GeneratorFn {
	return func(r *http.Request, ctx rcontext.RequestContext) interface{} {
		user := _apimeta.UserInfoFromSession(session.FromRequest(ctx.Config, r))
		if user.IsAuthenticated() {
			ctx = ctx.LogWithFields(logrus.Fields{"authUserId": user.UserId})
		}
		return generator(r, ctx, user)
	}
}
