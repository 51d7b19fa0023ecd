package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/phosio/phosio/api/_apimeta"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/templating"
	"github.com/rubyist/circuitbreaker"
)

func layout(title string, user _apimeta.UserInfo) templating.LayoutModel {
	return templating.LayoutModel{PageTitle: title, UserId: user.UserId}
}

func renderPage(rctx rcontext.RequestContext, name string, model interface{}, statusCode int) interface{} {
	page, err := templating.Render(name, model)
	if err != nil {
		rctx.Log.Error("Error rendering page: ", err)
		sentry.CaptureException(err)
		return _responses.InternalServerError("Unexpected Error")
	}
	return &_responses.HtmlResponse{HTML: page, StatusCode: statusCode}
}

func isUnavailable(err error) bool {
	return common.IsBackendError(err) || errors.Is(err, circuit.ErrBreakerOpen)
}

// errorFor maps a controller error to the response the visitor gets.
func errorFor(rctx rcontext.RequestContext, err error) interface{} {
	switch {
	case errors.Is(err, common.ErrInvalidId):
		return _responses.InvalidId()
	case errors.Is(err, common.ErrAuthInvalid):
		rctx.Log.Debug("Session rejected by the backend")
		return _responses.LoginRedirect(rctx.Config)
	case errors.Is(err, common.ErrMediaNotFound), errors.Is(err, common.ErrNoFiles):
		return _responses.NotFoundError()
	case errors.Is(err, context.Canceled):
		rctx.Log.Debug("Client went away: ", err)
		return &_responses.NoContentResponse{}
	case isUnavailable(err):
		rctx.Log.Error("Backend error: ", err)
		sentry.CaptureException(err)
		return _responses.BadGatewayError("The storage backend is unavailable")
	}
	rctx.Log.Error("Unexpected error: ", err)
	sentry.CaptureException(err)
	return _responses.InternalServerError("Unexpected Error")
}

func statusFor(err error) int {
	if isUnavailable(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
