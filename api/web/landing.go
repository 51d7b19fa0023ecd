package web

import (
	"net/http"

	"github.com/phosio/phosio/api/_apimeta"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/templating"
)

func Landing(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	if user.IsAuthenticated() {
		return _responses.Redirect("/app")
	}
	return renderPage(rctx, "landing", &templating.LandingModel{LayoutModel: layout("Phosio", user)}, http.StatusOK)
}
