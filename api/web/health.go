package web

import (
	"net/http"

	"github.com/phosio/phosio/api/_apimeta"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/common/rcontext"
)

type HealthzResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

func GetHealthz(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	return &_responses.DoNotCacheResponse{
		Payload: &HealthzResponse{
			OK:     true,
			Status: "Probably not dead",
		},
	}
}
