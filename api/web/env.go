package web

import (
	"encoding/json"
	"net/http"

	"github.com/phosio/phosio/api/_apimeta"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/common/rcontext"
)

type browserEnv struct {
	SupabaseUrl     string `json:"SUPABASE_URL"`
	SupabaseAnonKey string `json:"SUPABASE_ANON_KEY"`
}

// ClientEnv publishes the browser-safe backend settings.
func ClientEnv(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	b, err := json.Marshal(&browserEnv{
		SupabaseUrl:     rctx.Config.PublicBackendUrl(),
		SupabaseAnonKey: rctx.Config.Backend.AnonKey,
	})
	if err != nil {
		return errorFor(rctx, err)
	}
	return &_responses.DoNotCacheResponse{
		Payload: &_responses.TextResponse{
			Body:        "window.__ENV = " + string(b) + ";",
			ContentType: "application/javascript; charset=UTF-8",
		},
	}
}
