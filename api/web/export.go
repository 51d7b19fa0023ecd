package web

import (
	"net/http"

	"github.com/phosio/phosio/api/_apimeta"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/api/_routers"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/controllers/export_controller"
	"github.com/sirupsen/logrus"
)

// ExportMedia streams every file of one media item as a ZIP archive. Errors
// found before the first byte is written get a normal response, anything
// later aborts the connection.
func ExportMedia(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	id := _routers.GetParam("id", r)
	if !export_controller.IsValidMediaId(id) {
		return _responses.InvalidId()
	}
	if !user.IsAuthenticated() {
		return _responses.LoginRedirect(rctx.Config)
	}
	rctx = rctx.LogWithFields(logrus.Fields{"mediaId": id})

	manifest, err := export_controller.ResolveManifest(rctx, user.AccessToken, id)
	if err == nil && rctx.Err() != nil {
		err = rctx.Err()
	}
	if err != nil {
		if rctx.Err() != nil {
			export_controller.RecordAbortedBeforeStreaming()
			rctx.Log.Debug("Client left before the export started")
			return &_responses.NoContentResponse{}
		}
		return errorFor(rctx, err)
	}

	session, err := export_controller.StartExport(rctx, user.AccessToken, user.UserId, manifest)
	if err != nil {
		return errorFor(rctx, err)
	}

	return &_responses.DoNotCacheResponse{
		Payload: &_responses.StreamResponse{
			Stream: func(w http.ResponseWriter) error {
				return export_controller.Stream(rctx, session, w)
			},
		},
	}
}
