package web

import (
	"net/http"
	"strings"

	"github.com/phosio/phosio/api/_apimeta"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/api/_routers"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/controllers/export_controller"
	"github.com/phosio/phosio/controllers/media_controller"
	"github.com/phosio/phosio/templating"
	"github.com/phosio/phosio/util"
	"github.com/sirupsen/logrus"
)

func MediaDetail(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	id := _routers.GetParam("id", r)
	if !export_controller.IsValidMediaId(id) {
		return _responses.InvalidId()
	}
	if !user.IsAuthenticated() {
		return _responses.LoginRedirect(rctx.Config)
	}
	rctx = rctx.LogWithFields(logrus.Fields{"mediaId": id})

	detail, err := media_controller.Detail(rctx, user.AccessToken, user.UserId, id)
	if err != nil {
		return errorFor(rctx, err)
	}

	row := detail.Row
	model := &templating.DetailModel{
		Id:               row.Id,
		Title:            "(untitled)",
		Description:      deref(row.Description),
		MediaType:        row.MediaType,
		CreatedAt:        row.CreatedAt,
		Tags:             strings.Join(row.TagList(), ", "),
		MimeType:         deref(row.MimeType),
		OriginalFilename: deref(row.OriginalFilename),
		SizeHuman:        detail.SizeHuman,
		SignedUrl:        detail.SignedUrl,
		SignedUrlTtl:     detail.SignedUrlTtl,
		BackUrl:          util.SafeRedirectTarget(r.URL.Query().Get("from"), "/app", "/app"),
		ZipUrl:           "/app/media/" + row.Id + "/zip",
		FileCount:        detail.FileCount,
	}
	if t := deref(row.Title); t != "" {
		model.Title = t
	}
	model.LayoutModel = layout(model.Title, user)

	// signed URLs expire, so the page must not be reused
	return &_responses.DoNotCacheResponse{Payload: renderPage(rctx, "detail", model, http.StatusOK)}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
