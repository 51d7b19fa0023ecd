package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/phosio/phosio/api/_apimeta"
	"github.com/phosio/phosio/api/_auth_cache"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/controllers/media_controller"
	"github.com/phosio/phosio/session"
	"github.com/phosio/phosio/templating"
)

// verifyUser checks the session with the identity provider, trading the
// refresh token for a new pair once when the access token was rejected.
// The returned cookie is non-nil when the session was renewed.
func verifyUser(rctx rcontext.RequestContext, user _apimeta.UserInfo) (*baas.User, _apimeta.UserInfo, *http.Cookie, error) {
	verified, err := _auth_cache.GetUser(rctx, user.AccessToken)
	if err == nil {
		return verified, user, nil, nil
	}
	if !errors.Is(err, common.ErrAuthInvalid) || user.RefreshToken == "" {
		return nil, user, nil, err
	}

	rctx.Log.Debug("Access token rejected, refreshing session")
	renewed, err := baas.RefreshSession(rctx, user.RefreshToken)
	if err != nil {
		return nil, user, nil, err
	}
	user = _apimeta.UserInfo{
		UserId:       renewed.User.Id,
		AccessToken:  renewed.AccessToken,
		RefreshToken: renewed.RefreshToken,
	}
	cookie, err := session.Cookie(rctx.Config, session.Data{
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
		UserId:       user.UserId,
	})
	if err != nil {
		return nil, user, nil, err
	}
	verified, err = _auth_cache.GetUser(rctx, user.AccessToken)
	if err != nil {
		return nil, user, nil, err
	}
	return verified, user, cookie, nil
}

func catalogUrl(q media_controller.MediaQuery, page int) string {
	values := url.Values{}
	if q.Q != nil {
		values.Set("q", *q.Q)
	}
	if len(q.Tags) > 0 {
		values.Set("tags", strings.Join(q.Tags, ","))
	}
	values.Set("page", strconv.Itoa(page))
	values.Set("pageSize", strconv.Itoa(q.PageSize))
	return "/app?" + values.Encode()
}

func Catalog(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	verified, user, renewed, err := verifyUser(rctx, user)
	if err != nil {
		return errorFor(rctx, err)
	}

	query := media_controller.ParseMediaQuery(r.URL.Query())
	res, err := media_controller.List(rctx, user.AccessToken, query)
	if err != nil {
		return errorFor(rctx, err)
	}

	model := &templating.CatalogModel{
		LayoutModel: layout("Library", user),
		UserEmail:   verified.Email,
		TagsCsv:     strings.Join(query.Tags, ","),
		Page:        query.Page,
		PageSize:    query.PageSize,
		PageCount:   res.PageCount,
		Total:       res.Total,
		HasPrev:     res.HasPrev,
		HasNext:     res.HasNext,
		Items:       make([]*templating.CatalogItemModel, 0, len(res.Items)),
	}
	if query.Q != nil {
		model.Q = *query.Q
	}
	if res.HasPrev {
		model.PrevUrl = catalogUrl(query, query.Page-1)
	}
	if res.HasNext {
		model.NextUrl = catalogUrl(query, query.Page+1)
	}

	from := url.QueryEscape(r.URL.RequestURI())
	for _, row := range res.Items {
		item := &templating.CatalogItemModel{
			Id:        row.Id,
			Title:     "(untitled)",
			MediaType: row.MediaType,
			CreatedAt: row.CreatedAt,
			Tags:      row.TagList(),
			DetailUrl: "/app/media/" + url.PathEscape(row.Id) + "?from=" + from,
		}
		if row.Title != nil && *row.Title != "" {
			item.Title = *row.Title
		}
		if row.ThumbnailUrl != nil {
			item.ThumbnailUrl = *row.ThumbnailUrl
		}
		model.Items = append(model.Items, item)
	}

	page := renderPage(rctx, "catalog", model, http.StatusOK)
	if renewed != nil {
		return _responses.WithCookies(page, renewed)
	}
	return page
}
