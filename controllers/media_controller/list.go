package media_controller

import (
	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common/rcontext"
)

type MediaQueryResult struct {
	Items     []*baas.MediaRow
	Total     int64
	PageCount int
	HasNext   bool
	HasPrev   bool
	Applied   MediaQuery
}

// List runs the catalog query. Thumbnail URLs are rewritten so browsers can
// reach them.
func List(ctx rcontext.RequestContext, accessToken string, query MediaQuery) (*MediaQueryResult, error) {
	from, to := ToRange(query.Page, query.PageSize)
	opts := baas.ListMediaOptions{
		Tags: query.Tags,
		From: from,
		To:   to,
	}
	if query.Q != nil {
		opts.TitleContains = *query.Q
	}

	listed, err := baas.ListMedia(ctx, accessToken, opts)
	if err != nil {
		return nil, err
	}

	res := &MediaQueryResult{
		Items:   listed.Rows,
		Total:   listed.Total,
		HasPrev: query.Page > 1,
		Applied: query,
	}
	if listed.OutOfRange {
		ctx.Log.Debug("Requested page is past the end of the catalog")
		res.Total = 0
		return res, nil
	}

	if res.Total > 0 {
		res.PageCount = int((res.Total + int64(query.PageSize) - 1) / int64(query.PageSize))
	}
	res.HasNext = int64(query.Page)*int64(query.PageSize) < res.Total

	publicBase := ctx.Config.PublicBackendUrl()
	for _, item := range res.Items {
		if item.ThumbnailUrl == nil {
			continue
		}
		normalized := baas.NormalizeBrowserUrl(publicBase, *item.ThumbnailUrl)
		if normalized == "" {
			item.ThumbnailUrl = nil
		} else {
			item.ThumbnailUrl = &normalized
		}
	}
	return res, nil
}
