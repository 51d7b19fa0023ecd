package media_controller

import (
	"errors"

	"github.com/dustin/go-humanize"
	"github.com/phosio/phosio/archival"
	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/controllers/export_controller"
	"github.com/phosio/phosio/datastores"
)

type MediaDetail struct {
	Row          *baas.MediaRow
	SignedUrl    string
	SignedUrlTtl int
	SizeHuman    string
	FileCount    int
}

// Detail loads one media row together with a browser-facing URL for its
// primary file, when it has one.
func Detail(ctx rcontext.RequestContext, accessToken string, userId string, id string) (*MediaDetail, error) {
	if !export_controller.IsValidMediaId(id) {
		return nil, common.ErrInvalidId
	}

	row, err := baas.GetMedia(ctx, accessToken, id, baas.DetailColumns)
	if err != nil {
		return nil, err
	}

	detail := &MediaDetail{
		Row:          row,
		SignedUrlTtl: ctx.Config.Viewer.SignedUrlTtlSeconds,
		SizeHuman:    "-",
	}
	if row.SizeBytes != nil && *row.SizeBytes > 0 {
		detail.SizeHuman = humanize.IBytes(uint64(*row.SizeBytes))
	}

	rec := archival.Record{Id: row.Id, Metadata: row.Metadata}
	bucket := stringValue(row.StorageBucket)
	path := stringValue(row.StorageObjectPath)
	rec.StorageBucket = bucket
	rec.StorageObjectPath = path
	detail.FileCount = len(archival.NormalizeManifest(rec, ctx.Config.Storage.Bucket).Files)

	if bucket == "" || path == "" {
		return detail, nil
	}
	signed, err := datastores.ViewerUrl(ctx, accessToken, userId, archival.FileRef{Bucket: bucket, Path: path})
	if err != nil {
		if errors.Is(err, datastores.ErrForeignObject) {
			ctx.Log.Warn("Primary file is outside the user's storage prefix")
			return detail, nil
		}
		return nil, err
	}
	detail.SignedUrl = signed
	return detail, nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
