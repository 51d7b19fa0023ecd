package export_controller

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/phosio/phosio/archival"
	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/datastores"
	"github.com/phosio/phosio/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var mediaIdRegex = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func IsValidMediaId(id string) bool {
	return mediaIdRegex.MatchString(id)
}

// ResolveManifest loads the media row visible to accessToken and turns it
// into the list of files to archive.
func ResolveManifest(ctx rcontext.RequestContext, accessToken string, id string) (*archival.Manifest, error) {
	if !IsValidMediaId(id) {
		return nil, common.ErrInvalidId
	}

	row, err := baas.GetMedia(ctx, accessToken, id, baas.ManifestColumns)
	if err != nil {
		return nil, err
	}

	manifest := archival.NormalizeManifest(recordFromRow(row), ctx.Config.Storage.Bucket)
	if len(manifest.Files) == 0 {
		return nil, common.ErrNoFiles
	}
	ctx.Log.Debugf("Resolved %d file(s) for export", len(manifest.Files))
	return manifest, nil
}

func recordFromRow(row *baas.MediaRow) archival.Record {
	rec := archival.Record{
		Id:       row.Id,
		Metadata: row.Metadata,
	}
	if row.Title != nil {
		rec.Title = *row.Title
	}
	if row.StorageBucket != nil {
		rec.StorageBucket = *row.StorageBucket
	}
	if row.StorageObjectPath != nil {
		rec.StorageObjectPath = *row.StorageObjectPath
	}
	if row.OriginalFilename != nil {
		rec.OriginalFilename = *row.OriginalFilename
	}
	if row.MimeType != nil {
		rec.MimeType = *row.MimeType
	}
	if row.SizeBytes != nil {
		rec.SizeBytes = *row.SizeBytes
	}
	return rec
}

// StartExport prepares an export session. Nothing is sent until Stream.
func StartExport(ctx rcontext.RequestContext, accessToken string, userId string, manifest *archival.Manifest) (*archival.Session, error) {
	signer := datastores.NewExportSigner(ctx, accessToken, userId)
	return archival.NewSession(ctx, manifest, signer, datastores.HttpFetcher{}, archival.Options{
		SignedUrlTtl:     time.Duration(ctx.Config.Export.SignedUrlTtlSeconds) * time.Second,
		CompressionLevel: ctx.Config.Export.CompressionLevel,
	})
}

// Stream sends the archive. A non-nil error means the response is committed
// but incomplete.
func Stream(ctx rcontext.RequestContext, session *archival.Session, w http.ResponseWriter) error {
	ctx = ctx.LogWithFields(logrus.Fields{"exportId": session.Id})
	err := session.WriteTo(w)

	metrics.Exports.With(prometheus.Labels{"state": session.State().String()}).Inc()
	metrics.ExportEntries.Add(float64(session.Entries()))
	metrics.ExportBytes.Add(float64(session.BytesWritten()))

	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrClientAbort) {
		ctx.Log.Debug("Client went away during export")
		return err
	}

	var failure *common.StreamFailure
	if errors.As(err, &failure) {
		ctx.Log.WithField("entry", failure.Entry).Error("Export failed mid-stream: ", failure.Err)
	} else {
		ctx.Log.Error("Export failed mid-stream: ", err)
	}
	sentry.CaptureException(err)
	return err
}

// RecordAbortedBeforeStreaming counts an export whose client left while the
// manifest was still being resolved.
func RecordAbortedBeforeStreaming() {
	metrics.Exports.With(prometheus.Labels{"state": archival.StateAborted.String()}).Inc()
}
