package datastores

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/phosio/phosio/archival"
	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	SignerBaas = "baas"
	SignerS3   = "s3"
)

const (
	PurposeExport = "export"
	PurposeViewer = "viewer"
)

// ErrForeignObject is returned by the s3 signer for paths outside the
// requesting user's prefix. The baas signer leaves that check to the
// storage service's own policies.
var ErrForeignObject = errors.New("object does not belong to the user")

type baasSigner struct {
	accessToken string
	base        string
	purpose     string
}

func (s *baasSigner) Sign(ctx rcontext.RequestContext, file archival.FileRef, ttl time.Duration) (*archival.SignedTarget, error) {
	expiresAt := time.Now().Add(ttl)
	signed, err := baas.CreateSignedUrl(ctx, s.accessToken, file.Bucket, file.Path, ttl)
	if err != nil {
		return nil, err
	}
	metrics.SignedUrls.With(prometheus.Labels{"purpose": s.purpose, "signer": SignerBaas}).Inc()
	return &archival.SignedTarget{
		URL:       baas.NormalizeSignedURL(s.base, signed),
		ExpiresAt: expiresAt,
	}, nil
}

type s3Signer struct {
	userId  string
	purpose string
}

func (s *s3Signer) Sign(ctx rcontext.RequestContext, file archival.FileRef, ttl time.Duration) (*archival.SignedTarget, error) {
	if !ownsPath(s.userId, file.Path) {
		ctx.Log.Warnf("Refusing to presign %s/%s for another user", file.Bucket, file.Path)
		return nil, ErrForeignObject
	}
	expiresAt := time.Now().Add(ttl)
	signed, err := presignGet(ctx, file.Bucket, file.Path, ttl)
	if err != nil {
		return nil, err
	}
	metrics.SignedUrls.With(prometheus.Labels{"purpose": s.purpose, "signer": SignerS3}).Inc()
	return &archival.SignedTarget{URL: signed, ExpiresAt: expiresAt}, nil
}

func ownsPath(userId string, path string) bool {
	if userId == "" || !strings.HasPrefix(path, userId+"/") {
		return false
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." || segment == "." {
			return false
		}
	}
	return true
}

// NewExportSigner signs URLs the server itself downloads from, so they
// point at the internal backend address.
func NewExportSigner(ctx rcontext.RequestContext, accessToken string, userId string) archival.URLSigner {
	return newSigner(ctx, accessToken, userId, ctx.Config.Backend.Url, PurposeExport)
}

// NewViewerSigner signs URLs handed to browsers.
func NewViewerSigner(ctx rcontext.RequestContext, accessToken string, userId string) archival.URLSigner {
	return newSigner(ctx, accessToken, userId, ctx.Config.PublicBackendUrl(), PurposeViewer)
}

func newSigner(ctx rcontext.RequestContext, accessToken string, userId string, base string, purpose string) archival.URLSigner {
	if ctx.Config.Storage.Signer == SignerS3 {
		return &s3Signer{userId: userId, purpose: purpose}
	}
	return &baasSigner{accessToken: accessToken, base: base, purpose: purpose}
}

// HttpFetcher downloads signed URLs through the shared backend transport.
type HttpFetcher struct{}

func (HttpFetcher) Fetch(ctx rcontext.RequestContext, target *archival.SignedTarget) (io.ReadCloser, int64, error) {
	return baas.OpenObject(ctx, target.URL)
}
