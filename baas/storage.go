package baas

import (
	"io"
	"net/http"
	"time"

	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/common/version"
	"github.com/phosio/phosio/metrics"
	"github.com/phosio/phosio/util"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

func objectUrl(ctx rcontext.RequestContext, kind string, bucket string, path string) string {
	return util.MakeUrl(ctx.Config.Backend.Url, storagePrefix, "/object", kind, util.EncodeURIComponent(bucket)+"/"+EncodeObjectPath(path))
}

// CreateSignedUrl asks the storage service for a temporary read URL. The
// returned URL is exactly what the service answered; see NormalizeSignedURL.
func CreateSignedUrl(ctx rcontext.RequestContext, accessToken string, bucket string, path string, ttl time.Duration) (string, error) {
	res := &signResponse{}
	_, err := doBreakerRequest(ctx, ServiceStorage, &request{
		method:      http.MethodPost,
		url:         objectUrl(ctx, "sign", bucket, path),
		body:        signRequest{ExpiresIn: int(ttl / time.Second)},
		accessToken: accessToken,
	}, res)
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return "", common.NewBackendError(ServiceStorage, http.StatusOK, "malformed response")
		}
		return "", err
	}
	if res.SignedURL == "" {
		return "", common.NewBackendError(ServiceStorage, http.StatusOK, "malformed response")
	}
	return res.SignedURL, nil
}

// UploadObject streams body into bucket/path. Nothing is buffered: the
// caller's reader is handed to the transport as-is.
func UploadObject(ctx rcontext.RequestContext, accessToken string, bucket string, path string, contentType string, body io.Reader, upsert bool) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers := map[string]string{}
	if upsert {
		headers["x-upsert"] = "true"
	}

	cb := getBreaker(ctx, ServiceStorage)
	var callerError error
	replyError := cb.CallContext(ctx, func() error {
		req, err := newHttpRequest(ctx, &request{
			method:      http.MethodPost,
			url:         objectUrl(ctx, "", bucket, path),
			rawBody:     body,
			contentType: contentType,
			accessToken: accessToken,
			headers:     headers,
		})
		if err != nil {
			return err
		}

		res, err := streamClient().Do(req)
		if res != nil {
			defer res.Body.Close()
		}
		if err != nil {
			return errors.Wrap(err, "storage upload failed")
		}
		contents, _ := io.ReadAll(io.LimitReader(res.Body, 64*1024))
		if res.StatusCode < 200 || res.StatusCode > 299 {
			err, callerError = filterError(parseErrorResponse(ServiceStorage, res.StatusCode, contents))
			return err
		}
		return nil
	}, 0)

	if callerError != nil {
		replyError = callerError
	}
	metrics.BackendRequests.With(prometheus.Labels{"service": ServiceStorage, "outcome": outcomeLabel(replyError)}).Inc()
	return replyError
}

// OpenObject starts a GET against a (signed) object URL and returns the body
// for streaming. Cancelling ctx aborts the transfer.
func OpenObject(ctx rcontext.RequestContext, target string) (io.ReadCloser, int64, error) {
	cb := getBreaker(ctx, ServiceStorage)

	var body io.ReadCloser
	var size int64
	var callerError error
	replyError := cb.CallContext(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", version.UserAgent())

		res, err := streamClient().Do(req)
		if err != nil {
			return errors.Wrap(err, "storage download failed")
		}
		if res.StatusCode != http.StatusOK {
			contents, _ := io.ReadAll(io.LimitReader(res.Body, 64*1024))
			_ = res.Body.Close()
			err, callerError = filterError(parseErrorResponse(ServiceStorage, res.StatusCode, contents))
			return err
		}
		body = res.Body
		size = res.ContentLength
		return nil
	}, 0)

	if callerError != nil {
		replyError = callerError
	}
	metrics.BackendRequests.With(prometheus.Labels{"service": ServiceStorage, "outcome": outcomeLabel(replyError)}).Inc()
	if replyError != nil {
		return nil, 0, replyError
	}
	return body, size, nil
}
