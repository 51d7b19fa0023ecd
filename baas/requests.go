package baas

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/common/version"
	"github.com/phosio/phosio/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ServiceAuth    = "auth"
	ServiceRest    = "rest"
	ServiceStorage = "storage"
)

// All backend traffic shares one connection pool.
var transport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   20,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ResponseHeaderTimeout: 30 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

type request struct {
	method      string
	url         string
	body        interface{}
	rawBody     io.Reader
	contentType string
	accessToken string
	headers     map[string]string
}

func apiClient(ctx rcontext.RequestContext) *http.Client {
	timeout := ctx.Config.Backend.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(timeout) * time.Second,
	}
}

// streamClient has no overall deadline: bodies may take minutes to move.
func streamClient() *http.Client {
	return &http.Client{Transport: transport}
}

func newHttpRequest(ctx rcontext.RequestContext, r *request) (*http.Request, error) {
	var body io.Reader
	contentType := r.contentType
	if r.rawBody != nil {
		body = r.rawBody
	} else if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
		if contentType == "" {
			contentType = "application/json; charset=UTF-8"
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", ctx.Config.Backend.AnonKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+ctx.Config.Backend.AnonKey)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func doRequest(ctx rcontext.RequestContext, service string, r *request, result interface{}) (http.Header, error) {
	ctx.Log.Debugf("Calling %s %s", r.method, r.url)
	req, err := newHttpRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	res, err := apiClient(ctx).Do(req)
	if res != nil {
		defer res.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrap(err, service+" request failed")
	}

	contents, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, service+" response unreadable")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res.Header, parseErrorResponse(service, res.StatusCode, contents)
	}

	if result != nil && len(contents) > 0 {
		if err = json.Unmarshal(contents, result); err != nil {
			return res.Header, errors.Wrap(ErrMalformedResponse, err.Error())
		}
	}

	return res.Header, nil
}

func doBreakerRequest(ctx rcontext.RequestContext, service string, r *request, result interface{}) (http.Header, error) {
	cb := getBreaker(ctx, service)

	var headers http.Header
	var replyError error
	var callerError error
	replyError = cb.CallContext(ctx, func() error {
		var err error
		headers, err = doRequest(ctx, service, r, result)
		if err != nil {
			ctx.Log.Debug("Error from backend: ", err)
			err, callerError = filterError(err)
			return err
		}
		return nil
	}, 0)

	if callerError != nil {
		replyError = callerError
	}
	metrics.BackendRequests.With(prometheus.Labels{"service": service, "outcome": outcomeLabel(replyError)}).Inc()
	return headers, replyError
}
