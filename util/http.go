package util

import (
	"net/http"
	"net/url"
)

var sensitiveParams = []string{"access_token", "refresh_token", "token", "code"}

func GetLogSafeQueryString(r *http.Request) string {
	qs := r.URL.Query()

	for _, p := range sensitiveParams {
		if qs.Get(p) != "" {
			qs.Set(p, "redacted")
		}
	}

	return qs.Encode()
}

func GetLogSafeUrl(r *http.Request) string {
	copyUrl, err := url.ParseRequestURI(r.URL.String())
	if err != nil {
		return r.URL.Path
	}
	copyUrl.RawQuery = GetLogSafeQueryString(r)
	return copyUrl.String()
}

// RequestOrigin is the scheme://host the client used to reach us.
func RequestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	host := r.Host
	if h := r.Header.Get("X-Forwarded-Host"); h != "" {
		host = h
	}
	return scheme + "://" + host
}
