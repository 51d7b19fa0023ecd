package _responses

import (
	"net/http"
)

type EmptyResponse struct{}

type NoContentResponse struct{}

type DoNotCacheResponse struct {
	Payload interface{}
}

// WithCookiesResponse sets cookies before the wrapped payload is written.
type WithCookiesResponse struct {
	Payload interface{}
	Cookies []*http.Cookie
}

func WithCookies(payload interface{}, cookies ...*http.Cookie) *WithCookiesResponse {
	return &WithCookiesResponse{Payload: payload, Cookies: cookies}
}

type HtmlResponse struct {
	HTML       string
	StatusCode int
}

type TextResponse struct {
	Body        string
	ContentType string
	StatusCode  int
}

// StreamResponse hands the response writer to Stream. A non-nil error means
// the response was already committed and is incomplete, so it must be
// aborted instead of finished.
type StreamResponse struct {
	Stream func(w http.ResponseWriter) error
}
