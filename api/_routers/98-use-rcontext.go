package _routers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/templating"
)

type GeneratorFn = func(r *http.Request, ctx rcontext.RequestContext) interface{}

type RContextRouter struct {
	generatorFn GeneratorFn
	next        http.Handler
}

func NewRContextRouter(generatorFn GeneratorFn, next http.Handler) *RContextRouter {
	return &RContextRouter{generatorFn: generatorFn, next: next}
}

func (c *RContextRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := GetLogger(r)
	rctx := rcontext.RequestContext{
		Context: r.Context(),
		Log:     log,
		Config:  config.Get(),
		Request: r,
	}

	var res interface{}
	res = c.generatorFn(r, rctx)
	if res == nil {
		res = &_responses.EmptyResponse{}
	}

	headers := w.Header()

	shouldCache := true
	for {
		if wrappedRes, isNoCache := res.(*_responses.DoNotCacheResponse); isNoCache {
			shouldCache = false
			res = wrappedRes.Payload
			continue
		}
		if wrappedRes, hasCookies := res.(*_responses.WithCookiesResponse); hasCookies {
			for _, cookie := range wrappedRes.Cookies {
				http.SetCookie(w, cookie)
			}
			res = wrappedRes.Payload
			continue
		}
		break
	}
	if shouldCache {
		headers.Set("Cache-Control", "private, no-cache")
	} else {
		headers.Set("Cache-Control", "no-store")
	}

	// The stream owns the response from here on
	if streamRes, isStream := res.(*_responses.StreamResponse); isStream {
		log.Info("Replying with stream")
		r = markStatusCode(r, http.StatusOK)
		if err := streamRes.Stream(w); err != nil {
			log.Debug("Aborting incomplete response: ", err)
			if c.next != nil {
				c.next.ServeHTTP(w, r)
			}
			panic(http.ErrAbortHandler)
		}
		if c.next != nil {
			c.next.ServeHTTP(w, r)
		}
		return
	}

	if redirectRes, isRedirect := res.(*_responses.RedirectResponse); isRedirect {
		log.Infof("Replying with redirect to %s", redirectRes.ToUrl)
		statusCode := redirectRes.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusFound
		}
		headers.Set("Location", redirectRes.ToUrl)
		r = writeStatusCode(w, r, statusCode)
		if c.next != nil {
			c.next.ServeHTTP(w, r)
		}
		return
	}

	if _, isNoContent := res.(*_responses.NoContentResponse); isNoContent {
		log.Info("Replying with no content")
		r = writeStatusCode(w, r, http.StatusNoContent)
		if c.next != nil {
			c.next.ServeHTTP(w, r)
		}
		return
	}

	if errRes, isError := res.(_responses.ErrorResponse); isError {
		res = &errRes // just fix it
	}
	if errRes, isError := res.(*_responses.ErrorResponse); isError && wantsHtml(r) {
		page, err := templating.Render("error", &templating.ErrorModel{
			StatusCode: statusCodeFor(errRes),
			Message:    errRes.Message,
		})
		if err != nil {
			sentry.CaptureException(err)
			log.Error("Error rendering error page: ", err)
		} else {
			res = &_responses.HtmlResponse{HTML: page, StatusCode: statusCodeFor(errRes)}
		}
	}

	if htmlRes, isHtml := res.(*_responses.HtmlResponse); isHtml {
		log.Infof("Replying with result: %T <%d chars of html>", res, len(htmlRes.HTML))
		statusCode := htmlRes.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		headers.Set("Content-Type", "text/html; charset=UTF-8")
		r = writeStatusCode(w, r, statusCode)
		if _, err := w.Write([]byte(htmlRes.HTML)); err != nil {
			panic(errors.New("error sending HtmlResponse: " + err.Error()))
		}
		if c.next != nil {
			c.next.ServeHTTP(w, r)
		}
		return
	}

	if textRes, isText := res.(*_responses.TextResponse); isText {
		log.Infof("Replying with result: %T <%d chars>", res, len(textRes.Body))
		statusCode := textRes.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		contentType := textRes.ContentType
		if contentType == "" {
			contentType = "text/plain; charset=UTF-8"
		}
		headers.Set("Content-Type", contentType)
		r = writeStatusCode(w, r, statusCode)
		if _, err := w.Write([]byte(textRes.Body)); err != nil {
			panic(errors.New("error sending TextResponse: " + err.Error()))
		}
		if c.next != nil {
			c.next.ServeHTTP(w, r)
		}
		return
	}

	log.Infof("Replying with result: %T %+v", res, res)
	proposedStatusCode := http.StatusOK
	if errRes, isError := res.(*_responses.ErrorResponse); isError {
		proposedStatusCode = statusCodeFor(errRes)
	}

	b, err := json.Marshal(res)
	if err != nil {
		panic(err) // blow up this request
	}
	headers.Set("Content-Type", "application/json")
	r = writeStatusCode(w, r, proposedStatusCode)
	if _, err = w.Write(b); err != nil {
		panic(errors.New("error sending response: " + err.Error()))
	}

	if c.next != nil {
		c.next.ServeHTTP(w, r)
	}
}

func statusCodeFor(errRes *_responses.ErrorResponse) int {
	switch errRes.InternalCode {
	case common.ErrCodeInvalidId:
		return http.StatusBadRequest
	case common.ErrCodeBadRequest:
		return http.StatusBadRequest
	case common.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case common.ErrCodeNotFound:
		return http.StatusNotFound
	case common.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case common.ErrCodeMediaTooLarge:
		return http.StatusRequestEntityTooLarge
	case common.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case common.ErrCodeBadGateway:
		return http.StatusBadGateway
	default: // Treat as unknown (a generic server error)
		return http.StatusInternalServerError
	}
}

func wantsHtml(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func GetStatusCode(r *http.Request) int {
	x, ok := r.Context().Value(common.ContextStatusCode).(int)
	if !ok {
		return http.StatusOK
	}
	return x
}

func writeStatusCode(w http.ResponseWriter, r *http.Request, statusCode int) *http.Request {
	w.WriteHeader(statusCode)
	return markStatusCode(r, statusCode)
}

func markStatusCode(r *http.Request, statusCode int) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), common.ContextStatusCode, statusCode))
}
