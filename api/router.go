package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/julienschmidt/httprouter"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/metrics"
	"github.com/phosio/phosio/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func buildPrimaryRouter() *httprouter.Router {
	router := httprouter.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false // don't fix case
	router.MethodNotAllowed = http.HandlerFunc(methodNotAllowedFn)
	router.NotFound = http.HandlerFunc(notFoundFn)
	router.HandleOPTIONS = false
	router.PanicHandler = panicFn
	return router
}

func writeJsonError(w http.ResponseWriter, statusCode int, res *_responses.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	b, err := json.Marshal(res)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("error preparing %s: %v", res.Code, err))
		logrus.Errorf("error preparing %s: %v", res.Code, err)
		return
	}
	_, _ = w.Write(b)
}

func methodNotAllowedFn(w http.ResponseWriter, r *http.Request) {
	metrics.InvalidHttpRequests.With(prometheus.Labels{"action": "method_not_allowed", "method": r.Method}).Inc()
	writeJsonError(w, http.StatusMethodNotAllowed, _responses.MethodNotAllowed())
}

func notFoundFn(w http.ResponseWriter, r *http.Request) {
	metrics.InvalidHttpRequests.With(prometheus.Labels{"action": "not_found", "method": r.Method}).Inc()
	writeJsonError(w, http.StatusNotFound, _responses.NotFoundError())
}

func panicFn(w http.ResponseWriter, r *http.Request, i interface{}) {
	// an aborted stream: let net/http drop the connection
	if i == http.ErrAbortHandler {
		panic(i)
	}

	logrus.Errorf("Panic received on %s %s: %s", r.Method, util.GetLogSafeUrl(r), i)

	//goland:noinspection GoTypeAssertionOnErrors
	if e, ok := i.(error); ok {
		sentry.CaptureException(e)
	} else {
		sentry.CaptureMessage(fmt.Sprintf("Unknown panic received: %T %s %+v", i, i, i))
	}

	writeJsonError(w, http.StatusInternalServerError, _responses.InternalServerError("unexpected error"))
}
