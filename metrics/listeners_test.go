package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBeforeScrape(t *testing.T) {
	calls := 0
	OnBeforeMetricsRequested(func() {
		calls++
	})

	served := false
	h := beforeScrape(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, 1, calls)
		served = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, served)
}
