package _routers

import (
	"net/http"

	"github.com/phosio/phosio/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type MetricsRequestRouter struct {
	next http.Handler
}

func NewMetricsRequestRouter(next http.Handler) *MetricsRequestRouter {
	return &MetricsRequestRouter{next: next}
}

func (m *MetricsRequestRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	metrics.HttpRequests.With(prometheus.Labels{
		"host":   r.Host,
		"action": GetActionName(r),
		"method": r.Method,
	}).Inc()

	if m.next != nil {
		m.next.ServeHTTP(w, r)
	}
}
