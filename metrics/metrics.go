package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var HttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "phosio_http_requests_total",
}, []string{"host", "action", "method"})
var InvalidHttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "phosio_invalid_http_requests_total",
}, []string{"action", "method"})
var HttpResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "phosio_http_responses_total",
}, []string{"host", "action", "method", "statusCode"})
var HttpResponseTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name: "phosio_http_response_time_seconds",
}, []string{"host", "action", "method"})
var BackendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "phosio_backend_requests_total",
}, []string{"service", "outcome"})
var Exports = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "phosio_exports_total",
}, []string{"state"})
var ExportEntries = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "phosio_export_entries_total",
})
var ExportBytes = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "phosio_export_bytes_total",
})
var SignedUrls = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "phosio_signed_urls_total",
}, []string{"purpose", "signer"})
var Uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "phosio_uploads_total",
}, []string{"outcome"})
var UploadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "phosio_uploaded_bytes_total",
})
var ThumbnailsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "phosio_thumbnails_generated_total",
}, []string{"outcome"})
var CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "phosio_cache_hits_total",
}, []string{"cache"})
var CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "phosio_cache_misses_total",
}, []string{"cache"})
var CacheNumItems = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "phosio_cache_num_items",
}, []string{"cache"})

func init() {
	prometheus.MustRegister(HttpRequests)
	prometheus.MustRegister(InvalidHttpRequests)
	prometheus.MustRegister(HttpResponses)
	prometheus.MustRegister(HttpResponseTime)
	prometheus.MustRegister(BackendRequests)
	prometheus.MustRegister(Exports)
	prometheus.MustRegister(ExportEntries)
	prometheus.MustRegister(ExportBytes)
	prometheus.MustRegister(SignedUrls)
	prometheus.MustRegister(Uploads)
	prometheus.MustRegister(UploadedBytes)
	prometheus.MustRegister(ThumbnailsGenerated)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(CacheNumItems)
}
