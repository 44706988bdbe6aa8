// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// Prometheus instrumentation for the task API. Labels stay bounded: "path"
// is the registered route pattern or UnmatchedPath, "method" is a standard
// verb or "OTHER", and "status" is the numeric code.
//
//	http_requests_total{method,path,status}
//	http_request_duration_seconds{method,path}
//	http_requests_inflight
//	http_response_size_bytes{method,path}
//	api_errors_total{status,code}          rendered by ErrorResponder
//	legacy_requests_total{method,path}     responses tagged X-Deprecated
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// No status label: keeps histogram series down.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// Task payloads are small; the list endpoint is the only large one.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(128, 4, 8), // 128B..2MiB
		},
		[]string{"method", "path"},
	)

	apiErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses rendered by the API.",
		},
		[]string{"status", "code"},
	)

	legacyReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legacy_requests_total",
			Help: "Requests served through deprecated un-versioned routes.",
		},
		[]string{"method", "path"},
	)
)

// UnmatchedPath is the "path" label for requests no route matched.
const UnmatchedPath = "<unmatched>"

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, apiErrors, legacyReqs)
}

// Metrics returns middleware that records the collectors above once the rest
// of the chain has finished, so the status is the one actually sent.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = UnmatchedPath
		}
		method := methodLabel(c.Request.Method)

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 { // -1 when nothing was written (e.g. 304)
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
		if c.Writer.Header().Get(HeaderDeprecated) == "true" {
			legacyReqs.WithLabelValues(method, path).Inc()
		}
	}
}

func methodLabel(m string) string {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return m
	}
	return "OTHER"
}
