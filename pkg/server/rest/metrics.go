package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec
	RouteRequestsTotal  *prometheus.CounterVec
	ActiveEffects       *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HttpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dynaroute",
			Name:      "http_requests_total",
			Help:      "total number of http requests",
		}, []string{"method", "path", "status"}),
		HttpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dynaroute",
			Name:      "http_request_duration_seconds",
			Help:      "http request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		RouteRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dynaroute",
			Name:      "route_requests_total",
			Help:      "route compositions grouped by outcome",
		}, []string{"outcome"}),
		ActiveEffects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dynaroute",
			Name:      "active_effects",
			Help:      "currently placed effects per kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.HttpRequestsTotal, m.HttpRequestDuration, m.RouteRequestsTotal, m.ActiveEffects)
	return m
}

// PromeHttpMiddleware records request counts and latency per route pattern.
func PromeHttpMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			path := r.URL.Path
			m.HttpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
			m.HttpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
