package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status_code"})
)

func MetricsMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				duration := time.Since(start)
				statusCode := strconv.Itoa(ww.Status())
				var routePattern string
				if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
					routePattern = routeCtx.RoutePattern()
				}
				if routePattern == "" {
					routePattern = r.URL.Path
				}

				httpRequestsTotal.WithLabelValues(r.Method, routePattern, statusCode).Inc()
				httpRequestDuration.WithLabelValues(r.Method, routePattern, statusCode).Observe(duration.Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
