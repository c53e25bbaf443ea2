package controller

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RouteTemplate returns the path template of the gorilla/mux route matched
// for r, or "unmatched" when the request was not routed by mux.
func RouteTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}

	return tpl
}

// WithMetrics returns a gorilla/mux middleware recording a request counter and
// a latency histogram per route template, method and status code. It must be
// installed with Router.Use so the matched route is known.
func WithMetrics(meter metric.Meter) (mux.MiddlewareFunc, error) {
	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of handled HTTP requests."))
	if err != nil {
		return nil, err //nolint: wrapcheck
	}
	latency, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("Latency of handled HTTP requests."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			attrs := metric.WithAttributes(
				attribute.String("route", RouteTemplate(r)),
				attribute.String("method", r.Method),
				attribute.Int("status", rec.status),
			)
			requests.Add(r.Context(), 1, attrs)
			latency.Record(r.Context(), time.Since(start).Seconds(), attrs)
		})
	}, nil
}
