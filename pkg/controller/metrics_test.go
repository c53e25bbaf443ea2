package controller_test

import (
	"context"
	"filescanner/pkg/controller"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRouteTemplate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	require.Equal(t, "unmatched", controller.RouteTemplate(req))

	var got string
	r := mux.NewRouter()
	r.HandleFunc("/v1/scans/{id}", func(w http.ResponseWriter, r *http.Request) {
		got = controller.RouteTemplate(r)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/scans/42", nil))
	require.Equal(t, "/v1/scans/{id}", got)
}

func TestWithMetrics_RecordsPerRoute(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	mw, err := controller.WithMetrics(mp.Meter("test"))
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Use(mw)
	r.HandleFunc("/v1/tracked", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	for range 3 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/tracked", nil))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var found bool
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name != "http.server.requests" {
			continue
		}
		found = true
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		require.Equal(t, int64(3), sum.DataPoints[0].Value)

		route, _ := sum.DataPoints[0].Attributes.Value("route")
		require.Equal(t, "/v1/tracked", route.AsString())
		status, _ := sum.DataPoints[0].Attributes.Value("status")
		require.Equal(t, int64(http.StatusCreated), status.AsInt64())
	}
	require.True(t, found)
}
