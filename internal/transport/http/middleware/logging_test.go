package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"solarops/internal/platform/metrics"
)

func TestLoggerRecordsRoutePattern(t *testing.T) {
	collector := metrics.New()
	r := chi.NewRouter()
	r.Use(Logger(collector))
	r.Get("/tickets/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tickets/abc", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}

	snap := collector.Snapshot()
	routes, ok := snap["routes"].([]metrics.RouteSnapshot)
	if !ok || len(routes) != 1 {
		t.Fatalf("expected one route entry, got %#v", snap["routes"])
	}
	if routes[0].Route != "GET /tickets/{id}" {
		t.Fatalf("expected pattern route, got %q", routes[0].Route)
	}
}
