package metrics

import (
	"testing"
	"time"
)

func TestSnapshotTotalsAndRoutes(t *testing.T) {
	c := New()
	c.Record("GET /api/v1/tickets", 200, 10*time.Millisecond)
	c.Record("GET /api/v1/tickets", 500, 30*time.Millisecond)
	c.Record("POST /api/v1/auth/login", 429, 0)
	c.Record("", 404, 0)
	c.Inc("ticket_hook_failed")
	c.Inc("ticket_hook_failed")

	snap := c.Snapshot()
	if snap["requestsTotal"].(uint64) != 4 || snap["errorsTotal"].(uint64) != 1 || snap["rateLimitedTotal"].(uint64) != 1 {
		t.Fatalf("unexpected totals %+v", snap)
	}
	routes := snap["routes"].([]RouteSnapshot)
	if len(routes) != 2 || routes[0].Route != "GET /api/v1/tickets" {
		t.Fatalf("unexpected routes %+v", routes)
	}
	if routes[0].AvgDurationMs != 20 || routes[0].Errors != 1 {
		t.Fatalf("unexpected route stats %+v", routes[0])
	}
	if snap["events"].(map[string]uint64)["ticket_hook_failed"] != 2 {
		t.Fatalf("unexpected events %+v", snap["events"])
	}
}
