package realtimehandler

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"solarops/internal/platform/realtime"
)

func TestStreamDeliversFilteredEvents(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	defer broker.Close()

	r := chi.NewRouter()
	NewHandler(broker).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/realtime/stream?tables=scheduling", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil || !strings.HasPrefix(line, ": connected") {
		t.Fatalf("expected connected comment, got %q err=%v", line, err)
	}

	realtime.Notify(ctx, broker, "customers", realtime.ActionUpdate, "c1")
	realtime.Notify(ctx, broker, "scheduling", realtime.ActionUpdate, "t1")

	for {
		line, err = reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if strings.HasPrefix(line, "event: ") {
			break
		}
	}
	if strings.TrimSpace(line) != "event: scheduling" {
		t.Fatalf("expected the customers event to be filtered out, got %q", line)
	}
	data, err := reader.ReadString('\n')
	if err != nil || !strings.Contains(data, `"id":"t1"`) {
		t.Fatalf("expected ticket payload, got %q err=%v", data, err)
	}
}

func TestTableFilter(t *testing.T) {
	got := tableFilter(" scheduling, ,customers ")
	if len(got) != 2 || !got["scheduling"] || !got["customers"] {
		t.Fatalf("unexpected filter %v", got)
	}
	if len(tableFilter("")) != 0 {
		t.Fatal("expected an empty filter")
	}
}
