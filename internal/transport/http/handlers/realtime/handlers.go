package realtimehandler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"solarops/internal/platform/realtime"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
)

const heartbeatInterval = 25 * time.Second

type Handler struct {
	Broker    realtime.Broker
	Heartbeat time.Duration
	// Closing ends open streams when the server begins shutting down.
	Closing <-chan struct{}
}

func NewHandler(broker realtime.Broker) *Handler {
	return &Handler{Broker: broker, Heartbeat: heartbeatInterval}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/realtime/stream", h.handleStream)
}

func tableFilter(raw string) map[string]bool {
	tables := map[string]bool{}
	for _, table := range strings.Split(raw, ",") {
		if table = strings.TrimSpace(table); table != "" {
			tables[table] = true
		}
	}
	return tables
}

// handleStream sends change events as server-sent events. ?tables= narrows
// the stream to a comma-separated list of tables.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Fail(w, http.StatusInternalServerError, "streaming_unsupported", "streaming is not supported", middleware.GetRequestID(r.Context()))
		return
	}
	events, cancel, err := h.Broker.Subscribe(r.Context())
	if err != nil {
		slog.Error("realtime subscribe failed", "err", err)
		api.Fail(w, http.StatusServiceUnavailable, "realtime_unavailable", "realtime stream unavailable", middleware.GetRequestID(r.Context()))
		return
	}
	defer cancel()

	// The stream outlives the server write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("clear write deadline failed", "err", err)
	}
	tables := tableFilter(r.URL.Query().Get("tables"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = heartbeatInterval
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	slog.Debug("realtime stream opened", "userId", user.UserID)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.Closing:
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			if len(tables) > 0 && !tables[event.Table] {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				slog.Warn("realtime event encode failed", "err", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Table, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
