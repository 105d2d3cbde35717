package systemhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"solarops/internal/domain/auth"
	"solarops/internal/domain/payperiod"
	"solarops/internal/platform/metrics"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// ClientConfig is what the browser needs before sign-in.
type ClientConfig struct {
	Environment string `json:"environment"`
	MapsAPIKey  string `json:"mapsApiKey,omitempty"`
	MapsEnabled bool   `json:"mapsEnabled"`
	Timezone    string `json:"timezone"`
	// PayPeriodReference anchors the two-week calendar the client renders.
	PayPeriodReference string `json:"payPeriodReference"`
}

type Handler struct {
	DB       Pinger
	Metrics  *metrics.Collector
	Perms    middleware.PermissionStore
	Client   ClientConfig
	Calendar payperiod.Calendar
	Now      func() time.Time
}

func NewHandler(db Pinger, collector *metrics.Collector, perms middleware.PermissionStore, client ClientConfig, cal payperiod.Calendar) *Handler {
	return &Handler{DB: db, Metrics: collector, Perms: perms, Client: client, Calendar: cal, Now: time.Now}
}

// RegisterProbes mounts the liveness and readiness checks at the router root.
func (h *Handler) RegisterProbes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", h.handleReady)
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/config", h.handleConfig)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	if h.Metrics != nil {
		r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).Get("/metrics", h.handleMetrics)
	}
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]any{
		"client":        h.Client,
		"currentPeriod": h.Calendar.Containing(h.Now()).Summary(),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}
