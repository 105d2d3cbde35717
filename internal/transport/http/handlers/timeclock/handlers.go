package timeclockhandler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"solarops/internal/domain/auth"
	"solarops/internal/domain/payperiod"
	"solarops/internal/domain/timeclock"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
	"solarops/internal/transport/http/shared"
)

type Handler struct {
	Service  *timeclock.Service
	Perms    middleware.PermissionStore
	Calendar payperiod.Calendar
	Now      func() time.Time
}

func NewHandler(service *timeclock.Service, perms middleware.PermissionStore, cal payperiod.Calendar) *Handler {
	return &Handler{Service: service, Perms: perms, Calendar: cal, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timeclock", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTimeClockUse, h.Perms)).Get("/open", h.handleOpen)
		r.With(middleware.RequirePermission(auth.PermTimeClockUse, h.Perms)).Post("/clock-in", h.handleClockIn)
		r.With(middleware.RequirePermission(auth.PermTimeClockUse, h.Perms)).Post("/clock-out", h.handleClockOut)
		r.With(middleware.RequireSelfOr(auth.PermTimeClockManage, "employeeID", h.Perms)).Get("/employees/{employeeID}", h.handleEmployeePeriod)
	})
}

type clockInPayload struct {
	CustomerID string   `json:"customerId"`
	TicketID   string   `json:"ticketId"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Notes      string   `json:"notes"`
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	entry, err := h.Service.OpenEntry(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "timeclock_failed", "failed to load time clock", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"open": entry != nil, "entry": entry}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload clockInPayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.UUID("customerId", payload.CustomerID)
	v.UUID("ticketId", payload.TicketID)
	if (payload.Latitude == nil) != (payload.Longitude == nil) {
		v.Add("latitude", "latitude and longitude must be sent together")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	req := timeclock.ClockInRequest{
		EmployeeID: user.UserID,
		CustomerID: payload.CustomerID,
		TicketID:   payload.TicketID,
		Notes:      payload.Notes,
	}
	if payload.Latitude != nil && payload.Longitude != nil {
		req.Location = &timeclock.Geo{Latitude: *payload.Latitude, Longitude: *payload.Longitude}
	}
	entry, err := h.Service.ClockIn(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	entry, err := h.Service.ClockOut(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeePeriod(w http.ResponseWriter, r *http.Request) {
	period, err := shared.ResolvePeriod(r, h.Calendar, h.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	tally, entries, err := h.Service.TallyForPeriod(r.Context(), chi.URLParam(r, "employeeID"), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, map[string]any{
		"period":  period.Summary(),
		"tally":   tally,
		"entries": entries,
	}, middleware.GetRequestID(r.Context()))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, timeclock.ErrAlreadyClockedIn):
		api.Fail(w, http.StatusConflict, "already_clocked_in", err.Error(), reqID)
	case errors.Is(err, timeclock.ErrNotClockedIn):
		api.Fail(w, http.StatusConflict, "not_clocked_in", err.Error(), reqID)
	case errors.Is(err, timeclock.ErrEntryNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	default:
		slog.Error("time clock request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "timeclock_failed", "time clock request failed", reqID)
	}
}
