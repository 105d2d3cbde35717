package ticketshandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"solarops/internal/domain/audit"
	"solarops/internal/domain/auth"
	"solarops/internal/domain/checklist"
	"solarops/internal/domain/scheduling"
	"solarops/internal/domain/timeclock"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
	"solarops/internal/transport/http/shared"
)

// Events counts notable outcomes, such as post-commit hooks that failed.
type Events interface {
	Inc(event string)
}

const eventHookFailed = "ticket_hook_failed"

type Handler struct {
	Service    *scheduling.Service
	Checklists *checklist.Service
	Perms      middleware.PermissionStore
	Audit      *audit.Service
	Events     Events
}

func NewHandler(service *scheduling.Service, checklists *checklist.Service, perms middleware.PermissionStore, auditSvc *audit.Service, events Events) *Handler {
	return &Handler{Service: service, Checklists: checklists, Perms: perms, Audit: auditSvc, Events: events}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSchedulingRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermSchedulingWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermSchedulingRead, h.Perms)).Get("/options", h.handleOptions)
		r.Route("/{ticketID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermSchedulingRead, h.Perms)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermSchedulingWrite, h.Perms)).Put("/", h.handleUpdate)
			r.With(middleware.RequirePermission(auth.PermSchedulingWrite, h.Perms)).Delete("/", h.handleDelete)
			r.With(middleware.RequirePermission(auth.PermSchedulingWork, h.Perms)).Put("/work-performed", h.handleWorkPerformed)
			r.With(middleware.RequirePermission(auth.PermSchedulingWork, h.Perms)).Post("/progress", h.handleToggle)

			r.Route("/checklists/{phase}", func(r chi.Router) {
				r.With(middleware.RequirePermission(auth.PermSchedulingRead, h.Perms)).Get("/", h.handleChecklist)
				r.With(middleware.RequirePermission(auth.PermSchedulingWork, h.Perms)).Post("/items/{itemID}/toggle", h.handleChecklistToggle)
				r.With(middleware.RequirePermission(auth.PermSchedulingWork, h.Perms)).Post("/items/{itemID}/photos", h.handlePhotoUpload)
				r.With(middleware.RequirePermission(auth.PermSchedulingWork, h.Perms)).Delete("/items/{itemID}/photos", h.handlePhotoDelete)
			})
		})
	})
}

// fieldOnly reports whether the caller only works tickets they are assigned to.
func fieldOnly(user auth.UserContext) bool {
	return user.RoleName == auth.RoleFieldTech
}

// ticket loads the path ticket and hides it from field techs who are not on it.
func (h *Handler) ticket(w http.ResponseWriter, r *http.Request) (scheduling.Ticket, bool) {
	user, _ := middleware.GetUser(r.Context())
	t, err := h.Service.Get(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		writeError(w, r, err)
		return scheduling.Ticket{}, false
	}
	if fieldOnly(user) && !t.Assigned(user.UserID) {
		writeError(w, r, scheduling.ErrTicketNotFound)
		return scheduling.Ticket{}, false
	}
	return t, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.Page(r)
	q := r.URL.Query()
	filter := scheduling.ListFilter{
		CustomerID:   strings.TrimSpace(q.Get("customerId")),
		TechnicianID: strings.TrimSpace(q.Get("technicianId")),
		TicketType:   strings.TrimSpace(q.Get("type")),
		Status:       strings.TrimSpace(q.Get("status")),
		From:         strings.TrimSpace(q.Get("from")),
		To:           strings.TrimSpace(q.Get("to")),
		Limit:        page.Limit,
		Offset:       page.Offset,
	}
	v := shared.NewValidator()
	v.Enum("status", filter.Status, []string{scheduling.StatusScheduled, scheduling.StatusInProgress, scheduling.StatusClosed}, "must be scheduled, in_progress or closed")
	if filter.From != "" {
		v.Date("from", filter.From)
	}
	if filter.To != "" {
		v.Date("to", filter.To)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if fieldOnly(user) {
		filter.TechnicianID = user.UserID
	}

	tickets, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, api.ListResponse{Items: tickets, Total: total, Limit: page.Limit, Offset: page.Offset}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]any{
		"ticketTypes":  scheduling.TicketTypes,
		"steps":        scheduling.Steps,
		"closeReasons": scheduling.CloseReasons,
		"priorities":   []string{scheduling.PriorityLow, scheduling.PriorityNormal, scheduling.PriorityHigh, scheduling.PriorityUrgent},
		"phases":       checklist.Phases,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var in scheduling.TicketInput
	if err := api.Decode(r, &in); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if !validIDs(w, r, in) {
		return
	}
	t, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "ticket.create", t.ID, nil, t)
	api.Created(w, t, middleware.GetRequestID(r.Context()))
}

func validIDs(w http.ResponseWriter, r *http.Request, in scheduling.TicketInput) bool {
	v := shared.NewValidator()
	v.UUID("customerId", in.CustomerID)
	v.UUID("pvInstallerId", in.PVInstallerID)
	for _, id := range in.TechnicianIDs {
		v.UUID("technicianIds", id)
	}
	return !v.Reject(w, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	t, ok := h.ticket(w, r)
	if !ok {
		return
	}
	api.Success(w, t, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ticketID := chi.URLParam(r, "ticketID")
	var in scheduling.TicketInput
	if err := api.Decode(r, &in); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if !validIDs(w, r, in) {
		return
	}
	t, err := h.Service.Update(r.Context(), ticketID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "ticket.update", ticketID, nil, in)
	api.Success(w, t, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ticketID := chi.URLParam(r, "ticketID")
	if err := h.Service.Delete(r.Context(), ticketID); err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "ticket.delete", ticketID, nil, nil)
	w.WriteHeader(http.StatusNoContent)
}

type workPerformedPayload struct {
	WorkPerformed string `json:"workPerformed"`
}

func (h *Handler) handleWorkPerformed(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ticket(w, r); !ok {
		return
	}
	var payload workPerformedPayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	t, err := h.Service.SetWorkPerformed(r.Context(), chi.URLParam(r, "ticketID"), payload.WorkPerformed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, t, middleware.GetRequestID(r.Context()))
}

type togglePayload struct {
	Step               string   `json:"step"`
	CloseReason        string   `json:"closeReason"`
	ChecklistDismissed bool     `json:"checklistDismissed"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
}

// handleToggle sets or clears one progress step. The response carries the
// checklist phase when begin must wait for photos, and the result of every hook.
func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	t, ok := h.ticket(w, r)
	if !ok {
		return
	}
	var payload togglePayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("step", payload.Step, "is required")
	v.Enum("step", payload.Step, scheduling.Steps, scheduling.ErrUnknownStep.Error())
	if (payload.Latitude == nil) != (payload.Longitude == nil) {
		v.Add("latitude", "latitude and longitude must be sent together")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	req := scheduling.ToggleRequest{
		Step:               strings.TrimSpace(payload.Step),
		CloseReason:        payload.CloseReason,
		ChecklistDismissed: payload.ChecklistDismissed,
		ActorID:            user.UserID,
	}
	if payload.Latitude != nil && payload.Longitude != nil {
		req.Location = &timeclock.Geo{Latitude: *payload.Latitude, Longitude: *payload.Longitude}
	}
	result, err := h.Service.Toggle(r.Context(), t.ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, hr := range result.HookResults {
		if !hr.OK && h.Events != nil {
			h.Events.Inc(eventHookFailed)
		}
	}
	if result.Changed {
		h.audit(r, user, "ticket.progress", t.ID, nil, map[string]any{
			"step":        req.Step,
			"set":         result.Set,
			"closeReason": result.Ticket.CloseReason,
		})
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) audit(r *http.Request, user auth.UserContext, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    user.UserID,
		Action:     action,
		EntityType: "ticket",
		EntityID:   entityID,
		Before:     before,
		After:      after,
	}); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, scheduling.ErrTicketNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, scheduling.ErrWorkPerformedRequired):
		api.Fail(w, http.StatusUnprocessableEntity, "work_performed_required", err.Error(), reqID)
	case errors.Is(err, scheduling.ErrCloseReasonRequired):
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "close_reason_required", err.Error(), map[string]any{"closeReasons": scheduling.CloseReasons}, reqID)
	case errors.Is(err, scheduling.ErrUnknownStep),
		errors.Is(err, scheduling.ErrInvalidTicketType),
		errors.Is(err, scheduling.ErrInvalidPriority),
		errors.Is(err, scheduling.ErrInvalidSchedule),
		errors.Is(err, scheduling.ErrCustomerRequired):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	case errors.Is(err, checklist.ErrUnknownPhase),
		errors.Is(err, checklist.ErrUnknownItem),
		errors.Is(err, checklist.ErrPhotoNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, checklist.ErrEmptyUpload):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	case shared.IsForeignKeyViolation(err):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", "customer or technician does not exist", reqID)
	default:
		slog.Error("ticket request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "ticket_failed", "ticket request failed", reqID)
	}
}
