package payrollhandler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"solarops/internal/domain/auth"
	"solarops/internal/domain/payperiod"
	"solarops/internal/domain/payroll"
	"solarops/internal/platform/jobs"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
	"solarops/internal/transport/http/shared"
)

type Handler struct {
	Service  *payroll.Service
	Perms    middleware.PermissionStore
	Jobs     *jobs.Service
	Calendar payperiod.Calendar
	Now      func() time.Time
}

func NewHandler(service *payroll.Service, perms middleware.PermissionStore, jobsSvc *jobs.Service, cal payperiod.Calendar) *Handler {
	return &Handler{Service: service, Perms: perms, Jobs: jobsSvc, Calendar: cal, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/period", h.handlePeriod)
		r.With(middleware.RequirePermission(auth.PermPayrollManage, h.Perms)).Get("/summary", h.handlePeriodSummary)
		r.With(middleware.RequirePermission(auth.PermPayrollManage, h.Perms)).Get("/register.xlsx", h.handleExportRegister)
		r.With(middleware.RequirePermission(auth.PermPayrollManage, h.Perms)).Post("/warm", h.handleWarm)
		r.With(middleware.RequireSelfOr(auth.PermPayrollManage, "employeeID", h.Perms)).Get("/employees/{employeeID}", h.handleEmployeeSummary)
		r.With(middleware.RequireSelfOr(auth.PermPayrollManage, "employeeID", h.Perms)).Get("/employees/{employeeID}/statement.pdf", h.handleStatement)
	})
}

func (h *Handler) period(w http.ResponseWriter, r *http.Request) (payperiod.Period, bool) {
	period, err := shared.ResolvePeriod(r, h.Calendar, h.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return payperiod.Period{}, false
	}
	return period, true
}

// handlePeriod describes the pay period containing ?period= (default today).
func (h *Handler) handlePeriod(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}
	api.Success(w, period.Summary(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.PeriodSummary(r.Context(), period)
	if err != nil {
		slog.Error("payroll summary failed", "period", period.EndDate(), "err", err)
		api.Fail(w, http.StatusInternalServerError, "payroll_summary_failed", "failed to build payroll summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeeSummary(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.EmployeeSummary(r.Context(), chi.URLParam(r, "employeeID"), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.PeriodSummary(r.Context(), period)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := payroll.WriteRegister(&buf, summary); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payroll-register-%s.xlsx", period.EndDate()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("payroll register write failed", "err", err)
	}
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	summary, err := h.Service.EmployeeSummary(r.Context(), employeeID, period)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := payroll.WriteStatement(&buf, summary); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=pay-statement-%s.pdf", period.EndDate()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("pay statement write failed", "employeeId", employeeID, "err", err)
	}
}

// handleWarm queues a cache rebuild for the period; it returns before the rebuild runs.
func (h *Handler) handleWarm(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}
	if h.Jobs == nil {
		api.Fail(w, http.StatusServiceUnavailable, "jobs_unavailable", "background jobs are not running", middleware.GetRequestID(r.Context()))
		return
	}
	h.Jobs.Enqueue(jobs.JobPayrollWarm, func(ctx context.Context) (any, error) {
		return map[string]string{"period": period.EndDate()}, h.Service.Warm(ctx, period)
	})
	api.WriteJSON(w, http.StatusAccepted, api.Envelope{
		Success:   true,
		Data:      map[string]string{"status": "queued", "period": period.EndDate()},
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
	default:
		slog.Error("payroll request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "payroll_failed", "payroll request failed", reqID)
	}
}
