package commissionhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"solarops/internal/domain/audit"
	"solarops/internal/domain/auth"
	"solarops/internal/domain/commission"
	"solarops/internal/domain/payperiod"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
	"solarops/internal/transport/http/shared"
)

// PayrollCache drops cached payroll summaries once a payment lands in a period.
type PayrollCache interface {
	Invalidate(ctx context.Context, period payperiod.Period)
}

type Handler struct {
	Service  *commission.Service
	Perms    middleware.PermissionStore
	Audit    *audit.Service
	Payroll  PayrollCache
	Calendar payperiod.Calendar
	Now      func() time.Time
}

func NewHandler(service *commission.Service, perms middleware.PermissionStore, auditSvc *audit.Service, payroll PayrollCache, cal payperiod.Calendar) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Payroll: payroll, Calendar: cal, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/commissions", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCommissionsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermCommissionsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequireSelfOr(auth.PermPayrollManage, "employeeID", h.Perms)).Get("/earnings/{employeeID}", h.handleEarnings)
		r.Route("/{commissionID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermCommissionsRead, h.Perms)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermCommissionsWrite, h.Perms)).Post("/override", h.handleComputeOverride)
			r.With(middleware.RequirePermission(auth.PermCommissionsApprove, h.Perms)).Put("/payments/{target}", h.handleTransition)
		})
	})
}

// scope narrows what sales reps and managers can see to their own deals.
func scope(user auth.UserContext, filter *commission.ListFilter) {
	switch user.RoleName {
	case auth.RoleSalesRep:
		filter.SalesRepID = user.UserID
		filter.SalesManagerID = ""
	case auth.RoleSalesManager:
		if filter.SalesRepID != user.UserID {
			filter.SalesManagerID = user.UserID
		}
	}
}

func canSee(user auth.UserContext, c *commission.Commission) bool {
	switch user.RoleName {
	case auth.RoleSalesRep:
		return c.SalesRepID == user.UserID
	case auth.RoleSalesManager:
		return c.SalesRepID == user.UserID || c.SalesManagerID == user.UserID
	}
	return true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.Page(r)
	q := r.URL.Query()
	filter := commission.ListFilter{
		Status:         strings.TrimSpace(q.Get("status")),
		SalesRepID:     strings.TrimSpace(q.Get("salesRepId")),
		SalesManagerID: strings.TrimSpace(q.Get("salesManagerId")),
		Limit:          page.Limit,
		Offset:         page.Offset,
	}
	v := shared.NewValidator()
	v.Enum("status", filter.Status, []string{commission.StatusPending, commission.StatusEligible, commission.StatusPaid}, "must be pending, eligible or paid")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	scope(user, &filter)

	items, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, api.ListResponse{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	c, err := h.Service.Get(r.Context(), chi.URLParam(r, "commissionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !canSee(user, c) {
		api.Fail(w, http.StatusNotFound, "not_found", commission.ErrCommissionNotFound.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

type createPayload struct {
	CustomerID      string `json:"customerId"`
	SalesRepID      string `json:"salesRepId"`
	SalesManagerID  string `json:"salesManagerId"`
	SystemSizeKW    string `json:"systemSizeKw"`
	TotalCommission string `json:"totalCommission"`
	M1Amount        string `json:"m1PaymentAmount"`
	M2Amount        string `json:"m2PaymentAmount"`
	Notes           string `json:"notes"`
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload createPayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("salesRepId", payload.SalesRepID, "is required")
	v.UUID("salesRepId", payload.SalesRepID)
	v.UUID("salesManagerId", payload.SalesManagerID)
	v.UUID("customerId", payload.CustomerID)
	in := commission.NewCommission{
		CustomerID:      payload.CustomerID,
		SalesRepID:      payload.SalesRepID,
		SalesManagerID:  payload.SalesManagerID,
		SystemSizeKW:    orZero(v.Decimal("systemSizeKw", payload.SystemSizeKW)),
		TotalCommission: orZero(v.Decimal("totalCommission", payload.TotalCommission)),
		M1Amount:        orZero(v.Decimal("m1PaymentAmount", payload.M1Amount)),
		M2Amount:        orZero(v.Decimal("m2PaymentAmount", payload.M2Amount)),
		Notes:           strings.TrimSpace(payload.Notes),
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "commission.create", id, nil, in)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleComputeOverride(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	commissionID := chi.URLParam(r, "commissionID")
	c, err := h.Service.ComputeOverride(r.Context(), commissionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "commission.override.compute", commissionID, nil, map[string]any{
		"amount":   c.OverrideAmount,
		"m1":       c.OverrideM1.Amount,
		"m2":       c.OverrideM2.Amount,
		"negative": c.OverrideFlagged,
	})
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

type transitionPayload struct {
	Status string `json:"status"`
	Period string `json:"period"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	commissionID := chi.URLParam(r, "commissionID")
	target := chi.URLParam(r, "target")
	var payload transitionPayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("status", payload.Status, "is required")
	v.Enum("status", payload.Status, []string{commission.StatusEligible, commission.StatusPaid}, "must be eligible or paid")
	if !commission.ValidTarget(target) {
		v.Add("target", commission.ErrInvalidTarget.Error())
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	var (
		c   *commission.Commission
		err error
	)
	switch payload.Status {
	case commission.StatusEligible:
		c, err = h.Service.MarkEligible(r.Context(), commissionID, target)
	case commission.StatusPaid:
		period := h.Calendar.Containing(h.Now())
		if strings.TrimSpace(payload.Period) != "" {
			period, err = h.Calendar.ParseStart(strings.TrimSpace(payload.Period))
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_period", shared.ErrInvalidPeriod.Error(), middleware.GetRequestID(r.Context()))
				return
			}
		}
		c, err = h.Service.MarkPaid(r.Context(), commissionID, target, period)
		if err == nil && h.Payroll != nil {
			h.Payroll.Invalidate(r.Context(), period)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "commission.payment."+payload.Status, commissionID, nil, map[string]string{"target": target})
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEarnings(w http.ResponseWriter, r *http.Request) {
	period, err := shared.ResolvePeriod(r, h.Calendar, h.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	earnings, err := h.Service.EarningsForPeriod(r.Context(), chi.URLParam(r, "employeeID"), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"period": period.Summary(), "earnings": earnings}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) audit(r *http.Request, user auth.UserContext, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    user.UserID,
		Action:     action,
		EntityType: "commission",
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
	case errors.Is(err, commission.ErrCommissionNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, commission.ErrManagerRedlineMissing),
		errors.Is(err, commission.ErrRepRedlineMissing),
		errors.Is(err, commission.ErrNoManager):
		api.Fail(w, http.StatusUnprocessableEntity, "override_unavailable", err.Error(), reqID)
	case errors.Is(err, commission.ErrNotPending),
		errors.Is(err, commission.ErrNotEligible),
		errors.Is(err, commission.ErrAlreadyPaid),
		errors.Is(err, commission.ErrConcurrentUpdate):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), reqID)
	case errors.Is(err, commission.ErrInvalidTarget),
		errors.Is(err, commission.ErrNoOverride),
		errors.Is(err, commission.ErrRepRequired),
		errors.Is(err, commission.ErrInvalidAmount):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	case shared.IsForeignKeyViolation(err):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", "customer, sales rep or sales manager does not exist", reqID)
	default:
		slog.Error("commission request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "commission_failed", "commission request failed", reqID)
	}
}
