package corehandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"solarops/internal/domain/audit"
	"solarops/internal/domain/auth"
	"solarops/internal/domain/core"
	cryptoutil "solarops/internal/platform/crypto"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
	"solarops/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *core.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleInviteEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(middleware.RequireSelfOr(auth.PermEmployeesRead, "employeeID", h.Perms)).Get("/", h.handleGetEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/", h.handleUpdateProfile)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Delete("/", h.handleDeactivate)
			r.With(middleware.RequirePermission(auth.PermEmployeesPay, h.Perms)).Put("/pay", h.handleUpdatePay)
			r.With(middleware.RequireSelfOr(auth.PermEmployeesPay, "employeeID", h.Perms)).Put("/bank", h.handleUpdateBank)
		})
	})
}

func (h *Handler) canManagePay(r *http.Request, user auth.UserContext) bool {
	allowed, err := h.Perms.HasPermission(r.Context(), user.RoleID, auth.PermEmployeesPay)
	if err != nil {
		slog.Warn("pay permission check failed", "userId", user.UserID, "err", err)
		return false
	}
	return allowed
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Service.GetEmployee(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, core.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "me_failed", "failed to load profile", middleware.GetRequestID(r.Context()))
		return
	}
	core.FilterEmployeeFields(emp, user, false)

	api.Success(w, map[string]any{
		"user": map[string]string{
			"id":     user.UserID,
			"roleId": user.RoleID,
			"role":   user.RoleName,
		},
		"employee": emp,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	filter := core.ListFilter{
		Role:   strings.TrimSpace(r.URL.Query().Get("role")),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}
	employees, err := h.Service.ListEmployees(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}

	canManagePay := h.canManagePay(r, user)
	for i := range employees {
		core.FilterEmployeeFields(&employees[i], user, canManagePay)
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	core.FilterEmployeeFields(emp, user, h.canManagePay(r, user))
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

type profilePayload struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	ManagerID string `json:"managerId"`
	Password  string `json:"password,omitempty"`
}

func (p profilePayload) profile() core.Profile {
	return core.Profile{
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		Role:      p.Role,
		Status:    p.Status,
		ManagerID: p.ManagerID,
	}
}

func validateProfile(v *shared.Validator, p profilePayload) {
	v.Required("email", p.Email, "is required")
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		v.Add("email", "must be a valid email address")
	}
	v.Required("firstName", p.FirstName, "is required")
	v.Required("role", p.Role, "is required")
	v.Enum("role", p.Role, auth.Roles, "is not a valid role")
	v.Enum("status", p.Status, []string{auth.UserStatusActive, auth.UserStatusDisabled}, "must be active or disabled")
	v.UUID("managerId", p.ManagerID)
}

func (h *Handler) handleInviteEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload profilePayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	validateProfile(v, payload)
	if err := auth.ValidatePassword(payload.Password); err != nil {
		v.Add("password", err.Error())
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.Invite(r.Context(), payload.profile(), payload.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload.Password = ""
	h.audit(r, user, "employee.invite", id, nil, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	var payload profilePayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	validateProfile(v, payload)
	if payload.ManagerID == employeeID {
		v.Add("managerId", "must not be the employee")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.UpdateProfile(r.Context(), employeeID, payload.profile()); err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "employee.update", employeeID, nil, payload)
	api.Success(w, map[string]string{"id": employeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdatePay(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	var payload core.PayFields
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	before, err := h.Service.GetEmployee(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.UpdatePay(r.Context(), employeeID, payload); err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "employee.pay.update", employeeID, core.PayFields{
		HourlyRate:      before.HourlyRate,
		IsSalary:        before.IsSalary,
		PerWattRate:     before.PerWattRate,
		BatteryPayRates: before.BatteryPayRates,
		PPWRedline:      before.PPWRedline,
	}, payload)
	api.Success(w, map[string]string{"id": employeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateBank(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	var payload core.BankDetails
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.UpdateBank(r.Context(), employeeID, payload); err != nil {
		writeError(w, r, err)
		return
	}
	// account numbers never reach the audit log
	h.audit(r, user, "employee.bank.update", employeeID, nil, map[string]string{
		"accountNumber": core.MaskAccount(payload.Account),
	})
	api.Success(w, map[string]string{"id": employeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == user.UserID {
		api.Fail(w, http.StatusConflict, "self_deactivate", "you cannot deactivate your own account", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.Deactivate(r.Context(), employeeID); err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "employee.deactivate", employeeID, nil, nil)
	api.Success(w, map[string]string{"id": employeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) audit(r *http.Request, user auth.UserContext, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    user.UserID,
		Action:     action,
		EntityType: "employee",
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
	case errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, core.ErrInvalidRole),
		errors.Is(err, core.ErrInvalidRouting),
		errors.Is(err, core.ErrAccountMismatch),
		errors.Is(err, core.ErrInvalidAccount),
		errors.Is(err, core.ErrNegativeRate),
		errors.Is(err, core.ErrInvalidBatteryBucket):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	case errors.Is(err, cryptoutil.ErrNotConfigured):
		api.Fail(w, http.StatusServiceUnavailable, "encryption_unavailable", "bank details cannot be stored until an encryption key is configured", reqID)
	case shared.IsUniqueViolation(err):
		api.Fail(w, http.StatusConflict, "duplicate", "an employee with that email already exists", reqID)
	default:
		slog.Error("employee request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "employee_failed", "employee request failed", reqID)
	}
}
