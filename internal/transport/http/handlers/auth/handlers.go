package authhandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"solarops/internal/domain/audit"
	"solarops/internal/domain/auth"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
	"solarops/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Audit   *audit.Service
}

func NewHandler(service *auth.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// RegisterPublicRoutes mounts the endpoints reachable without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/auth/logout", h.HandleLogout)
	r.Put("/auth/password", h.HandleChangePassword)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Info("login rejected", "email", strings.ToLower(strings.TrimSpace(payload.Email)))
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
			return
		}
		slog.Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	h.audit(r, result.UserID, "auth.login")
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.Refresh(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrInactiveUser) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

// HandleLogout only records the event; tokens are stateless and expire on their own.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok {
		h.audit(r, user.UserID, "auth.logout")
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload changePasswordRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	err := h.Service.ChangePassword(r.Context(), user.UserID, payload.CurrentPassword, payload.NewPassword)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, auth.ErrWeakPassword):
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "newPassword", Reason: err.Error()}})
		return
	case errors.Is(err, auth.ErrInactiveUser):
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", middleware.GetRequestID(r.Context()))
		return
	default:
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update password", middleware.GetRequestID(r.Context()))
		return
	}
	h.audit(r, user.UserID, "auth.password.change")
	api.Success(w, map[string]string{"status": "password_changed"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) audit(r *http.Request, userID, action string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{ActorID: userID, Action: action, EntityType: "user", EntityID: userID}); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
