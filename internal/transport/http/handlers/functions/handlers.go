package functionshandler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"solarops/internal/domain/auth"
	"solarops/internal/domain/scheduling"
	"solarops/internal/platform/functions"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
)

// Handler serves the function endpoints. Responses are the bare function
// result, the shape functions.Client decodes, so a deployment can point
// FUNCTIONS_URL at another instance of this server.
type Handler struct {
	Generator functions.SiteSurveyGenerator
	Token     string
	Perms     middleware.PermissionStore
}

func NewHandler(generator functions.SiteSurveyGenerator, token string, perms middleware.PermissionStore) *Handler {
	return &Handler{Generator: generator, Token: token, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/functions/"+functions.SiteSurveyPDF, h.handleSiteSurveyPDF)
}

// authorized accepts the shared function token, or a signed-in user allowed to work tickets.
func (h *Handler) authorized(r *http.Request) (bool, int) {
	if h.Token != "" {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.Token)) == 1 {
				return true, 0
			}
		}
	}
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		return false, http.StatusUnauthorized
	}
	if h.Perms == nil {
		return false, http.StatusForbidden
	}
	allowed, err := h.Perms.HasPermission(r.Context(), user.RoleID, auth.PermSchedulingWork)
	if err != nil {
		slog.Warn("function permission check failed", "userId", user.UserID, "err", err)
		return false, http.StatusInternalServerError
	}
	if !allowed {
		return false, http.StatusForbidden
	}
	return true, 0
}

func writeResult(w http.ResponseWriter, status int, res functions.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Warn("write function result failed", "err", err)
	}
}

func (h *Handler) handleSiteSurveyPDF(w http.ResponseWriter, r *http.Request) {
	if ok, status := h.authorized(r); !ok {
		writeResult(w, status, functions.Result{Error: http.StatusText(status)})
		return
	}
	var req functions.SiteSurveyRequest
	if err := api.Decode(r, &req); err != nil {
		writeResult(w, http.StatusBadRequest, functions.Result{Error: "invalid request payload"})
		return
	}
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.TicketID = strings.TrimSpace(req.TicketID)
	if req.CustomerID == "" || req.TicketID == "" {
		writeResult(w, http.StatusBadRequest, functions.Result{Error: "customer_id and ticket_id are required"})
		return
	}
	if h.Generator == nil {
		writeResult(w, http.StatusServiceUnavailable, functions.Result{Error: functions.ErrNotConfigured.Error()})
		return
	}

	res, err := h.Generator.GenerateSiteSurvey(r.Context(), req.CustomerID, req.TicketID)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, scheduling.ErrTicketNotFound):
			status = http.StatusNotFound
		case errors.Is(err, scheduling.ErrNotSiteSurvey):
			status = http.StatusUnprocessableEntity
		default:
			slog.Error("site survey pdf failed", "ticketId", req.TicketID, "err", err, "requestId", middleware.GetRequestID(r.Context()))
		}
		res.Success = false
		if res.Error == "" {
			res.Error = err.Error()
		}
		writeResult(w, status, res)
		return
	}
	writeResult(w, http.StatusOK, res)
}
