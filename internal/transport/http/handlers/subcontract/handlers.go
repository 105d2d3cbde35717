package subcontracthandler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"solarops/internal/domain/audit"
	"solarops/internal/domain/auth"
	"solarops/internal/domain/customer"
	"solarops/internal/domain/subcontract"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
	"solarops/internal/transport/http/shared"
)

type Handler struct {
	Service *subcontract.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *subcontract.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/subcontract", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSubcontractRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermSubcontractWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermSubcontractRead, h.Perms)).Get("/statuses", h.handleStatuses)

		r.Route("/contractors", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermSubcontractRead, h.Perms)).Get("/", h.handleListContractors)
			r.With(middleware.RequirePermission(auth.PermSubcontractWrite, h.Perms)).Post("/", h.handleCreateContractor)
			r.With(middleware.RequirePermission(auth.PermSubcontractWrite, h.Perms)).Put("/{contractorID}", h.handleUpdateContractor)
		})

		r.Route("/{jobID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermSubcontractRead, h.Perms)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermSubcontractWrite, h.Perms)).Put("/", h.handleUpdate)
			r.With(middleware.RequirePermission(auth.PermSubcontractWrite, h.Perms)).Put("/status", h.handleStatus)
			r.With(middleware.RequirePermission(auth.PermSubcontractRead, h.Perms)).Get("/invoice.pdf", h.handleInvoice)
			r.With(middleware.RequirePermission(auth.PermSubcontractWrite, h.Perms)).Post("/invoice", h.handleSendInvoice)
		})
	})
}

type jobView struct {
	Job    customer.View      `json:"job"`
	Ledger subcontract.Ledger `json:"ledger"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.Page(r)
	q := r.URL.Query()
	filter := customer.ListFilter{
		Kind:   strings.TrimSpace(q.Get("kind")),
		Search: strings.TrimSpace(q.Get("search")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	jobs, total, err := h.Service.ListJobs(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]customer.View, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, customer.View{Job: job})
	}
	api.Success(w, api.ListResponse{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStatuses(w http.ResponseWriter, r *http.Request) {
	api.Success(w, subcontract.Statuses, middleware.GetRequestID(r.Context()))
}

func decodeJob(r *http.Request) (customer.Job, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return customer.DecodeJob(raw)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	job, err := decodeJob(r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	id, err := h.Service.CreateJob(r.Context(), job)
	if err != nil {
		writeError(w, r, err)
		return
	}
	job.Base().ID = id
	h.audit(r, user, "subcontract.job.create", id, nil, customer.View{Job: job})
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	job, ledger, err := h.Service.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, jobView{Job: customer.View{Job: job}, Ledger: ledger}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	jobID := chi.URLParam(r, "jobID")
	job, err := decodeJob(r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	job.Base().ID = jobID
	if err := h.Service.UpdateJob(r.Context(), job); err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "subcontract.job.update", jobID, nil, customer.View{Job: job})
	api.Success(w, customer.View{Job: job}, middleware.GetRequestID(r.Context()))
}

type statusPayload struct {
	Status string `json:"status"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	jobID := chi.URLParam(r, "jobID")
	var payload statusPayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("status", payload.Status, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	job, err := h.Service.UpdateStatus(r.Context(), jobID, strings.TrimSpace(payload.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "subcontract.job.status", jobID, nil, payload)
	api.Success(w, customer.View{Job: job}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleInvoice(w http.ResponseWriter, r *http.Request) {
	h.writeInvoice(w, r, chi.URLParam(r, "jobID"))
}

// handleSendInvoice marks the job invoiced, stamping today's date the first time, then renders the invoice.
func (h *Handler) handleSendInvoice(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	jobID := chi.URLParam(r, "jobID")
	job, _, err := h.Service.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sub := customer.SubcontractOf(job); sub.Status != subcontract.StatusPaid && sub.Status != subcontract.StatusInvoiceSent {
		if _, err := h.Service.UpdateStatus(r.Context(), jobID, subcontract.StatusInvoiceSent); err != nil {
			writeError(w, r, err)
			return
		}
		h.audit(r, user, "subcontract.job.invoice", jobID, map[string]string{"status": sub.Status}, map[string]string{"status": subcontract.StatusInvoiceSent})
	}
	h.writeInvoice(w, r, jobID)
}

func (h *Handler) writeInvoice(w http.ResponseWriter, r *http.Request, jobID string) {
	var buf bytes.Buffer
	if err := h.Service.Invoice(r.Context(), jobID, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", jobID))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("invoice write failed", "jobId", jobID, "err", err)
	}
}

func (h *Handler) handleListContractors(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	contractors, err := h.Service.ListContractors(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, contractors, middleware.GetRequestID(r.Context()))
}

type contractorPayload struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Active  *bool  `json:"active"`
}

func (p contractorPayload) contractor() subcontract.Contractor {
	c := subcontract.Contractor{
		Name:    strings.TrimSpace(p.Name),
		Company: strings.TrimSpace(p.Company),
		Email:   strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:   strings.TrimSpace(p.Phone),
		Active:  true,
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
	return c
}

func (h *Handler) handleCreateContractor(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload contractorPayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	c := payload.contractor()
	id, err := h.Service.CreateContractor(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "subcontract.contractor.create", id, nil, c)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateContractor(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload contractorPayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	c := payload.contractor()
	c.ID = chi.URLParam(r, "contractorID")
	if err := h.Service.UpdateContractor(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "subcontract.contractor.update", c.ID, nil, c)
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) audit(r *http.Request, user auth.UserContext, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    user.UserID,
		Action:     action,
		EntityType: "subcontract",
		EntityID:   entityID,
		Before:     before,
		After:      after,
	}); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	if errors.Is(err, customer.ErrUnknownKind) {
		api.Fail(w, http.StatusBadRequest, "invalid_kind", err.Error(), reqID)
		return
	}
	api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, customer.ErrCustomerNotFound), errors.Is(err, subcontract.ErrContractorNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, subcontract.ErrNotSubcontract), errors.Is(err, customer.ErrKindChange):
		api.Fail(w, http.StatusConflict, "not_subcontract", err.Error(), reqID)
	case errors.Is(err, subcontract.ErrInvalidStatus):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_status", err.Error(), reqID)
	case errors.Is(err, subcontract.ErrContractorName),
		errors.Is(err, customer.ErrNameRequired),
		errors.Is(err, customer.ErrInvalidAdder),
		errors.Is(err, customer.ErrNegativeValue),
		errors.Is(err, customer.ErrUnknownKind):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	case shared.IsForeignKeyViolation(err):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", "contractor does not exist", reqID)
	default:
		slog.Error("subcontract request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "subcontract_failed", "subcontract request failed", reqID)
	}
}
