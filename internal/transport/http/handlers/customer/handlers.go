package customerhandler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"solarops/internal/domain/audit"
	"solarops/internal/domain/auth"
	"solarops/internal/domain/customer"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
	"solarops/internal/transport/http/shared"
)

type Handler struct {
	Service *customer.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *customer.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCustomersRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermCustomersWrite, h.Perms)).Post("/", h.handleCreate)
		r.Route("/{customerID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermCustomersRead, h.Perms)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermCustomersWrite, h.Perms)).Put("/", h.handleUpdate)
			r.With(middleware.RequirePermission(auth.PermCustomersWrite, h.Perms)).Delete("/", h.handleDelete)
			r.With(middleware.RequirePermission(auth.PermCustomersRead, h.Perms)).Get("/timeline", h.handleTimeline)
			r.With(middleware.RequirePermission(auth.PermCustomersWrite, h.Perms)).Post("/timeline", h.handleRecordMilestone)
			r.With(middleware.RequirePermission(auth.PermCustomersRead, h.Perms)).Get("/documents", h.handleDocuments)
			r.With(middleware.RequirePermission(auth.PermCustomersWrite, h.Perms)).Post("/documents", h.handleUploadDocument)
			r.With(middleware.RequirePermission(auth.PermCustomersWrite, h.Perms)).Delete("/documents/{documentID}", h.handleDeleteDocument)
		})
	})
}

func views(jobs []customer.Job) []customer.View {
	out := make([]customer.View, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, customer.View{Job: job})
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.Page(r)
	q := r.URL.Query()
	filter := customer.ListFilter{
		Kind:       strings.TrimSpace(q.Get("kind")),
		Search:     strings.TrimSpace(q.Get("search")),
		SalesRepID: strings.TrimSpace(q.Get("salesRepId")),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if user.RoleName == auth.RoleSalesRep {
		filter.SalesRepID = user.UserID
	}

	jobs, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, api.ListResponse{Items: views(jobs), Total: total, Limit: page.Limit, Offset: page.Offset}, middleware.GetRequestID(r.Context()))
}

// decodeJob reads a job body; CRM is assumed when the client omits "kind".
func decodeJob(r *http.Request) (customer.Job, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return customer.DecodeJobAs(raw, customer.KindCRM)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	job, err := decodeJob(r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if user.RoleName == auth.RoleSalesRep {
		if crm, ok := job.(*customer.CrmCustomer); ok && crm.SalesRepID == "" {
			crm.SalesRepID = user.UserID
		}
	}

	id, err := h.Service.Create(r.Context(), job)
	if err != nil {
		writeError(w, r, err)
		return
	}
	job.Base().ID = id
	h.audit(r, user, "customer.create", id, nil, customer.View{Job: job})
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	job, err := h.Service.Get(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, customer.View{Job: job}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	customerID := chi.URLParam(r, "customerID")
	before, err := h.Service.Get(r.Context(), customerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	job, err := decodeJob(r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	job.Base().ID = customerID

	if err := h.Service.Update(r.Context(), job); err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "customer.update", customerID, customer.View{Job: before}, customer.View{Job: job})
	api.Success(w, customer.View{Job: job}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	customerID := chi.URLParam(r, "customerID")
	if err := h.Service.Delete(r.Context(), customerID); err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "customer.delete", customerID, nil, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.Timeline(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

type milestonePayload struct {
	Milestone  string `json:"milestone"`
	TicketID   string `json:"ticketId"`
	OccurredAt string `json:"occurredAt"`
}

func (h *Handler) handleRecordMilestone(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	customerID := chi.URLParam(r, "customerID")
	var payload milestonePayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("milestone", payload.Milestone, "is required")
	v.Enum("milestone", payload.Milestone, customer.Milestones, customer.ErrUnknownMilestone.Error())
	v.UUID("ticketId", payload.TicketID)
	at := time.Now()
	if strings.TrimSpace(payload.OccurredAt) != "" {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(payload.OccurredAt))
		if err != nil {
			v.Add("occurredAt", "must be an RFC 3339 timestamp")
		}
		at = parsed
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.RecordMilestone(r.Context(), customerID, payload.Milestone, payload.TicketID, at); err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "customer.timeline.record", customerID, nil, payload)
	api.Success(w, map[string]string{"status": "recorded"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Service.Documents(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, docs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	customerID := chi.URLParam(r, "customerID")
	file, header, err := shared.FormFile(r, "file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "a multipart file field named file is required", middleware.GetRequestID(r.Context()))
		return
	}
	defer file.Close()

	doc, err := h.Service.UploadDocument(r.Context(), customerID, header.Filename, user.UserID, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "customer.document.upload", customerID, nil, map[string]any{"documentId": doc.ID, "fileName": doc.FileName, "size": doc.Size})
	api.Created(w, doc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	customerID := chi.URLParam(r, "customerID")
	documentID := chi.URLParam(r, "documentID")
	if err := h.Service.DeleteDocument(r.Context(), customerID, documentID); err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "customer.document.delete", customerID, map[string]string{"documentId": documentID}, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) audit(r *http.Request, user auth.UserContext, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    user.UserID,
		Action:     action,
		EntityType: "customer",
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
	case errors.Is(err, customer.ErrCustomerNotFound), errors.Is(err, customer.ErrDocumentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, customer.ErrKindChange):
		api.Fail(w, http.StatusConflict, "kind_change", err.Error(), reqID)
	case errors.Is(err, customer.ErrUnknownKind),
		errors.Is(err, customer.ErrNameRequired),
		errors.Is(err, customer.ErrInvalidAdder),
		errors.Is(err, customer.ErrNegativeValue),
		errors.Is(err, customer.ErrUnknownMilestone):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	case shared.IsForeignKeyViolation(err):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", "sales rep, contractor or ticket does not exist", reqID)
	default:
		slog.Error("customer request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "customer_failed", "customer request failed", reqID)
	}
}
