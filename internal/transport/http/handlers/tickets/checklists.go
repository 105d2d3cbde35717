package ticketshandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"solarops/internal/domain/checklist"
	"solarops/internal/transport/http/api"
	"solarops/internal/transport/http/middleware"
	"solarops/internal/transport/http/shared"
)

func (h *Handler) handleChecklist(w http.ResponseWriter, r *http.Request) {
	t, ok := h.ticket(w, r)
	if !ok {
		return
	}
	view, err := h.Checklists.Get(r.Context(), chi.URLParam(r, "phase"), t.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleChecklistToggle(w http.ResponseWriter, r *http.Request) {
	t, ok := h.ticket(w, r)
	if !ok {
		return
	}
	view, err := h.Checklists.ToggleItem(r.Context(), chi.URLParam(r, "phase"), t.ID, chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	t, ok := h.ticket(w, r)
	if !ok {
		return
	}
	phase := chi.URLParam(r, "phase")
	itemID := chi.URLParam(r, "itemID")
	if !checklist.ValidItem(phase, itemID) {
		writeError(w, r, checklist.ErrUnknownItem)
		return
	}
	file, header, err := shared.FormFile(r, "file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "a multipart file field named file is required", middleware.GetRequestID(r.Context()))
		return
	}
	defer file.Close()

	view, obj, err := h.Checklists.UploadPhoto(r.Context(), checklist.Upload{
		Phase:    phase,
		TicketID: t.ID,
		ItemID:   itemID,
		FileName: header.Filename,
	}, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "ticket.checklist.photo.upload", t.ID, nil, map[string]any{"phase": phase, "itemId": itemID, "path": obj.Path})
	api.Created(w, map[string]any{"checklist": view, "photo": obj}, middleware.GetRequestID(r.Context()))
}

// handlePhotoDelete takes the stored object path in ?path=, as returned by the upload.
func (h *Handler) handlePhotoDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	t, ok := h.ticket(w, r)
	if !ok {
		return
	}
	phase := chi.URLParam(r, "phase")
	itemID := chi.URLParam(r, "itemID")
	objectPath := strings.TrimSpace(r.URL.Query().Get("path"))
	if objectPath == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "path is required", middleware.GetRequestID(r.Context()))
		return
	}
	view, err := h.Checklists.DeletePhoto(r.Context(), phase, t.ID, itemID, objectPath)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, user, "ticket.checklist.photo.delete", t.ID, map[string]any{"phase": phase, "itemId": itemID, "path": objectPath}, nil)
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}
