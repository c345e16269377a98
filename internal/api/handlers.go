package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notebox/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

func decodeNote(w http.ResponseWriter, r *http.Request) (NoteRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return req, false
	}
	return req, true
}

// ListNotes handles GET /notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, st := h.svc.ListWithBackend(r.Context())
	items := make([]NoteItem, len(notes))
	for i, n := range notes {
		items[i] = noteservice.Item(n)
	}
	writeJSON(w, http.StatusOK, NoteListResponse{
		Notes:   items,
		Total:   len(items),
		Backend: st.Label,
	})
}

// GetNote handles GET /notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, noteservice.Item(n))
}

// CreateNote handles POST /notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNote(w, r)
	if !ok {
		return
	}
	n, err := h.svc.CreateAndSave(r.Context(), req.Title, req.Content)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, noteservice.Item(n))
}

// UpdateNote handles PUT /notes/{id}.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNote(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req.Title, req.Content)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, noteservice.Item(n))
}

// DeleteNote handles DELETE /notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllNotes handles DELETE /notes?confirm=true.
func (h *Handler) DeleteAllNotes(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.svc.DeleteAll(r.Context(), confirmed); err != nil {
		writeError(w, "delete all notes", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Backend handles GET /backend.
func (h *Handler) Backend(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Backend())
}

// SwitchBackend handles POST /backend/switch.
func (h *Handler) SwitchBackend(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.ToggleBackend(r.Context())
	if err != nil {
		writeError(w, "switch backend", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
