package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/canvaid/internal/api"
	"github.com/sakif/canvaid/internal/service"
)

type NoteHandler struct {
	svc    *service.NoteService
	logger *slog.Logger
}

func NewNoteHandler(svc *service.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{svc: svc, logger: logger}
}

// HTTP: GET /api/notes?limit=50&offset=0&tag=books&tagged=true
//
// tag keeps notes carrying that tag. tagged=true keeps notes with any tag.
func (h *NoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	tagged, err := queryBool(r, "tagged", false)
	if err != nil {
		writeError(w, err)
		return
	}
	notes, err := h.svc.List(r.Context(), service.ListNotesInput{
		Limit:  limit,
		Offset: offset,
		Tag:    r.URL.Query().Get("tag"),
		Tagged: tagged,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HTTP: POST /api/notes
// REQUEST BODY: {"title": "Reading list", "content": "...", "tags": ["books"]}
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Validate(req); err != nil {
		writeError(w, err)
		return
	}
	note, err := h.svc.Create(r.Context(), req.Title, req.Content, req.Tags, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}
