package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/canvaid/internal/api"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/service"
)

type CardHandler struct {
	svc    *service.CardService
	logger *slog.Logger
}

func NewCardHandler(svc *service.CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{svc: svc, logger: logger}
}

// HandleCreate adds a card. Without noteId a note is created from the title,
// content, tags and color fields; the response nests it under "note".
//
// HTTP: POST /api/cards
// REQUEST BODY: {"boardId": "...", "type": "text", "posX": 40, "posY": 80, "title": "Idea"}
func (h *CardHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	card, err := h.svc.Create(r.Context(), service.CreateCardInput{
		ID:           req.ID,
		BoardID:      req.BoardID,
		SectionID:    req.SectionID,
		Position:     model.Point{X: req.PosX, Y: req.PosY},
		Kind:         model.CardKind(req.Type),
		NoteID:       req.NoteID,
		Title:        req.Title,
		Content:      req.Content,
		Tags:         req.Tags,
		Color:        req.Color,
		AccentColor:  req.AccentColor,
		ImageURL:     req.ImageURL,
		Caption:      req.Caption,
		URL:          req.URL,
		Description:  req.Description,
		Favicon:      req.Favicon,
		PreviewImage: req.PreviewImage,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// HandleUpdate patches a card. "sectionId": null unsections it; omitting
// sectionId leaves the membership alone.
//
// HTTP: PUT /api/cards/{id}
func (h *CardHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	card, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), service.CardPatch{
		PosX:         req.PosX,
		PosY:         req.PosY,
		SectionID:    req.SectionID,
		Title:        req.Title,
		Content:      req.Content,
		AccentColor:  req.AccentColor,
		ImageURL:     req.ImageURL,
		Caption:      req.Caption,
		URL:          req.URL,
		Description:  req.Description,
		Favicon:      req.Favicon,
		PreviewImage: req.PreviewImage,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// HandleDelete removes the card and its connections.
//
// HTTP: DELETE /api/cards/{id}
func (h *CardHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
