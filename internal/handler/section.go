package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/canvaid/internal/api"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/service"
)

type SectionHandler struct {
	svc    *service.SectionService
	logger *slog.Logger
}

func NewSectionHandler(svc *service.SectionService, logger *slog.Logger) *SectionHandler {
	return &SectionHandler{svc: svc, logger: logger}
}

// HandleCreate adds a section. Width and height default to 400×300.
//
// HTTP: POST /api/sections
// REQUEST BODY: {"boardId": "...", "name": "Ideas", "posX": 0, "posY": 0}
func (h *SectionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	section, err := h.svc.Create(r.Context(), service.CreateSectionInput{
		ID:       req.ID,
		BoardID:  req.BoardID,
		Name:     req.Name,
		Position: model.Point{X: req.PosX, Y: req.PosY},
		Width:    req.Width,
		Height:   req.Height,
		Color:    req.Color,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, section)
}

// HTTP: PUT /api/sections/{id}
func (h *SectionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateSectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	section, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), service.SectionPatch{
		Name:        req.Name,
		PosX:        req.PosX,
		PosY:        req.PosY,
		Width:       req.Width,
		Height:      req.Height,
		IsCollapsed: req.IsCollapsed,
		Color:       req.Color,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

// HandleDelete removes the section. Its cards stay, unsectioned.
//
// HTTP: DELETE /api/sections/{id}
func (h *SectionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
