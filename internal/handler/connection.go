package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/canvaid/internal/api"
	"github.com/sakif/canvaid/internal/service"
)

type ConnectionHandler struct {
	svc    *service.ConnectionService
	logger *slog.Logger
}

func NewConnectionHandler(svc *service.ConnectionService, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{svc: svc, logger: logger}
}

// HandleCreate links two cards.
//
// HTTP: POST /api/connections
// REQUEST BODY: {"boardId": "...", "fromCardId": "a", "toCardId": "b", "fromAnchor": "right"}
//
// RESPONSES:
//
//	201 created (or the stored record when the id was already used on this board)
//	400 self connection or unknown anchor
//	404 a card is missing or on another board
//	409 the pair is already connected, in either direction
func (h *ConnectionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateConnectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.svc.Create(r.Context(), service.CreateConnectionInput{
		ID:         req.ID,
		BoardID:    req.BoardID,
		FromCardID: req.FromCardID,
		ToCardID:   req.ToCardID,
		FromAnchor: req.FromAnchor,
		ToAnchor:   req.ToAnchor,
		Color:      req.Color,
		Label:      req.Label,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

// HTTP: DELETE /api/connections/{id}
func (h *ConnectionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
