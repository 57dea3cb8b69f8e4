package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/canvaid/internal/api"
	"github.com/sakif/canvaid/internal/render"
	"github.com/sakif/canvaid/internal/service"
)

// BoardHandler serves the board collection, single boards and their
// thumbnails.
type BoardHandler struct {
	svc    *service.BoardService
	logger *slog.Logger
}

func NewBoardHandler(svc *service.BoardService, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{svc: svc, logger: logger}
}

// HandleList returns board summaries, newest update first.
//
// HTTP: GET /api/boards?limit=50&offset=0
func (h *BoardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
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

	boards, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

// HandleCreate creates an empty board.
//
// HTTP: POST /api/boards
// REQUEST BODY: {"name": "Roadmap", "description": "optional"}
func (h *BoardHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateBoardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	board, err := h.svc.Create(r.Context(), service.CreateBoardInput{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

// HandleGet returns the full board: sections, cards with their notes, and
// connections.
//
// HTTP: GET /api/boards/{id}
func (h *BoardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// HandleUpdate changes name, description, thumbnail or viewport.
//
// HTTP: PUT /api/boards/{id}
// REQUEST BODY: {"viewport": {"zoom": 1.2, "panX": -40, "panY": 10}}
func (h *BoardHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateBoardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	board, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), service.BoardPatch{
		Name:        req.Name,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		Viewport:    req.Viewport,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// HandleDelete removes the board and everything on it.
//
// HTTP: DELETE /api/boards/{id}
func (h *BoardHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleThumbnail renders the board as a PNG.
//
// HTTP: GET /api/boards/{id}/thumbnail.png?width=480&height=320
//
// The image is rendered into a buffer first so a rendering failure can still
// be reported as a JSON error instead of a truncated image.
func (h *BoardHandler) HandleThumbnail(w http.ResponseWriter, r *http.Request) {
	opts := render.DefaultOptions()
	var err error
	if opts.Width, err = queryInt(r, "width", opts.Width); err != nil {
		writeError(w, err)
		return
	}
	if opts.Height, err = queryInt(r, "height", opts.Height); err != nil {
		writeError(w, err)
		return
	}
	opts.Padding = float64(min(opts.Width, opts.Height)) / 20
	if err := opts.Validate(); err != nil {
		writeError(w, validationError("width", err))
		return
	}

	board, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := render.PNG(&buf, board, opts); err != nil {
		h.logger.Error("failed to render thumbnail",
			slog.String("board", board.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("failed to write thumbnail", slog.String("error", err.Error()))
	}
}
