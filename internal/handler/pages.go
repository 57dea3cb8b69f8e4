// Package handler contains the HTTP handlers of the canvas server.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements the http.Handler interface:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Most handlers here are methods with the http.HandlerFunc signature, grouped
// in one struct per resource (boards, sections, cards, connections, notes).
//
// HANDLER RESPONSIBILITIES:
//  1. Decode the request (URL params, query, JSON body) and validate its shape
//  2. Call the service
//  3. Write the response through writeJSON / writeError
//
// Business rules live in package service, not here.
package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageHandler serves the two HTML pages: the board list and the canvas shell
// that a browser client mounts onto.
//
// TEMPLATE COMPOSITION:
// base.html defines the page frame with a {{template "content" .}} slot. Each
// page file defines its own "content", so every page is parsed into its own
// template set; parsing both pages into one set would make the second
// "content" overwrite the first.
type PageHandler struct {
	boards *template.Template
	canvas *template.Template
	svc    *service.BoardService
	apiURL string
	logger *slog.Logger
}

// NewPageHandler parses the embedded templates once at startup. apiURL is
// the REST base the canvas page's client talks to; empty means same origin.
func NewPageHandler(svc *service.BoardService, apiURL string, logger *slog.Logger) (*PageHandler, error) {
	boards, err := template.ParseFS(templateFS, "templates/base.html", "templates/boards.html")
	if err != nil {
		return nil, err
	}
	canvas, err := template.ParseFS(templateFS, "templates/base.html", "templates/canvas.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		boards: boards,
		canvas: canvas,
		svc:    svc,
		apiURL: apiURL,
		logger: logger,
	}, nil
}

type boardsPage struct {
	Title  string
	Boards []model.BoardSummary
}

type canvasPage struct {
	Title  string
	Board  *model.Board
	APIURL string
}

// HandleBoards lists the boards.
//
// HTTP: GET /
func (h *PageHandler) HandleBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.svc.List(r.Context(), 0, 0)
	if err != nil {
		h.logger.Error("failed to load boards for page", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render(w, h.boards, boardsPage{Title: "Boards", Boards: boards})
}

// HandleCanvas serves the shell page for one board.
//
// HTTP: GET /canvas/{id}
func (h *PageHandler) HandleCanvas(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.render(w, h.canvas, canvasPage{Title: board.Name, Board: board, APIURL: h.apiURL})
}

func (h *PageHandler) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	// Set content type header BEFORE writing the body
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
