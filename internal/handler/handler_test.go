package handler_test

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/canvaid/internal/handler"
	"github.com/sakif/canvaid/internal/metrics"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/service"
	"github.com/sakif/canvaid/internal/testutil"
)

type testServer struct {
	t      *testing.T
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	m := metrics.New()
	logger := testutil.Logger()

	boards := service.NewBoardService(db, m, logger)
	api := handler.API{
		Boards:      handler.NewBoardHandler(boards, logger),
		Sections:    handler.NewSectionHandler(service.NewSectionService(db, m, logger), logger),
		Cards:       handler.NewCardHandler(service.NewCardService(db, m, logger), logger),
		Connections: handler.NewConnectionHandler(service.NewConnectionService(db, m, logger), logger),
		Notes:       handler.NewNoteHandler(service.NewNoteService(db, m, logger), logger),
	}
	pages, err := handler.NewPageHandler(boards, "", logger)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/", pages.HandleBoards)
	r.Get("/canvas/{id}", pages.HandleCanvas)
	r.Get("/healthz", handler.NewHealthHandler(db, logger).HandleHealth)
	r.Route("/api", api.Routes)
	return &testServer{t: t, router: r}
}

// do sends a request with an optional JSON body and returns the recorder.
func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

// create POSTs body and decodes the 201 response into out.
func (s *testServer) create(path string, body any, out any) {
	s.t.Helper()
	rr := s.do(http.MethodPost, path, body)
	require.Equal(s.t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NoError(s.t, json.NewDecoder(rr.Body).Decode(out))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

// seed creates a board with two cards and returns their ids.
func (s *testServer) seed() (boardID, cardA, cardB string) {
	var board model.Board
	s.create("/api/boards", map[string]any{"name": "Plan"}, &board)
	var a, b model.Card
	s.create("/api/cards", map[string]any{"boardId": board.ID, "title": "A", "posX": 0, "posY": 0}, &a)
	s.create("/api/cards", map[string]any{"boardId": board.ID, "title": "B", "posX": 400, "posY": 0}, &b)
	return board.ID, a.ID, b.ID
}

func TestBoards_CRUD(t *testing.T) {
	s := newTestServer(t)

	var board model.Board
	s.create("/api/boards", map[string]any{"name": "Roadmap"}, &board)
	assert.Equal(t, "Roadmap", board.Name)
	assert.Equal(t, 1.0, board.Viewport.Zoom)
	assert.NotNil(t, board.Sections)

	rr := s.do(http.MethodPut, "/api/boards/"+board.ID, map[string]any{
		"viewport": map[string]any{"zoom": 0.1, "panX": 12, "panY": -4},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated model.Board
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
	assert.Equal(t, model.Viewport{Zoom: model.MinZoom, PanX: 12, PanY: -4}, updated.Viewport)

	rr = s.do(http.MethodGet, "/api/boards", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []model.BoardSummary
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, model.MinZoom, list[0].Zoom)

	rr = s.do(http.MethodDelete, "/api/boards/"+board.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.do(http.MethodGet, "/api/boards/"+board.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decodeError(t, rr).Error)
}

func TestBoards_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantField  string
	}{
		{"missing name", http.MethodPost, "/api/boards", map[string]any{}, http.StatusBadRequest, "name"},
		{"malformed json", http.MethodPost, "/api/boards", `{"name":`, http.StatusBadRequest, "body"},
		{"bad limit", http.MethodGet, "/api/boards?limit=ten", nil, http.StatusBadRequest, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			resp := decodeError(t, rr)
			assert.Equal(t, "validation_error", resp.Error)
			assert.Equal(t, tt.wantField, resp.Field)
		})
	}
}

func TestCards_CreateNestsNote(t *testing.T) {
	s := newTestServer(t)
	boardID, cardA, _ := s.seed()

	rr := s.do(http.MethodGet, "/api/boards/"+boardID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var raw struct {
		Cards []map[string]any `json:"cards"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	require.Len(t, raw.Cards, 2)
	assert.Equal(t, cardA, raw.Cards[0]["id"])
	assert.Equal(t, "text", raw.Cards[0]["type"])
	note, ok := raw.Cards[0]["note"].(map[string]any)
	require.True(t, ok, "card has no nested note")
	assert.Equal(t, "A", note["title"])
}

func TestCards_UpdateSectionNull(t *testing.T) {
	s := newTestServer(t)
	boardID, cardA, _ := s.seed()

	var section model.Section
	s.create("/api/sections", map[string]any{"boardId": boardID, "name": "S", "posX": 0, "posY": 0}, &section)
	assert.Equal(t, 400.0, section.Bounds.Width)

	rr := s.do(http.MethodPut, "/api/cards/"+cardA, map[string]any{"sectionId": section.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var card model.Card
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&card))
	require.NotNil(t, card.SectionID)

	rr = s.do(http.MethodPut, "/api/cards/"+cardA, `{"sectionId": null, "posX": 5}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	card = model.Card{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&card))
	assert.Nil(t, card.SectionID)
	assert.Equal(t, 5.0, card.Position.X)
}

func TestSections_DeleteUnsectionsCards(t *testing.T) {
	s := newTestServer(t)
	boardID, _, _ := s.seed()

	var section model.Section
	s.create("/api/sections", map[string]any{"boardId": boardID, "name": "S", "posX": 0, "posY": 0}, &section)
	var card model.Card
	s.create("/api/cards", map[string]any{"boardId": boardID, "sectionId": section.ID, "title": "In"}, &card)

	rr := s.do(http.MethodDelete, "/api/sections/"+section.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.do(http.MethodGet, "/api/boards/"+boardID, nil)
	var board model.Board
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&board))
	assert.Empty(t, board.Sections)
	assert.Len(t, board.Cards, 3)
	for _, c := range board.Cards {
		assert.Nil(t, c.SectionID)
	}
}

func TestConnections_StatusCodes(t *testing.T) {
	s := newTestServer(t)
	boardID, a, b := s.seed()

	var conn model.Connection
	s.create("/api/connections", map[string]any{"boardId": boardID, "fromCardId": a, "toCardId": b}, &conn)
	assert.Equal(t, model.SideBottom, conn.From.Side)
	assert.Equal(t, model.SideTop, conn.To.Side)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{"self", map[string]any{"boardId": boardID, "fromCardId": a, "toCardId": a}, http.StatusBadRequest},
		{"bad anchor", map[string]any{"boardId": boardID, "fromCardId": a, "toCardId": b, "toAnchor": "up"}, http.StatusBadRequest},
		{"missing card", map[string]any{"boardId": boardID, "fromCardId": a, "toCardId": "ghost"}, http.StatusNotFound},
		{"reverse duplicate", map[string]any{"boardId": boardID, "fromCardId": b, "toCardId": a}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(http.MethodPost, "/api/connections", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}

	// Deleting a card takes its connections with it.
	rr := s.do(http.MethodDelete, "/api/cards/"+a, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(http.MethodDelete, "/api/connections/"+conn.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreate_IdempotentWithClientID(t *testing.T) {
	s := newTestServer(t)
	boardID, _, _ := s.seed()

	body := map[string]any{"id": "card-1", "boardId": boardID, "title": "Once"}
	var first, second model.Card
	s.create("/api/cards", body, &first)
	s.create("/api/cards", body, &second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.NoteID, second.NoteID)

	rr := s.do(http.MethodGet, "/api/boards", nil)
	var list []model.BoardSummary
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	assert.Equal(t, 3, list[0].CardCount)
}

func TestNotes(t *testing.T) {
	s := newTestServer(t)

	var note model.Note
	s.create("/api/notes", map[string]any{"title": "Reading", "tags": []string{"books"}}, &note)
	assert.Equal(t, []string{"books"}, note.Tags)

	rr := s.do(http.MethodGet, "/api/notes", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var notes []model.Note
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&notes))
	assert.Len(t, notes, 1)
}

func TestNotesFilteredByTag(t *testing.T) {
	s := newTestServer(t)
	s.create("/api/notes", map[string]any{"title": "Reading", "tags": []string{"books"}}, &model.Note{})
	s.create("/api/notes", map[string]any{"title": "Groceries"}, &model.Note{})

	list := func(path string) []model.Note {
		t.Helper()
		rr := s.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var notes []model.Note
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&notes))
		return notes
	}

	assert.Len(t, list("/api/notes"), 2)
	byTag := list("/api/notes?tag=books")
	require.Len(t, byTag, 1)
	assert.Equal(t, "Reading", byTag[0].Title)
	assert.Len(t, list("/api/notes?tagged=true"), 1)
	assert.Empty(t, list("/api/notes?tag=films"))

	rr := s.do(http.MethodGet, "/api/notes?tagged=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestThumbnail(t *testing.T) {
	s := newTestServer(t)
	boardID, _, _ := s.seed()

	rr := s.do(http.MethodGet, "/api/boards/"+boardID+"/thumbnail.png?width=300&height=200", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	img, err := png.Decode(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())

	rr = s.do(http.MethodGet, "/api/boards/"+boardID+"/thumbnail.png?width=0", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPages(t *testing.T) {
	s := newTestServer(t)
	boardID, _, _ := s.seed()

	rr := s.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/canvas/"+boardID)
	assert.Contains(t, rr.Body.String(), "2 cards")

	rr = s.do(http.MethodGet, "/canvas/"+boardID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `data-board-id="`+boardID+`"`)

	rr = s.do(http.MethodGet, "/canvas/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}
