package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/canvas"
	"github.com/sakif/canvaid/internal/client"
	"github.com/sakif/canvaid/internal/handler"
	"github.com/sakif/canvaid/internal/metrics"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/service"
	"github.com/sakif/canvaid/internal/testutil"
	"github.com/sakif/canvaid/internal/workspace"
)

// newAPIServer runs the real REST stack over an in-memory database.
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := testutil.NewTestDB(t)
	m := metrics.New()
	logger := testutil.Logger()

	api := handler.API{
		Boards:      handler.NewBoardHandler(service.NewBoardService(db, m, logger), logger),
		Sections:    handler.NewSectionHandler(service.NewSectionService(db, m, logger), logger),
		Cards:       handler.NewCardHandler(service.NewCardService(db, m, logger), logger),
		Connections: handler.NewConnectionHandler(service.NewConnectionService(db, m, logger), logger),
		Notes:       handler.NewNoteHandler(service.NewNoteService(db, m, logger), logger),
	}
	r := chi.NewRouter()
	r.Route("/api", api.Routes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url string, opts ...client.Option) *client.Client {
	return client.New(url, append([]client.Option{client.WithLogger(testutil.Logger())}, opts...)...)
}

func TestClient_DrivesAWorkspace(t *testing.T) {
	srv := newAPIServer(t)
	c := newClient(srv.URL)
	ctx := context.Background()

	board, err := c.CreateBoard(ctx, "Roadmap", "")
	require.NoError(t, err)

	ws := workspace.New(c, testutil.Logger())
	require.NoError(t, ws.Open(ctx, board.ID))

	sec, err := ws.AddSection(canvas.NewSection{Name: "Now", Size: model.Size{Width: 400, Height: 300}})
	require.NoError(t, err)
	inside, err := ws.AddCard(canvas.NewCard{
		Position:  model.Point{X: 20, Y: 20},
		SectionID: model.StringPtr(sec.ID),
		Content:   model.TextContent{Title: "Ship it"},
	})
	require.NoError(t, err)
	loose, err := ws.AddCard(canvas.NewCard{
		Position: model.Point{X: 700, Y: 0},
		Content:  model.LinkContent{Title: "Go", URL: "https://go.dev"},
	})
	require.NoError(t, err)
	_, err = ws.AddConnection(canvas.NewConnection{
		From: model.Anchor{CardID: inside.ID, Side: model.SideRight},
		To:   model.Anchor{CardID: loose.ID, Side: model.SideLeft},
	})
	require.NoError(t, err)
	ws.Wait()
	require.Empty(t, ws.Err())

	stored, err := c.LoadBoard(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, stored.Sections, 1)
	require.Len(t, stored.Cards, 2)
	require.Len(t, stored.Connections, 1)
	assert.Equal(t, model.SideRight, stored.Connections[0].From.Side)

	// Deleting the section keeps its card, now unsectioned, on both sides.
	require.NoError(t, ws.DeleteSection(sec.ID))
	ws.Wait()
	require.Empty(t, ws.Err())
	stored, err = c.LoadBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Sections)
	for _, card := range stored.Cards {
		assert.Nil(t, card.SectionID, card.ID)
	}

	require.NoError(t, ws.DeleteCard(loose.ID))
	ws.Wait()
	stored, err = c.LoadBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Cards, 1)
	assert.Empty(t, stored.Connections)

	summaries, err := c.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].CardCount)
}

func TestClient_UpdateCardMovesBetweenSections(t *testing.T) {
	srv := newAPIServer(t)
	c := newClient(srv.URL)
	ctx := context.Background()

	board, err := c.CreateBoard(ctx, "Moves", "")
	require.NoError(t, err)
	sec := model.NewSection("S", model.Point{}, model.Size{Width: 400, Height: 300})
	sec.ID = "sec-1"
	require.NoError(t, c.CreateSection(ctx, board.ID, sec))

	card := model.Card{ID: "card-1", SectionID: model.StringPtr(sec.ID), Content: model.TextContent{Title: "T"}}
	require.NoError(t, c.CreateCard(ctx, board.ID, card))

	card.SectionID = nil
	card.Position = model.Point{X: 900, Y: 900}
	card.Content = model.TextContent{Title: "Moved", Content: "body"}
	require.NoError(t, c.UpdateCard(ctx, board.ID, card))

	stored, err := c.LoadBoard(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, stored.Cards, 1)
	assert.Nil(t, stored.Cards[0].SectionID)
	assert.Equal(t, model.Point{X: 900, Y: 900}, stored.Cards[0].Position)
	assert.Equal(t, "Moved", stored.Cards[0].Content.Heading())

	require.NoError(t, c.SaveViewport(ctx, board.ID, model.Viewport{Zoom: 2, PanX: 10, PanY: -5}))
	stored, err = c.LoadBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Viewport{Zoom: 2, PanX: 10, PanY: -5}, stored.Viewport)
}

func TestClient_MapsErrorResponses(t *testing.T) {
	srv := newAPIServer(t)
	c := newClient(srv.URL)
	ctx := context.Background()

	_, err := c.LoadBoard(ctx, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)

	board, err := c.CreateBoard(ctx, "Errors", "")
	require.NoError(t, err)
	for _, id := range []string{"a", "b"} {
		require.NoError(t, c.CreateCard(ctx, board.ID, model.Card{ID: id, Content: model.TextContent{Title: id}}))
	}

	self := model.Connection{ID: "self", From: model.Anchor{CardID: "a"}, To: model.Anchor{CardID: "a"}}
	err = c.CreateConnection(ctx, board.ID, self)
	assert.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)
	assert.NotEmpty(t, apperror.Field(err))

	ab := model.Connection{ID: "ab", From: model.Anchor{CardID: "a"}, To: model.Anchor{CardID: "b"}}
	require.NoError(t, c.CreateConnection(ctx, board.ID, ab))
	ba := model.Connection{ID: "ba", From: model.Anchor{CardID: "b"}, To: model.Anchor{CardID: "a"}}
	err = c.CreateConnection(ctx, board.ID, ba)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)

	// Re-sending a create with the same id succeeds.
	require.NoError(t, c.CreateConnection(ctx, board.ID, ab))
}

func TestClient_SendsRequestID(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, newClient(srv.URL).DeleteCard(context.Background(), "b", "c"))
	_, err := uuid.Parse(got.Load().(string))
	assert.NoError(t, err)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(srv.URL, client.WithBreaker(client.BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}))
	ctx := context.Background()

	for range 2 {
		err := c.DeleteCard(ctx, "b", "c")
		assert.True(t, errors.Is(err, apperror.ErrUnavailable), "got %v", err)
	}
	err := c.DeleteCard(ctx, "b", "c")
	assert.True(t, errors.Is(err, apperror.ErrUnavailable), "got %v", err)
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not reach the server")
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not_found","message":"card not found with id c"}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, client.WithBreaker(client.BreakerConfig{
		MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2,
	}))
	for range 5 {
		err := c.DeleteCard(context.Background(), "b", "c")
		require.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
		assert.Equal(t, "card not found with id c", err.Error())
	}
	assert.Equal(t, int32(5), hits.Load())
}

func TestClient_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newClient(url, client.WithTimeout(time.Second)).SaveViewport(context.Background(), "b", model.DefaultViewport())
	assert.True(t, errors.Is(err, apperror.ErrUnavailable), "got %v", err)
}
