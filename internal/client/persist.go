package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sakif/canvaid/internal/api"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/workspace"
)

var _ workspace.Persister = (*Client)(nil)

func boardPath(id string) string      { return "/api/boards/" + url.PathEscape(id) }
func sectionPath(id string) string    { return "/api/sections/" + url.PathEscape(id) }
func cardPath(id string) string       { return "/api/cards/" + url.PathEscape(id) }
func connectionPath(id string) string { return "/api/connections/" + url.PathEscape(id) }

// ListBoards returns the server's board summaries, most recently updated first.
func (c *Client) ListBoards(ctx context.Context) ([]model.BoardSummary, error) {
	var out []model.BoardSummary
	if err := c.do(ctx, "list boards", http.MethodGet, "/api/boards", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBoard(ctx context.Context, name, description string) (*model.Board, error) {
	var out model.Board
	req := api.CreateBoardRequest{Name: name, Description: description}
	if err := c.do(ctx, "create board", http.MethodPost, "/api/boards", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadBoard fetches a board with its sections, cards and connections.
func (c *Client) LoadBoard(ctx context.Context, id string) (*model.Board, error) {
	var out model.Board
	if err := c.do(ctx, "load board", http.MethodGet, boardPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveViewport(ctx context.Context, boardID string, vp model.Viewport) error {
	req := api.UpdateBoardRequest{Viewport: &vp}
	return c.do(ctx, "save viewport", http.MethodPut, boardPath(boardID), req, nil)
}

func (c *Client) CreateSection(ctx context.Context, boardID string, s model.Section) error {
	return c.do(ctx, "create section", http.MethodPost, "/api/sections", api.NewSectionRequest(boardID, s), nil)
}

func (c *Client) UpdateSection(ctx context.Context, _ string, s model.Section) error {
	return c.do(ctx, "update section", http.MethodPut, sectionPath(s.ID), api.SectionUpdate(s), nil)
}

// DeleteSection removes the section. The server unsections its cards.
func (c *Client) DeleteSection(ctx context.Context, _, id string) error {
	return c.do(ctx, "delete section", http.MethodDelete, sectionPath(id), nil, nil)
}

func (c *Client) CreateCard(ctx context.Context, boardID string, card model.Card) error {
	return c.do(ctx, "create card", http.MethodPost, "/api/cards", api.NewCardRequest(boardID, card), nil)
}

func (c *Client) UpdateCard(ctx context.Context, _ string, card model.Card) error {
	return c.do(ctx, "update card", http.MethodPut, cardPath(card.ID), api.CardUpdate(card), nil)
}

// DeleteCard removes the card. The server drops its connections.
func (c *Client) DeleteCard(ctx context.Context, _, id string) error {
	return c.do(ctx, "delete card", http.MethodDelete, cardPath(id), nil, nil)
}

func (c *Client) CreateConnection(ctx context.Context, boardID string, conn model.Connection) error {
	return c.do(ctx, "create connection", http.MethodPost, "/api/connections", api.NewConnectionRequest(boardID, conn), nil)
}

func (c *Client) DeleteConnection(ctx context.Context, _, id string) error {
	return c.do(ctx, "delete connection", http.MethodDelete, connectionPath(id), nil, nil)
}
