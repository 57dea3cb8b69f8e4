package workspace

import (
	"context"

	"github.com/sakif/canvaid/internal/model"
)

// Persister mirrors board mutations to durable storage. Implementations are
// the REST client (package client) and the local snapshot file (package
// snapshot). Every method receives the full record as it stands after the
// local mutation.
type Persister interface {
	LoadBoard(ctx context.Context, id string) (*model.Board, error)
	SaveViewport(ctx context.Context, boardID string, vp model.Viewport) error

	CreateSection(ctx context.Context, boardID string, s model.Section) error
	UpdateSection(ctx context.Context, boardID string, s model.Section) error
	DeleteSection(ctx context.Context, boardID, id string) error

	CreateCard(ctx context.Context, boardID string, c model.Card) error
	UpdateCard(ctx context.Context, boardID string, c model.Card) error
	DeleteCard(ctx context.Context, boardID, id string) error

	CreateConnection(ctx context.Context, boardID string, c model.Connection) error
	DeleteConnection(ctx context.Context, boardID, id string) error
}
