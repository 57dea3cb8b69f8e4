// Package workspace owns the state of the board a user has open: the board
// aggregate, the viewport, the selection and the active drag. A UI shell
// drives it with discrete input events and reads state back for rendering.
//
// Mutations apply to the in-memory board immediately. The matching Persister
// call runs in the background; calls are issued in mutation order. When one
// fails the workspace logs it and records SaveFailedMessage. Once the queue
// has drained it reloads the board from the Persister, so the working copy
// matches what was actually stored. If that reload fails too, the failed
// mutations are undone locally, newest first.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sakif/canvaid/internal/canvas"
	"github.com/sakif/canvaid/internal/model"
)

// User-facing error strings. Details only go to the log.
const (
	SaveFailedMessage = "Failed to save changes"
	LoadFailedMessage = "Failed to load board"
)

// ErrNoBoard is returned by mutations while no board is open.
var ErrNoBoard = errors.New("workspace: no board open")

// Workspace is safe for concurrent use. Methods never block on I/O except
// Open and Close.
type Workspace struct {
	mu     sync.Mutex
	store  Persister
	logger *slog.Logger

	board     *canvas.Board
	viewport  *canvas.Viewport
	selection *canvas.Selection
	drag      canvas.Drag
	dragUndo  canvas.Undo
	dragFrom  model.Anchor
	err       string

	boardOpts []canvas.Option
	onChange  func()

	pending sync.WaitGroup
	tail    chan struct{}

	// stale is set by a failed call and cleared by the next resync.
	stale  bool
	failed []canvas.Undo
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithBoardOptions passes options to every canvas.Board the workspace opens.
func WithBoardOptions(opts ...canvas.Option) Option {
	return func(w *Workspace) { w.boardOpts = append(w.boardOpts, opts...) }
}

// WithOnChange registers a callback invoked (without the lock held) after
// state changes that did not come from a direct method call, i.e. reverts.
func WithOnChange(fn func()) Option {
	return func(w *Workspace) { w.onChange = fn }
}

// New returns a workspace with no board open.
func New(store Persister, logger *slog.Logger, opts ...Option) *Workspace {
	w := &Workspace{
		store:     store,
		logger:    logger,
		viewport:  canvas.NewViewport(model.DefaultViewport()),
		selection: canvas.NewSelection(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open loads the board wholesale and makes it the working copy.
func (w *Workspace) Open(ctx context.Context, id string) error {
	b, err := w.store.LoadBoard(ctx, id)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.logger.Error("failed to load board", slog.String("board_id", id), slog.String("error", err.Error()))
		w.err = LoadFailedMessage
		return err
	}
	w.board = canvas.NewBoard(b, w.boardOpts...)
	w.viewport.Replace(b.Viewport)
	w.selection.Clear()
	w.drag.End()
	w.dragUndo = nil
	w.err = ""
	w.stale = false
	w.failed = nil
	w.logger.Info("board opened", slog.String("board_id", id),
		slog.Int("cards", len(b.Cards)), slog.Int("sections", len(b.Sections)))
	return nil
}

// Close saves the viewport, waits for pending persistence and forgets the
// board. It is a no-op when no board is open.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.board == nil {
		w.mu.Unlock()
		return nil
	}
	boardID := w.board.ID()
	vp := w.viewport.State()
	w.board = nil
	w.selection.Clear()
	w.drag.End()
	w.dragUndo = nil
	w.mu.Unlock()

	w.Wait()
	if err := w.store.SaveViewport(ctx, boardID, vp); err != nil {
		w.logger.Error("failed to save viewport", slog.String("board_id", boardID), slog.String("error", err.Error()))
		w.setErr(SaveFailedMessage)
		return err
	}
	return nil
}

// Wait blocks until every in-flight persistence call has finished.
func (w *Workspace) Wait() { w.pending.Wait() }

// Board returns a copy of the open board.
func (w *Workspace) Board() (*model.Board, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return nil, false
	}
	b := w.board.Snapshot()
	b.Viewport = w.viewport.State()
	return b, true
}

// Routes lays out the connections of the open board.
func (w *Workspace) Routes() []canvas.Route {
	b, ok := w.Board()
	if !ok {
		return nil
	}
	return canvas.Layout(b)
}

// Viewport returns the current viewport.
func (w *Workspace) Viewport() model.Viewport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewport.State()
}

// Err returns the user-facing error, or "".
func (w *Workspace) Err() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// ClearErr dismisses the user-facing error.
func (w *Workspace) ClearErr() { w.setErr("") }

func (w *Workspace) setErr(msg string) {
	w.mu.Lock()
	w.err = msg
	w.mu.Unlock()
}

// persist queues call behind every earlier call and returns immediately. A
// failure marks the working copy stale; undo is kept for the fallback in
// resync. Must be called with w.mu held.
func (w *Workspace) persist(op string, undo canvas.Undo, call func(ctx context.Context) error) {
	prev := w.tail
	done := make(chan struct{})
	w.tail = done
	w.pending.Add(1)

	go func() {
		defer w.pending.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		if err := call(context.Background()); err != nil {
			w.mu.Lock()
			w.logger.Error("persistence failed", slog.String("op", op), slog.String("error", err.Error()))
			w.err = SaveFailedMessage
			w.stale = true
			if undo != nil {
				w.failed = append(w.failed, undo)
			}
			w.mu.Unlock()
		}
		w.resync(done)
	}()
}

// resync replaces a stale working copy with the stored board. Only the last
// queued call does it, and never during a drag: local changes that are not
// stored yet would otherwise be lost. A later call or the end of the drag
// retries.
func (w *Workspace) resync(done chan struct{}) {
	w.mu.Lock()
	if !w.resyncAllowedLocked(done) {
		w.mu.Unlock()
		return
	}
	boardID := w.board.ID()
	w.mu.Unlock()

	stored, err := w.store.LoadBoard(context.Background(), boardID)

	w.mu.Lock()
	if !w.resyncAllowedLocked(done) || w.board.ID() != boardID {
		w.mu.Unlock()
		return
	}
	if err != nil {
		w.logger.Error("reload after failed save failed, reverting locally",
			slog.String("board_id", boardID), slog.String("error", err.Error()))
		for i := len(w.failed) - 1; i >= 0; i-- {
			w.failed[i]()
		}
	} else {
		w.board = canvas.NewBoard(stored, w.boardOpts...)
		w.pruneSelectionLocked()
		w.logger.Info("board reloaded after failed save", slog.String("board_id", boardID))
	}
	w.stale = false
	w.failed = nil
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange()
	}
}

func (w *Workspace) resyncAllowedLocked(done chan struct{}) bool {
	return w.stale && w.tail == done && w.board != nil && !w.drag.State().Active()
}

// resyncIfStaleLocked queues an empty call so a resync skipped during a drag
// runs once the drag is over.
func (w *Workspace) resyncIfStaleLocked() {
	if w.stale && w.board != nil {
		w.persist("resync", nil, func(context.Context) error { return nil })
	}
}

// pruneSelectionLocked forgets selected entities the reloaded board lacks.
func (w *Workspace) pruneSelectionLocked() {
	for _, id := range w.selection.Cards() {
		if _, ok := w.board.Card(id); !ok {
			w.selection.Forget(id)
		}
	}
	for _, id := range w.selection.Sections() {
		if _, ok := w.board.Section(id); !ok {
			w.selection.Forget(id)
		}
	}
	for _, id := range w.selection.Connections() {
		if _, ok := w.board.Connection(id); !ok {
			w.selection.Forget(id)
		}
	}
}
