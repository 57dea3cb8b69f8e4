// Package service holds the business rules of the REST server.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)      → decodes requests, writes responses
//	Service (this)      → validates input, merges partial updates, counts metrics
//	Repository (sqlite) → reads and writes rows, enforces cascades in transactions
//
// KEY CONCEPTS:
//   - Services take plain Go inputs, never *http.Request, so the CLI import
//     path and the tests call them directly.
//   - Every failure the caller can act on is an apperror (validation, not
//     found, conflict). Anything else is a storage failure and is logged here.
//   - Creates accept a client-chosen id. If a record with that id already
//     exists on the same board, the stored record is returned unchanged, so
//     a retried POST is harmless.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/repository"
)

const (
	MaxNameLength    = 200
	MaxTitleLength   = 500
	MaxContentLength = 100000
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// expected reports whether err is an outcome the client caused. Those are
// returned without an error log line.
func expected(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr)
}

func logFailure(logger *slog.Logger, msg string, err error, attrs ...slog.Attr) {
	if expected(err) {
		return
	}
	args := make([]any, 0, len(attrs)+1)
	for _, a := range attrs {
		args = append(args, a)
	}
	args = append(args, slog.String("error", err.Error()))
	logger.Error(msg, args...)
}

func listOptions(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}

func requireID(resource, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperror.ValidationFailed("id", resource+" ID is required")
	}
	return id, nil
}

func checkName(field, resource, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed(field, resource+" "+field+" is required")
	}
	if len(name) > MaxNameLength {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s %s must be %d characters or less", resource, field, MaxNameLength))
	}
	return name, nil
}

// sameBoard resolves a create that reused an existing id: the stored record
// is the answer when it lives on the requested board, anything else is a
// conflict.
func sameBoard(resource, id, wantBoard, gotBoard string) error {
	if wantBoard != gotBoard {
		return apperror.Conflict(resource, id)
	}
	return nil
}
