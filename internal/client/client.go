// Package client is the REST implementation of workspace.Persister: it
// mirrors canvas mutations to a canvaid server.
//
// KEY CONCEPTS:
//   - Every call goes through one circuit breaker (sony/gobreaker). Transport
//     failures and 5xx responses count against it. A 4xx is the server
//     answering correctly about a bad request, so it does not.
//   - Errors come back in the apperror taxonomy. 404, 409 and 400 responses
//     become NotFound, Conflict and Validation errors. Everything else,
//     including an open breaker, is apperror.Unavailable.
//   - Each request carries a fresh X-Request-ID so a client failure can be
//     matched with the server's request log.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/sakif/canvaid/internal/apperror"
)

// DefaultTimeout bounds every request made by the client.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32        // requests let through while half-open
	Interval         time.Duration // closed-state window after which counts reset
	Timeout          time.Duration // how long the breaker stays open
	FailureThreshold float64       // failure ratio that trips the breaker
	MinRequests      uint32        // requests seen before the ratio is trusted
}

// DefaultBreakerConfig suits an interactive client: it trips after a burst of
// failures and probes again after half a minute.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	breaker    BreakerConfig
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is kept.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithBreaker(cfg BreakerConfig) Option {
	return func(o *options) { o.breaker = cfg }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	o := options{
		timeout: DefaultTimeout,
		breaker: DefaultBreakerConfig(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    o.httpClient,
		logger:  o.logger,
	}
	cfg := o.breaker
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "canvaid-api",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.status < http.StatusInternalServerError
			}
			return err == nil
		},
	})
	return c
}

// statusError is a non-2xx response.
type statusError struct {
	status  int
	kind    string
	message string
	field   string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("server responded %d", e.status)
	}
	return fmt.Sprintf("server responded %d: %s", e.status, e.message)
}

// errorBody mirrors the server's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

// do sends body (if any) as JSON and decodes a 2xx response into out (if
// non-nil). op names the operation in Unavailable errors and logs.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
	}
	requestID := uuid.NewString()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Request-ID", requestID)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, readStatusError(resp)
		}
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		return nil, nil
	})
	if err == nil {
		return nil
	}

	mapped := toAppError(op, err)
	c.logger.Debug("api request failed",
		slog.String("op", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", requestID),
		slog.String("error", err.Error()),
	)
	return mapped
}

func readStatusError(resp *http.Response) *statusError {
	se := &statusError{status: resp.StatusCode}
	var eb errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&eb); err == nil {
		se.kind, se.message, se.field = eb.Error, eb.Message, eb.Field
	}
	return se
}

// toAppError translates a failed call into the apperror taxonomy.
func toAppError(op string, err error) error {
	var se *statusError
	if !errors.As(err, &se) {
		return apperror.Unavailable(op, err)
	}
	switch se.status {
	case http.StatusNotFound:
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: messageOr(se, "not found")}
	case http.StatusConflict:
		return &apperror.AppError{Err: apperror.ErrConflict, Message: messageOr(se, "conflict")}
	case http.StatusBadRequest:
		return apperror.ValidationFailed(se.field, messageOr(se, "invalid request"))
	default:
		return apperror.Unavailable(op, err)
	}
}

func messageOr(se *statusError, fallback string) string {
	if se.message != "" {
		return se.message
	}
	return fallback
}
