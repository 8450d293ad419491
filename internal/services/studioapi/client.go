package studioapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"hitstudio/internal/logging"
	"hitstudio/internal/services"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBodyBytes  = 4096
	// RequestIDHeader carries the correlation id to the backend.
	RequestIDHeader = "X-Request-ID"
)

// Config captures the runtime settings required to talk to the studio backend.
type Config struct {
	BaseURL        string
	APIKey         string
	UserAgent      string
	TimeoutSeconds int
}

// Client performs JSON requests against the studio backend and maps failures
// onto the services error taxonomy. It never retries.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	newID      func() string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDGenerator overrides how correlation ids are minted when the
// context does not already carry one.
func WithRequestIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewClient constructs a backend client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			UserAgent:      strings.TrimSpace(cfg.UserAgent),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "studioapi")
	return client
}

// BaseURL reports the normalized backend address.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Call describes one backend request.
type Call struct {
	// Component and Operation label errors, e.g. "generation" and "create".
	Component string
	Operation string
	Method    string
	// Path is joined onto the base URL. Callers escape dynamic segments.
	Path    string
	Query   url.Values
	Payload any
}

// Do sends the call and decodes a successful JSON response into out, which
// may be nil. Failures are classified as follows:
//   - no response, or an unreadable or undecodable body: services.ErrTransport
//   - HTTP 404: services.ErrNotFound
//   - any other non-2xx status: *services.RejectionError with the backend detail
func (c *Client) Do(ctx context.Context, call Call, out any) error {
	endpoint, err := c.endpoint(call)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, call.Component, call.Operation, "build url", err)
	}

	var body io.Reader
	if call.Payload != nil {
		encoded, err := json.Marshal(call.Payload)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", call.Component, call.Operation, err)
		}
		body = bytes.NewReader(encoded)
	}

	method := call.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s %s: new request: %w", call.Component, call.Operation, err)
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = c.newID()
	}
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, call.Component, call.Operation, "request failed", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		logging.String("method", method),
		logging.String("path", call.Path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldCorrelationID, requestID),
	)

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		detail := errorDetail(raw)
		if resp.StatusCode == http.StatusNotFound {
			if detail == "" {
				detail = "resource not found"
			}
			return services.Wrap(services.ErrNotFound, call.Component, call.Operation, detail, nil)
		}
		return &services.RejectionError{
			Component:  call.Component,
			Operation:  call.Operation,
			StatusCode: resp.StatusCode,
			Reason:     detail,
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransport, call.Component, call.Operation, "read body", err)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		if out != nil {
			return services.Wrap(services.ErrTransport, call.Component, call.Operation, "empty response body", nil)
		}
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return services.Wrap(services.ErrTransport, call.Component, call.Operation, "decode response", err)
	}
	return nil
}

func (c *Client) endpoint(call Call) (string, error) {
	if c.cfg.BaseURL == "" {
		return "", errors.New("backend base url is empty")
	}
	joined, err := url.JoinPath(c.cfg.BaseURL, call.Path)
	if err != nil {
		return "", err
	}
	if len(call.Query) > 0 {
		joined += "?" + call.Query.Encode()
	}
	return joined, nil
}

// errorDetail pulls the human-readable reason out of an error body. The
// backend answers with {"detail": "..."} for most errors and with a list of
// field problems for request validation failures.
func errorDetail(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return string(trimmed)
	}
	if len(envelope.Detail) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Detail, &text); err == nil {
			return text
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if msg := strings.TrimSpace(item.Msg); msg != "" {
					msgs = append(msgs, msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return ""
}
