// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Ollama client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeHTTPStatus
	ErrTypeInvalidResponse
)

// maxErrorBody bounds how much of a failed response is read into the message.
const maxErrorBody = 64 << 10

// readChunkSize is the network read size for streaming responses.
const readChunkSize = 4 << 10

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434)
	BaseURL string

	// ProbeTimeout bounds the liveness probe (default: 5s)
	ProbeTimeout time.Duration

	// ListTimeout bounds model listing (default: 10s)
	ListTimeout time.Duration

	// ConnectTimeout bounds dialing for streaming requests (default: 10s).
	// The stream itself has no deadline; it ends on done or cancellation.
	ConnectTimeout time.Duration

	// Logger receives debug output. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:        "http://localhost:11434",
		ProbeTimeout:   5 * time.Second,
		ListTimeout:    10 * time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Ollama API.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url})
//	for ev := range client.ChatStream(ctx, "gpt-oss:20b", messages, 32768) {
//	    switch ev.Kind {
//	    case ollama.EventToken:
//	        fmt.Print(ev.Text)
//	    case ollama.EventError:
//	        return ev.Err
//	    }
//	}
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
	log          zerolog.Logger
}

// NewClientWithConfig creates a new Ollama client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.ProbeTimeout == 0 {
		config.ProbeTimeout = 5 * time.Second
	}
	if config.ListTimeout == 0 {
		config.ListTimeout = 10 * time.Second
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "ollama").Logger()
	}

	// Streaming requests have no overall timeout; only the dial is bounded.
	// SECURITY: TLS not required - Ollama normally runs on localhost over HTTP.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: config.ConnectTimeout}).DialContext

	return &Client{
		config:       config,
		httpClient:   &http.Client{Transport: transport},
		streamClient: &http.Client{Transport: transport},
		log:          logger,
	}
}

// BaseURL returns the configured server URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning probes GET /api/tags and expects a 2xx status.
func (c *Client) CheckRunning(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return connectError(err)
	}
	defer drainAndClose(resp.Body)

	if !isSuccess(resp.StatusCode) {
		return &ClientError{
			Type:       ErrTypeHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    "unexpected status from Ollama: " + resp.Status,
		}
	}
	return nil
}

// =============================================================================
// MODEL OPERATIONS
// =============================================================================

// ListModels retrieves the installed models sorted by name.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.ListTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, connectError(err)
	}
	defer drainAndClose(resp.Body)

	if !isSuccess(resp.StatusCode) {
		return nil, &ClientError{
			Type:       ErrTypeHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    "failed to fetch models: " + resp.Status,
		}
	}

	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	sort.Slice(result.Models, func(i, j int) bool {
		return result.Models[i].Name < result.Models[j].Name
	})
	return result.Models, nil
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream posts a streaming chat request and returns its events.
//
// The sequence yields EventToken for each non-empty delta in server order,
// then exactly one of EventDone, EventError or EventAborted. Cancelling ctx
// aborts the connection and ends the sequence with EventAborted carrying
// the text received so far. Breaking out of the range closes the response.
func (c *Client) ChatStream(ctx context.Context, model string, messages []Message, numCtx int) iter.Seq[StreamEvent] {
	return func(yield func(StreamEvent) bool) {
		reqBody := ChatRequest{
			Model:    model,
			Messages: messages,
			Stream:   true,
		}
		if numCtx > 0 {
			reqBody.Options = &Options{NumCtx: numCtx}
		}

		body, err := json.Marshal(reqBody)
		if err != nil {
			yield(errorEvent(&ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
		if err != nil {
			yield(errorEvent(&ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		c.log.Debug().Str("model", model).Int("messages", len(messages)).Int("num_ctx", numCtx).Msg("chat request")

		resp, err := c.streamClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				yield(abortedEvent(""))
				return
			}
			yield(errorEvent(connectError(err)))
			return
		}
		defer resp.Body.Close()

		if !isSuccess(resp.StatusCode) {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			if ctx.Err() != nil {
				yield(abortedEvent(""))
				return
			}
			yield(errorEvent(&ClientError{
				Type:       ErrTypeHTTPStatus,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("Ollama error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data))),
			}))
			return
		}

		dec := newStreamDecoder(resp.Body, c.log)
		dec.run(ctx, yield)
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// connectError classifies a transport failure that is not a cancellation.
func connectError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeNotRunning, Message: "cannot connect to Ollama", Cause: err}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// IsNotRunning checks if an error indicates Ollama is not running.
func IsNotRunning(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeNotRunning
	}
	return false
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return false
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, maxErrorBody))
	r.Close()
}
