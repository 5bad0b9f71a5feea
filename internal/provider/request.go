package provider

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Request carries the identity of one upstream call so failures can be
// reported with the same request id and duration.
type Request struct {
	Provider   ID
	Endpoint   Endpoint
	Symbol     string
	Expiration string
	RequestID  string
	Start      time.Time
}

// NewRequest starts tracking a call with a fresh request id.
func NewRequest(id ID, endpoint Endpoint, symbol, expiration string) *Request {
	return &Request{
		Provider:   id,
		Endpoint:   endpoint,
		Symbol:     symbol,
		Expiration: expiration,
		RequestID:  uuid.NewString(),
		Start:      time.Now(),
	}
}

// Elapsed is the time since the call started.
func (r *Request) Elapsed() time.Duration { return time.Since(r.Start) }

// Fail builds a classified error for this call.
func (r *Request) Fail(t ErrorType, message string, cause error, metadata map[string]any) *Error {
	return &Error{
		Provider:   r.Provider,
		Endpoint:   r.Endpoint,
		Symbol:     r.Symbol,
		Expiration: r.Expiration,
		Type:       t,
		RequestID:  r.RequestID,
		Duration:   r.Elapsed(),
		Message:    message,
		Metadata:   metadata,
		Cause:      cause,
	}
}

// HTTPFailure builds the error for a non-2xx response, keeping a short body snippet.
func (r *Request) HTTPFailure(status int, statusText string, body []byte) *Error {
	meta := map[string]any{"status": status, "status_text": statusText}
	if snippet := Snippet(body); snippet != "" {
		meta["body_snippet"] = snippet
	}
	return r.Fail(StatusErrorType(status), fmt.Sprintf("%s HTTP %d %s", r.Provider, status, statusText), nil, meta)
}

// Snippet returns at most the first 200 bytes of an upstream body.
func Snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}

// LogSuccess emits the verbose "{provider}-request-success" debug event.
func (r *Request) LogSuccess(logger *slog.Logger) {
	if logger == nil {
		return
	}
	event := string(r.Provider) + "-request-success"
	logger.Debug(event,
		"event", event,
		"source", "market-data",
		"provider", string(r.Provider),
		"endpoint", string(r.Endpoint),
		"symbol", r.Symbol,
		"expiration", r.Expiration,
		"duration_ms", r.Elapsed().Milliseconds(),
		"request_id", r.RequestID,
	)
}
