package provider

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorType classifies an upstream failure.
type ErrorType string

const (
	ErrNetwork    ErrorType = "network"
	ErrHTTP       ErrorType = "http"
	ErrParse      ErrorType = "parse"
	ErrAuth       ErrorType = "auth"
	ErrRateLimit  ErrorType = "rate-limit"
	ErrValidation ErrorType = "validation"
)

// Error is the classified failure raised by an adapter.
type Error struct {
	Provider   ID
	Endpoint   Endpoint
	Symbol     string
	Expiration string
	Type       ErrorType
	RequestID  string
	Duration   time.Duration
	Message    string
	Metadata   map[string]any
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "market data provider error"
	}
	return fmt.Sprintf("%s %s %s: %s: %s", e.Provider, e.Endpoint, e.Symbol, e.Type, msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// StatusErrorType maps a non-2xx HTTP status to its classification.
func StatusErrorType(status int) ErrorType {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusTooManyRequests:
		return ErrRateLimit
	default:
		return ErrHTTP
	}
}
