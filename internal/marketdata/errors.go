package marketdata

import (
	"fmt"
	"time"

	"optionsgateway/internal/mode"
	"optionsgateway/internal/provider"
)

// ServiceError is the only error type Service returns for upstream
// failures. It wraps the adapter's *provider.Error.
type ServiceError struct {
	Provider   provider.ID
	Endpoint   provider.Endpoint
	Symbol     string
	Expiration string
	Type       provider.ErrorType
	RequestID  string
	Duration   time.Duration
	Message    string
	Metadata   map[string]any
	Mode       mode.Mode
	Timestamp  time.Time
	Cause      *provider.Error
}

func (e *ServiceError) Error() string {
	target := e.Symbol
	if e.Expiration != "" {
		target += " " + e.Expiration
	}
	return fmt.Sprintf("market data %s for %s failed (%s via %s, mode %s): %s",
		e.Endpoint, target, e.Type, e.Provider, e.Mode, e.Message)
}

func (e *ServiceError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

func newServiceError(pe *provider.Error, endpoint provider.Endpoint, symbol, expiration string, m mode.Mode, now time.Time) *ServiceError {
	return &ServiceError{
		Provider:   pe.Provider,
		Endpoint:   endpoint,
		Symbol:     symbol,
		Expiration: expiration,
		Type:       pe.Type,
		RequestID:  pe.RequestID,
		Duration:   pe.Duration,
		Message:    pe.Message,
		Metadata:   pe.Metadata,
		Mode:       m,
		Timestamp:  now.UTC(),
		Cause:      pe,
	}
}
