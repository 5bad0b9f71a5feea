// Package mode resolves the gateway operating mode.
package mode

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Mode selects between synthetic data, live upstreams, or live with fallback.
type Mode string

const (
	Auto Mode = "auto"
	Live Mode = "live"
	Mock Mode = "mock"
)

// ErrInvalidMode is returned for a non-empty value outside the allow-list.
var ErrInvalidMode = errors.New("invalid data mode")

var valid = []Mode{Auto, Live, Mock}

// Parse normalizes raw. Empty input means Auto.
func Parse(raw string) (Mode, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return Auto, nil
	}
	for _, m := range valid {
		if string(m) == v {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q: valid options: auto, live, mock", ErrInvalidMode, raw)
}

// Resolver owns the process mode. The first Resolve call parses and
// logs; every later call returns the memoized result.
type Resolver struct {
	raw    string
	source string
	logger *slog.Logger

	once sync.Once
	mode Mode
	err  error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSource sets the source attribute of the detection event.
func WithSource(source string) Option {
	return func(r *Resolver) { r.source = source }
}

// NewResolver creates a resolver for the raw configured value.
func NewResolver(raw string, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{raw: raw, source: "market-data", logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve parses the configured value once.
func (r *Resolver) Resolve() (Mode, error) {
	r.once.Do(func() {
		r.mode, r.err = Parse(r.raw)
		if r.err != nil {
			return
		}
		rawValue := r.raw
		if strings.TrimSpace(rawValue) == "" {
			rawValue = "auto (default)"
		}
		r.logger.Info("market-data-mode-detected",
			"event", "market-data-mode-detected",
			"mode", string(r.mode),
			"raw_value", rawValue,
			"source", r.source,
		)
	})
	return r.mode, r.err
}

// Mode returns the resolved mode, resolving on first use.
// It is empty when resolution failed.
func (r *Resolver) Mode() Mode {
	m, _ := r.Resolve()
	return m
}

func (r *Resolver) IsMock() bool { return r.Mode() == Mock }
func (r *Resolver) IsLive() bool { return r.Mode() == Live }
func (r *Resolver) IsAuto() bool { return r.Mode() == Auto }
