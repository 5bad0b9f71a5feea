// Package marketdata is the gateway entry point. It applies the
// operating mode, the TTL cache and the degrade-to-mock fallback on top
// of the composed upstream provider.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"optionsgateway/internal/metrics"
	"optionsgateway/internal/mode"
	"optionsgateway/internal/provider"
	"optionsgateway/internal/provider/cache"
	"optionsgateway/internal/provider/mockdata"
)

// ProviderSource hands out the active composed provider.
type ProviderSource interface {
	Active() (provider.Provider, error)
}

type router interface {
	Route(provider.Endpoint) provider.ID
}

type Service struct {
	mode      mode.Mode
	providers ProviderSource
	cache     *cache.Cache
	mock      *mockdata.Generator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithClock sets the clock used for ServiceError timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New resolves the operating mode and fails if it is invalid. A nil
// cache or generator is replaced with a default one.
func New(resolver *mode.Resolver, providers ProviderSource, c *cache.Cache, gen *mockdata.Generator, opts ...Option) (*Service, error) {
	if resolver == nil {
		return nil, errors.New("marketdata: mode resolver is required")
	}
	m, err := resolver.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolving market data mode: %w", err)
	}
	if providers == nil && m != mode.Mock {
		return nil, errors.New("marketdata: provider source is required outside mock mode")
	}
	if c == nil {
		c = cache.New(cache.DefaultTTL, cache.DefaultSweep)
	}
	if gen == nil {
		gen = mockdata.New()
	}
	s := &Service{
		mode:      m,
		providers: providers,
		cache:     c,
		mock:      gen,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mode is the resolved operating mode.
func (s *Service) Mode() mode.Mode { return s.mode }

// CacheStats reports cache counters.
func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

// FlushCache drops every cached result.
func (s *Service) FlushCache() { s.cache.Flush() }

func (s *Service) GetExpirations(ctx context.Context, symbol string) ([]string, error) {
	return run(ctx, s, call[[]string]{
		endpoint: provider.EndpointExpirations,
		symbol:   symbol,
		mock:     s.mock.Expirations,
		upstream: func(ctx context.Context, p provider.Provider) ([]string, error) {
			return p.GetExpirations(ctx, symbol)
		},
	})
}

func (s *Service) GetOptionChain(ctx context.Context, symbol, expiration string) (provider.OptionChain, error) {
	return run(ctx, s, call[provider.OptionChain]{
		endpoint:   provider.EndpointOptionChain,
		symbol:     symbol,
		expiration: expiration,
		mock:       func() provider.OptionChain { return s.mock.OptionChain(symbol, expiration) },
		upstream: func(ctx context.Context, p provider.Provider) (provider.OptionChain, error) {
			return p.GetOptionChain(ctx, symbol, expiration)
		},
	})
}

func (s *Service) GetUnderlyingQuote(ctx context.Context, symbol string) (provider.UnderlyingQuote, error) {
	return run(ctx, s, call[provider.UnderlyingQuote]{
		endpoint: provider.EndpointUnderlyingQuote,
		symbol:   symbol,
		mock:     func() provider.UnderlyingQuote { return s.mock.UnderlyingQuote(symbol) },
		upstream: func(ctx context.Context, p provider.Provider) (provider.UnderlyingQuote, error) {
			return p.GetUnderlyingQuote(ctx, symbol)
		},
	})
}

type call[T any] struct {
	endpoint   provider.Endpoint
	symbol     string
	expiration string
	mock       func() T
	upstream   func(context.Context, provider.Provider) (T, error)
}

// run is the per-request flow shared by all operations:
// mock short-circuit, cache, upstream, then fallback or failure.
func run[T any](ctx context.Context, s *Service, c call[T]) (T, error) {
	var zero T
	if s.mode == mode.Mock {
		return c.mock(), nil
	}

	key := cache.Key(c.endpoint, c.symbol, c.expiration)
	if v, ok := cache.Lookup[T](s.cache, key); ok {
		s.metrics.ObserveCache(string(c.endpoint), true)
		return v, nil
	}
	s.metrics.ObserveCache(string(c.endpoint), false)

	p, err := s.providers.Active()
	if err != nil {
		return zero, err
	}

	start := time.Now()
	v, err := c.upstream(ctx, p)
	elapsed := time.Since(start)
	if err == nil {
		s.metrics.ObserveUpstream(string(routeOf(p, c.endpoint)), string(c.endpoint), metrics.OutcomeSuccess, elapsed)
		s.cache.Set(key, v)
		return v, nil
	}

	var pe *provider.Error
	if !errors.As(err, &pe) {
		return zero, err
	}
	s.metrics.ObserveUpstream(string(pe.Provider), string(c.endpoint), metrics.OutcomeError, elapsed)

	if s.mode == mode.Auto {
		s.logFailure(ctx, slog.LevelWarn, pe, c.endpoint, c.symbol, c.expiration, true)
		s.metrics.ObserveFallback(string(c.endpoint), string(pe.Type))
		return c.mock(), nil
	}
	s.logFailure(ctx, slog.LevelError, pe, c.endpoint, c.symbol, c.expiration, false)
	return zero, newServiceError(pe, c.endpoint, c.symbol, c.expiration, s.mode, s.now())
}

func routeOf(p provider.Provider, endpoint provider.Endpoint) provider.ID {
	if r, ok := p.(router); ok {
		return r.Route(endpoint)
	}
	return p.ID()
}

func (s *Service) logFailure(ctx context.Context, level slog.Level, pe *provider.Error, endpoint provider.Endpoint, symbol, expiration string, fallback bool) {
	s.logger.Log(ctx, level, "market-data-provider-failure",
		"source", "market-data",
		"provider", string(pe.Provider),
		"endpoint", string(endpoint),
		"symbol", symbol,
		"expiration", expiration,
		"mode", string(s.mode),
		"request_id", pe.RequestID,
		"duration_ms", pe.Duration.Milliseconds(),
		"fallback", fallback,
		"error_type", string(pe.Type),
		"message", pe.Message,
		"metadata", pe.Metadata,
	)
}
