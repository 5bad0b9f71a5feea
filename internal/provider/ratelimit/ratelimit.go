// Package ratelimit throttles calls to an upstream adapter.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"optionsgateway/internal/provider"
)

// Limited wraps a Provider and gates every call through a shared limiter.
// A call the caller's context cannot wait for fails with a rate-limit
// error; it is never retried. A context that is already done fails with
// a network error.
type Limited struct {
	P       provider.Provider
	limiter *rate.Limiter
	rpm     int
	burst   int
}

// Wrap limits p to rpm requests per minute with the given burst.
// rpm <= 0 returns p unchanged.
func Wrap(p provider.Provider, rpm, burst int) provider.Provider {
	if rpm <= 0 {
		return p
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limited{
		P:       p,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60), burst),
		rpm:     rpm,
		burst:   burst,
	}
}

func (l *Limited) ID() provider.ID { return l.P.ID() }

func (l *Limited) GetExpirations(ctx context.Context, symbol string) ([]string, error) {
	if err := l.wait(ctx, provider.EndpointExpirations, symbol, ""); err != nil {
		return nil, err
	}
	return l.P.GetExpirations(ctx, symbol)
}

func (l *Limited) GetOptionChain(ctx context.Context, symbol, expiration string) (provider.OptionChain, error) {
	if err := l.wait(ctx, provider.EndpointOptionChain, symbol, expiration); err != nil {
		return provider.OptionChain{}, err
	}
	return l.P.GetOptionChain(ctx, symbol, expiration)
}

func (l *Limited) GetUnderlyingQuote(ctx context.Context, symbol string) (provider.UnderlyingQuote, error) {
	if err := l.wait(ctx, provider.EndpointUnderlyingQuote, symbol, ""); err != nil {
		return provider.UnderlyingQuote{}, err
	}
	return l.P.GetUnderlyingQuote(ctx, symbol)
}

func (l *Limited) wait(ctx context.Context, endpoint provider.Endpoint, symbol, expiration string) error {
	err := l.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	req := provider.NewRequest(l.P.ID(), endpoint, symbol, expiration)
	if ctx.Err() != nil {
		// Cancelled or expired by the caller.
		return req.Fail(provider.ErrNetwork, "request cancelled while waiting for the local request budget", err, nil)
	}
	return req.Fail(provider.ErrRateLimit, "local request budget exhausted", err, map[string]any{
		"max_rpm": l.rpm,
		"burst":   l.burst,
	})
}
