package provider

import "context"

// Provider is the contract every upstream adapter implements.
//
//go:generate mockgen -package=providermock -destination=providermock/provider.go -source=provider.go Provider
type Provider interface {
	// ID identifies the adapter for logs and metrics.
	ID() ID
	// GetExpirations lists option expirations (YYYY-MM-DD) for symbol.
	GetExpirations(ctx context.Context, symbol string) ([]string, error)
	// GetOptionChain returns calls and puts for symbol at expiration (YYYY-MM-DD).
	GetOptionChain(ctx context.Context, symbol, expiration string) (OptionChain, error)
	// GetUnderlyingQuote returns the latest quote of the underlying.
	GetUnderlyingQuote(ctx context.Context, symbol string) (UnderlyingQuote, error)
}
