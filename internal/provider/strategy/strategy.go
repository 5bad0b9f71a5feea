// Package strategy selects and composes the upstream adapters: one
// serves expirations and chains, the other serves underlying quotes.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"optionsgateway/internal/provider"
)

// ErrInvalidSelection is returned for a selector outside its allow-list.
var ErrInvalidSelection = errors.New("invalid provider selection")

var (
	optionsAllowed = []provider.ID{provider.IDMassive, provider.IDTheta}
	quotesAllowed  = []provider.ID{provider.IDEODHD, provider.IDMassive, provider.IDTheta}
)

const (
	DefaultOptions = provider.IDMassive
	DefaultQuotes  = provider.IDEODHD
)

// Selection names the adapter behind each role.
type Selection struct {
	Options provider.ID
	Quotes  provider.ID
}

// ParseSelection validates both selectors. Defaults apply only to empty
// values; anything else outside the allow-list is an error.
func ParseSelection(optionsRaw, quotesRaw string) (Selection, error) {
	opts, err := parseOne("MARKET_DATA_PROVIDER", optionsRaw, DefaultOptions, optionsAllowed)
	if err != nil {
		return Selection{}, err
	}
	quotes, err := parseOne("QUOTE_DATA_PROVIDER", quotesRaw, DefaultQuotes, quotesAllowed)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Options: opts, Quotes: quotes}, nil
}

func parseOne(name, raw string, def provider.ID, allowed []provider.ID) (provider.ID, error) {
	v := provider.ID(strings.ToLower(strings.TrimSpace(raw)))
	if v == "" {
		return def, nil
	}
	if slices.Contains(allowed, v) {
		return v, nil
	}
	names := make([]string, len(allowed))
	for i, id := range allowed {
		names[i] = string(id)
	}
	return "", fmt.Errorf("%w: %s=%q, valid options: %s", ErrInvalidSelection, name, raw, strings.Join(names, ", "))
}

// Composed routes option calls and quote calls to different adapters.
// It adds no caching, retries or error translation.
type Composed struct {
	Options provider.Provider
	Quotes  provider.Provider
}

func Compose(options, quotes provider.Provider) *Composed {
	return &Composed{Options: options, Quotes: quotes}
}

func (c *Composed) ID() provider.ID { return provider.IDComposed }

// Route reports which adapter serves endpoint.
func (c *Composed) Route(endpoint provider.Endpoint) provider.ID {
	if endpoint == provider.EndpointUnderlyingQuote {
		return c.Quotes.ID()
	}
	return c.Options.ID()
}

func (c *Composed) GetExpirations(ctx context.Context, symbol string) ([]string, error) {
	return c.Options.GetExpirations(ctx, symbol)
}

func (c *Composed) GetOptionChain(ctx context.Context, symbol, expiration string) (provider.OptionChain, error) {
	return c.Options.GetOptionChain(ctx, symbol, expiration)
}

func (c *Composed) GetUnderlyingQuote(ctx context.Context, symbol string) (provider.UnderlyingQuote, error) {
	return c.Quotes.GetUnderlyingQuote(ctx, symbol)
}

// BuildFunc constructs the adapter identified by id.
type BuildFunc func(id provider.ID) (provider.Provider, error)

// Factory builds the composed provider once and hands out the same
// instance afterwards.
type Factory struct {
	sel   Selection
	build BuildFunc

	mu     sync.Mutex
	active provider.Provider
}

type FactoryOption func(*Factory)

// WithOverride installs p as the active provider. Intended for tests.
func WithOverride(p provider.Provider) FactoryOption {
	return func(f *Factory) { f.active = p }
}

func NewFactory(sel Selection, build BuildFunc, opts ...FactoryOption) *Factory {
	f := &Factory{sel: sel, build: build}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Selection reports the configured adapters.
func (f *Factory) Selection() Selection { return f.sel }

// Active returns the memoized composed provider, building it on first
// use. A failed build is not memoized.
func (f *Factory) Active() (provider.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active != nil {
		return f.active, nil
	}

	options, err := f.build(f.sel.Options)
	if err != nil {
		return nil, fmt.Errorf("building %s provider: %w", f.sel.Options, err)
	}
	quotes := options
	if f.sel.Quotes != f.sel.Options {
		if quotes, err = f.build(f.sel.Quotes); err != nil {
			return nil, fmt.Errorf("building %s provider: %w", f.sel.Quotes, err)
		}
	}
	f.active = Compose(options, quotes)
	return f.active, nil
}

// ResetForTesting replaces the memoized provider. nil forces a rebuild
// on the next Active call.
func (f *Factory) ResetForTesting(p provider.Provider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = p
}
