package massive

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"optionsgateway/internal/chain"
	"optionsgateway/internal/provider"
)

const fetchTimeout = 5 * time.Second

type Config struct {
	// Verbose logs a debug event for every successful call.
	Verbose bool
}

// Provider adapts Client to provider.Provider, classifying failures.
type Provider struct {
	cfg    Config
	client *Client
	logger *slog.Logger
}

func New(cfg Config, client *Client, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{cfg: cfg, client: client, logger: logger}
}

func (p *Provider) ID() provider.ID { return provider.IDMassive }

func (p *Provider) GetExpirations(ctx context.Context, symbol string) ([]string, error) {
	req := provider.NewRequest(provider.IDMassive, provider.EndpointExpirations, symbol, "")
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	exps, err := p.client.Expirations(ctx, symbol)
	if err != nil {
		return nil, classify(req, err)
	}
	p.success(req)
	return exps, nil
}

func (p *Provider) GetOptionChain(ctx context.Context, symbol, expiration string) (provider.OptionChain, error) {
	req := provider.NewRequest(provider.IDMassive, provider.EndpointOptionChain, symbol, expiration)
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	contracts, err := p.client.OptionChain(ctx, symbol, expiration)
	if err != nil {
		return provider.OptionChain{}, classify(req, err)
	}
	quotes := make([]provider.OptionQuote, 0, len(contracts))
	for _, c := range contracts {
		exp := c.Expiration
		if exp == "" {
			exp = expiration
		}
		quotes = append(quotes, provider.OptionQuote{
			Strike:            c.Strike,
			Expiration:        exp,
			Right:             parseRight(c.Type),
			Bid:               c.Bid,
			Ask:               c.Ask,
			Last:              c.Last,
			Volume:            c.Volume,
			OpenInterest:      c.OpenInterest,
			Delta:             c.Delta,
			Gamma:             c.Gamma,
			Theta:             c.Theta,
			Vega:              c.Vega,
			ImpliedVolatility: c.ImpliedVolatility,
		})
	}
	p.success(req)
	return chain.FromQuotes(quotes), nil
}

func (p *Provider) GetUnderlyingQuote(ctx context.Context, symbol string) (provider.UnderlyingQuote, error) {
	req := provider.NewRequest(provider.IDMassive, provider.EndpointUnderlyingQuote, symbol, "")
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	q, err := p.client.LatestQuote(ctx, symbol)
	if err != nil {
		return provider.UnderlyingQuote{}, classify(req, err)
	}
	p.success(req)
	return provider.UnderlyingQuote(q), nil
}

func (p *Provider) success(req *provider.Request) {
	if p.cfg.Verbose {
		req.LogSuccess(p.logger)
	}
}

func classify(req *provider.Request, err error) error {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		e := req.HTTPFailure(se.Code, se.Status, se.Body)
		e.Cause = err
		return e
	case errors.Is(err, ErrMissingKey):
		return req.Fail(provider.ErrAuth, err.Error(), err, nil)
	case errors.Is(err, ErrDecode):
		return req.Fail(provider.ErrParse, "massive returned an undecodable body", err, nil)
	case errors.Is(err, ErrNoData):
		return req.Fail(provider.ErrParse, err.Error(), err, nil)
	default:
		return req.Fail(provider.ErrNetwork, "massive network failure for "+string(req.Endpoint), err, nil)
	}
}

func parseRight(s string) provider.Right {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "put", "p":
		return provider.Put
	default:
		return provider.Call
	}
}
