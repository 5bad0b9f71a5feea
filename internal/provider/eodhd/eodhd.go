// Package eodhd adapts the EODHD delayed-quote API. It serves underlying
// quotes only; option endpoints fail with a validation error.
package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"optionsgateway/internal/httpx"
	"optionsgateway/internal/provider"
)

const (
	DefaultBaseURL = "https://eodhd.com/api"

	fetchTimeout = 4500 * time.Millisecond
	exchange     = ".US"
	maxBody      = 1 << 20
)

type Config struct {
	BaseURL string
	APIKey  string
	Verbose bool
}

type Provider struct {
	cfg    Config
	client *httpx.Client
	logger *slog.Logger
}

func New(cfg Config, hc *httpx.Client, logger *slog.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if hc == nil {
		hc = httpx.New(fetchTimeout)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{cfg: cfg, client: hc, logger: logger}
}

func (p *Provider) ID() provider.ID { return provider.IDEODHD }

func (p *Provider) GetExpirations(_ context.Context, symbol string) ([]string, error) {
	req := provider.NewRequest(provider.IDEODHD, provider.EndpointExpirations, symbol, "")
	return nil, req.Fail(provider.ErrValidation, "eodhd does not serve option expirations", nil, nil)
}

func (p *Provider) GetOptionChain(_ context.Context, symbol, expiration string) (provider.OptionChain, error) {
	req := provider.NewRequest(provider.IDEODHD, provider.EndpointOptionChain, symbol, expiration)
	return provider.OptionChain{}, req.Fail(provider.ErrValidation, "eodhd does not serve option chains", nil, nil)
}

type quoteResponse struct {
	Data map[string]quoteData `json:"data"`
}

type quoteData struct {
	Symbol         string   `json:"symbol"`
	LastTradePrice *float64 `json:"lastTradePrice"`
	BidPrice       *float64 `json:"bidPrice"`
	AskPrice       *float64 `json:"askPrice"`
	Change         *float64 `json:"change"`
	ChangePercent  *float64 `json:"changePercent"`
}

func (p *Provider) GetUnderlyingQuote(ctx context.Context, symbol string) (provider.UnderlyingQuote, error) {
	req := provider.NewRequest(provider.IDEODHD, provider.EndpointUnderlyingQuote, symbol, "")
	if p.cfg.APIKey == "" {
		return provider.UnderlyingQuote{}, req.Fail(provider.ErrAuth, "EODHD_API_KEY is required but not set", nil, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	ticker := strings.ToUpper(symbol) + exchange
	q := url.Values{"s": {ticker}, "api_token": {p.cfg.APIKey}, "fmt": {"json"}}
	resp, err := p.client.Get(ctx, p.cfg.BaseURL+"/us-quote-delayed?"+q.Encode(), map[string]string{"Accept": "application/json"})
	if err != nil {
		// The request URL carries the token.
		return provider.UnderlyingQuote{}, req.Fail(provider.ErrNetwork, "network failure while calling eodhd for "+symbol, redact(err, p.cfg.APIKey), nil)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return provider.UnderlyingQuote{}, req.Fail(provider.ErrNetwork, "reading eodhd response", err, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return provider.UnderlyingQuote{}, req.HTTPFailure(resp.StatusCode, http.StatusText(resp.StatusCode), body)
	}

	var parsed quoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return provider.UnderlyingQuote{}, req.Fail(provider.ErrParse, "failed to parse eodhd JSON response", err, nil)
	}
	d, ok := parsed.Data[ticker]
	if !ok {
		return provider.UnderlyingQuote{}, req.Fail(provider.ErrParse, "no quote data returned for "+ticker, nil, nil)
	}
	if p.cfg.Verbose {
		req.LogSuccess(p.logger)
	}
	return provider.UnderlyingQuote{
		Symbol:        symbol,
		Last:          deref(d.LastTradePrice),
		Bid:           deref(d.BidPrice),
		Ask:           deref(d.AskPrice),
		Change:        deref(d.Change),
		ChangePercent: deref(d.ChangePercent),
	}, nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

// redact hides the API token that net/http echoes back in *url.Error,
// both raw and in its query-escaped form.
func redact(err error, token string) error {
	if token == "" {
		return err
	}
	msg := err.Error()
	for _, form := range []string{token, url.QueryEscape(token)} {
		msg = strings.ReplaceAll(msg, form, "REDACTED")
	}
	if msg == err.Error() {
		return err
	}
	cause := err
	var ue *url.Error
	if errors.As(err, &ue) {
		cause = ue.Err
	}
	return &redactedError{msg: msg, cause: cause}
}
