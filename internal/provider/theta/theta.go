// Package theta adapts the local Theta terminal, which serves CSV.
package theta

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"optionsgateway/internal/chain"
	"optionsgateway/internal/httpx"
	"optionsgateway/internal/provider"
)

const (
	DefaultBaseURL = "http://127.0.0.1:25503/v3"

	fetchTimeout   = 4500 * time.Millisecond
	maxExpirations = 20
	maxBody        = 8 << 20

	freeSubscription = "FREE_SUBSCRIPTION"
)

type Config struct {
	BaseURL string
	// Verbose logs a debug event for every successful call.
	Verbose bool
}

type Provider struct {
	cfg    Config
	client *httpx.Client
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Provider)

func WithLogger(l *slog.Logger) Option { return func(p *Provider) { p.logger = l } }

// WithClock overrides the clock used to drop past expirations.
func WithClock(now func() time.Time) Option { return func(p *Provider) { p.now = now } }

func New(cfg Config, hc *httpx.Client, opts ...Option) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if hc == nil {
		hc = httpx.New(fetchTimeout)
	}
	p := &Provider{cfg: cfg, client: hc, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) ID() provider.ID { return provider.IDTheta }

func (p *Provider) GetExpirations(ctx context.Context, symbol string) ([]string, error) {
	req := provider.NewRequest(provider.IDTheta, provider.EndpointExpirations, symbol, "")
	rows, err := p.fetchCSV(ctx, req, "/option/list/expirations", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}

	y, m, d := p.now().UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		t, ok := parseDate(row["expiration"])
		if !ok || !t.After(today) {
			continue
		}
		s := t.Format(time.DateOnly)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) > maxExpirations {
		out = out[:maxExpirations]
	}
	if len(out) == 0 {
		return nil, req.Fail(provider.ErrParse, "no future expirations returned", nil, map[string]any{"rows": len(rows)})
	}
	req.LogSuccess(p.verboseLogger())
	return out, nil
}

func (p *Provider) GetOptionChain(ctx context.Context, symbol, expiration string) (provider.OptionChain, error) {
	req := provider.NewRequest(provider.IDTheta, provider.EndpointOptionChain, symbol, expiration)
	rows, err := p.fetchCSV(ctx, req, "/option/snapshot/quote", url.Values{
		"symbol":     {symbol},
		"expiration": {strings.ReplaceAll(expiration, "-", "")},
		"format":     {"csv"},
	})
	if err != nil {
		return provider.OptionChain{}, err
	}

	quotes := make([]provider.OptionQuote, 0, len(rows))
	for _, row := range rows {
		exp := expiration
		if t, ok := parseDate(row["expiration"]); ok {
			exp = t.Format(time.DateOnly)
		}
		quotes = append(quotes, provider.OptionQuote{
			Strike:       parseFloat(row["strike"]),
			Expiration:   exp,
			Right:        parseRight(row["right"]),
			Bid:          parseFloat(row["bid"]),
			Ask:          parseFloat(row["ask"]),
			Last:         parseFloat(row["last"]),
			Volume:       parseInt(row["volume"]),
			OpenInterest: parseInt(row["open_interest"]),
		})
	}
	out := chain.FromQuotes(quotes)
	if out.Len() == 0 {
		return provider.OptionChain{}, req.Fail(provider.ErrParse, "no option contracts returned", nil, nil)
	}
	req.LogSuccess(p.verboseLogger())
	return out, nil
}

func (p *Provider) GetUnderlyingQuote(ctx context.Context, symbol string) (provider.UnderlyingQuote, error) {
	req := provider.NewRequest(provider.IDTheta, provider.EndpointUnderlyingQuote, symbol, "")
	rows, err := p.fetchCSV(ctx, req, "/stock/snapshot/quote", url.Values{
		"symbol": {symbol},
		"format": {"csv"},
	})
	if err != nil {
		return provider.UnderlyingQuote{}, err
	}
	row := rows[0]
	req.LogSuccess(p.verboseLogger())
	return provider.UnderlyingQuote{
		Symbol:        symbol,
		Last:          parseFloat(row["last"]),
		Bid:           parseFloat(row["bid"]),
		Ask:           parseFloat(row["ask"]),
		Change:        parseFloat(row["change"]),
		ChangePercent: parseFloat(row["change_percent"]),
	}, nil
}

func (p *Provider) verboseLogger() *slog.Logger {
	if !p.cfg.Verbose {
		return nil
	}
	return p.logger
}

// fetchCSV performs one GET and returns the data rows keyed by header.
// Every failure is returned as a *provider.Error.
func (p *Provider) fetchCSV(ctx context.Context, req *provider.Request, path string, params url.Values) ([]map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	u := p.cfg.BaseURL + path + "?" + params.Encode()
	resp, err := p.client.Get(ctx, u, map[string]string{"Accept": "text/csv"})
	if err != nil {
		return nil, req.Fail(provider.ErrNetwork, "network failure while calling "+path, err, nil)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, req.Fail(provider.ErrNetwork, "reading response body", err, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, req.HTTPFailure(resp.StatusCode, http.StatusText(resp.StatusCode), body)
	}
	if bytes.Contains(bytes.ToLower(body), []byte("free subscription")) {
		return nil, req.HTTPFailure(resp.StatusCode, freeSubscription, body)
	}

	rows, err := parseCSV(body)
	if err != nil {
		return nil, req.Fail(provider.ErrParse, fmt.Sprintf("%s for %s", err, req.Endpoint), err, nil)
	}
	return rows, nil
}

var (
	errEmptyPayload = errors.New("empty CSV")
	errNoRows       = errors.New("no data rows in CSV")
)

func parseCSV(body []byte) ([]map[string]string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errEmptyPayload
	}
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, errNoRows
	}
	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseRight treats anything that is not explicitly a put as a call.
func parseRight(s string) provider.Right {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "put", "p":
		return provider.Put
	default:
		return provider.Call
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	return int64(parseFloat(s))
}
