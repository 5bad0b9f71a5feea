package massive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Contract is one option contract as reported by the API. Greeks and
// implied volatility are nil when absent.
type Contract struct {
	Symbol            string
	Strike            float64
	Expiration        string
	Type              string
	Bid               float64
	Ask               float64
	Last              float64
	Volume            int64
	OpenInterest      int64
	Delta             *float64
	Gamma             *float64
	Theta             *float64
	Vega              *float64
	ImpliedVolatility *float64
}

// Quote is the latest quote of a stock.
type Quote struct {
	Symbol        string
	Last          float64
	Bid           float64
	Ask           float64
	Change        float64
	ChangePercent float64
}

// Expirations lists expiration dates for symbol. Entries may be plain
// strings or objects with "expiration" or "date".
func (c *Client) Expirations(ctx context.Context, symbol string) ([]string, error) {
	entries, err := c.results(ctx, "/options/expirations", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		var s string
		switch v := entry.(type) {
		case string:
			s = v
		case map[string]any:
			s = str(v, "expiration", "date")
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("expirations: %w", ErrNoData)
	}
	return out, nil
}

// OptionChain lists the contracts of symbol expiring on expiration.
func (c *Client) OptionChain(ctx context.Context, symbol, expiration string) ([]Contract, error) {
	entries, err := c.results(ctx, "/options/chain", url.Values{"symbol": {symbol}, "expiration": {expiration}})
	if err != nil {
		return nil, err
	}
	out := make([]Contract, 0, len(entries))
	for _, entry := range entries {
		// {
		//   "strike": 450, "expiration": "2030-01-18", "type": "call",
		//   "bid": "1.10", "ask": 1.2, "last": 1.15, "volume": 10,
		//   "open_interest": 100, "greeks": {"delta": 0.5}, "iv": 0.2
		// }
		rec, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		greeks, _ := rec["greeks"].(map[string]any)
		out = append(out, Contract{
			Symbol:            str(rec, "symbol"),
			Strike:            num(rec, "strike", "strike_price"),
			Expiration:        str(rec, "expiration"),
			Type:              str(rec, "type", "right"),
			Bid:               num(rec, "bid"),
			Ask:               num(rec, "ask"),
			Last:              num(rec, "last", "mark"),
			Volume:            int64(num(rec, "volume")),
			OpenInterest:      int64(num(rec, "open_interest", "openInterest")),
			Delta:             optNum(greeks, "delta"),
			Gamma:             optNum(greeks, "gamma"),
			Theta:             optNum(greeks, "theta"),
			Vega:              optNum(greeks, "vega"),
			ImpliedVolatility: optNum(rec, "iv", "implied_volatility"),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("option chain: %w", ErrNoData)
	}
	return out, nil
}

// LatestQuote returns the first quote record for symbol.
func (c *Client) LatestQuote(ctx context.Context, symbol string) (Quote, error) {
	entries, err := c.results(ctx, "/stocks/quotes/latest", url.Values{"symbol": {symbol}})
	if err != nil {
		return Quote{}, err
	}
	if len(entries) == 0 {
		return Quote{}, fmt.Errorf("quote: %w", ErrNoData)
	}
	rec, ok := entries[0].(map[string]any)
	if !ok {
		return Quote{}, fmt.Errorf("quote: %w", ErrNoData)
	}
	q := Quote{
		Symbol:        str(rec, "symbol"),
		Last:          num(rec, "last", "close"),
		Bid:           num(rec, "bid", "best_bid"),
		Ask:           num(rec, "ask", "best_ask"),
		Change:        num(rec, "change", "day_change"),
		ChangePercent: num(rec, "change_percent", "day_change_percent"),
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	return q, nil
}

// lookup returns the first present, non-null value among keys.
func lookup(rec map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func str(rec map[string]any, keys ...string) string {
	v, ok := lookup(rec, keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// num accepts JSON numbers and numeric strings; anything else is 0.
func num(rec map[string]any, keys ...string) float64 {
	if f := optNum(rec, keys...); f != nil {
		return *f
	}
	return 0
}

func optNum(rec map[string]any, keys ...string) *float64 {
	v, ok := lookup(rec, keys...)
	if !ok {
		return nil
	}
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case string:
		if strings.TrimSpace(x) == "" {
			return nil
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	case float64:
		f = x
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return &f
}
