// Package mockdata produces deterministic-shape synthetic market data.
// It backs mock mode and the auto-mode fallback, so it never fails.
package mockdata

import (
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"optionsgateway/internal/provider"
)

const (
	maxExpirations = 20
	weeklyCount    = 8
	monthlyCount   = 12
	monthlyDay     = 15

	strikeIncrement = 5.0
	strikeRange     = 10

	defaultPrice = 100.0
	spread       = 0.15
	quoteSpread  = 0.05
)

var basePrices = map[string]float64{
	"SPY":  450.25,
	"AAPL": 180.5,
	"TSLA": 250.75,
	"QQQ":  380,
}

// Generator builds synthetic expirations, chains and quotes.
type Generator struct {
	now func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*Generator)

// WithClock overrides the wall clock used for expiration dates.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRand overrides the random source used for volume, open interest and greeks.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rnd = r }
}

func New(opts ...Option) *Generator {
	g := &Generator{
		now: time.Now,
		rnd: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BasePrice is the synthetic underlying price for symbol.
func BasePrice(symbol string) float64 {
	if p, ok := basePrices[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return p
	}
	return defaultPrice
}

// Expirations returns up to 20 future dates: 8 weekly, then the 15th of
// each of the next 12 months, de-duplicated and sorted ascending.
func (g *Generator) Expirations() []string {
	now := g.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	seen := make(map[string]struct{}, weeklyCount+monthlyCount)
	out := make([]string, 0, weeklyCount+monthlyCount)
	add := func(t time.Time) {
		if !t.After(today) {
			return
		}
		d := t.Format(time.DateOnly)
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	for w := 1; w <= weeklyCount; w++ {
		add(today.AddDate(0, 0, 7*w))
	}
	for m := 1; m <= monthlyCount; m++ {
		// Normalised by time.Date, so December rolls into the next year.
		add(time.Date(today.Year(), today.Month()+time.Month(m), monthlyDay, 0, 0, 0, 0, time.UTC))
	}
	sort.Strings(out)
	if len(out) > maxExpirations {
		out = out[:maxExpirations]
	}
	return out
}

// OptionChain returns 21 strikes per side centred on the base price.
func (g *Generator) OptionChain(symbol, expiration string) provider.OptionChain {
	underlying := BasePrice(symbol)
	strikes := make([]float64, 0, 2*strikeRange+1)
	for i := -strikeRange; i <= strikeRange; i++ {
		strikes = append(strikes, underlying+float64(i)*strikeIncrement)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	out := provider.OptionChain{
		Calls: make([]provider.OptionQuote, 0, len(strikes)),
		Puts:  make([]provider.OptionQuote, 0, len(strikes)),
	}
	for _, k := range strikes {
		out.Calls = append(out.Calls, g.option(k, expiration, provider.Call, underlying))
	}
	for _, k := range strikes {
		out.Puts = append(out.Puts, g.option(k, expiration, provider.Put, underlying))
	}
	return out
}

// UnderlyingQuote returns a fixed quote around the base price.
func (g *Generator) UnderlyingQuote(symbol string) provider.UnderlyingQuote {
	last := decimal.NewFromFloat(BasePrice(symbol))
	half := decimal.NewFromFloat(quoteSpread)
	return provider.UnderlyingQuote{
		Symbol:        symbol,
		Last:          last.InexactFloat64(),
		Bid:           last.Sub(half).Round(2).InexactFloat64(),
		Ask:           last.Add(half).Round(2).InexactFloat64(),
		Change:        -2.5,
		ChangePercent: -0.55,
	}
}

// option must be called with g.mu held.
func (g *Generator) option(strike float64, expiration string, right provider.Right, underlying float64) provider.OptionQuote {
	itm := strike < underlying
	if right == provider.Put {
		itm = strike > underlying
	}
	distance := math.Abs(strike - underlying)

	var premium float64
	deltaBase := 0.1
	if itm {
		premium = distance + 5
		deltaBase = 0.6
	} else {
		premium = math.Max(0.05, 20-distance/2)
	}
	last := decimal.NewFromFloat(premium).Round(2)
	half := decimal.NewFromFloat(spread)
	bid := decimal.Max(decimal.NewFromFloat(0.01), last.Sub(half)).Round(2)
	ask := last.Add(half).Round(2)

	delta := deltaBase + g.rnd.Float64()*0.3
	if right == provider.Put {
		delta = -delta
	}
	gamma := 0.01 + g.rnd.Float64()*0.05
	theta := -(0.05 + g.rnd.Float64()*0.15)
	vega := 0.1 + g.rnd.Float64()*0.2
	iv := 0.15 + g.rnd.Float64()*0.15

	return provider.OptionQuote{
		Strike:            decimal.NewFromFloat(strike).Round(2).InexactFloat64(),
		Expiration:        expiration,
		Right:             right,
		Bid:               bid.InexactFloat64(),
		Ask:               ask.InexactFloat64(),
		Last:              last.InexactFloat64(),
		Volume:            100 + g.rnd.Int64N(1000),
		OpenInterest:      500 + g.rnd.Int64N(5000),
		Delta:             &delta,
		Gamma:             &gamma,
		Theta:             &theta,
		Vega:              &vega,
		ImpliedVolatility: &iv,
	}
}
