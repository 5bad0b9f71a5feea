// Package chain normalizes option chains parsed from upstream payloads.
package chain

import (
	"sort"

	"optionsgateway/internal/provider"
)

// Pair identifies a contract within a single expiration.
type Pair struct {
	Strike float64
	Right  provider.Right
}

// FromQuotes splits quotes into calls and puts and collapses duplicate
// (strike, right) rows. A later row replaces an earlier one but keeps
// the earlier row's position.
func FromQuotes(quotes []provider.OptionQuote) provider.OptionChain {
	index := make(map[Pair]int, len(quotes))
	out := provider.OptionChain{
		Calls: make([]provider.OptionQuote, 0, len(quotes)/2+1),
		Puts:  make([]provider.OptionQuote, 0, len(quotes)/2+1),
	}
	for _, q := range quotes {
		key := Pair{Strike: q.Strike, Right: q.Right}
		side := &out.Calls
		if q.Right == provider.Put {
			side = &out.Puts
		}
		if i, ok := index[key]; ok {
			(*side)[i] = q
			continue
		}
		index[key] = len(*side)
		*side = append(*side, q)
	}
	return out
}

// SortByStrike returns a copy of c with both sides in ascending strike order.
func SortByStrike(c provider.OptionChain) provider.OptionChain {
	out := provider.OptionChain{
		Calls: append([]provider.OptionQuote(nil), c.Calls...),
		Puts:  append([]provider.OptionQuote(nil), c.Puts...),
	}
	sort.SliceStable(out.Calls, func(i, j int) bool { return out.Calls[i].Strike < out.Calls[j].Strike })
	sort.SliceStable(out.Puts, func(i, j int) bool { return out.Puts[i].Strike < out.Puts[j].Strike })
	return out
}

// Pairs flattens c into its (strike, right) pairs, calls first.
func Pairs(c provider.OptionChain) []Pair {
	out := make([]Pair, 0, c.Len())
	for _, q := range c.Calls {
		out = append(out, Pair{Strike: q.Strike, Right: provider.Call})
	}
	for _, q := range c.Puts {
		out = append(out, Pair{Strike: q.Strike, Right: provider.Put})
	}
	return out
}
