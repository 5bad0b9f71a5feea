package provider

// ID tags the adapter that produced a result.
type ID string

const (
	IDTheta    ID = "theta"
	IDMassive  ID = "massive"
	IDEODHD    ID = "eodhd"
	IDComposed ID = "composed"
)

// Endpoint names one of the three gateway operations.
type Endpoint string

const (
	EndpointExpirations     Endpoint = "expirations"
	EndpointOptionChain     Endpoint = "option-chain"
	EndpointUnderlyingQuote Endpoint = "underlying-quote"
)

// Right is the option side.
type Right string

const (
	Call Right = "call"
	Put  Right = "put"
)

// OptionQuote is the normalized quote of a single contract.
// Greeks are nil when the upstream does not report them.
type OptionQuote struct {
	Strike            float64  `json:"strike"`
	Expiration        string   `json:"expiration"`
	Right             Right    `json:"right"`
	Bid               float64  `json:"bid"`
	Ask               float64  `json:"ask"`
	Last              float64  `json:"last"`
	Volume            int64    `json:"volume"`
	OpenInterest      int64    `json:"openInterest"`
	Delta             *float64 `json:"delta,omitempty"`
	Gamma             *float64 `json:"gamma,omitempty"`
	Theta             *float64 `json:"theta,omitempty"`
	Vega              *float64 `json:"vega,omitempty"`
	ImpliedVolatility *float64 `json:"impliedVolatility,omitempty"`
}

// OptionChain holds both sides of a chain. Order is not defined here.
type OptionChain struct {
	Calls []OptionQuote `json:"calls"`
	Puts  []OptionQuote `json:"puts"`
}

// Len returns the total number of contracts.
func (c OptionChain) Len() int { return len(c.Calls) + len(c.Puts) }

// UnderlyingQuote is the normalized quote of the underlying instrument.
type UnderlyingQuote struct {
	Symbol        string  `json:"symbol"`
	Last          float64 `json:"last"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}
