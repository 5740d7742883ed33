package screener

// TokenStats is the screener's view of one token.
type TokenStats struct {
	Token          string
	PriceUSD       float64
	LiquidityUSD   float64
	Volume1hUSD    float64
	Volume6hUSD    float64
	PriceChange5m  float64 // fractional, e.g. 0.02 for +2%
	PriceChange1h  float64
	PriceImpactPct float64 // optional; 0 when the API does not report it
}

// apiTokenStats is the wire format of GET /v1/tokens/{address}.
type apiTokenStats struct {
	Address      string  `json:"address"`
	PriceUSD     float64 `json:"priceUsd"`
	LiquidityUSD float64 `json:"liquidityUsd"`
	Volume       struct {
		H1 float64 `json:"h1"`
		H6 float64 `json:"h6"`
	} `json:"volume"`
	PriceChange struct {
		M5 float64 `json:"m5"`
		H1 float64 `json:"h1"`
	} `json:"priceChange"`
	PriceImpact float64 `json:"priceImpact"`
}
