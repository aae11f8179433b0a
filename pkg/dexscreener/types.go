package dexscreener

import "github.com/shopspring/decimal"

// TokenPairsResponse is the envelope of /latest/dex/tokens/{address}.
type TokenPairsResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"` // null when the token has no pairs
}

// Pair is one trading pair record. Numeric fields decode from JSON numbers
// or numeric strings; the API has served both.
type Pair struct {
	ChainID     string              `json:"chainId"`
	DexID       string              `json:"dexId"`
	PairAddress string              `json:"pairAddress"`
	PriceUsd    *decimal.Decimal    `json:"priceUsd"`
	Volume      *Window             `json:"volume"`
	PriceChange *Window             `json:"priceChange"`
	Liquidity   *Liquidity          `json:"liquidity"`
	MarketCap   decimal.NullDecimal `json:"marketCap"` // optional
	FDV         decimal.NullDecimal `json:"fdv"`
}

// Window holds per-timeframe values; only h24 is consumed.
type Window struct {
	M5  *decimal.Decimal `json:"m5"`
	H1  *decimal.Decimal `json:"h1"`
	H6  *decimal.Decimal `json:"h6"`
	H24 *decimal.Decimal `json:"h24"`
}

type Liquidity struct {
	Usd   *decimal.Decimal `json:"usd"`
	Base  *decimal.Decimal `json:"base"`
	Quote *decimal.Decimal `json:"quote"`
}
