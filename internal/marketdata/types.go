package marketdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a single point-in-time price observation for a symbol.
// Invariant: Bid <= Mid <= Ask, and Ask-Bid == Mid*SpreadBps/10000.
type Quote struct {
	Symbol          string
	Bid             decimal.Decimal
	Ask             decimal.Decimal
	Mid             decimal.Decimal
	SpreadBps       float64
	VolatilityProxy float64
	Timestamp       time.Time
}

// SeriesConfig is one symbol's entry in a replay dataset: a cyclic series
// of mid prices and an optional per-symbol spread override.
type SeriesConfig struct {
	Series    []float64 `json:"series"`
	SpreadBps *float64  `json:"spreadBps,omitempty"`
}
