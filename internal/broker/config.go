package broker

import (
	"fmt"

	"broker-sim/internal/ledger"

	"github.com/shopspring/decimal"
)

// Config is the immutable set of tunables for one Service instance.
// ExecutionDelayMs is kept as a plain int (milliseconds) rather than a
// time.Duration so it round-trips cleanly through JSON/env configuration
// the way the wire config is described.
type Config struct {
	Seed int64

	ExecutionDelayMs int

	EnforceMarketHours bool
	MarketOpenHour     int
	MarketOpenMinute   int
	MarketCloseHour    int
	MarketCloseMinute  int

	CommissionPerTrade decimal.Decimal
	FeeRateBps         decimal.Decimal

	BaseSlippageBps   decimal.Decimal
	SizeImpactBps     decimal.Decimal
	RandomSlippageBps decimal.Decimal

	BaseSpreadBps float64

	InitialMarginLong      decimal.Decimal
	InitialMarginShort     decimal.Decimal
	MaintenanceMarginLong  decimal.Decimal
	MaintenanceMarginShort decimal.Decimal

	SettlementDaysEquities int
	ShortBorrowDailyRate   decimal.Decimal

	ForceLiquidationEnabled bool
}

// DefaultConfig returns the conservative defaults used across the
// worked examples: margin ratios 0.5 / 1.5 / 0.25 / 0.3 (initial long,
// initial short, maintenance long, maintenance short), T+1 settlement,
// market hours configured as 09:30-16:00 but not enforced
// (EnforceMarketHours is false).
func DefaultConfig() Config {
	return Config{
		Seed:                    1,
		ExecutionDelayMs:        0,
		EnforceMarketHours:      false,
		MarketOpenHour:          9,
		MarketOpenMinute:        30,
		MarketCloseHour:         16,
		MarketCloseMinute:       0,
		CommissionPerTrade:      decimal.Zero,
		FeeRateBps:              decimal.Zero,
		BaseSlippageBps:         decimal.NewFromInt(1),
		SizeImpactBps:           decimal.NewFromFloat(0.5),
		RandomSlippageBps:       decimal.NewFromInt(2),
		BaseSpreadBps:           5,
		InitialMarginLong:       decimal.NewFromFloat(0.5),
		InitialMarginShort:      decimal.NewFromFloat(1.5),
		MaintenanceMarginLong:   decimal.NewFromFloat(0.25),
		MaintenanceMarginShort:  decimal.NewFromFloat(0.3),
		SettlementDaysEquities:  1,
		ShortBorrowDailyRate:    decimal.NewFromFloat(0.0001),
		ForceLiquidationEnabled: true,
	}
}

// Validate rejects configurations that would make the accounting math
// meaningless. Zero-value numeric fields are left as-is — DefaultConfig
// is the place to pick sensible defaults, not Validate.
func (c Config) Validate() error {
	if c.SettlementDaysEquities <= 0 {
		return fmt.Errorf("broker: settlementDaysEquities must be > 0, got %d", c.SettlementDaysEquities)
	}
	if c.ExecutionDelayMs < 0 {
		return fmt.Errorf("broker: executionDelayMs must be >= 0, got %d", c.ExecutionDelayMs)
	}
	negativeChecks := map[string]decimal.Decimal{
		"commissionPerTrade":     c.CommissionPerTrade,
		"feeRateBps":             c.FeeRateBps,
		"baseSlippageBps":        c.BaseSlippageBps,
		"sizeImpactBps":          c.SizeImpactBps,
		"randomSlippageBps":      c.RandomSlippageBps,
		"initialMarginLong":      c.InitialMarginLong,
		"initialMarginShort":     c.InitialMarginShort,
		"maintenanceMarginLong":  c.MaintenanceMarginLong,
		"maintenanceMarginShort": c.MaintenanceMarginShort,
		"shortBorrowDailyRate":   c.ShortBorrowDailyRate,
	}
	for name, v := range negativeChecks {
		if v.IsNegative() {
			return fmt.Errorf("broker: %s must be >= 0, got %s", name, v)
		}
	}
	if c.BaseSpreadBps < 0 {
		return fmt.Errorf("broker: baseSpreadBps must be >= 0, got %v", c.BaseSpreadBps)
	}
	if c.MarketOpenHour < 0 || c.MarketOpenHour > 23 || c.MarketCloseHour < 0 || c.MarketCloseHour > 23 {
		return fmt.Errorf("broker: market open/close hour must be in [0,23]")
	}
	return nil
}

// MarginRatios adapts Config's margin fields to ledger.MarginRatios.
func (c Config) MarginRatios() ledger.MarginRatios {
	return ledger.MarginRatios{
		InitialLong:      c.InitialMarginLong,
		InitialShort:     c.InitialMarginShort,
		MaintenanceLong:  c.MaintenanceMarginLong,
		MaintenanceShort: c.MaintenanceMarginShort,
	}
}
