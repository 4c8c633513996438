package ledger

import "github.com/shopspring/decimal"

// MarginRatios are the account-level margin requirements used to compute
// Metrics. They are supplied by the caller (the broker config) rather
// than imported, so this package has no dependency on broker config.
type MarginRatios struct {
	InitialLong        decimal.Decimal
	InitialShort       decimal.Decimal
	MaintenanceLong    decimal.Decimal
	MaintenanceShort   decimal.Decimal
}

// Metrics is the computed margin/equity snapshot for an account at a
// given set of marks.
type Metrics struct {
	LongValue           decimal.Decimal
	ShortValue          decimal.Decimal
	MarketValue          decimal.Decimal
	Equity              decimal.Decimal
	InitialRequired      decimal.Decimal
	MaintenanceRequired  decimal.Decimal
	MarginExcess        decimal.Decimal
	AvailableCash       decimal.Decimal
}

// ComputeMetrics computes Metrics for the account given a map of
// symbol -> mid price. Symbols with a position but no mark are treated
// as having zero value (the caller is expected to always supply a mark
// for every open position).
func (a *Account) ComputeMetrics(marks map[string]decimal.Decimal, ratios MarginRatios) Metrics {
	longValue := decimal.Zero
	shortValue := decimal.Zero
	marketValue := decimal.Zero

	for symbol, pos := range a.Positions {
		mid, ok := marks[symbol]
		if !ok {
			continue
		}
		value := pos.Quantity.Mul(mid)
		marketValue = marketValue.Add(value)
		if pos.Quantity.IsPositive() {
			longValue = longValue.Add(value)
		} else if pos.Quantity.IsNegative() {
			shortValue = shortValue.Add(value.Abs())
		}
	}

	equity := a.SettledCash.Add(a.UnsettledCash).Add(marketValue).Sub(a.FeesDue)
	initialRequired := ratios.InitialLong.Mul(longValue).Add(ratios.InitialShort.Mul(shortValue))
	maintenanceRequired := ratios.MaintenanceLong.Mul(longValue).Add(ratios.MaintenanceShort.Mul(shortValue))
	marginExcess := equity.Sub(maintenanceRequired)

	return Metrics{
		LongValue:           longValue.Round(6),
		ShortValue:          shortValue.Round(6),
		MarketValue:         marketValue.Round(6),
		Equity:              equity.Round(6),
		InitialRequired:     initialRequired.Round(6),
		MaintenanceRequired: maintenanceRequired.Round(6),
		MarginExcess:        marginExcess.Round(6),
		AvailableCash:       a.AvailableCash().Round(6),
	}
}

// UnrealizedPnL computes (mid-avg)*qty for a long position and
// (avg-mid)*|qty| for a short position.
func UnrealizedPnL(pos Position, mid decimal.Decimal) decimal.Decimal {
	if pos.Quantity.IsNegative() {
		return pos.AvgPrice.Sub(mid).Mul(pos.Quantity.Abs()).Round(6)
	}
	return mid.Sub(pos.AvgPrice).Mul(pos.Quantity).Round(6)
}
