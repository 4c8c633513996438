package broker

import (
	"fmt"
	"math"
	"strings"

	"broker-sim/internal/ledger"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// RawOrder is the untrusted, externally-supplied order request shape.
// It deliberately has no field for the internal liquidation-bypass
// flag: that flag can only be set by code inside this package, via
// placeOrderOptions, never decoded from a caller-supplied payload.
type RawOrder struct {
	Symbol     string   `json:"symbol" validate:"required"`
	Type       string   `json:"type" validate:"required"`
	Side       string   `json:"side" validate:"required"`
	TIF        string   `json:"tif"`
	Quantity   float64  `json:"quantity"`
	LimitPrice *float64 `json:"limitPrice,omitempty"`
	StopPrice  *float64 `json:"stopPrice,omitempty"`
}

// normalizedOrder is RawOrder after uppercasing and defaulting, before
// semantic validation.
type normalizedOrder struct {
	Symbol     string
	Type       ledger.OrderType
	Side       ledger.OrderSide
	TIF        ledger.TimeInForce
	Quantity   decimal.Decimal
	LimitPrice *decimal.Decimal
	StopPrice  *decimal.Decimal
}

// normalize upper-cases type/side/tif/symbol and defaults tif to DAY.
// Non-finite numeric fields are left as zero rather than passed to
// decimal.NewFromFloat, which panics on NaN/Inf; callers must reject
// non-finite input before relying on the resulting quantity/prices.
func normalize(raw RawOrder) normalizedOrder {
	n := normalizedOrder{
		Symbol:   strings.ToUpper(strings.TrimSpace(raw.Symbol)),
		Type:     ledger.OrderType(strings.ToUpper(strings.TrimSpace(raw.Type))),
		Side:     ledger.OrderSide(strings.ToUpper(strings.TrimSpace(raw.Side))),
		TIF:      ledger.TimeInForce(strings.ToUpper(strings.TrimSpace(raw.TIF))),
		Quantity: safeDecimal(raw.Quantity),
	}
	if n.TIF == "" {
		n.TIF = ledger.Day
	}
	if raw.LimitPrice != nil {
		v := safeDecimal(*raw.LimitPrice)
		n.LimitPrice = &v
	}
	if raw.StopPrice != nil {
		v := safeDecimal(*raw.StopPrice)
		n.StopPrice = &v
	}
	return n
}

// safeDecimal converts f to a decimal.Decimal, substituting zero for
// NaN/Inf rather than panicking.
func safeDecimal(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// validateShape runs the struct-tag pass over the raw payload, catching a
// missing symbol/type/side before any semantic interpretation. It must
// not reject on the *value* of type/side/tif or on numeric finiteness:
// those go through checkSemantics, in the fixed order the exact-reason
// rejects require, and safeDecimal already folds a non-finite quantity
// or price into zero for checkSemantics to reject on its own terms.
func validateShape(raw RawOrder) error {
	if err := structValidator.Struct(raw); err != nil {
		return fmt.Errorf("broker: malformed order: %w", err)
	}
	return nil
}

var validTypes = map[ledger.OrderType]bool{
	ledger.Market:    true,
	ledger.Limit:     true,
	ledger.Stop:      true,
	ledger.StopLimit: true,
}

var validSides = map[ledger.OrderSide]bool{
	ledger.Buy:        true,
	ledger.Sell:       true,
	ledger.SellShort:  true,
	ledger.BuyToCover: true,
}

var validTIFs = map[ledger.TimeInForce]bool{
	ledger.Day: true,
	ledger.GTC: true,
	ledger.IOC: true,
}

// checkSemantics runs the exact rejection checks in the fixed order.
// Returns ("", true) when the order passes every check.
func checkSemantics(n normalizedOrder) (reason string, ok bool) {
	if !validTypes[n.Type] {
		return ReasonUnsupportedType, false
	}
	if !validSides[n.Side] {
		return ReasonUnsupportedSide, false
	}
	if !validTIFs[n.TIF] {
		return ReasonUnsupportedTIF, false
	}
	if !n.Quantity.IsPositive() {
		return ReasonInvalidQuantity, false
	}
	if n.Type == ledger.Limit && (n.LimitPrice == nil || !n.LimitPrice.IsPositive()) {
		return ReasonInvalidLimitPrice, false
	}
	if n.Type == ledger.Stop && (n.StopPrice == nil || !n.StopPrice.IsPositive()) {
		return ReasonInvalidStopPrice, false
	}
	if n.Type == ledger.StopLimit {
		if n.StopPrice == nil || !n.StopPrice.IsPositive() || n.LimitPrice == nil || !n.LimitPrice.IsPositive() {
			return ReasonInvalidStopLimitPrices, false
		}
	}
	if n.Type == ledger.Market && n.TIF == ledger.GTC {
		return ReasonUnsupportedTypeTIF, false
	}
	return "", true
}
