package broker

import "errors"

// ErrAccountNotFound is returned for an unknown account ID instead of a
// rejected order. Validation and business failures inside PlaceOrder are
// recorded as REJECTED orders and returned without error; see PlaceOrder
// for the other errors it can return.
var ErrAccountNotFound = errors.New("broker: account not found")

// Reject reasons, exact strings traders see in an order's Reason field.
const (
	ReasonMalformedRequest       = "malformed request: missing required field"
	ReasonUnsupportedType        = "unsupported order type"
	ReasonUnsupportedSide        = "unsupported side"
	ReasonUnsupportedTIF         = "unsupported tif"
	ReasonInvalidQuantity        = "invalid quantity"
	ReasonInvalidLimitPrice      = "invalid limit price"
	ReasonInvalidStopPrice       = "invalid stop price"
	ReasonInvalidStopLimitPrices = "invalid stop/limit prices"
	ReasonUnsupportedTypeTIF     = "unsupported order type/tif combination"
	ReasonMarketClosed           = "market closed"
	ReasonUnknownSymbol          = "unknown symbol"
	ReasonMarginDeficiency       = "margin deficiency: account below maintenance"
	ReasonInsufficientBuyingPower = "insufficient available buying power / margin"
	ReasonForcedLiquidationFailed = "margin_call_forced_liquidation_failed"
)
