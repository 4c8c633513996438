// Package ledger holds the broker's per-account state: positions, cash
// balances, and the append-only order/fill/settlement history, plus the
// pure accounting functions the execution engine applies to them. It has
// no dependency on the market-data or broker-config packages — margin
// ratios and marks are passed in explicitly so this package stays a leaf.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType enumerates the supported order types.
type OrderType string

const (
	Market     OrderType = "MARKET"
	Limit      OrderType = "LIMIT"
	Stop       OrderType = "STOP"
	StopLimit  OrderType = "STOP_LIMIT"
)

// OrderSide enumerates the supported order sides.
type OrderSide string

const (
	Buy          OrderSide = "BUY"
	Sell         OrderSide = "SELL"
	SellShort    OrderSide = "SELL_SHORT"
	BuyToCover   OrderSide = "BUY_TO_COVER"
)

// TimeInForce enumerates the supported TIFs.
type TimeInForce string

const (
	Day TimeInForce = "DAY"
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
)

// OrderStatus is the terminal or in-flight state of an Order.
type OrderStatus string

const (
	StatusOpen     OrderStatus = "OPEN"
	StatusFilled   OrderStatus = "FILLED"
	StatusRejected OrderStatus = "REJECTED"
	StatusCanceled OrderStatus = "CANCELED"
)

// TriggerState records how a STOP/STOP_LIMIT order was (or was not)
// triggered. PendingLimit is never produced by the trigger evaluator:
// the evaluator always resolves a triggered stop-limit to either market
// or limit behavior in the same pass, so this value is kept only for
// wire compatibility with the original state machine.
type TriggerState string

const (
	TriggerNotRequired  TriggerState = "NOT_REQUIRED"
	TriggerToMarket     TriggerState = "TRIGGERED_TO_MARKET"
	TriggerToLimit      TriggerState = "TRIGGERED_TO_LIMIT"
	TriggerPendingLimit TriggerState = "PENDING_LIMIT" // unreachable in practice
)

// SettlementDirection is whether a PendingSettlement entry moves cash
// into or out of SettledCash when it matures.
type SettlementDirection string

const (
	Debit  SettlementDirection = "DEBIT"
	Credit SettlementDirection = "CREDIT"
)

// Position is a signed, weighted-average-cost holding in one symbol.
// Positive Quantity is long, negative is short. AvgPrice is meaningless
// (and unused) once Quantity reaches zero — callers must delete the
// entry rather than keep a zero-quantity Position around.
type Position struct {
	Symbol   string
	Quantity decimal.Decimal
	AvgPrice decimal.Decimal
}

// Order is an append-only historical record of one order submission.
type Order struct {
	ID            string
	AccountID     string
	Symbol        string
	Type          OrderType
	Side          OrderSide
	TIF           TimeInForce
	Quantity      decimal.Decimal
	LimitPrice    *decimal.Decimal
	StopPrice     *decimal.Decimal
	Status        OrderStatus
	Reason        string
	CreatedAt     time.Time
	FilledAt      *time.Time
	FillPrice     *decimal.Decimal
	Fees          decimal.Decimal
	TriggerState  TriggerState
	EffectiveType OrderType
}

// Fill is an append-only historical record of one executed trade.
type Fill struct {
	ID        string
	OrderID   string
	AccountID string
	Symbol    string
	Side      OrderSide
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Notional  decimal.Decimal
	Fees      decimal.Decimal
	Timestamp time.Time
}

// PendingSettlement is a cash movement awaiting its T+N settlement date.
type PendingSettlement struct {
	Amount    decimal.Decimal
	Direction SettlementDirection
	SettleAt  time.Time
	Symbol    string
}
