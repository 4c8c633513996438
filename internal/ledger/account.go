package ledger

import (
	"sync"
	"time"

	"broker-sim/internal/rng"

	"github.com/shopspring/decimal"
)

// Account is a brokerage account: cash balances, positions, and the
// append-only order/fill/settlement history. Mu serializes all mutation
// of an account; callers must hold it for the duration of any operation
// that reads-then-writes account state (placing an order, running
// maintenance).
type Account struct {
	ID            string
	CreatedAt     time.Time
	SettledCash   decimal.Decimal
	UnsettledCash decimal.Decimal
	ReservedCash  decimal.Decimal
	FeesDue       decimal.Decimal

	Positions map[string]*Position
	Orders    []Order             // newest first
	Fills     []Fill              // newest first
	Pending   []PendingSettlement // newest first

	LastBorrowFeeDate string // ISO date (YYYY-MM-DD), "" until the first refresh

	Mu     sync.Mutex
	Random *rng.Stream
}

// New creates an Account with the given initial capital fully settled
// and no positions or history.
func New(id string, now time.Time, initialCapital decimal.Decimal, seed int64) *Account {
	return &Account{
		ID:            id,
		CreatedAt:     now,
		SettledCash:   initialCapital,
		UnsettledCash: decimal.Zero,
		ReservedCash:  decimal.Zero,
		FeesDue:       decimal.Zero,
		Positions:     make(map[string]*Position),
		Random:        rng.NewStream(seed, id),
	}
}

// AvailableCash is settledCash − reservedCash − feesDue.
func (a *Account) AvailableCash() decimal.Decimal {
	return a.SettledCash.Sub(a.ReservedCash).Sub(a.FeesDue)
}

// AppendOrder prepends order to the order history (newest first).
func (a *Account) AppendOrder(o Order) {
	a.Orders = append([]Order{o}, a.Orders...)
}

// AppendFill prepends f to the fill history (newest first).
func (a *Account) AppendFill(f Fill) {
	a.Fills = append([]Fill{f}, a.Fills...)
}

// AppendSettlement prepends s to the pending-settlement queue (newest
// first). DrainSettlements walks the queue in this newest-first order,
// not sorted by SettleAt, and settles every due entry in one pass.
func (a *Account) AppendSettlement(s PendingSettlement) {
	a.Pending = append([]PendingSettlement{s}, a.Pending...)
}

// UpsertPosition applies deltaQty at fillPrice to the position in
// symbol, creating or deleting it as needed.
func (a *Account) UpsertPosition(symbol string, deltaQty, fillPrice decimal.Decimal) {
	cur := Position{Symbol: symbol}
	if existing, ok := a.Positions[symbol]; ok {
		cur = *existing
	}
	next := ApplySignedPosition(cur, deltaQty, fillPrice)
	if next.Quantity.IsZero() {
		delete(a.Positions, symbol)
		return
	}
	a.Positions[symbol] = &next
}

// Clone deep-copies the account for the post-trade simulation step; the
// copy shares no mutable state with the original so applying a trade to
// it and discarding it on rejection is always safe.
func (a *Account) Clone() *Account {
	clone := &Account{
		ID:                a.ID,
		CreatedAt:         a.CreatedAt,
		SettledCash:       a.SettledCash,
		UnsettledCash:     a.UnsettledCash,
		ReservedCash:      a.ReservedCash,
		FeesDue:           a.FeesDue,
		Positions:         make(map[string]*Position, len(a.Positions)),
		LastBorrowFeeDate: a.LastBorrowFeeDate,
		Random:            a.Random,
	}
	for sym, pos := range a.Positions {
		cp := *pos
		clone.Positions[sym] = &cp
	}
	clone.Orders = append([]Order(nil), a.Orders...)
	clone.Fills = append([]Fill(nil), a.Fills...)
	clone.Pending = append([]PendingSettlement(nil), a.Pending...)
	return clone
}
