package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DrainSettlements settles every pending entry with SettleAt <= now,
// then unconditionally drains FeesDue from SettledCash. Settled entries
// are removed from Pending. Returns the entries that were settled, in
// the order they appeared in Pending (newest first).
func (a *Account) DrainSettlements(now time.Time) []PendingSettlement {
	var settled []PendingSettlement
	var remaining []PendingSettlement

	for _, entry := range a.Pending {
		if entry.SettleAt.After(now) {
			remaining = append(remaining, entry)
			continue
		}
		switch entry.Direction {
		case Debit:
			a.SettledCash = a.SettledCash.Sub(entry.Amount)
			a.ReservedCash = decimal.Max(decimal.Zero, a.ReservedCash.Sub(entry.Amount))
		case Credit:
			a.SettledCash = a.SettledCash.Add(entry.Amount)
			a.UnsettledCash = a.UnsettledCash.Sub(entry.Amount)
		}
		settled = append(settled, entry)
	}
	a.Pending = remaining

	a.SettledCash = a.SettledCash.Sub(a.FeesDue)
	a.FeesDue = decimal.Zero
	return settled
}
