package broker

import (
	"context"
	"time"

	"broker-sim/internal/bizcal"
	"broker-sim/internal/ledger"
	"broker-sim/internal/observability"

	"github.com/shopspring/decimal"
)

// refresh runs lifecycle maintenance on acct: settlement draining, daily
// short-borrow accrual, and (if enabled) forced liquidation. It is
// called before every read and around every PlaceOrder.
func (s *Service) refresh(ctx context.Context, acct *ledger.Account) error {
	acct.Mu.Lock()
	defer acct.Mu.Unlock()
	return s.refreshLocked(ctx, acct)
}

// refreshLocked is refresh's body; callers must already hold acct.Mu.
func (s *Service) refreshLocked(ctx context.Context, acct *ledger.Account) error {
	now := s.clock.Now()

	if settled := acct.DrainSettlements(now); len(settled) > 0 {
		observability.LogMaintenance(ctx, "settlement_drained", map[string]any{
			"account_id": acct.ID,
			"count":      len(settled),
		})
	}

	if err := s.accrueShortBorrowFees(ctx, acct, now); err != nil {
		return err
	}

	if s.cfg.ForceLiquidationEnabled {
		if err := s.enforceMaintenanceMargin(ctx, acct); err != nil {
			return err
		}
	}
	return nil
}

// accrueShortBorrowFees charges the daily short-borrow rate on every
// short position's market value for each whole calendar day elapsed
// since lastBorrowFeeDate.
func (s *Service) accrueShortBorrowFees(ctx context.Context, acct *ledger.Account, now time.Time) error {
	today := bizcal.ISODate(now)
	if acct.LastBorrowFeeDate == today {
		return nil
	}
	days := bizcal.WholeDaysBetween(acct.LastBorrowFeeDate, now)
	acct.LastBorrowFeeDate = today
	if days <= 0 {
		return nil
	}

	shortValue := decimal.Zero
	for symbol, pos := range acct.Positions {
		if !pos.Quantity.IsNegative() {
			continue
		}
		q, err := s.provider.PeekQuote(ctx, symbol)
		if err != nil {
			return err
		}
		shortValue = shortValue.Add(pos.Quantity.Abs().Mul(q.Mid))
	}
	if shortValue.IsZero() {
		return nil
	}

	fee := shortValue.Mul(s.cfg.ShortBorrowDailyRate).Mul(decimal.NewFromInt(int64(days))).Round(6)
	if fee.IsZero() {
		return nil
	}
	acct.FeesDue = acct.FeesDue.Add(fee)
	observability.LogMaintenance(ctx, "short_borrow_fee_accrued", map[string]any{
		"account_id":  acct.ID,
		"short_value": shortValue.String(),
		"days":        days,
		"fee":         fee.String(),
	})
	return nil
}

// enforceMaintenanceMargin liquidates the largest |qty*mid| position
// with an internal bypass-flagged MARKET IOC order when equity falls
// below maintenanceRequired.
func (s *Service) enforceMaintenanceMargin(ctx context.Context, acct *ledger.Account) error {
	marks, err := s.marks(ctx, acct)
	if err != nil {
		return err
	}
	metrics := acct.ComputeMetrics(marks, s.cfg.MarginRatios())
	if metrics.Equity.GreaterThanOrEqual(metrics.MaintenanceRequired) {
		return nil
	}

	symbol, pos, ok := largestExposure(acct, marks)
	if !ok {
		return nil
	}

	side := ledger.Sell
	if pos.Quantity.IsNegative() {
		side = ledger.BuyToCover
	}
	raw := RawOrder{
		Symbol:   symbol,
		Type:     string(ledger.Market),
		Side:     string(side),
		TIF:      string(ledger.IOC),
		Quantity: pos.Quantity.Abs().InexactFloat64(),
	}

	observability.LogMaintenance(ctx, "forced_liquidation_attempt", map[string]any{
		"account_id": acct.ID,
		"symbol":     symbol,
		"quantity":   pos.Quantity.Abs().String(),
		"equity":     metrics.Equity.String(),
	})

	order, err := s.placeOrderLocked(ctx, acct, raw, placeOrderOptions{bypassMarginGuard: true, skipInitialRefresh: true})
	if err != nil {
		return err
	}
	if order.Status == ledger.StatusRejected {
		acct.AppendOrder(ledger.Order{
			ID:        acct.Random.ID("ORD", s.clock.Now()),
			AccountID: acct.ID,
			Symbol:    symbol,
			Type:      ledger.Market,
			Side:      side,
			TIF:       ledger.IOC,
			Quantity:  pos.Quantity.Abs(),
			Status:    ledger.StatusRejected,
			Reason:    ReasonForcedLiquidationFailed,
			CreatedAt: s.clock.Now(),
		})
		observability.LogMaintenance(ctx, "forced_liquidation_failed", map[string]any{
			"account_id": acct.ID,
			"symbol":     symbol,
		})
	}
	return nil
}

// largestExposure picks the position with the largest |qty*mid|.
func largestExposure(acct *ledger.Account, marks map[string]decimal.Decimal) (string, ledger.Position, bool) {
	var (
		bestSymbol string
		bestPos    ledger.Position
		bestAbs    decimal.Decimal
		found      bool
	)
	for symbol, pos := range acct.Positions {
		mid, ok := marks[symbol]
		if !ok {
			continue
		}
		exposure := pos.Quantity.Mul(mid).Abs()
		if !found || exposure.GreaterThan(bestAbs) {
			bestSymbol, bestPos, bestAbs, found = symbol, *pos, exposure, true
		}
	}
	return bestSymbol, bestPos, found
}
