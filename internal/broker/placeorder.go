package broker

import (
	"context"
	"math"
	"time"

	"broker-sim/internal/bizcal"
	"broker-sim/internal/ledger"
	"broker-sim/internal/observability"
	"broker-sim/internal/rng"

	"github.com/shopspring/decimal"
)

// placeOrderOptions carries engine-internal knobs that must never be
// reachable from an externally-decoded request. Both fields are set
// only by the forced-liquidation path in maintenance.go: the liquidating
// order must bypass the maintenance-margin guard it exists to satisfy,
// and must skip the pipeline's own leading refresh, since
// enforceMaintenanceMargin already refreshed the account immediately
// before building it — without skipInitialRefresh, step 1 would call
// back into enforceMaintenanceMargin against the still-unliquidated
// position and recurse without bound.
type placeOrderOptions struct {
	bypassMarginGuard  bool
	skipInitialRefresh bool
}

// PlaceOrder runs raw through the full validation/trigger/fill pipeline
// for accountID. Every validation or business failure is recorded as a
// REJECTED order and returned with a nil error. A non-nil error is
// returned for an unknown account (ErrAccountNotFound), for a context
// canceled during the execution delay, and for a failed market-data
// read of a held position during refresh or margin computation.
func (s *Service) PlaceOrder(ctx context.Context, accountID string, raw RawOrder) (ledger.Order, error) {
	acct, err := s.account(accountID)
	if err != nil {
		return ledger.Order{}, err
	}
	ctx = withRequestContext(ctx, accountID)

	acct.Mu.Lock()
	defer acct.Mu.Unlock()
	return s.placeOrderLocked(ctx, acct, raw, placeOrderOptions{})
}

func (s *Service) placeOrderLocked(ctx context.Context, acct *ledger.Account, raw RawOrder, opts placeOrderOptions) (ledger.Order, error) {
	// Step 1: refresh before touching the account.
	if !opts.skipInitialRefresh {
		if err := s.refreshLocked(ctx, acct); err != nil {
			return ledger.Order{}, err
		}
	}

	now := s.clock.Now()

	// Steps 2-3: normalize, then check structural validity (missing
	// required fields) ahead of the exact-reason semantic checks, which
	// in turn evaluate type/side/tif before quantity/price so a request
	// with both an invalid type and a non-finite quantity is rejected
	// for its type, not its quantity.
	n := normalize(raw)
	if err := validateShape(raw); err != nil {
		return s.reject(ctx, acct, raw, now, ReasonMalformedRequest), nil
	}
	if reason, ok := checkSemantics(n); !ok {
		return s.reject(ctx, acct, raw, now, reason), nil
	}

	// Step 5: market hours.
	if s.cfg.EnforceMarketHours && !withinMarketHours(now, s.cfg) {
		return s.reject(ctx, acct, raw, now, ReasonMarketClosed), nil
	}

	// Step 6: symbol existence, via the first advancing quote.
	quote1, err := s.provider.GetQuote(ctx, n.Symbol)
	if err != nil {
		return s.reject(ctx, acct, raw, now, ReasonUnknownSymbol), nil
	}

	// Step 7: maintenance margin guard.
	if !opts.bypassMarginGuard {
		marks, err := s.marks(ctx, acct)
		if err != nil {
			return ledger.Order{}, err
		}
		metrics := acct.ComputeMetrics(marks, s.cfg.MarginRatios())
		if metrics.Equity.LessThan(metrics.MaintenanceRequired) {
			return s.reject(ctx, acct, raw, now, ReasonMarginDeficiency), nil
		}
	}

	// Step 8: trigger evaluation.
	triggerState := ledger.TriggerNotRequired
	switch n.Type {
	case ledger.Stop, ledger.StopLimit:
		triggered := triggerFires(n.Side, *n.StopPrice, quote1.Mid)
		if !triggered {
			return s.park(acct, n, raw, now, ledger.TriggerNotRequired, n.Type), nil
		}
		if n.Type == ledger.Stop {
			triggerState = ledger.TriggerToMarket
		} else {
			triggerState = ledger.TriggerToLimit
		}
	}

	// Step 9: execution delay, then a second advancing quote.
	if err := sleepDelay(ctx, s.cfg.ExecutionDelayMs); err != nil {
		return ledger.Order{}, err
	}
	quote2, err := s.provider.GetQuote(ctx, n.Symbol)
	if err != nil {
		return s.reject(ctx, acct, raw, now, ReasonUnknownSymbol), nil
	}

	effectiveType := n.Type
	switch {
	case n.Type == ledger.Stop && triggerState == ledger.TriggerToMarket:
		effectiveType = ledger.Market
	case n.Type == ledger.StopLimit && triggerState == ledger.TriggerToLimit:
		effectiveType = ledger.Limit
	}

	// Step 10: fill condition.
	isBuy := n.Side == ledger.Buy || n.Side == ledger.BuyToCover
	if effectiveType == ledger.Limit {
		filled := (isBuy && quote2.Ask.LessThanOrEqual(*n.LimitPrice)) ||
			(!isBuy && quote2.Bid.GreaterThanOrEqual(*n.LimitPrice))
		if !filled {
			return s.park(acct, n, raw, now, triggerState, effectiveType), nil
		}
	}

	// Step 11: slippage, fill price, notional, fees.
	basePrice := quote2.Bid
	if isBuy {
		basePrice = quote2.Ask
	}
	slippageBps := s.slippageBps(n.Quantity, quote2.VolatilityProxy, acct.Random)
	fillPrice := applySlippage(basePrice, slippageBps, isBuy)
	notional := fillPrice.Mul(n.Quantity).Round(6)
	fees := s.cfg.CommissionPerTrade.Add(notional.Mul(s.cfg.FeeRateBps).Div(decimal.NewFromInt(10000))).Round(6)

	// Step 12: simulate post-trade.
	simulated := acct.Clone()
	applyTrade(simulated, n.Side, n.Symbol, n.Quantity, fillPrice, fees, notional, now, s.cfg.SettlementDaysEquities)
	simMarks, err := s.marks(ctx, simulated)
	if err != nil {
		return ledger.Order{}, err
	}
	if _, ok := simMarks[n.Symbol]; !ok {
		simMarks[n.Symbol] = quote2.Mid
	}
	simMetrics := simulated.ComputeMetrics(simMarks, s.cfg.MarginRatios())
	if simMetrics.AvailableCash.IsNegative() || simMetrics.Equity.LessThan(simMetrics.InitialRequired) {
		return s.reject(ctx, acct, raw, now, ReasonInsufficientBuyingPower), nil
	}

	// Step 13: apply the trade to the real account.
	applyTrade(acct, n.Side, n.Symbol, n.Quantity, fillPrice, fees, notional, now, s.cfg.SettlementDaysEquities)

	// Step 14: record the filled order and its fill.
	orderID := acct.Random.ID("ORD", now)
	filledAt := now
	order := ledger.Order{
		ID:            orderID,
		AccountID:     acct.ID,
		Symbol:        n.Symbol,
		Type:          n.Type,
		Side:          n.Side,
		TIF:           n.TIF,
		Quantity:      n.Quantity,
		LimitPrice:    n.LimitPrice,
		StopPrice:     n.StopPrice,
		Status:        ledger.StatusFilled,
		CreatedAt:     now,
		FilledAt:      &filledAt,
		FillPrice:     &fillPrice,
		Fees:          fees,
		TriggerState:  triggerState,
		EffectiveType: effectiveType,
	}
	acct.AppendOrder(order)
	acct.AppendFill(ledger.Fill{
		ID:        acct.Random.ID("FIL", now),
		OrderID:   orderID,
		AccountID: acct.ID,
		Symbol:    n.Symbol,
		Side:      n.Side,
		Quantity:  n.Quantity,
		Price:     fillPrice,
		Notional:  notional,
		Fees:      fees,
		Timestamp: now,
	})
	observability.LogOrderDecision(ctx, orderID, string(ledger.StatusFilled), "")

	// Step 15: refresh once more before returning.
	if err := s.refreshLocked(ctx, acct); err != nil {
		return ledger.Order{}, err
	}
	return order, nil
}

// reject builds, appends, logs, and returns a REJECTED order.
func (s *Service) reject(ctx context.Context, acct *ledger.Account, raw RawOrder, now time.Time, reason string) ledger.Order {
	n := normalize(raw)
	order := ledger.Order{
		ID:         acct.Random.ID("ORD", now),
		AccountID:  acct.ID,
		Symbol:     n.Symbol,
		Type:       n.Type,
		Side:       n.Side,
		TIF:        n.TIF,
		Quantity:   n.Quantity,
		LimitPrice: n.LimitPrice,
		StopPrice:  n.StopPrice,
		Status:     ledger.StatusRejected,
		Reason:     reason,
		CreatedAt:  now,
	}
	acct.AppendOrder(order)
	observability.LogOrderDecision(ctx, order.ID, string(ledger.StatusRejected), reason)
	return order
}

// park appends an OPEN (not-yet-filled) order and returns it.
func (s *Service) park(acct *ledger.Account, n normalizedOrder, raw RawOrder, now time.Time, triggerState ledger.TriggerState, effectiveType ledger.OrderType) ledger.Order {
	order := ledger.Order{
		ID:            acct.Random.ID("ORD", now),
		AccountID:     acct.ID,
		Symbol:        n.Symbol,
		Type:          n.Type,
		Side:          n.Side,
		TIF:           n.TIF,
		Quantity:      n.Quantity,
		LimitPrice:    n.LimitPrice,
		StopPrice:     n.StopPrice,
		Status:        ledger.StatusOpen,
		CreatedAt:     now,
		TriggerState:  triggerState,
		EffectiveType: effectiveType,
	}
	acct.AppendOrder(order)
	return order
}

// withinMarketHours reports whether now (in its own location) falls on
// a weekday between the configured open and close, inclusive.
func withinMarketHours(now time.Time, cfg Config) bool {
	if !bizcal.IsBusinessDay(now) {
		return false
	}
	minutesNow := now.Hour()*60 + now.Minute()
	openMinutes := cfg.MarketOpenHour*60 + cfg.MarketOpenMinute
	closeMinutes := cfg.MarketCloseHour*60 + cfg.MarketCloseMinute
	return minutesNow >= openMinutes && minutesNow <= closeMinutes
}

// triggerFires reports whether a STOP/STOP_LIMIT order's trigger
// condition holds at mid: buy triggers when mid >= stopPrice, sell
// triggers when mid <= stopPrice.
func triggerFires(side ledger.OrderSide, stopPrice, mid decimal.Decimal) bool {
	if side == ledger.Buy || side == ledger.BuyToCover {
		return mid.GreaterThanOrEqual(stopPrice)
	}
	return mid.LessThanOrEqual(stopPrice)
}

// sleepDelay waits delayMs milliseconds, or returns early on context
// cancellation.
func sleepDelay(ctx context.Context, delayMs int) error {
	if delayMs <= 0 {
		return nil
	}
	select {
	case <-time.After(time.Duration(delayMs) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// slippageBps computes the slippage, in basis points, for a fill of
// quantity shares against a quote whose rolling volatility proxy is
// volatilityProxy.
func (s *Service) slippageBps(quantity decimal.Decimal, volatilityProxy float64, stream *rng.Stream) decimal.Decimal {
	qty, _ := quantity.Float64()
	sizeComponent := math.Log10(1+qty) * mustFloat64(s.cfg.SizeImpactBps)
	volComponent := volatilityProxy * 10000 * 0.05
	randomComponent := stream.Float64() * mustFloat64(s.cfg.RandomSlippageBps)
	total := mustFloat64(s.cfg.BaseSlippageBps) + sizeComponent + volComponent + randomComponent
	return decimal.NewFromFloat(total)
}

func mustFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// applySlippage rounds basePrice adjusted by slippageBps, + for a buy
// (pays more) and - for a sell (receives less).
func applySlippage(basePrice, slippageBps decimal.Decimal, isBuy bool) decimal.Decimal {
	factor := slippageBps.Div(decimal.NewFromInt(10000))
	if isBuy {
		return basePrice.Mul(decimal.NewFromInt(1).Add(factor)).Round(6)
	}
	return basePrice.Mul(decimal.NewFromInt(1).Sub(factor)).Round(6)
}

// applyTrade mutates acct: signed-position update plus the matching
// cash movement and settlement entry.
func applyTrade(acct *ledger.Account, side ledger.OrderSide, symbol string, quantity, fillPrice, fees, notional decimal.Decimal, now time.Time, settlementDays int) {
	deltaQty := quantity
	if side == ledger.Sell || side == ledger.SellShort {
		deltaQty = quantity.Neg()
	}
	acct.UpsertPosition(symbol, deltaQty, fillPrice)

	settleAt := bizcal.NextBusinessDay(now, settlementDays)
	switch side {
	case ledger.Buy, ledger.BuyToCover:
		acct.ReservedCash = acct.ReservedCash.Add(notional)
		acct.AppendSettlement(ledger.PendingSettlement{Amount: notional, Direction: ledger.Debit, SettleAt: settleAt, Symbol: symbol})
	case ledger.Sell, ledger.SellShort:
		acct.UnsettledCash = acct.UnsettledCash.Add(notional)
		acct.AppendSettlement(ledger.PendingSettlement{Amount: notional, Direction: ledger.Credit, SettleAt: settleAt, Symbol: symbol})
	}
	acct.FeesDue = acct.FeesDue.Add(fees)
}
