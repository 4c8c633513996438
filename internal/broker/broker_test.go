package broker

import (
	"context"
	"math"
	"testing"
	"time"

	"broker-sim/internal/clock"
	"broker-sim/internal/ledger"
	"broker-sim/internal/marketdata"

	"github.com/shopspring/decimal"
)

func newTestService(t *testing.T, series map[string][]float64) (*Service, *clock.Manual) {
	t.Helper()
	dataset := make(map[string]marketdata.SeriesConfig, len(series))
	for symbol, pts := range series {
		dataset[symbol] = marketdata.SeriesConfig{Series: pts}
	}
	mc := clock.NewManual(time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)) // a Monday
	provider, err := marketdata.NewReplayProvider(dataset, 5, mc)
	if err != nil {
		t.Fatalf("NewReplayProvider: %v", err)
	}
	cfg := DefaultConfig()
	cfg.ExecutionDelayMs = 0
	cfg.BaseSlippageBps = decimal.Zero
	cfg.SizeImpactBps = decimal.Zero
	cfg.RandomSlippageBps = decimal.Zero
	cfg.CommissionPerTrade = decimal.Zero
	cfg.FeeRateBps = decimal.Zero
	return NewService(cfg, provider, mc), mc
}

func floatPtr(f float64) *float64 { return &f }

func TestPlaceOrderMarketBuyFills(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100, 100, 100, 100}})
	acct, err := svc.CreateAccount(ctx, decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	order, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Symbol: "aapl", Type: "market", Side: "buy", Quantity: 5})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Status != ledger.StatusFilled {
		t.Fatalf("expected FILLED, got %s (reason=%s)", order.Status, order.Reason)
	}

	fills, err := svc.GetFills(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetFills: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(fills))
	}

	summary, err := svc.GetAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !summary.Balances.Reserved.IsPositive() {
		t.Fatalf("expected reservedCash > 0, got %s", summary.Balances.Reserved)
	}
	if !summary.Balances.Available.LessThan(decimal.NewFromInt(100000)) {
		t.Fatalf("expected availableCash < 100000, got %s", summary.Balances.Available)
	}
}

func TestPlaceOrderSettlementDrain(t *testing.T) {
	ctx := context.Background()
	svc, mc := newTestService(t, map[string][]float64{"AAPL": {100, 100, 100, 100}})
	acct, _ := svc.CreateAccount(ctx, decimal.NewFromInt(100000))

	order, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Symbol: "AAPL", Type: "MARKET", Side: "BUY", Quantity: 5})
	if err != nil || order.Status != ledger.StatusFilled {
		t.Fatalf("expected FILLED order, got %+v err=%v", order, err)
	}

	before, err := svc.GetAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}

	acct.Mu.Lock()
	for i := range acct.Pending {
		acct.Pending[i].SettleAt = mc.Now().AddDate(0, 0, -1)
	}
	acct.Mu.Unlock()

	after, err := svc.GetAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !after.Balances.Reserved.IsZero() {
		t.Fatalf("expected reservedCash 0 after settlement drain, got %s", after.Balances.Reserved)
	}
	if !after.Balances.Settled.LessThan(before.Balances.Settled) {
		t.Fatalf("expected settledCash to decrease after settlement, before=%s after=%s", before.Balances.Settled, after.Balances.Settled)
	}
}

func TestPlaceOrderInvalidQuantityRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100}})
	acct, _ := svc.CreateAccount(ctx, decimal.NewFromInt(100000))

	order, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Symbol: "AAPL", Type: "MARKET", Side: "BUY", Quantity: 0})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Status != ledger.StatusRejected || order.Reason != ReasonInvalidQuantity {
		t.Fatalf("expected REJECTED/invalid quantity, got %s/%s", order.Status, order.Reason)
	}
}

func TestPlaceOrderMarketGTCRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100}})
	acct, _ := svc.CreateAccount(ctx, decimal.NewFromInt(100000))

	order, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Symbol: "AAPL", Type: "MARKET", Side: "BUY", TIF: "GTC", Quantity: 1})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Status != ledger.StatusRejected || order.Reason != ReasonUnsupportedTypeTIF {
		t.Fatalf("expected REJECTED/unsupported type-tif, got %s/%s", order.Status, order.Reason)
	}
}

func TestPlaceOrderLimitBuyStaysOpen(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100, 100, 100, 100}})
	acct, _ := svc.CreateAccount(ctx, decimal.NewFromInt(100000))

	order, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{
		Symbol: "AAPL", Type: "LIMIT", Side: "BUY", Quantity: 1, LimitPrice: floatPtr(90),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Status != ledger.StatusOpen {
		t.Fatalf("expected OPEN, got %s/%s", order.Status, order.Reason)
	}
}

func TestPlaceOrderStopBuyStaysOpenThenFills(t *testing.T) {
	ctx := context.Background()
	// First call's trigger check sees 100 (stop at 110 does not trigger);
	// second call's trigger check sees 120 (triggers, then fills at market).
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100, 120, 120, 120, 120, 120}})
	acct, _ := svc.CreateAccount(ctx, decimal.NewFromInt(100000))

	first, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{
		Symbol: "AAPL", Type: "STOP", Side: "BUY", Quantity: 1, StopPrice: floatPtr(110),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if first.Status != ledger.StatusOpen {
		t.Fatalf("expected first STOP order to stay OPEN, got %s/%s", first.Status, first.Reason)
	}

	second, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{
		Symbol: "AAPL", Type: "STOP", Side: "BUY", Quantity: 1, StopPrice: floatPtr(110),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if second.Status != ledger.StatusFilled {
		t.Fatalf("expected second STOP order to fill once mid passes the stop, got %s/%s", second.Status, second.Reason)
	}
}

func TestPlaceOrderUnknownSymbolRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100}})
	acct, _ := svc.CreateAccount(ctx, decimal.NewFromInt(100000))

	order, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Symbol: "MSFT", Type: "MARKET", Side: "BUY", Quantity: 1})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Status != ledger.StatusRejected || order.Reason != ReasonUnknownSymbol {
		t.Fatalf("expected REJECTED/unknown symbol, got %s/%s", order.Status, order.Reason)
	}
}

func TestPlaceOrderUnknownAccountErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100}})
	_, err := svc.PlaceOrder(ctx, "ACC-does-not-exist", RawOrder{Symbol: "AAPL", Type: "MARKET", Side: "BUY", Quantity: 1})
	if err == nil {
		t.Fatalf("expected an error for an unknown account")
	}
}

func TestRoundTripBuyThenSellClearsPosition(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100, 100, 100, 100, 100, 100, 100, 100}})
	acct, _ := svc.CreateAccount(ctx, decimal.NewFromInt(100000))

	if _, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Symbol: "AAPL", Type: "MARKET", Side: "BUY", Quantity: 5}); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Symbol: "AAPL", Type: "MARKET", Side: "SELL", Quantity: 5}); err != nil {
		t.Fatalf("sell: %v", err)
	}

	positions, err := svc.GetPositions(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetPositions: %v", err)
	}
	if len(positions) != 0 {
		t.Fatalf("expected position to be cleared, got %+v", positions)
	}
}

func TestRoundTripShortThenCoverClearsPosition(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100, 100, 100, 100, 100, 100, 100, 100}})
	acct, _ := svc.CreateAccount(ctx, decimal.NewFromInt(100000))

	short, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Symbol: "AAPL", Type: "MARKET", Side: "SELL_SHORT", Quantity: 5})
	if err != nil {
		t.Fatalf("sell_short: %v", err)
	}
	if short.Status != ledger.StatusFilled {
		t.Fatalf("expected SELL_SHORT to fill, got %s/%s", short.Status, short.Reason)
	}

	positions, err := svc.GetPositions(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetPositions: %v", err)
	}
	if len(positions) != 1 || !positions[0].Quantity.Equal(decimal.NewFromInt(-5)) {
		t.Fatalf("expected a -5 short position, got %+v", positions)
	}

	cover, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Symbol: "AAPL", Type: "MARKET", Side: "BUY_TO_COVER", Quantity: 5})
	if err != nil {
		t.Fatalf("buy_to_cover: %v", err)
	}
	if cover.Status != ledger.StatusFilled {
		t.Fatalf("expected BUY_TO_COVER to fill, got %s/%s", cover.Status, cover.Reason)
	}

	positions, err = svc.GetPositions(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetPositions: %v", err)
	}
	if len(positions) != 0 {
		t.Fatalf("expected position to be cleared after covering, got %+v", positions)
	}
}

func TestPlaceOrderInsufficientBuyingPowerRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100, 100}})
	acct, _ := svc.CreateAccount(ctx, decimal.NewFromInt(500))

	// Notional (10 * 100 = 1000) exceeds the account's entire 500 of
	// capital, so the post-trade simulation's available cash goes
	// negative even though the pre-trade maintenance guard (no existing
	// positions) trivially passes.
	order, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Symbol: "AAPL", Type: "MARKET", Side: "BUY", Quantity: 10})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Status != ledger.StatusRejected || order.Reason != ReasonInsufficientBuyingPower {
		t.Fatalf("expected REJECTED/insufficient buying power, got %s/%s", order.Status, order.Reason)
	}
}

func TestPlaceOrderUnsupportedTypeTakesPriorityOverQuantity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100}})
	acct, _ := svc.CreateAccount(ctx, decimal.NewFromInt(100000))

	// An unsupported type paired with a non-finite quantity must be
	// rejected for the type, not the quantity: type/side/tif are
	// evaluated before quantity/price in the fixed check order.
	order, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{
		Symbol: "AAPL", Type: "BOGUS", Side: "BUY", Quantity: math.Inf(1),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Status != ledger.StatusRejected || order.Reason != ReasonUnsupportedType {
		t.Fatalf("expected REJECTED/unsupported order type, got %s/%s", order.Status, order.Reason)
	}
}

func TestPlaceOrderMissingSymbolRejectedAsMalformed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100}})
	acct, _ := svc.CreateAccount(ctx, decimal.NewFromInt(100000))

	order, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Type: "MARKET", Side: "BUY", Quantity: 1})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Status != ledger.StatusRejected || order.Reason != ReasonMalformedRequest {
		t.Fatalf("expected REJECTED/malformed request, got %s/%s", order.Status, order.Reason)
	}
}

func TestForcedLiquidationCoversShortWhenMaintenanceBreached(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, map[string][]float64{"AAPL": {100, 100, 100, 100, 100, 100}})
	acct, err := svc.CreateAccount(ctx, decimal.NewFromInt(10000))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	// Inject a short position directly, sized so shortValue (100*100 =
	// 10000) alone wipes out all of the account's equity at the current
	// mid: equity = settledCash + marketValue = 10000 - 10000 = 0, well
	// below maintenanceRequired (0.3 * 10000 = 3000). This isolates the
	// maintenance breach from the order-fill path that produced it.
	acct.Mu.Lock()
	acct.Positions["AAPL"] = &ledger.Position{Symbol: "AAPL", Quantity: decimal.NewFromInt(-100), AvgPrice: decimal.NewFromInt(100)}
	acct.Mu.Unlock()

	// The next read triggers refresh, which runs forced liquidation
	// against the underwater short. Buying back the full 100 shares at
	// the ask (strictly above the 100 mid used to size the position)
	// costs more than the account's entire settled cash, so the
	// liquidating order itself gets rejected for insufficient buying
	// power and maintenance.go records a synthetic forced-liquidation
	// failure after it.
	summary, err := svc.GetAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if summary.Equity.GreaterThanOrEqual(summary.Margin.Maintenance) {
		t.Fatalf("expected the injected short to breach maintenance, equity=%s maintenanceRequired=%s",
			summary.Equity, summary.Margin.Maintenance)
	}

	orders, err := svc.GetOrders(ctx, acct.ID, nil)
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	var sawLiquidationAttempt bool
	for _, o := range orders {
		if o.Side == ledger.BuyToCover && o.TIF == ledger.IOC && o.Status == ledger.StatusRejected {
			sawLiquidationAttempt = true
			break
		}
	}
	if !sawLiquidationAttempt {
		t.Fatalf("expected a forced BUY_TO_COVER/IOC liquidation attempt in order history, got %+v", orders)
	}
}

func TestShortBorrowFeeAccruesAfterWholeDayElapsed(t *testing.T) {
	ctx := context.Background()
	svc, mc := newTestService(t, map[string][]float64{"AAPL": {100, 100, 100, 100, 100, 100}})
	acct, err := svc.CreateAccount(ctx, decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	if _, err := svc.PlaceOrder(ctx, acct.ID, RawOrder{Symbol: "AAPL", Type: "MARKET", Side: "SELL_SHORT", Quantity: 10}); err != nil {
		t.Fatalf("sell_short: %v", err)
	}

	before, err := svc.GetAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}

	mc.Advance(24 * time.Hour)

	after, err := svc.GetAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !after.FeesDue.GreaterThan(before.FeesDue) {
		t.Fatalf("expected feesDue to grow after a whole day elapsed on a short position, before=%s after=%s",
			before.FeesDue, after.FeesDue)
	}
}
