package marketdata

import (
	"context"
	"testing"
	"time"

	"broker-sim/internal/clock"

	"github.com/shopspring/decimal"
)

func newTestProvider(t *testing.T) *ReplayProvider {
	t.Helper()
	dataset := map[string]SeriesConfig{
		"AAPL": {Series: []float64{100, 101, 99, 102, 103, 104}},
	}
	p, err := NewReplayProvider(dataset, 10, clock.Fixed{At: time.Unix(0, 0)})
	if err != nil {
		t.Fatalf("NewReplayProvider: %v", err)
	}
	return p
}

func TestReplayProviderUnknownSymbol(t *testing.T) {
	p := newTestProvider(t)
	if _, err := p.GetQuote(context.Background(), "MSFT"); err != ErrUnknownSymbol {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
	if _, err := p.PeekQuote(context.Background(), "MSFT"); err != ErrUnknownSymbol {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestReplayProviderQuoteInvariants(t *testing.T) {
	p := newTestProvider(t)
	for i := 0; i < 10; i++ {
		q, err := p.GetQuote(context.Background(), "AAPL")
		if err != nil {
			t.Fatalf("GetQuote: %v", err)
		}
		if q.Bid.GreaterThan(q.Mid) || q.Mid.GreaterThan(q.Ask) {
			t.Fatalf("invariant violated: bid=%s mid=%s ask=%s", q.Bid, q.Mid, q.Ask)
		}
		wantSpread := q.Mid.Mul(decimal.NewFromInt(10)).Div(decimal.NewFromInt(10000)).Round(6)
		gotSpread := q.Ask.Sub(q.Bid).Round(6)
		if !wantSpread.Equal(gotSpread) {
			t.Fatalf("spread mismatch: want %s got %s", wantSpread, gotSpread)
		}
	}
}

func TestReplayProviderPeekDoesNotAdvance(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	first, err := p.PeekQuote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("PeekQuote: %v", err)
	}
	second, err := p.PeekQuote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("PeekQuote: %v", err)
	}
	if !first.Mid.Equal(second.Mid) {
		t.Fatalf("peek advanced cursor: %s != %s", first.Mid, second.Mid)
	}

	advanced, err := p.GetQuote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if !advanced.Mid.Equal(first.Mid) {
		t.Fatalf("GetQuote should still see the peeked index first: %s != %s", advanced.Mid, first.Mid)
	}

	next, err := p.PeekQuote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("PeekQuote: %v", err)
	}
	if next.Mid.Equal(first.Mid) {
		t.Fatalf("GetQuote should have advanced the cursor")
	}
}

func TestReplayProviderCursorWraps(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	var mids []string
	for i := 0; i < 12; i++ {
		q, err := p.GetQuote(ctx, "AAPL")
		if err != nil {
			t.Fatalf("GetQuote: %v", err)
		}
		mids = append(mids, q.Mid.String())
	}
	if mids[0] != mids[6] {
		t.Fatalf("expected cursor to wrap after 6 entries: %v", mids)
	}
}

func TestVolatilityProxyFloor(t *testing.T) {
	series := []float64{100}
	if v := volatilityProxy(series, 0); v != 0.001 {
		t.Fatalf("expected floor 0.001 for single point, got %v", v)
	}
	flat := []float64{100, 100, 100, 100, 100}
	if v := volatilityProxy(flat, 4); v != 0.001 {
		t.Fatalf("expected floor 0.001 for flat window, got %v", v)
	}
}
