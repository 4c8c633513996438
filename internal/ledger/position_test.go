package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	dec, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return dec
}

func TestApplySignedPositionOpenAndAdd(t *testing.T) {
	pos := Position{Symbol: "AAPL"}
	pos = ApplySignedPosition(pos, d("10"), d("100"))
	if !pos.Quantity.Equal(d("10")) || !pos.AvgPrice.Equal(d("100")) {
		t.Fatalf("unexpected position after open: %+v", pos)
	}

	pos = ApplySignedPosition(pos, d("10"), d("200"))
	if !pos.Quantity.Equal(d("20")) {
		t.Fatalf("expected quantity 20, got %s", pos.Quantity)
	}
	if !pos.AvgPrice.Equal(d("150")) {
		t.Fatalf("expected weighted avg 150, got %s", pos.AvgPrice)
	}
}

func TestApplySignedPositionExactFlatten(t *testing.T) {
	pos := Position{Symbol: "AAPL", Quantity: d("10"), AvgPrice: d("100")}
	pos = ApplySignedPosition(pos, d("-10"), d("120"))
	if !pos.Quantity.IsZero() {
		t.Fatalf("expected zero quantity, got %s", pos.Quantity)
	}
}

func TestApplySignedPositionPartialReduce(t *testing.T) {
	pos := Position{Symbol: "AAPL", Quantity: d("10"), AvgPrice: d("100")}
	pos = ApplySignedPosition(pos, d("-4"), d("150"))
	if !pos.Quantity.Equal(d("6")) {
		t.Fatalf("expected quantity 6, got %s", pos.Quantity)
	}
	if !pos.AvgPrice.Equal(d("100")) {
		t.Fatalf("reducing trade must not change avg price, got %s", pos.AvgPrice)
	}
}

func TestApplySignedPositionSignFlip(t *testing.T) {
	pos := Position{Symbol: "AAPL", Quantity: d("10"), AvgPrice: d("100")}
	pos = ApplySignedPosition(pos, d("-15"), d("90"))
	if !pos.Quantity.Equal(d("-5")) {
		t.Fatalf("expected quantity -5, got %s", pos.Quantity)
	}
	if !pos.AvgPrice.Equal(d("90")) {
		t.Fatalf("sign-flip residual must re-base avg price to fill price, got %s", pos.AvgPrice)
	}
}

func TestApplySignedPositionShortAdd(t *testing.T) {
	pos := Position{Symbol: "AAPL", Quantity: d("-10"), AvgPrice: d("50")}
	pos = ApplySignedPosition(pos, d("-10"), d("60"))
	if !pos.Quantity.Equal(d("-20")) {
		t.Fatalf("expected quantity -20, got %s", pos.Quantity)
	}
	if !pos.AvgPrice.Equal(d("55")) {
		t.Fatalf("expected weighted avg 55, got %s", pos.AvgPrice)
	}
}
