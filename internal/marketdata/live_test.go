package marketdata

import (
	"context"
	"testing"
)

func TestLiveProviderDisabledByDefault(t *testing.T) {
	p := NewLiveProvider(LiveConfig{Enabled: false})
	if _, err := p.GetQuote(context.Background(), "AAPL"); err != ErrLiveDisabled {
		t.Fatalf("expected ErrLiveDisabled, got %v", err)
	}
}

func TestLiveProviderEnabledAlwaysErrors(t *testing.T) {
	p := NewLiveProvider(LiveConfig{Enabled: true})
	if _, err := p.GetQuote(context.Background(), "AAPL"); err == nil {
		t.Fatalf("expected an error from the live placeholder")
	}
	if _, err := p.PeekQuote(context.Background(), "AAPL"); err == nil {
		t.Fatalf("expected an error from the live placeholder")
	}
}
