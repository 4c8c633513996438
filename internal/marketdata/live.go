package marketdata

import (
	"context"

	"broker-sim/internal/resilience"
)

// LiveConfig controls the Live placeholder provider.
type LiveConfig struct {
	// Enabled mirrors ENABLE_LIVE_MARKET_DATA. When false, every call
	// fails fast with ErrLiveDisabled and the circuit breaker is never
	// touched.
	Enabled bool
}

// LiveProvider is a placeholder that validates the Provider capability
// abstraction without real venue connectivity: every call past the
// enabled check fails, and repeated failures trip a circuit breaker so a
// caller that ignores the reject reason still backs off quickly instead
// of hammering a "down" backend.
type LiveProvider struct {
	cfg LiveConfig
	cb  *resilience.CircuitBreaker
}

// NewLiveProvider creates a LiveProvider from cfg.
func NewLiveProvider(cfg LiveConfig) *LiveProvider {
	return &LiveProvider{
		cfg: cfg,
		cb:  resilience.New(resilience.DefaultConfig("live-market-data")),
	}
}

func (p *LiveProvider) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	return p.call(ctx)
}

func (p *LiveProvider) PeekQuote(ctx context.Context, symbol string) (Quote, error) {
	return p.call(ctx)
}

func (p *LiveProvider) call(ctx context.Context) (Quote, error) {
	if !p.cfg.Enabled {
		return Quote{}, ErrLiveDisabled
	}
	_, err := p.cb.Execute(ctx, func() (any, error) {
		return nil, ErrLiveUnavailable
	})
	return Quote{}, err
}

var _ Provider = (*LiveProvider)(nil)
