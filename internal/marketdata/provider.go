// Package marketdata implements the two market-data provider variants the
// broker's execution engine depends on: a deterministic Replay provider
// that cycles a canned per-symbol price series, and a Live provider that
// is a disabled-by-default placeholder validating the capability
// abstraction without real venue connectivity.
package marketdata

import "context"

// Provider is the capability the execution engine depends on. GetQuote
// advances the provider's internal cursor for symbol; PeekQuote returns
// the same data without advancing it. Both return ErrUnknownSymbol for an
// unconfigured symbol.
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (Quote, error)
	PeekQuote(ctx context.Context, symbol string) (Quote, error)
}

// Mode selects which Provider variant a broker.Service is wired to.
type Mode string

const (
	ModeReplay Mode = "replay"
	ModeLive   Mode = "live"
)
