package marketdata

import "errors"

var (
	// ErrUnknownSymbol is returned by the Replay provider when a symbol
	// has no configured series. The Live placeholder never returns it.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrLiveDisabled is returned by the Live provider when
	// ENABLE_LIVE_MARKET_DATA has not been set.
	ErrLiveDisabled = errors.New("live market data disabled")

	// ErrLiveUnavailable is returned by every Live provider call that
	// makes it past the enabled check — the Live provider is a
	// placeholder with no real venue connectivity.
	ErrLiveUnavailable = errors.New("live market data provider unavailable")
)
