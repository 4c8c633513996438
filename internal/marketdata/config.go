package marketdata

import (
	"fmt"
	"os"
	"strings"

	"broker-sim/internal/clock"
)

// NewProviderFromEnv selects and constructs a Provider from environment
// variables: MARKET_DATA_MODE selects replay vs. live, and
// ENABLE_LIVE_MARKET_DATA must be "true" for the live placeholder to do
// anything but refuse.
func NewProviderFromEnv(datasetPath string, defaultSpreadBps float64, c clock.Clock) (Provider, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(os.Getenv("MARKET_DATA_MODE"))))
	if mode == "" {
		mode = ModeReplay
	}

	switch mode {
	case ModeReplay:
		dataset, err := LoadReplayDataset(datasetPath)
		if err != nil {
			return nil, err
		}
		return NewReplayProvider(dataset, defaultSpreadBps, c)
	case ModeLive:
		enabled := strings.EqualFold(strings.TrimSpace(os.Getenv("ENABLE_LIVE_MARKET_DATA")), "true")
		return NewLiveProvider(LiveConfig{Enabled: enabled}), nil
	default:
		return nil, fmt.Errorf("marketdata: unsupported MARKET_DATA_MODE %q", mode)
	}
}
