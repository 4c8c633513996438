package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	"broker-sim/internal/clock"
	"broker-sim/internal/money"

	"github.com/shopspring/decimal"
)

// ReplayProvider cycles a per-symbol series of mid prices. The cursor is
// guarded by a mutex so concurrent callers against the same symbol are
// serialized rather than racing the index.
type ReplayProvider struct {
	mu               sync.Mutex
	series           map[string][]float64
	spreadBps        map[string]float64
	cursor           map[string]int
	defaultSpreadBps float64
	clock            clock.Clock
}

// NewReplayProvider builds a ReplayProvider from a loaded dataset.
// defaultSpreadBps is used for any symbol whose SeriesConfig does not
// specify its own SpreadBps (BrokerConfig's BaseSpreadBps).
func NewReplayProvider(dataset map[string]SeriesConfig, defaultSpreadBps float64, c clock.Clock) (*ReplayProvider, error) {
	p := &ReplayProvider{
		series:           make(map[string][]float64, len(dataset)),
		spreadBps:        make(map[string]float64, len(dataset)),
		cursor:           make(map[string]int, len(dataset)),
		defaultSpreadBps: defaultSpreadBps,
		clock:            c,
	}
	for symbol, cfg := range dataset {
		if len(cfg.Series) == 0 {
			return nil, fmt.Errorf("marketdata: symbol %q has an empty series", symbol)
		}
		p.series[symbol] = append([]float64(nil), cfg.Series...)
		if cfg.SpreadBps != nil {
			p.spreadBps[symbol] = *cfg.SpreadBps
		} else {
			p.spreadBps[symbol] = defaultSpreadBps
		}
	}
	return p, nil
}

// LoadReplayDataset reads a replay dataset (symbol -> {series, spreadBps?})
// from a JSON file. An empty path returns an empty dataset so a broker can
// start without a dataset file.
func LoadReplayDataset(path string) (map[string]SeriesConfig, error) {
	if path == "" {
		return map[string]SeriesConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("marketdata: read dataset %q: %w", path, err)
	}
	var dataset map[string]SeriesConfig
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("marketdata: parse dataset %q: %w", path, err)
	}
	return dataset, nil
}

// GetQuote returns the quote at the current cursor position for symbol
// and advances the cursor (modulo the series length).
func (p *ReplayProvider) GetQuote(_ context.Context, symbol string) (Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	series, ok := p.series[symbol]
	if !ok {
		return Quote{}, ErrUnknownSymbol
	}
	idx := p.cursor[symbol]
	q := p.quoteAtLocked(symbol, series, idx)
	p.cursor[symbol] = (idx + 1) % len(series)
	return q, nil
}

// PeekQuote returns the quote at the current cursor position without
// advancing it.
func (p *ReplayProvider) PeekQuote(_ context.Context, symbol string) (Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	series, ok := p.series[symbol]
	if !ok {
		return Quote{}, ErrUnknownSymbol
	}
	idx := p.cursor[symbol]
	return p.quoteAtLocked(symbol, series, idx), nil
}

// quoteAtLocked computes the quote for series at idx. Caller must hold p.mu.
func (p *ReplayProvider) quoteAtLocked(symbol string, series []float64, idx int) Quote {
	mid := money.Round6(decimal.NewFromFloat(series[idx]))
	spreadBps := p.spreadBps[symbol]

	half := mid.Mul(decimal.NewFromFloat(spreadBps)).Div(decimal.NewFromInt(20000))
	bid := money.Round6(mid.Sub(half))
	ask := money.Round6(mid.Add(half))

	return Quote{
		Symbol:          symbol,
		Bid:             bid,
		Ask:             ask,
		Mid:             mid,
		SpreadBps:       spreadBps,
		VolatilityProxy: volatilityProxy(series, idx),
		Timestamp:       p.clock.Now(),
	}
}

// volatilityProxy is the coefficient of variation (stddev/mean) of the
// up-to-5 series values ending at idx, floored at 0.001. Fewer than 2
// points in the window also yields 0.001.
func volatilityProxy(series []float64, idx int) float64 {
	start := idx - 4
	if start < 0 {
		start = 0
	}
	window := series[start : idx+1]
	if len(window) < 2 {
		return 0.001
	}

	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))
	if mean == 0 {
		return 0.001
	}

	var variance float64
	for _, v := range window {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(window))
	stddev := math.Sqrt(variance)

	proxy := stddev / mean
	if proxy < 0.001 {
		return 0.001
	}
	return proxy
}

var _ Provider = (*ReplayProvider)(nil)
