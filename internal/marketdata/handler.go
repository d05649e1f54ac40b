// Package marketdata supplies bar data to the simulation: an in-memory
// streaming handler that reveals preloaded history one bar at a time, and
// the Market context holding benchmark data for a run.
package marketdata

import (
	"fmt"
	"sort"
	"time"

	"equitySim/internal/domain"
	"equitySim/internal/ports"
)

// Compile-time interface checks.
var _ ports.DataHandler = (*BarHandler)(nil)
var _ ports.PriceOracle = (*BarHandler)(nil)

// BarHandler serves preloaded bar series as if they were streaming in: the
// driver calls Update once per tick and the handler reveals one more bar
// for every tracked ticker. All tickers share a tick clock, so all series
// must be aligned on the same timestamps.
type BarHandler struct {
	tickers []string
	bars    map[string][]domain.Bar
	cursor  int // index of the latest revealed bar, -1 before the first Update
}

// NewBarHandler validates that all series are non-empty, equally long and
// timestamp-aligned, and returns a handler positioned before the first bar.
func NewBarHandler(bars map[string][]domain.Bar) (*BarHandler, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("bar handler: at least one ticker is required")
	}

	tickers := make([]string, 0, len(bars))
	for t := range bars {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	n := len(bars[tickers[0]])
	if n == 0 {
		return nil, fmt.Errorf("bar handler: empty series for %s", tickers[0])
	}
	for _, t := range tickers[1:] {
		if len(bars[t]) != n {
			return nil, fmt.Errorf("bar handler: series length mismatch: %s has %d bars, %s has %d",
				tickers[0], n, t, len(bars[t]))
		}
		for i := range bars[t] {
			if !bars[t][i].Timestamp.Equal(bars[tickers[0]][i].Timestamp) {
				return nil, fmt.Errorf("bar handler: %s and %s are not timestamp-aligned at index %d",
					tickers[0], t, i)
			}
		}
	}

	return &BarHandler{tickers: tickers, bars: bars, cursor: -1}, nil
}

// Tickers returns the tracked tickers in a stable order.
func (h *BarHandler) Tickers() []string {
	return h.tickers
}

// Update reveals the next bar for every ticker. It returns false when the
// history is exhausted.
func (h *BarHandler) Update() bool {
	if h.cursor+1 >= len(h.bars[h.tickers[0]]) {
		return false
	}
	h.cursor++
	return true
}

// LatestBar returns the most recently revealed bar for the ticker.
func (h *BarHandler) LatestBar(ticker string) (domain.Bar, error) {
	series, ok := h.bars[ticker]
	if !ok {
		return domain.Bar{}, fmt.Errorf("latest bar: unknown ticker %q: %w", ticker, ports.ErrNoData)
	}
	if h.cursor < 0 {
		return domain.Bar{}, fmt.Errorf("latest bar for %s: no bars revealed yet: %w", ticker, ports.ErrNoData)
	}
	return series[h.cursor], nil
}

// LatestBarTimestamp returns the timestamp of the most recent bar.
func (h *BarHandler) LatestBarTimestamp(ticker string) (time.Time, error) {
	bar, err := h.LatestBar(ticker)
	if err != nil {
		return time.Time{}, err
	}
	return bar.Timestamp, nil
}

// LatestBarValue returns the named field of the most recent bar.
func (h *BarHandler) LatestBarValue(ticker, field string) (float64, error) {
	bar, err := h.LatestBar(ticker)
	if err != nil {
		return 0, err
	}
	return bar.Value(field)
}

// CurrentQuote returns the latest tradable price for the ticker: the
// adjusted close of the most recent bar.
func (h *BarHandler) CurrentQuote(ticker string) (float64, error) {
	return h.LatestBarValue(ticker, domain.FieldAdjClose)
}
