package marketdata

import (
	"fmt"
	"time"

	"equitySim/internal/domain"
	"equitySim/internal/ports"
)

// Market holds the benchmark data for one simulation run. It is constructed
// explicitly once per run and passed to whoever needs benchmark prices;
// there is no process-wide shared instance.
type Market struct {
	Ticker    string
	StartDate time.Time
	EndDate   time.Time
	bars      []domain.Bar
}

// NewMarket builds the run's market context from the benchmark's bar
// history. Bars must be in ascending time order.
func NewMarket(ticker string, bars []domain.Bar) (*Market, error) {
	if ticker == "" {
		return nil, fmt.Errorf("market: benchmark ticker is required")
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("market: no bars for benchmark %s: %w", ticker, ports.ErrNoData)
	}
	return &Market{
		Ticker:    ticker,
		StartDate: bars[0].Timestamp,
		EndDate:   bars[len(bars)-1].Timestamp,
		bars:      bars,
	}, nil
}

// Bars returns the benchmark's bar history.
func (m *Market) Bars() []domain.Bar {
	return m.bars
}

// Returns computes the benchmark's per-bar fractional returns from adjusted
// closes. The slice is one shorter than the bar history.
func (m *Market) Returns() []float64 {
	if len(m.bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(m.bars)-1)
	for i := 1; i < len(m.bars); i++ {
		prev := m.bars[i-1].AdjClose
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, m.bars[i].AdjClose/prev-1)
	}
	return out
}
