package strategy

import (
	"context"
	"fmt"
	"time"

	"equitySim/internal/domain"
	"equitySim/internal/ports"
)

// SMACrossover emits a LONG signal when a ticker's short moving average
// crosses above its long moving average and an EXIT signal when it crosses
// back below. State is kept per ticker as bars stream in.
type SMACrossover struct {
	shortPeriod int
	longPeriod  int

	closes    map[string][]float64
	wasAbove  map[string]bool
	havePrior map[string]bool
}

// NewSMACrossover creates a crossover strategy with the given periods.
func NewSMACrossover(shortPeriod, longPeriod int) (*SMACrossover, error) {
	if shortPeriod <= 0 || longPeriod <= 0 {
		return nil, fmt.Errorf("sma crossover: periods must be positive")
	}
	if shortPeriod >= longPeriod {
		return nil, fmt.Errorf("sma crossover: short period %d must be less than long period %d", shortPeriod, longPeriod)
	}
	return &SMACrossover{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		closes:      make(map[string][]float64),
		wasAbove:    make(map[string]bool),
		havePrior:   make(map[string]bool),
	}, nil
}

// Name returns "sma_crossover".
func (s *SMACrossover) Name() string { return "sma_crossover" }

// OnBar accumulates the latest adjusted close per ticker and emits signals
// on crossings once enough history has streamed in.
func (s *SMACrossover) OnBar(_ context.Context, bars ports.DataHandler, now time.Time) ([]domain.SignalEvent, error) {
	var signals []domain.SignalEvent

	for _, ticker := range bars.Tickers() {
		price, err := bars.LatestBarValue(ticker, domain.FieldAdjClose)
		if err != nil {
			return nil, fmt.Errorf("sma crossover: %w", err)
		}

		window := append(s.closes[ticker], price)
		if len(window) > s.longPeriod {
			window = window[len(window)-s.longPeriod:]
		}
		s.closes[ticker] = window

		if len(window) < s.longPeriod {
			continue
		}

		above := mean(window[len(window)-s.shortPeriod:]) > mean(window)
		if s.havePrior[ticker] && above != s.wasAbove[ticker] {
			sig := domain.SignalExit
			if above {
				sig = domain.SignalLong
			}
			signals = append(signals, domain.SignalEvent{
				Ticker:   ticker,
				Datetime: now,
				Signal:   sig,
			})
		}
		s.wasAbove[ticker] = above
		s.havePrior[ticker] = true
	}

	return signals, nil
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
