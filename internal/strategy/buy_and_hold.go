package strategy

import (
	"context"
	"time"

	"equitySim/internal/domain"
	"equitySim/internal/ports"
)

// BuyAndHold emits a single LONG signal per ticker on the first bar and
// then stays quiet. Mostly useful as a baseline and in tests.
type BuyAndHold struct {
	signalled map[string]bool
}

// NewBuyAndHold creates a BuyAndHold strategy.
func NewBuyAndHold() *BuyAndHold {
	return &BuyAndHold{signalled: make(map[string]bool)}
}

// Name returns "buy_and_hold".
func (s *BuyAndHold) Name() string { return "buy_and_hold" }

// OnBar emits a LONG signal for every ticker that has not been signalled yet.
func (s *BuyAndHold) OnBar(_ context.Context, bars ports.DataHandler, now time.Time) ([]domain.SignalEvent, error) {
	var signals []domain.SignalEvent
	for _, ticker := range bars.Tickers() {
		if s.signalled[ticker] {
			continue
		}
		s.signalled[ticker] = true
		signals = append(signals, domain.SignalEvent{
			Ticker:   ticker,
			Datetime: now,
			Signal:   domain.SignalLong,
		})
	}
	return signals, nil
}
