// Package strategy contains the signal-generating strategies fed to the
// backtest driver. Strategies observe bars and emit signal events; they
// never place orders themselves.
package strategy

import (
	"context"
	"time"

	"equitySim/internal/domain"
	"equitySim/internal/ports"
)

// Strategy observes the latest bar data and emits signals for the driver
// to enqueue. OnBar is called once per market tick, after the portfolio has
// processed the corresponding market event.
type Strategy interface {
	// Name identifies the strategy in logs and journals.
	Name() string

	// OnBar inspects the latest revealed bars and returns zero or more
	// signal events.
	OnBar(ctx context.Context, bars ports.DataHandler, now time.Time) ([]domain.SignalEvent, error)
}
