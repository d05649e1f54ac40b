// Package handlers contains signal handlers: the policies that turn
// strategy signals into resting orders on the blotter.
package handlers

import (
	"context"
	"fmt"
	"math"

	"equitySim/internal/domain"
	"equitySim/internal/portfolio"
	"equitySim/internal/ports"
)

// NaiveHandler is the simplest possible signal policy: a LONG signal buys a
// fixed quantity at market, a SHORT signal sells the same quantity at
// market, and an EXIT signal flattens whatever position exists. Signals for
// an already-held direction are ignored rather than pyramided.
type NaiveHandler struct {
	logger     ports.Logger
	qty        float64
	commission float64
}

var _ portfolio.SignalHandler = (*NaiveHandler)(nil)

// NewNaive creates a NaiveHandler placing orders of the given quantity.
func NewNaive(qty, commission float64, logger ports.Logger) (*NaiveHandler, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("naive handler: quantity must be positive")
	}
	if logger == nil {
		return nil, fmt.Errorf("naive handler: logger is required")
	}
	return &NaiveHandler{logger: logger, qty: qty, commission: commission}, nil
}

// HandleSignal places market orders according to the signal type.
func (h *NaiveHandler) HandleSignal(ctx context.Context, p *portfolio.BasicPortfolio, sig domain.SignalEvent, _ []*domain.Order) error {
	pos, owned := p.Position(sig.Ticker)

	switch sig.Signal {
	case domain.SignalLong:
		if owned && pos.Direction() == domain.Long {
			h.logger.Debug(ctx, "Ignoring long signal, already long",
				map[string]interface{}{"ticker": sig.Ticker})
			return nil
		}
		return h.place(ctx, p, sig, string(domain.Buy), h.qty)

	case domain.SignalShort:
		if owned && pos.Direction() == domain.Short {
			h.logger.Debug(ctx, "Ignoring short signal, already short",
				map[string]interface{}{"ticker": sig.Ticker})
			return nil
		}
		return h.place(ctx, p, sig, string(domain.Sell), h.qty)

	case domain.SignalExit:
		if !owned {
			h.logger.Debug(ctx, "Ignoring exit signal, no position",
				map[string]interface{}{"ticker": sig.Ticker})
			return nil
		}
		// Opposing action sized to the full position.
		action := string(domain.Sell)
		if pos.Direction() == domain.Short {
			action = string(domain.Buy)
		}
		return h.place(ctx, p, sig, action, math.Abs(pos.Shares))

	default:
		return fmt.Errorf("handle signal: unknown signal type %q", sig.Signal)
	}
}

func (h *NaiveHandler) place(ctx context.Context, p *portfolio.BasicPortfolio, sig domain.SignalEvent, action string, qty float64) error {
	order, err := domain.NewOrder(domain.OrderParams{
		Ticker:     sig.Ticker,
		Action:     action,
		OrderType:  string(domain.Market),
		Qty:        qty,
		Commission: h.commission,
		Created:    sig.Datetime,
	})
	if err != nil {
		return fmt.Errorf("handle signal: %w", err)
	}
	if _, err := p.Blotter().PlaceOrder(order); err != nil {
		return fmt.Errorf("handle signal: %w", err)
	}
	h.logger.Info(ctx, "Order placed from signal",
		map[string]interface{}{"ticker": sig.Ticker, "signal": sig.Signal, "action": action, "qty": qty})
	return nil
}
