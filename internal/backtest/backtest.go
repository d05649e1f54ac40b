// Package backtest drives a simulation run: it streams bars, pumps the
// event queue and simulates execution of triggered orders.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"equitySim/internal/domain"
	"equitySim/internal/portfolio"
	"equitySim/internal/ports"
	"equitySim/internal/strategy"
)

// BarStream is the data source a backtest consumes: a DataHandler whose
// history can be advanced one tick at a time.
type BarStream interface {
	ports.DataHandler
	ports.PriceOracle
	// Update reveals the next bar for every ticker, returning false when
	// the history is exhausted.
	Update() bool
}

// Config wires a Backtest.
type Config struct {
	Bars      BarStream
	Portfolio *portfolio.BasicPortfolio
	Strategy  strategy.Strategy
	Logger    ports.Logger
}

// Backtest owns the event loop. Events are processed strictly FIFO and one
// event is fully handled before the next is dequeued, so within a run there
// is never more than one mutation in flight.
type Backtest struct {
	bars    BarStream
	pf      *portfolio.BasicPortfolio
	strat   strategy.Strategy
	logger  ports.Logger
	queue   []domain.Event
	signals int
	fills   int
	ticks   int
}

// New creates a Backtest.
func New(cfg Config) (*Backtest, error) {
	if cfg.Bars == nil || cfg.Portfolio == nil || cfg.Strategy == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("backtest: bars, portfolio, strategy and logger are required")
	}
	return &Backtest{
		bars:   cfg.Bars,
		pf:     cfg.Portfolio,
		strat:  cfg.Strategy,
		logger: cfg.Logger,
	}, nil
}

// Result summarizes a finished run.
type Result struct {
	Started        time.Time
	Finished       time.Time
	Ticks          int
	Signals        int
	Fills          int
	InitialCapital float64
	FinalValue     float64
	TotalReturn    float64 // Fractional return over the whole run
	MaxDrawdown    float64 // Largest peak-to-trough loss, as a positive fraction
	EquityCurve    []portfolio.EquityPoint
}

// Run streams the full bar history through the event loop and returns the
// run summary. The context cancels the run between events.
func (b *Backtest) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	b.logger.Info(ctx, "Backtest starting",
		map[string]interface{}{"tickers": b.bars.Tickers(), "strategy": b.strat.Name()})

	for b.bars.Update() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest: %w", err)
		}
		b.ticks++
		b.queue = append(b.queue, domain.MarketEvent{})
		if err := b.drain(ctx); err != nil {
			return nil, err
		}
	}

	curve := b.pf.EquityCurve()
	res := &Result{
		Started:        started,
		Finished:       time.Now(),
		Ticks:          b.ticks,
		Signals:        b.signals,
		Fills:          b.fills,
		InitialCapital: b.pf.InitialCapital(),
		FinalValue:     b.pf.TotalValue(),
		EquityCurve:    curve,
	}
	if res.InitialCapital != 0 {
		res.TotalReturn = res.FinalValue/res.InitialCapital - 1
	}
	res.MaxDrawdown = maxDrawdown(curve)

	b.logger.Info(ctx, "Backtest finished",
		map[string]interface{}{"ticks": res.Ticks, "signals": res.Signals, "fills": res.Fills,
			"final_value": res.FinalValue, "total_return": res.TotalReturn})
	return res, nil
}

// drain processes the queue until it is empty. Whenever the queue runs dry
// the execution simulator is consulted; any fills it produces are enqueued
// and the loop continues until no further work appears.
func (b *Backtest) drain(ctx context.Context) error {
	attempted := make(map[string]bool)

	for len(b.queue) > 0 {
		event := b.queue[0]
		b.queue = b.queue[1:]

		switch event.EventType() {
		case domain.EventMarket:
			if err := b.pf.UpdateTimeIndex(ctx, event); err != nil {
				return fmt.Errorf("backtest: %w", err)
			}
			now := b.pf.Blotter().CurrentTime()
			sigs, err := b.strat.OnBar(ctx, b.bars, now)
			if err != nil {
				return fmt.Errorf("backtest: strategy %s: %w", b.strat.Name(), err)
			}
			for _, sig := range sigs {
				b.queue = append(b.queue, sig)
			}
			b.signals += len(sigs)

		case domain.EventSignal:
			if err := b.pf.UpdateSignal(ctx, event); err != nil {
				return fmt.Errorf("backtest: %w", err)
			}

		case domain.EventFill:
			fill := event.(domain.FillEvent)
			order, err := b.pf.Blotter().Get(fill.OrderID)
			if err != nil {
				return fmt.Errorf("backtest: %w", err)
			}
			before := order.Filled
			if err := b.pf.UpdateFill(ctx, event); err != nil {
				return fmt.Errorf("backtest: %w", err)
			}
			// A fill the portfolio declined leaves the order untouched.
			if order.Filled != before {
				b.fills++
			}

		default:
			return fmt.Errorf("backtest: %s: %w", event.EventType(), ports.ErrInvalidEventType)
		}

		if len(b.queue) == 0 {
			fills, err := b.simulateExecution(attempted)
			if err != nil {
				return err
			}
			for _, f := range fills {
				b.queue = append(b.queue, f)
			}
		}
	}

	return nil
}

// simulateExecution turns every triggered live order into a fill event at
// the current quote, offering the order's full open amount. An order is
// offered a fill at most once per tick, so a fill the portfolio declines
// (insufficient funds) rests until the next tick instead of looping.
func (b *Backtest) simulateExecution(attempted map[string]bool) ([]domain.FillEvent, error) {
	bl := b.pf.Blotter()
	now := bl.CurrentTime()

	var fills []domain.FillEvent
	for _, o := range bl.OpenOrders() {
		if attempted[o.ID] || !o.Triggered() || o.OpenAmount() == 0 {
			continue
		}
		price, err := b.bars.CurrentQuote(o.Ticker)
		if err != nil {
			return nil, fmt.Errorf("backtest: quote for %s: %w", o.Ticker, err)
		}
		attempted[o.ID] = true
		fills = append(fills, domain.FillEvent{
			OrderID:         o.ID,
			Price:           price,
			Datetime:        now,
			AvailableVolume: o.OpenAmount(),
		})
	}
	return fills, nil
}

// maxDrawdown returns the deepest peak-to-trough decline of the equity
// curve as a positive fraction, 0 for a curve that never falls.
func maxDrawdown(curve []portfolio.EquityPoint) float64 {
	var peak, worst float64
	for _, pt := range curve {
		if math.IsNaN(pt.Equity) {
			continue
		}
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak > 0 {
			if dd := 1 - pt.Equity/peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
