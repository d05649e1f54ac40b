// Package portfolio implements the account state machine: cash, owned
// positions and holdings history, mutated by consuming market, signal and
// fill events.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"equitySim/internal/blotter"
	"equitySim/internal/domain"
	"equitySim/internal/ports"
)

// Snapshot store collection names.
const (
	// PositionCollection stores the full cumulative positions table.
	PositionCollection = "portfolio"
	// TickCollection stores the latest tick's rows only.
	TickCollection = "portfolio_tick"
)

// DefaultInitialCapital is used when the config does not set one.
const DefaultInitialCapital = 100_000.00

// Portfolio is the capability contract every portfolio variant implements.
// Dispatch is by interface call; there is no inheritance-style base.
type Portfolio interface {
	// UpdateTimeIndex marks positions to market and snapshots holdings on a
	// MarketEvent.
	UpdateTimeIndex(ctx context.Context, event domain.Event) error
	// UpdateSignal reacts to a SignalEvent by dispatching to the registered
	// signal handlers.
	UpdateSignal(ctx context.Context, event domain.Event) error
	// UpdateFill executes a trade and updates cash/positions on a FillEvent.
	UpdateFill(ctx context.Context, event domain.Event) error
}

// SignalHandler turns signals into orders. Handlers are the sole mechanism
// for creating new orders; the portfolio itself never invents them.
type SignalHandler interface {
	HandleSignal(ctx context.Context, p *BasicPortfolio, sig domain.SignalEvent, triggered []*domain.Order) error
}

// Config wires a BasicPortfolio.
type Config struct {
	DataHandler     ports.DataHandler
	Blotter         *blotter.Blotter
	Store           ports.SnapshotStore // optional; nil disables persistence
	Logger          ports.Logger
	StartDate       time.Time
	InitialCapital  float64 // defaults to DefaultInitialCapital
	RaiseOnWarnings bool    // escalate liquidity warnings to hard errors
}

// BasicPortfolio is the single-strategy concrete portfolio. Not safe for
// concurrent use: one event is fully processed before the next is dequeued
// and the portfolio/blotter pair has exactly one writer.
type BasicPortfolio struct {
	bars    ports.DataHandler
	blotter *blotter.Blotter
	store   ports.SnapshotStore
	logger  ports.Logger

	startDate       time.Time
	initialCapital  float64
	cash            float64
	tickers         []string
	owned           map[string]*domain.Position
	totalCommission float64
	raiseOnWarnings bool
	handlers        []SignalHandler

	// Append-only history. Records are never mutated once appended.
	allHoldings  []domain.HoldingsSnapshot
	allPositions []domain.PositionsSnapshot
	positionRows []domain.PositionRow // cumulative long-format table
}

var _ Portfolio = (*BasicPortfolio)(nil)

// NewBasic creates a BasicPortfolio with its initial holdings snapshot
// taken at the start date.
func NewBasic(cfg Config) (*BasicPortfolio, error) {
	if cfg.DataHandler == nil || cfg.Blotter == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("portfolio: data handler, blotter and logger are required")
	}
	if cfg.StartDate.IsZero() {
		return nil, fmt.Errorf("portfolio: start date is required")
	}
	capital := cfg.InitialCapital
	if capital == 0 {
		capital = DefaultInitialCapital
	}
	if capital < 0 {
		return nil, fmt.Errorf("portfolio: initial capital must be positive")
	}

	p := &BasicPortfolio{
		bars:            cfg.DataHandler,
		blotter:         cfg.Blotter,
		store:           cfg.Store,
		logger:          cfg.Logger,
		startDate:       cfg.StartDate,
		initialCapital:  capital,
		cash:            capital,
		tickers:         cfg.DataHandler.Tickers(),
		owned:           make(map[string]*domain.Position),
		raiseOnWarnings: cfg.RaiseOnWarnings,
	}

	mvs := make(map[string]float64, len(p.tickers))
	shares := make(map[string]float64, len(p.tickers))
	for _, t := range p.tickers {
		mvs[t] = 0
		shares[t] = 0
	}
	p.allHoldings = append(p.allHoldings, domain.HoldingsSnapshot{
		Timestamp:    p.startDate,
		MarketValues: mvs,
		Cash:         capital,
		Commission:   0,
		Total:        capital,
	})
	p.allPositions = append(p.allPositions, domain.PositionsSnapshot{
		Timestamp: p.startDate,
		Shares:    shares,
	})

	return p, nil
}

// RegisterSignalHandler appends a handler. Handlers are dispatched in
// registration order.
func (p *BasicPortfolio) RegisterSignalHandler(h SignalHandler) {
	p.handlers = append(p.handlers, h)
}

// UpdateTimeIndex processes a MarketEvent: advances the blotter clock to
// the latest bar timestamp, evaluates order triggers, marks every tracked
// instrument to market and appends a holdings snapshot. The snapshot store
// receives the cumulative positions table and the tick-only rows.
func (p *BasicPortfolio) UpdateTimeIndex(ctx context.Context, event domain.Event) error {
	if event.EventType() != domain.EventMarket {
		return fmt.Errorf("update time index: expected %s, got %s: %w",
			domain.EventMarket, event.EventType(), ports.ErrInvalidEventType)
	}

	// All instruments share a tick clock, so any tracked ticker works.
	latestDT, err := p.bars.LatestBarTimestamp(p.tickers[0])
	if err != nil {
		return fmt.Errorf("update time index: %w", err)
	}

	p.blotter.SetCurrentTime(latestDT)
	if _, err := p.blotter.CheckOrderTriggers(); err != nil {
		return fmt.Errorf("update time index: %w", err)
	}

	mvs := make(map[string]float64, len(p.tickers))
	shares := make(map[string]float64, len(p.tickers))
	total := p.cash
	tickRows := make([]domain.PositionRow, 0, len(p.tickers))

	for _, ticker := range p.tickers {
		var marketValue, owned float64

		if pos, ok := p.owned[ticker]; ok {
			adjClose, err := p.bars.LatestBarValue(ticker, domain.FieldAdjClose)
			if err != nil {
				return fmt.Errorf("update time index: %s: %w", ticker, err)
			}
			marketValue = pos.MarkToMarket(adjClose, latestDT)
			owned = pos.Shares
		} else {
			p.logger.Debug(ctx, "Ticker not currently owned, market value set to 0",
				map[string]interface{}{"ticker": ticker})
		}

		mvs[ticker] = marketValue
		shares[ticker] = owned
		total += marketValue
	}

	for _, ticker := range p.tickers {
		tickRows = append(tickRows, domain.PositionRow{
			Timestamp:   latestDT,
			Ticker:      ticker,
			Shares:      shares[ticker],
			MarketValue: mvs[ticker],
			Cash:        p.cash,
			Commission:  p.totalCommission,
			Total:       total,
		})
	}

	p.allHoldings = append(p.allHoldings, domain.HoldingsSnapshot{
		Timestamp:    latestDT,
		MarketValues: mvs,
		Cash:         p.cash,
		Commission:   p.totalCommission,
		Total:        total,
	})
	p.allPositions = append(p.allPositions, domain.PositionsSnapshot{
		Timestamp: latestDT,
		Shares:    shares,
	})
	p.positionRows = append(p.positionRows, tickRows...)

	if p.store != nil {
		p.logger.Info(ctx, "Writing current portfolio state to store",
			map[string]interface{}{"timestamp": latestDT})
		if err := p.store.WriteSnapshot(ctx, PositionCollection, p.positionRows, latestDT); err != nil {
			return fmt.Errorf("update time index: write cumulative snapshot: %w", err)
		}
		if err := p.store.WriteSnapshot(ctx, TickCollection, tickRows, latestDT); err != nil {
			return fmt.Errorf("update time index: write tick snapshot: %w", err)
		}
	}

	return nil
}

// UpdateFill processes a FillEvent: resolves the order, runs the liquidity
// check and, when it passes, executes the trade and merges it into cash and
// positions. On liquidity failure no state is mutated; the condition is a
// warning unless the portfolio is configured to raise.
func (p *BasicPortfolio) UpdateFill(ctx context.Context, event domain.Event) error {
	fill, ok := event.(domain.FillEvent)
	if !ok {
		return fmt.Errorf("update fill: expected %s, got %s: %w",
			domain.EventFill, event.EventType(), ports.ErrInvalidEventType)
	}

	order, err := p.blotter.Get(fill.OrderID)
	if err != nil {
		return fmt.Errorf("update fill: %w", err)
	}

	if !p.CheckLiquidity(fill.Price, fill.AvailableVolume) {
		p.logger.Warn(ctx, "Insufficient funds available to execute trade",
			map[string]interface{}{"ticker": order.Ticker, "order_id": order.ID,
				"price": fill.Price, "qty": fill.AvailableVolume, "cash": p.cash})
		if p.raiseOnWarnings {
			return fmt.Errorf("update fill: ticker %s: %w", order.Ticker, ports.ErrInsufficientFunds)
		}
		return nil
	}

	trade, err := p.blotter.MakeTrade(order, fill.Price, fill.Datetime, fill.AvailableVolume)
	if err != nil {
		return fmt.Errorf("update fill: %w", err)
	}
	p.applyTrade(trade)

	if p.store != nil {
		if err := p.store.RecordTrade(ctx, trade); err != nil {
			return fmt.Errorf("update fill: record trade: %w", err)
		}
	}

	return nil
}

// UpdateSignal processes a SignalEvent: re-checks order triggers so
// handlers never act on stale trigger state, then dispatches to each
// registered handler in registration order.
func (p *BasicPortfolio) UpdateSignal(ctx context.Context, event domain.Event) error {
	sig, ok := event.(domain.SignalEvent)
	if !ok {
		return fmt.Errorf("update signal: expected %s, got %s: %w",
			domain.EventSignal, event.EventType(), ports.ErrInvalidEventType)
	}

	triggered, err := p.blotter.CheckOrderTriggers()
	if err != nil {
		return fmt.Errorf("update signal: %w", err)
	}

	for _, h := range p.handlers {
		if err := h.HandleSignal(ctx, p, sig, triggered); err != nil {
			return fmt.Errorf("update signal: %w", err)
		}
	}

	return nil
}

// applyTrade merges an executed trade into cash and positions.
func (p *BasicPortfolio) applyTrade(t *domain.Trade) {
	p.cash += t.NetValue
	p.cash -= t.Commission
	p.totalCommission += t.Commission

	pos, ok := p.owned[t.Ticker]
	if !ok {
		p.owned[t.Ticker] = domain.NewPositionFromTrade(t)
		return
	}
	if closed := pos.ApplyTrade(t.Qty, t.Price); closed {
		delete(p.owned, t.Ticker)
	}
}

// CheckLiquidity reports whether the portfolio can afford a trade at the
// given price and signed quantity. Sells (negative quantity) are never
// blocked; buys require cash to stay strictly positive after the cost.
func (p *BasicPortfolio) CheckLiquidity(pricePerShare float64, qty float64) bool {
	if qty < 0 {
		return true
	}
	cost := pricePerShare * qty
	return p.cash-cost > 0
}

// Cash returns the current cash balance.
func (p *BasicPortfolio) Cash() float64 { return p.cash }

// InitialCapital returns the starting cash. Read only; kept for reporting.
func (p *BasicPortfolio) InitialCapital() float64 { return p.initialCapital }

// TotalCommission returns the cumulative commission paid.
func (p *BasicPortfolio) TotalCommission() float64 { return p.totalCommission }

// Blotter exposes the order book so signal handlers can place orders.
func (p *BasicPortfolio) Blotter() *blotter.Blotter { return p.blotter }

// Tickers returns the tracked tickers.
func (p *BasicPortfolio) Tickers() []string { return p.tickers }

// Position returns the owned position for a ticker, if any.
func (p *BasicPortfolio) Position(ticker string) (*domain.Position, bool) {
	pos, ok := p.owned[ticker]
	return pos, ok
}

// TotalMarketValue returns the combined mark value of all owned positions,
// excluding cash.
func (p *BasicPortfolio) TotalMarketValue() float64 {
	var mv float64
	for _, pos := range p.owned {
		mv += pos.MarkValue
	}
	return mv
}

// TotalValue returns the portfolio's total value including cash.
func (p *BasicPortfolio) TotalValue() float64 {
	return p.TotalMarketValue() + p.cash
}

// MarketValue returns the current mark value for an owned ticker. Looking
// up a ticker that is not owned is an explicit error, signalling "not
// currently owned" rather than zero.
func (p *BasicPortfolio) MarketValue(ticker string) (float64, error) {
	pos, ok := p.owned[ticker]
	if !ok {
		return 0, fmt.Errorf("market value for %s: %w", ticker, ports.ErrNotOwned)
	}
	return pos.MarkValue, nil
}

// CurrentWeights returns each owned ticker's share of the portfolio value
// at this instant. With includeCash the denominator is the total value and
// a "cash" entry is included.
func (p *BasicPortfolio) CurrentWeights(includeCash bool) map[string]float64 {
	weights := make(map[string]float64, len(p.owned)+1)

	var totalMV float64
	if includeCash {
		totalMV = p.TotalValue()
		if totalMV != 0 {
			weights["cash"] = p.cash / totalMV
		}
	} else {
		totalMV = p.TotalMarketValue()
	}
	if totalMV == 0 {
		return weights
	}

	for ticker, pos := range p.owned {
		weights[ticker] = pos.MarkValue / totalMV
	}
	return weights
}

// AssetWeight returns the weight a ticker accounts for in the portfolio,
// or zero when the ticker is not owned.
func (p *BasicPortfolio) AssetWeight(ticker string, includeCash bool) float64 {
	return p.CurrentWeights(includeCash)[ticker]
}

// Holdings returns the append-only holdings snapshot history.
func (p *BasicPortfolio) Holdings() []domain.HoldingsSnapshot {
	return p.allHoldings
}

// Positions returns the append-only share-quantity snapshot history.
func (p *BasicPortfolio) Positions() []domain.PositionsSnapshot {
	return p.allPositions
}
