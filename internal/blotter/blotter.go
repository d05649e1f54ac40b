// Package blotter holds the live order set for an account and owns trigger
// evaluation across it. It never touches cash or positions; executing the
// resulting trades is the portfolio's responsibility.
package blotter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"equitySim/internal/domain"
	"equitySim/internal/id"
	"equitySim/internal/ports"
)

// Blotter is the order book for a single account. It is not safe for
// concurrent use: the event-processing model is single-threaded and the
// blotter has exactly one writer.
type Blotter struct {
	logger ports.Logger
	oracle ports.PriceOracle
	cal    ports.TradingCalendar
	now    time.Time

	orders      map[string]*domain.Order // live orders by id
	closed      []*domain.Order          // terminal orders, kept for inspection
	reported    map[string]bool          // orders already returned as triggered
	lastTradeID map[string]string        // ticker -> most recent trade id
}

// New creates an empty blotter.
func New(oracle ports.PriceOracle, cal ports.TradingCalendar, logger ports.Logger) (*Blotter, error) {
	if oracle == nil || cal == nil || logger == nil {
		return nil, fmt.Errorf("blotter: price oracle, calendar and logger are required")
	}
	return &Blotter{
		logger:      logger,
		oracle:      oracle,
		cal:         cal,
		orders:      make(map[string]*domain.Order),
		reported:    make(map[string]bool),
		lastTradeID: make(map[string]string),
	}, nil
}

// SetCurrentTime advances the blotter's notion of "now". Trigger and
// expiration checks are evaluated as of this instant.
func (b *Blotter) SetCurrentTime(t time.Time) {
	b.now = t
}

// CurrentTime returns the blotter's notion of "now".
func (b *Blotter) CurrentTime() time.Time {
	return b.now
}

// PlaceOrder adds an order to the live set, assigning a synthetic id when
// the order does not already carry one.
func (b *Blotter) PlaceOrder(o *domain.Order) (*domain.Order, error) {
	if o == nil {
		return nil, fmt.Errorf("place order: order is required")
	}
	if o.ID == "" {
		o.ID = id.New()
	}
	if _, exists := b.orders[o.ID]; exists {
		return nil, fmt.Errorf("place order: duplicate order id %q", o.ID)
	}
	b.orders[o.ID] = o
	b.logger.Debug(context.Background(), "Order placed",
		map[string]interface{}{"order_id": o.ID, "ticker": o.Ticker, "action": o.Action, "type": o.OrderType, "qty": o.Qty})
	return o, nil
}

// Get returns a live order by id.
func (b *Blotter) Get(orderID string) (*domain.Order, error) {
	o, ok := b.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("get order %q: %w", orderID, ports.ErrOrderNotFound)
	}
	return o, nil
}

// OpenOrders returns the live orders sorted by id. Ids are ULIDs, so the
// sort is creation order.
func (b *Blotter) OpenOrders() []*domain.Order {
	out := make([]*domain.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ClosedOrders returns the orders that have reached a terminal state.
func (b *Blotter) ClosedOrders() []*domain.Order {
	return b.closed
}

// CheckOrderTriggers evaluates triggers and expiration on every live order
// against a fresh quote and returns the orders whose triggered state became
// true during this call. An order already reported on a prior call is not
// returned again. Expired orders leave the live set as a side effect.
func (b *Blotter) CheckOrderTriggers() ([]*domain.Order, error) {
	var fired []*domain.Order

	for _, o := range b.OpenOrders() {
		price, err := b.oracle.CurrentQuote(o.Ticker)
		if err != nil {
			return nil, fmt.Errorf("check order triggers: quote for %s: %w", o.Ticker, err)
		}

		o.CheckTriggers(price, b.now)
		o.CheckExpiration(b.cal, b.now)

		if o.Status().Terminal() {
			b.retire(o)
			continue
		}

		if o.Triggered() && !b.reported[o.ID] {
			b.reported[o.ID] = true
			fired = append(fired, o)
		}
	}

	return fired, nil
}

// MakeTrade executes quantity of the order at the given price: the order's
// fill progress advances and an immutable trade record is constructed,
// chained to the prior trade for the same ticker. Quantity is clamped to
// the order's open amount so a fill can never overshoot.
func (b *Blotter) MakeTrade(o *domain.Order, price float64, ts time.Time, qty float64) (*domain.Trade, error) {
	if o == nil {
		return nil, fmt.Errorf("make trade: order is required")
	}

	// Align the fill's sign with the order and clamp to what is open.
	open := o.OpenAmount()
	if open == 0 {
		return nil, fmt.Errorf("make trade: order %q is already filled", o.ID)
	}
	if open < 0 && qty > 0 || open > 0 && qty < 0 {
		qty = -qty
	}
	if open > 0 && qty > open || open < 0 && qty < open {
		qty = open
	}

	o.Filled += qty
	o.LastUpdated = ts

	label := "fill"
	if o.OpenAmount() != 0 {
		label = "partial fill"
	}

	trade := domain.NewTrade(id.New(), o.ID, b.lastTradeID[o.Ticker], o.Ticker,
		o.Action, qty, price, o.Commission, label, ts)
	b.lastTradeID[o.Ticker] = trade.ID

	if o.Status().Terminal() {
		b.retire(o)
	}

	b.logger.Debug(context.Background(), "Trade made",
		map[string]interface{}{"trade_id": trade.ID, "order_id": o.ID, "ticker": o.Ticker, "qty": qty, "price": price})
	return trade, nil
}

// CancelOrder cancels a live order with a reason.
func (b *Blotter) CancelOrder(orderID, reason string) error {
	o, err := b.Get(orderID)
	if err != nil {
		return err
	}
	o.Cancel(reason)
	b.retire(o)
	return nil
}

// retire moves a terminal order out of the live set.
func (b *Blotter) retire(o *domain.Order) {
	if o.CloseDate.IsZero() {
		o.CloseDate = b.now
	}
	delete(b.orders, o.ID)
	delete(b.reported, o.ID)
	b.closed = append(b.closed, o)
}
