package domain

import (
	"fmt"
	"time"
)

// defaultMaxDaysOpen applies to GOOD_TIL_CANCELED orders when the caller
// does not supply a limit.
const defaultMaxDaysOpen = 90

// Calendar provides market-hours awareness. Implementations live in
// internal/calendar; orders only need to know whether the market is open
// at a given instant.
type Calendar interface {
	IsOpenAt(t time.Time) bool
}

// Order is a resting instruction to trade a quantity of an instrument under
// optional stop/limit conditions. Quantity is signed: SELL orders always
// carry a negative quantity regardless of the sign supplied at creation.
//
// StopReached and LimitReached are monotonic for the lifetime of the order.
// The one exception is the STOP_LIMIT conversion: when the stop fires the
// order becomes a plain LIMIT order and Stop is cleared, so only the limit
// condition is evaluated on subsequent ticks.
type Order struct {
	ID          string
	Ticker      string
	Action      TradeAction
	OrderType   OrderType
	SubType     OrderSubType
	Qty         float64 // Signed: negative for SELL
	Filled      float64 // Signed, same convention as Qty
	Commission  float64
	Stop        *float64 // Stop price, nil if not a stop order
	Limit       *float64 // Limit price, nil if not a limit order
	StopReached bool
	LimitReached bool
	Reason      string // Why the order was cancelled/rejected/held
	Created     time.Time
	LastUpdated time.Time
	CloseDate   time.Time // Zero while the order is live
	MaxDaysOpen int       // Calendar days a GTC order may rest

	status OrderStatus // Stored status; FILLED is never stored, see Status
}

// OrderParams carries the raw inputs for NewOrder. Action, order type and
// subtype arrive as strings and are validated at construction; no partial
// order is created on invalid input.
type OrderParams struct {
	Ticker      string
	Action      string
	OrderType   string
	SubType     string // Defaults to DAY
	Qty         float64
	Stop        *float64
	Limit       *float64
	Commission  float64
	Created     time.Time // Defaults to time.Now()
	MaxDaysOpen int       // Defaults to 90 for non-DAY orders
}

// NewOrder validates params and returns a new OPEN order.
func NewOrder(p OrderParams) (*Order, error) {
	if p.Ticker == "" {
		return nil, fmt.Errorf("new order: ticker is required")
	}

	action, err := ParseTradeAction(p.Action)
	if err != nil {
		return nil, fmt.Errorf("new order: %w", err)
	}
	orderType, err := ParseOrderType(p.OrderType)
	if err != nil {
		return nil, fmt.Errorf("new order: %w", err)
	}
	subType := p.SubType
	if subType == "" {
		subType = string(Day)
	}
	parsedSub, err := ParseOrderSubType(subType)
	if err != nil {
		return nil, fmt.Errorf("new order: %w", err)
	}

	switch orderType {
	case Stop:
		if p.Stop == nil {
			return nil, fmt.Errorf("new order: STOP order requires a stop price")
		}
	case Limit:
		if p.Limit == nil {
			return nil, fmt.Errorf("new order: LIMIT order requires a limit price")
		}
	case StopLimit:
		if p.Stop == nil || p.Limit == nil {
			return nil, fmt.Errorf("new order: STOP_LIMIT order requires both stop and limit prices")
		}
	}

	qty := p.Qty
	if action == Sell && qty > 0 {
		qty = -qty
	}

	maxDays := p.MaxDaysOpen
	if parsedSub != Day && maxDays == 0 {
		maxDays = defaultMaxDaysOpen
	}

	created := p.Created
	if created.IsZero() {
		created = time.Now()
	}

	return &Order{
		Ticker:      p.Ticker,
		Action:      action,
		OrderType:   orderType,
		SubType:     parsedSub,
		Qty:         qty,
		Commission:  p.Commission,
		Stop:        p.Stop,
		Limit:       p.Limit,
		Created:     created,
		LastUpdated: created,
		MaxDaysOpen: maxDays,
		status:      StatusOpen,
	}, nil
}

// Status derives the order's reported state from fill progress and the
// stored status: fully filled orders always report FILLED, a HELD order
// with partial fills reports OPEN, everything else reports the stored
// status verbatim.
func (o *Order) Status() OrderStatus {
	if o.OpenAmount() == 0 {
		return StatusFilled
	}
	if o.status == StatusHeld && o.Filled != 0 {
		return StatusOpen
	}
	return o.status
}

// OpenAmount returns the signed quantity still unfilled.
func (o *Order) OpenAmount() float64 {
	return o.Qty - o.Filled
}

// IsOpen reports whether the order is still live (OPEN or HELD).
func (o *Order) IsOpen() bool {
	s := o.Status()
	return s == StatusOpen || s == StatusHeld
}

// Triggered reports whether the order is eligible for execution. MARKET
// orders carry no stop or limit, so they are always eligible.
func (o *Order) Triggered() bool {
	if o.Stop != nil && !o.StopReached {
		return false
	}
	if o.Limit != nil && !o.LimitReached {
		return false
	}
	return true
}

// CheckTriggers evaluates the order's trigger conditions against the given
// price. Called once per tick. If the order has already triggered this is a
// no-op, so calling it twice at the same price changes nothing.
//
// When a STOP_LIMIT order's stop fires, the order converts in place to a
// LIMIT order: Stop is cleared and subsequent ticks only evaluate the limit
// condition. The conversion can happen at most once since the order type
// changes with it.
func (o *Order) CheckTriggers(price float64, now time.Time) {
	if o.OrderType == Market {
		// Immediately eligible; nothing to evaluate.
		return
	}
	if o.Triggered() {
		return
	}

	switch {
	case o.OrderType == StopLimit && o.Action == Buy:
		if price >= *o.Stop {
			o.StopReached = true
			o.LastUpdated = now
			if price >= *o.Limit {
				o.LimitReached = true
			}
		}
	case o.OrderType == StopLimit && o.Action == Sell:
		if price <= *o.Stop {
			o.StopReached = true
			o.LastUpdated = now
			// Sell at limit or better, matching the plain LIMIT/SELL rule.
			if price <= *o.Limit {
				o.LimitReached = true
			}
		}
	case o.OrderType == Stop && o.Action == Buy:
		if price >= *o.Stop {
			o.StopReached = true
			o.LastUpdated = now
		}
	case o.OrderType == Stop && o.Action == Sell:
		if price <= *o.Stop {
			o.StopReached = true
			o.LastUpdated = now
		}
	case o.OrderType == Limit && o.Action == Buy:
		if price >= *o.Limit {
			o.LimitReached = true
			o.LastUpdated = now
		}
	case o.OrderType == Limit && o.Action == Sell:
		if price <= *o.Limit {
			o.LimitReached = true
			o.LastUpdated = now
		}
	}

	if o.StopReached && o.OrderType == StopLimit {
		o.Stop = nil
		o.OrderType = Limit
	}
}

// CheckExpiration cancels the order when it has outlived its subtype's
// window. A DAY order cancels as soon as it is evaluated while the market
// is closed. A GOOD_TIL_CANCELED order cancels only when the evaluation
// lands on the exact expiry day (creation + MaxDaysOpen) while the market
// is closed; an order is never force-cancelled while the market is open,
// so a GTC order that is only ever evaluated during sessions can outlive
// its nominal window.
func (o *Order) CheckExpiration(cal Calendar, now time.Time) {
	switch o.SubType {
	case Day:
		if !cal.IsOpenAt(now) {
			o.Cancel("market closed without executing order")
		}
	case GoodTilCanceled:
		expiry := o.Created.AddDate(0, 0, o.MaxDaysOpen)
		if sameDate(now, expiry) && !cal.IsOpenAt(now) {
			o.Cancel(fmt.Sprintf("max days open of %d passed without the order executing", o.MaxDaysOpen))
		}
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Cancel marks the order CANCELLED with a free-text reason.
func (o *Order) Cancel(reason string) {
	o.status = StatusCancelled
	o.Reason = reason
}

// Reject marks the order REJECTED with a free-text reason.
func (o *Order) Reject(reason string) {
	o.status = StatusRejected
	o.Reason = reason
}

// Hold marks the order HELD with a free-text reason.
func (o *Order) Hold(reason string) {
	o.status = StatusHeld
	o.Reason = reason
}
