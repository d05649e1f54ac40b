package domain

import "time"

// EventType classifies the events the portfolio consumes.
type EventType string

const (
	EventMarket EventType = "MARKET"
	EventSignal EventType = "SIGNAL"
	EventFill   EventType = "FILL"
)

// Event is anything the backtest driver can pump through the queue.
type Event interface {
	EventType() EventType
}

// MarketEvent signals that a new bar is available. It carries no payload;
// timestamp and prices are pulled from the data handler.
type MarketEvent struct{}

func (MarketEvent) EventType() EventType { return EventMarket }

// SignalEvent drives order generation via the registered signal handlers.
type SignalEvent struct {
	Ticker   string
	Datetime time.Time
	Signal   SignalType
}

func (SignalEvent) EventType() EventType { return EventSignal }

// FillEvent reports an executed or partially executed order.
type FillEvent struct {
	OrderID         string
	Price           float64
	Datetime        time.Time
	AvailableVolume float64 // Signed quantity available to fill
}

func (FillEvent) EventType() EventType { return EventFill }
