package domain

import (
	"fmt"
	"strings"
)

// TradeAction represents the side of an order or trade (BUY or SELL).
type TradeAction string

const (
	Buy  TradeAction = "BUY"
	Sell TradeAction = "SELL"
)

// ParseTradeAction validates a raw action string and returns the typed value.
// Input is case-insensitive.
func ParseTradeAction(s string) (TradeAction, error) {
	switch TradeAction(strings.ToUpper(s)) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("%q is not a valid trade action (want BUY or SELL)", s)
	}
}

// OrderType represents how an order is to be executed.
type OrderType string

const (
	Market    OrderType = "MARKET"
	Limit     OrderType = "LIMIT"
	Stop      OrderType = "STOP"
	StopLimit OrderType = "STOP_LIMIT"
)

// ParseOrderType validates a raw order type string and returns the typed value.
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(strings.ToUpper(s)) {
	case Market:
		return Market, nil
	case Limit:
		return Limit, nil
	case Stop:
		return Stop, nil
	case StopLimit:
		return StopLimit, nil
	default:
		return "", fmt.Errorf("%q is not a valid order type", s)
	}
}

// OrderSubType controls how long an order may rest before it is cancelled.
type OrderSubType string

const (
	Day             OrderSubType = "DAY"
	GoodTilCanceled OrderSubType = "GOOD_TIL_CANCELED"
)

// ParseOrderSubType validates a raw order subtype string and returns the typed value.
func ParseOrderSubType(s string) (OrderSubType, error) {
	switch OrderSubType(strings.ToUpper(s)) {
	case Day:
		return Day, nil
	case GoodTilCanceled:
		return GoodTilCanceled, nil
	default:
		return "", fmt.Errorf("%q is not a valid order subtype", s)
	}
}

// OrderStatus represents the lifecycle state of an order.
// FILLED is always derived from fill progress, never stored directly.
type OrderStatus string

const (
	StatusOpen      OrderStatus = "OPEN"
	StatusHeld      OrderStatus = "HELD"
	StatusFilled    OrderStatus = "FILLED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusRejected  OrderStatus = "REJECTED"
)

// Terminal reports whether the status is irreversible.
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled || s == StatusRejected
}

// Direction represents the side of a held position.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// SignalType classifies a strategy signal.
type SignalType string

const (
	SignalLong  SignalType = "LONG"
	SignalShort SignalType = "SHORT"
	SignalExit  SignalType = "EXIT"
)
