package domain

import "time"

// Trade is an immutable record of an order's (partial) execution. Trades for
// the same ticker form an append-only chain through PrevTradeID.
//
// NetValue is the cash impact of the trade before commission: negative for a
// BUY (cash out), positive for a SELL (cash in).
type Trade struct {
	ID          string
	OrderID     string // Originating order
	PrevTradeID string // Most recent prior trade for the same ticker, "" if first
	Ticker      string
	Action      TradeAction
	Qty         float64 // Signed, matches the order's sign convention
	Price       float64 // Price per share, always positive
	Strategy    string  // Free-text label for why the trade happened
	Timestamp   time.Time
	Commission  float64
	NetValue    float64
}

// NewTrade builds a trade record with its net value derived from the signed
// quantity and price.
func NewTrade(id, orderID, prevTradeID, ticker string, action TradeAction, qty, price, commission float64, strategy string, ts time.Time) *Trade {
	return &Trade{
		ID:          id,
		OrderID:     orderID,
		PrevTradeID: prevTradeID,
		Ticker:      ticker,
		Action:      action,
		Qty:         qty,
		Price:       price,
		Strategy:    strategy,
		Timestamp:   ts,
		Commission:  commission,
		NetValue:    -qty * price,
	}
}
