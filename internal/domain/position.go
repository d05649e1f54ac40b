package domain

import (
	"math"
	"time"
)

// Position is the current holding of one instrument. Shares is signed:
// positive for a long position, negative for a short. Positions are mutated
// only by applying trades; when shares return to exactly zero the owner is
// expected to remove the position entirely.
type Position struct {
	Ticker    string
	Shares    float64 // Signed shares owned
	AvgPrice  float64 // Average price per share, always positive
	MarkValue float64 // Shares × latest mark price
	MarkTime  time.Time
}

// NewPositionFromTrade opens a position sized and directed by the first
// trade in an instrument. A SELL with no prior holding opens a SHORT.
func NewPositionFromTrade(t *Trade) *Position {
	return &Position{
		Ticker:    t.Ticker,
		Shares:    t.Qty,
		AvgPrice:  t.Price,
		MarkValue: t.Qty * t.Price,
		MarkTime:  t.Timestamp,
	}
}

// Direction reports the side of the position.
func (p *Position) Direction() Direction {
	if p.Shares < 0 {
		return Short
	}
	return Long
}

// ApplyTrade merges a signed quantity at the given price into the position
// and reports whether the position closed (shares returned to exactly zero).
//
// A same-direction trade adds at the quantity-weighted average price. An
// opposing trade reduces the position at the existing average; if it crosses
// through zero the remainder opens at the trade price.
func (p *Position) ApplyTrade(qty, price float64) (closed bool) {
	newShares := p.Shares + qty

	switch {
	case newShares == 0:
		p.Shares = 0
		return true
	case p.Shares*qty > 0:
		// Adding to the position.
		p.AvgPrice = (p.Shares*p.AvgPrice + qty*price) / newShares
		p.Shares = newShares
	case p.Shares*newShares < 0:
		// Crossed through zero; the flipped remainder entered at the trade price.
		p.Shares = newShares
		p.AvgPrice = price
	default:
		// Partial reduce, average cost unchanged.
		p.Shares = newShares
	}
	return false
}

// MarkToMarket updates the position's recorded market value at the given
// price and timestamp and returns the new mark value.
func (p *Position) MarkToMarket(price float64, ts time.Time) float64 {
	p.MarkValue = p.Shares * price
	p.MarkTime = ts
	return p.MarkValue
}

// TotalCost returns the signed cost basis of the position.
func (p *Position) TotalCost() float64 {
	return p.Shares * p.AvgPrice
}

// ReturnOnInvestment returns the fractional gain of the position against the
// magnitude of its cost basis, or zero for a costless position. Dividing by
// the magnitude keeps the sign meaningful for shorts, whose cost basis is
// negative.
func (p *Position) ReturnOnInvestment() float64 {
	cost := p.TotalCost()
	if cost == 0 {
		return 0
	}
	return (p.MarkValue - cost) / math.Abs(cost)
}
