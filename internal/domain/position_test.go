package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPositionFromTrade(t *testing.T) {
	ts := time.Date(2017, 6, 1, 16, 0, 0, 0, time.UTC)

	long := NewTrade("t1", "o1", "", "AAPL", Buy, 100, 10, 0, "fill", ts)
	p := NewPositionFromTrade(long)
	assert.Equal(t, 100.0, p.Shares)
	assert.Equal(t, 10.0, p.AvgPrice)
	assert.Equal(t, Long, p.Direction())

	// A sell with no prior holding opens a short.
	short := NewTrade("t2", "o2", "", "AAPL", Sell, -50, 20, 0, "fill", ts)
	p = NewPositionFromTrade(short)
	assert.Equal(t, -50.0, p.Shares)
	assert.Equal(t, Short, p.Direction())
	assert.Equal(t, -1000.0, p.MarkValue)
}

func TestPosition_ApplyTrade(t *testing.T) {
	tests := []struct {
		name       string
		startQty   float64
		startPrice float64
		qty        float64
		price      float64
		wantQty    float64
		wantAvg    float64
		wantClosed bool
	}{
		{"add to long averages cost", 100, 10, 100, 20, 200, 15, false},
		{"partial reduce keeps avg", 100, 10, -40, 30, 60, 10, false},
		{"exact close", 100, 10, -100, 30, 0, 10, true},
		{"cross through zero flips at trade price", 100, 10, -150, 30, -50, 30, false},
		{"add to short averages cost", -100, 10, -100, 20, -200, 15, false},
		{"short partial cover keeps avg", -100, 10, 40, 5, -60, 10, false},
		{"short exact cover", -100, 10, 100, 5, 0, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Position{Ticker: "AAPL", Shares: tt.startQty, AvgPrice: tt.startPrice}
			closed := p.ApplyTrade(tt.qty, tt.price)
			assert.Equal(t, tt.wantClosed, closed)
			assert.Equal(t, tt.wantQty, p.Shares)
			assert.InDelta(t, tt.wantAvg, p.AvgPrice, 1e-9)
		})
	}
}

func TestPosition_MarkToMarket(t *testing.T) {
	ts := time.Date(2017, 6, 1, 16, 0, 0, 0, time.UTC)
	p := &Position{Ticker: "AAPL", Shares: 100, AvgPrice: 10}

	mv := p.MarkToMarket(12, ts)
	assert.Equal(t, 1200.0, mv)
	assert.Equal(t, 1200.0, p.MarkValue)
	assert.Equal(t, ts, p.MarkTime)

	// Shorts mark negative.
	p.Shares = -100
	assert.Equal(t, -1200.0, p.MarkToMarket(12, ts))
}

func TestPosition_ReturnOnInvestment(t *testing.T) {
	ts := time.Date(2017, 6, 1, 16, 0, 0, 0, time.UTC)

	long := &Position{Ticker: "AAPL", Shares: 100, AvgPrice: 10}
	long.MarkToMarket(11, ts)
	assert.InDelta(t, 0.10, long.ReturnOnInvestment(), 1e-9)

	// A short gains when price falls.
	short := &Position{Ticker: "AAPL", Shares: -100, AvgPrice: 10}
	short.MarkToMarket(9, ts)
	assert.InDelta(t, 0.10, short.ReturnOnInvestment(), 1e-9)

	short.MarkToMarket(11, ts)
	assert.InDelta(t, -0.10, short.ReturnOnInvestment(), 1e-9)

	zero := &Position{Ticker: "AAPL"}
	require.Zero(t, zero.ReturnOnInvestment())
}

func TestTrade_NetValue(t *testing.T) {
	ts := time.Date(2017, 6, 1, 16, 0, 0, 0, time.UTC)

	buy := NewTrade("t1", "o1", "", "AAPL", Buy, 100, 10, 1, "fill", ts)
	assert.Equal(t, -1000.0, buy.NetValue)

	sell := NewTrade("t2", "o2", "t1", "AAPL", Sell, -100, 10, 1, "fill", ts)
	assert.Equal(t, 1000.0, sell.NetValue)
	assert.Equal(t, "t1", sell.PrevTradeID)
}

func TestBar_Value(t *testing.T) {
	b := Bar{Open: 1, High: 2, Low: 0.5, Close: 1.5, AdjClose: 1.4, Volume: 1000}

	for field, want := range map[string]float64{
		FieldOpen: 1, FieldHigh: 2, FieldLow: 0.5,
		FieldClose: 1.5, FieldAdjClose: 1.4, FieldVolume: 1000,
	} {
		got, err := b.Value(field)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := b.Value("vwap")
	var ufe *UnknownFieldError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "vwap", ufe.Field)
}
