package portfolio

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equitySim/internal/blotter"
	"equitySim/internal/calendar"
	"equitySim/internal/domain"
	"equitySim/internal/marketdata"
	"equitySim/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

var testStart = time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC)

func testBars(ticker string, prices ...float64) []domain.Bar {
	bars := make([]domain.Bar, len(prices))
	for i, p := range prices {
		bars[i] = domain.Bar{
			Timestamp: testStart.AddDate(0, 0, i+1),
			Ticker:    ticker,
			Open:      p, High: p, Low: p, Close: p, AdjClose: p, Volume: 1e6,
		}
	}
	return bars
}

// setupPortfolio wires a portfolio over a single-ticker bar stream and
// advances the handler to the first bar.
func setupPortfolio(t *testing.T, raise bool, prices ...float64) (*BasicPortfolio, *marketdata.BarHandler) {
	t.Helper()

	handler, err := marketdata.NewBarHandler(map[string][]domain.Bar{
		"AAPL": testBars("AAPL", prices...),
	})
	require.NoError(t, err)
	require.True(t, handler.Update())

	bl, err := blotter.New(handler, calendar.AlwaysOpen{}, &mockLogger{})
	require.NoError(t, err)

	p, err := NewBasic(Config{
		DataHandler:     handler,
		Blotter:         bl,
		Logger:          &mockLogger{},
		StartDate:       testStart,
		InitialCapital:  100000,
		RaiseOnWarnings: raise,
	})
	require.NoError(t, err)
	return p, handler
}

// placeMarketOrder places an order and brings it to triggered state.
func placeMarketOrder(t *testing.T, p *BasicPortfolio, action string, qty, commission float64) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(domain.OrderParams{
		Ticker: "AAPL", Action: action, OrderType: "MARKET",
		Qty: qty, Commission: commission, Created: testStart,
	})
	require.NoError(t, err)
	_, err = p.Blotter().PlaceOrder(o)
	require.NoError(t, err)
	return o
}

func TestNewBasic_Validation(t *testing.T) {
	_, err := NewBasic(Config{})
	assert.Error(t, err)

	p, _ := setupPortfolio(t, false, 10)
	assert.Equal(t, 100000.0, p.Cash())
	assert.Equal(t, 100000.0, p.InitialCapital())

	// The initial snapshot is taken at the start date with zeroed holdings.
	holdings := p.Holdings()
	require.Len(t, holdings, 1)
	assert.Equal(t, testStart, holdings[0].Timestamp)
	assert.Equal(t, 100000.0, holdings[0].Total)
	assert.Equal(t, 0.0, holdings[0].MarketValues["AAPL"])
}

func TestUpdateTimeIndex_RejectsWrongEventType(t *testing.T) {
	p, _ := setupPortfolio(t, false, 10)

	err := p.UpdateTimeIndex(context.Background(), domain.FillEvent{})
	assert.ErrorIs(t, err, ports.ErrInvalidEventType)

	err = p.UpdateSignal(context.Background(), domain.MarketEvent{})
	assert.ErrorIs(t, err, ports.ErrInvalidEventType)

	err = p.UpdateFill(context.Background(), domain.MarketEvent{})
	assert.ErrorIs(t, err, ports.ErrInvalidEventType)
}

func TestUpdateTimeIndex_SnapshotsHoldings(t *testing.T) {
	p, handler := setupPortfolio(t, false, 10, 12)
	ctx := context.Background()

	require.NoError(t, p.UpdateTimeIndex(ctx, domain.MarketEvent{}))

	holdings := p.Holdings()
	require.Len(t, holdings, 2)
	assert.Equal(t, 100000.0, holdings[1].Total)
	assert.Equal(t, 100000.0, holdings[1].Cash)

	// Buy 100 shares at 10, then advance to the 12 bar: market value marks up.
	placeMarketOrder(t, p, "BUY", 100, 0)
	require.NoError(t, p.UpdateFill(ctx, domain.FillEvent{
		OrderID: p.Blotter().OpenOrders()[0].ID, Price: 10,
		Datetime: testStart.AddDate(0, 0, 1), AvailableVolume: 100,
	}))

	require.True(t, handler.Update())
	require.NoError(t, p.UpdateTimeIndex(ctx, domain.MarketEvent{}))

	holdings = p.Holdings()
	require.Len(t, holdings, 3)
	assert.Equal(t, 1200.0, holdings[2].MarketValues["AAPL"])
	assert.Equal(t, 99000.0, holdings[2].Cash)
	assert.Equal(t, 100200.0, holdings[2].Total)

	positions := p.Positions()
	require.Len(t, positions, 3)
	assert.Equal(t, 100.0, positions[2].Shares["AAPL"])
}

func TestUpdateFill_BuyUpdatesCashAndPosition(t *testing.T) {
	p, _ := setupPortfolio(t, false, 10)
	o := placeMarketOrder(t, p, "BUY", 100, 1)

	err := p.UpdateFill(context.Background(), domain.FillEvent{
		OrderID: o.ID, Price: 10, Datetime: testStart.AddDate(0, 0, 1), AvailableVolume: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, 98999.0, p.Cash())
	assert.Equal(t, 1.0, p.TotalCommission())

	pos, ok := p.Position("AAPL")
	require.True(t, ok)
	assert.Equal(t, 100.0, pos.Shares)
	assert.Equal(t, 10.0, pos.AvgPrice)
	assert.Equal(t, domain.Long, pos.Direction())
}

func TestUpdateFill_SellClosesPosition(t *testing.T) {
	p, _ := setupPortfolio(t, false, 10)
	ctx := context.Background()

	buy := placeMarketOrder(t, p, "BUY", 100, 1)
	require.NoError(t, p.UpdateFill(ctx, domain.FillEvent{
		OrderID: buy.ID, Price: 10, Datetime: testStart.AddDate(0, 0, 1), AvailableVolume: 100,
	}))

	sell := placeMarketOrder(t, p, "SELL", 100, 1)
	require.NoError(t, p.UpdateFill(ctx, domain.FillEvent{
		OrderID: sell.ID, Price: 12, Datetime: testStart.AddDate(0, 0, 1), AvailableVolume: -100,
	}))

	// 100000 - 1000 - 1 + 1200 - 1
	assert.Equal(t, 100198.0, p.Cash())
	assert.Equal(t, 2.0, p.TotalCommission())

	_, ok := p.Position("AAPL")
	assert.False(t, ok, "a position reduced to zero shares is removed")
	_, err := p.MarketValue("AAPL")
	assert.ErrorIs(t, err, ports.ErrNotOwned)
}

func TestUpdateFill_ShortFromFlat(t *testing.T) {
	p, _ := setupPortfolio(t, false, 10)
	sell := placeMarketOrder(t, p, "SELL", 100, 0)

	require.NoError(t, p.UpdateFill(context.Background(), domain.FillEvent{
		OrderID: sell.ID, Price: 10, Datetime: testStart.AddDate(0, 0, 1), AvailableVolume: -100,
	}))

	assert.Equal(t, 101000.0, p.Cash())
	pos, ok := p.Position("AAPL")
	require.True(t, ok)
	assert.Equal(t, domain.Short, pos.Direction())
	assert.Equal(t, -100.0, pos.Shares)
}

func TestUpdateFill_InsufficientFunds(t *testing.T) {
	p, _ := setupPortfolio(t, false, 10)
	o := placeMarketOrder(t, p, "BUY", 100000, 0)

	// Warning mode: the fill is skipped and nothing changes.
	require.NoError(t, p.UpdateFill(context.Background(), domain.FillEvent{
		OrderID: o.ID, Price: 10, Datetime: testStart.AddDate(0, 0, 1), AvailableVolume: 100000,
	}))
	assert.Equal(t, 100000.0, p.Cash())
	_, ok := p.Position("AAPL")
	assert.False(t, ok)
	assert.Zero(t, o.Filled)

	// Raise mode escalates to a hard error.
	raising, _ := setupPortfolio(t, true, 10)
	o2 := placeMarketOrder(t, raising, "BUY", 100000, 0)
	err := raising.UpdateFill(context.Background(), domain.FillEvent{
		OrderID: o2.ID, Price: 10, Datetime: testStart.AddDate(0, 0, 1), AvailableVolume: 100000,
	})
	assert.ErrorIs(t, err, ports.ErrInsufficientFunds)
}

func TestUpdateFill_UnknownOrder(t *testing.T) {
	p, _ := setupPortfolio(t, false, 10)
	err := p.UpdateFill(context.Background(), domain.FillEvent{OrderID: "ghost", Price: 10})
	assert.ErrorIs(t, err, ports.ErrOrderNotFound)
}

func TestCheckLiquidity(t *testing.T) {
	p, _ := setupPortfolio(t, false, 10)

	assert.True(t, p.CheckLiquidity(10, -1e9), "sells are never blocked")
	assert.True(t, p.CheckLiquidity(10, 100))
	assert.False(t, p.CheckLiquidity(10, 10000), "cash must stay strictly positive")
	assert.False(t, p.CheckLiquidity(10, 20000))
}

type recordingHandler struct {
	signals   []domain.SignalEvent
	triggered [][]*domain.Order
}

func (r *recordingHandler) HandleSignal(_ context.Context, _ *BasicPortfolio, sig domain.SignalEvent, triggered []*domain.Order) error {
	r.signals = append(r.signals, sig)
	r.triggered = append(r.triggered, triggered)
	return nil
}

func TestUpdateSignal_DispatchesToHandlers(t *testing.T) {
	p, _ := setupPortfolio(t, false, 10)

	rec := &recordingHandler{}
	p.RegisterSignalHandler(rec)

	o := placeMarketOrder(t, p, "BUY", 100, 0)
	sig := domain.SignalEvent{Ticker: "AAPL", Datetime: testStart, Signal: domain.SignalLong}
	require.NoError(t, p.UpdateSignal(context.Background(), sig))

	require.Len(t, rec.signals, 1)
	assert.Equal(t, sig, rec.signals[0])
	require.Len(t, rec.triggered[0], 1)
	assert.Equal(t, o.ID, rec.triggered[0][0].ID)
}

func TestCurrentWeights(t *testing.T) {
	p, _ := setupPortfolio(t, false, 10)
	ctx := context.Background()

	buy := placeMarketOrder(t, p, "BUY", 100, 0)
	require.NoError(t, p.UpdateFill(ctx, domain.FillEvent{
		OrderID: buy.ID, Price: 10, Datetime: testStart.AddDate(0, 0, 1), AvailableVolume: 100,
	}))
	require.NoError(t, p.UpdateTimeIndex(ctx, domain.MarketEvent{}))

	assert.Equal(t, 1000.0, p.TotalMarketValue())
	assert.Equal(t, 100000.0, p.TotalValue())

	weights := p.CurrentWeights(false)
	assert.InDelta(t, 1.0, weights["AAPL"], 1e-9)

	withCash := p.CurrentWeights(true)
	assert.InDelta(t, 0.01, withCash["AAPL"], 1e-9)
	assert.InDelta(t, 0.99, withCash["cash"], 1e-9)

	assert.InDelta(t, 0.01, p.AssetWeight("AAPL", true), 1e-9)
	assert.Zero(t, p.AssetWeight("MSFT", true))
}

func TestEquityCurveFrom(t *testing.T) {
	holdings := []domain.HoldingsSnapshot{
		{Timestamp: testStart, Total: 100000},
		{Timestamp: testStart.AddDate(0, 0, 1), Total: 101000},
		{Timestamp: testStart.AddDate(0, 0, 2), Total: 98980},
	}

	curve := EquityCurveFrom(holdings)
	require.Len(t, curve, 3)

	assert.True(t, math.IsNaN(curve[0].Return))
	assert.Equal(t, 1.0, curve[0].Equity)

	assert.InDelta(t, 0.01, curve[1].Return, 1e-9)
	assert.InDelta(t, 1.01, curve[1].Equity, 1e-9)

	assert.InDelta(t, -0.02, curve[2].Return, 1e-9)
	assert.InDelta(t, 0.9898, curve[2].Equity, 1e-9)

	assert.Nil(t, EquityCurveFrom(nil))
}
