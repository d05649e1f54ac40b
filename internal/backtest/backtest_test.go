package backtest

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
	"equitySim/internal/handlers"
	"equitySim/internal/marketdata"
	"equitySim/internal/portfolio"
	"equitySim/internal/strategy"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

var testStart = time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC)

func barsFor(ticker string, prices ...float64) []domain.Bar {
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

// setupBacktest wires a full simulation over the given price series with a
// buy-and-hold strategy and the naive signal handler.
func setupBacktest(t *testing.T, capital, orderQty float64, prices ...float64) (*Backtest, *portfolio.BasicPortfolio) {
	t.Helper()

	handler, err := marketdata.NewBarHandler(map[string][]domain.Bar{
		"AAPL": barsFor("AAPL", prices...),
	})
	require.NoError(t, err)

	bl, err := blotter.New(handler, calendar.AlwaysOpen{}, &mockLogger{})
	require.NoError(t, err)

	pf, err := portfolio.NewBasic(portfolio.Config{
		DataHandler:    handler,
		Blotter:        bl,
		Logger:         &mockLogger{},
		StartDate:      testStart,
		InitialCapital: capital,
	})
	require.NoError(t, err)

	naive, err := handlers.NewNaive(orderQty, 1, &mockLogger{})
	require.NoError(t, err)
	pf.RegisterSignalHandler(naive)

	bt, err := New(Config{
		Bars:      handler,
		Portfolio: pf,
		Strategy:  strategy.NewBuyAndHold(),
		Logger:    &mockLogger{},
	})
	require.NoError(t, err)
	return bt, pf
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestRun_BuyAndHoldEndToEnd(t *testing.T) {
	bt, pf := setupBacktest(t, 100000, 100, 10, 12, 11)

	res, err := bt.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Ticks)
	assert.Equal(t, 1, res.Signals)
	assert.Equal(t, 1, res.Fills)

	// Bought 100 at 10 with a 1.00 commission on the first tick.
	assert.Equal(t, 98999.0, pf.Cash())
	pos, owned := pf.Position("AAPL")
	require.True(t, owned)
	assert.Equal(t, 100.0, pos.Shares)

	// Final mark is at the last bar's price.
	assert.Equal(t, 100099.0, res.FinalValue)
	assert.InDelta(t, 0.00099, res.TotalReturn, 1e-9)

	// Initial snapshot plus one per tick.
	require.Len(t, res.EquityCurve, 4)
	assert.True(t, math.IsNaN(res.EquityCurve[0].Return))
	assert.Equal(t, 1.0, res.EquityCurve[0].Equity)

	// The first tick's snapshot predates the fill, so it still shows cash only.
	assert.Equal(t, 100000.0, res.EquityCurve[1].Total)
	assert.Equal(t, 100199.0, res.EquityCurve[2].Total)
	assert.Equal(t, 100099.0, res.EquityCurve[3].Total)

	assert.InDelta(t, 100.0/100199.0, res.MaxDrawdown, 1e-12)
}

func TestRun_UnaffordableOrderRestsWithoutLooping(t *testing.T) {
	// 100 shares at 10 costs 1000 against 100 of capital: every fill
	// attempt is declined and the order rests on the book.
	bt, pf := setupBacktest(t, 100, 100, 10, 10, 10)

	res, err := bt.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Ticks)
	assert.Equal(t, 1, res.Signals)
	assert.Zero(t, res.Fills)
	assert.Equal(t, 100.0, pf.Cash())
	require.Len(t, pf.Blotter().OpenOrders(), 1)
	assert.Zero(t, pf.Blotter().OpenOrders()[0].Filled)
}

func TestRun_ContextCancellation(t *testing.T) {
	bt, _ := setupBacktest(t, 100000, 100, 10, 12, 11)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bt.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
