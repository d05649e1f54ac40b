package ports

import (
	"time"

	"equitySim/internal/domain"
)

// DataHandler supplies the latest bar data for the tracked instruments.
// All instruments share a tick clock: the driver advances every ticker's
// cursor together, so the latest bar timestamp of any tracked ticker is
// the portfolio's notion of "now".
type DataHandler interface {
	// Tickers returns the instruments this handler tracks, in a stable order.
	Tickers() []string

	// LatestBarTimestamp returns the timestamp of the most recent bar for
	// the ticker. Returns ErrNoData (wrapped) before the first bar.
	LatestBarTimestamp(ticker string) (time.Time, error)

	// LatestBarValue returns the named field (e.g. domain.FieldAdjClose) of
	// the most recent bar for the ticker.
	LatestBarValue(ticker, field string) (float64, error)
}

// PriceOracle supplies the latest tradable price for an instrument on
// demand. Used only by order trigger evaluation.
type PriceOracle interface {
	CurrentQuote(ticker string) (float64, error)
}

// TradingCalendar provides market-hours awareness for order expiration.
type TradingCalendar = domain.Calendar
