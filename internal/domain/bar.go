package domain

import "time"

// Bar field names accepted by DataHandler lookups.
const (
	FieldOpen     = "open"
	FieldHigh     = "high"
	FieldLow      = "low"
	FieldClose    = "close"
	FieldAdjClose = "adj_close"
	FieldVolume   = "volume"
)

// Bar represents a single time-stepped unit of market data for one ticker.
type Bar struct {
	Timestamp time.Time // Start time of the interval
	Ticker    string    // Instrument ticker
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	AdjClose  float64   // Close adjusted for splits and dividends
	Volume    float64   // Traded volume
}

// Value returns the named field of the bar. Unknown fields report an error
// so a typo'd column name fails loudly instead of marking positions at zero.
func (b Bar) Value(field string) (float64, error) {
	switch field {
	case FieldOpen:
		return b.Open, nil
	case FieldHigh:
		return b.High, nil
	case FieldLow:
		return b.Low, nil
	case FieldClose:
		return b.Close, nil
	case FieldAdjClose:
		return b.AdjClose, nil
	case FieldVolume:
		return b.Volume, nil
	default:
		return 0, &UnknownFieldError{Field: field}
	}
}

// UnknownFieldError reports a bar field lookup for a field that does not exist.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return "unknown bar field: " + e.Field
}
