package ports

import "errors"

// Standard application-level errors.
// Adapters and core packages wrap underlying errors with these so callers
// can branch with errors.Is without caring which layer failed.
var (
	// Core event-processing errors
	ErrInvalidEventType  = errors.New("handler invoked with the wrong event type")
	ErrInsufficientFunds = errors.New("insufficient funds to execute trade")
	ErrOrderNotFound     = errors.New("order not found in the order book")
	ErrNotOwned          = errors.New("ticker is not currently owned")
	ErrNoData            = errors.New("no market data available")

	// Configuration
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Market-data source errors
	ErrSourceUnavailable = errors.New("market data source is unavailable")
	ErrConnectionFailed  = errors.New("failed to connect to the market data source")
	ErrRateLimited       = errors.New("market data source rate limit exceeded")

	// Storage errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
