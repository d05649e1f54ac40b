package domain

import "time"

// HoldingsSnapshot is a point-in-time record of the portfolio's market
// values: one entry per tracked instrument plus cash, cumulative commission
// and the total (cash + sum of mark values). Snapshots are append-only;
// a record is never mutated once taken.
type HoldingsSnapshot struct {
	Timestamp    time.Time
	MarketValues map[string]float64
	Cash         float64
	Commission   float64
	Total        float64
}

// PositionsSnapshot is the parallel share-quantity record taken alongside
// each HoldingsSnapshot.
type PositionsSnapshot struct {
	Timestamp time.Time
	Shares    map[string]float64
}

// PositionRow is one (timestamp, ticker) row of the long-format positions
// table handed to the snapshot store.
type PositionRow struct {
	Timestamp   time.Time
	Ticker      string
	Shares      float64
	MarketValue float64
	Cash        float64
	Commission  float64
	Total       float64
}
