package portfolio

import (
	"math"
	"time"

	"equitySim/internal/domain"
)

// EquityPoint is one point on the reconstructed equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Total     float64
	Return    float64 // Fractional change vs the prior snapshot; NaN for the first
	Equity    float64 // Cumulative growth of one unit of starting capital
}

// EquityCurve reconstructs per-snapshot returns and the cumulative equity
// curve from the holdings history. The first point has a NaN return and an
// equity of 1.0.
func (p *BasicPortfolio) EquityCurve() []EquityPoint {
	return EquityCurveFrom(p.allHoldings)
}

// EquityCurveFrom computes the curve for an arbitrary holdings sequence,
// which lets persisted snapshots be replayed without a live portfolio.
func EquityCurveFrom(holdings []domain.HoldingsSnapshot) []EquityPoint {
	if len(holdings) == 0 {
		return nil
	}

	curve := make([]EquityPoint, len(holdings))
	curve[0] = EquityPoint{
		Timestamp: holdings[0].Timestamp,
		Total:     holdings[0].Total,
		Return:    math.NaN(),
		Equity:    1.0,
	}

	for i := 1; i < len(holdings); i++ {
		prev := holdings[i-1].Total
		var r float64
		if prev != 0 {
			r = holdings[i].Total/prev - 1
		}
		curve[i] = EquityPoint{
			Timestamp: holdings[i].Timestamp,
			Total:     holdings[i].Total,
			Return:    r,
			Equity:    curve[i-1].Equity * (1 + r),
		}
	}
	return curve
}
