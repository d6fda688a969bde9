package sim

import "time"

// EquityPoint is one sample of the equity curve, taken after the
// portfolio is marked to a bar close.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}
