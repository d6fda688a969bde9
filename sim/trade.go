// Package sim holds the portfolio state machine and the simulated
// execution model for backtests: slippage, exchange filter rounding,
// explicit fees and average-cost position accounting.
package sim

import "time"

// SchemaVersion pins the layout of exported trade records. Bump it when
// Trade or TradeMeta gain or lose fields so downstream consumers of the
// CSV and SQLite journals can tell what they are reading.
const SchemaVersion = 1

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade is one executed order. Quantities and prices are the final
// values after slippage and exchange rounding; the *After fields
// snapshot the portfolio right after execution.
type Trade struct {
	Time        time.Time
	Symbol      string
	Side        Side
	Qty         float64
	Price       float64
	Fee         float64
	CashAfter   float64
	QtyAfter    float64
	EquityAfter float64

	// RealizedPnL is the PnL realized by this trade alone; sells only.
	RealizedPnL    float64
	CumRealizedPnL float64
	Note           string

	Meta TradeMeta
}

// TradeMeta carries the execution audit trail for a trade: what price
// was intended, what slippage and rounding did to it, and which
// exchange limits were in force.
type TradeMeta struct {
	IntendedPrice       float64
	ExecPriceRaw        float64
	PriceRoundDiff      float64
	QtyRaw              float64
	QtyRounded          float64
	QtyRoundDiff        float64
	SlippageBps         float64
	NotionalBeforeRound float64
	NotionalAfterRound  float64

	// RuleCheck records the filter verdict, "OK" for executed trades.
	RuleCheck string
	RunID     string

	// FeeBps is the effective fee in bps over the executed notional.
	FeeBps        float64
	SchemaVersion int

	// Exchange limits in force at execution, empty when none were set.
	TickSizeUsed    string
	StepSizeUsed    string
	MinNotionalUsed string
}
