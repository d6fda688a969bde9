package strategies

import (
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// Hold does nothing. Useful as a baseline: the run produces a flat cash
// equity curve and an empty trade ledger.
type Hold struct{}

func (Hold) Name() string { return "Hold" }

func (Hold) OnBar(bar market.Bar, pf *sim.Portfolio) error {
	_ = bar
	_ = pf
	return nil
}
