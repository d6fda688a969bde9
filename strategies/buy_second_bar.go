package strategies

import (
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// BuySecondBar buys a slice of cash at the close of the second bar and
// closes the position when the run finishes. Deliberately trivial: one
// buy, one sell, so a full run exercises rounding, fees, slippage and
// the export path with a predictable ledger.
type BuySecondBar struct {
	AllocPct float64

	counter int
	last    market.Bar
	haveBar bool
}

func NewBuySecondBar(allocPct float64) *BuySecondBar {
	if allocPct <= 0 {
		allocPct = 0.10
	}
	return &BuySecondBar{AllocPct: allocPct}
}

func (s *BuySecondBar) Name() string { return "BuySecondBar" }

func (s *BuySecondBar) OnBar(bar market.Bar, pf *sim.Portfolio) error {
	s.counter++
	s.last = bar
	s.haveBar = true

	if s.counter != 2 {
		return nil
	}

	qty := pf.AffordableQty(bar.Close, s.AllocPct)
	if qty <= 0 {
		return nil
	}
	_, err := pf.Buy(bar.OpenTime, qty, bar.Close, "Second bar buy (alloc %)")
	return err
}

// OnFinish flattens any open position at the close of the last bar seen.
func (s *BuySecondBar) OnFinish(pf *sim.Portfolio) error {
	if !s.haveBar || pf.Qty <= 0 {
		return nil
	}
	_, err := pf.Sell(s.last.OpenTime, pf.Qty, s.last.Close, "Close on finish")
	return err
}
