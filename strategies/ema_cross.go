package strategies

import (
	"encoding/json"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// EMACross trades a fast/slow EMA crossover on closes.
// - Enters only on a bull cross (fast rises above slow)
// - Exits on the opposite cross
// - Sizes entries as alloc% of available cash
type EMACross struct {
	*EMACrossConfig

	fast *indicators.ExponentialMA
	slow *indicators.ExponentialMA

	lastDiff     float64
	haveLastDiff bool

	last    market.Bar
	haveBar bool
}

type EMACrossConfig struct {
	FastPeriod int     `json:"fast-period"`   // 10
	SlowPeriod int     `json:"slow-period"`   // 30
	AllocPct   float64 `json:"alloc-percent"` // 0.10
}

func (c *EMACrossConfig) JSON() ([]byte, error) {
	return json.Marshal(c)
}

func EMACrossConfigDefaults() *EMACrossConfig {
	return &EMACrossConfig{
		FastPeriod: 10,
		SlowPeriod: 30,
		AllocPct:   0.10,
	}
}

func NewEmaCross(cfg *EMACrossConfig) *EMACross {
	def := EMACrossConfigDefaults()
	if cfg == nil {
		cfg = def
	}
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = def.FastPeriod
	}
	if cfg.SlowPeriod <= 0 {
		cfg.SlowPeriod = def.SlowPeriod
	}
	if cfg.AllocPct <= 0 {
		cfg.AllocPct = def.AllocPct
	}

	return &EMACross{
		EMACrossConfig: cfg,
		fast:           indicators.NewEMA(cfg.FastPeriod),
		slow:           indicators.NewEMA(cfg.SlowPeriod),
	}
}

func (s *EMACross) Name() string { return "EMACross" }

func (s *EMACross) OnBar(bar market.Bar, pf *sim.Portfolio) error {
	s.last = bar
	s.haveBar = true

	s.fast.Update(bar)
	s.slow.Update(bar)

	// Wait until both EMAs are warmed up.
	if !s.fast.Ready() || !s.slow.Ready() {
		return nil
	}

	diff := s.fast.Value() - s.slow.Value()

	// Need a previous diff to detect a cross.
	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return nil
	}

	// Bull cross: diff goes from <=0 to >0
	// Bear cross: diff goes from >=0 to <0
	bullCross := diff > 0 && s.lastDiff <= 0
	bearCross := diff < 0 && s.lastDiff >= 0

	// Update lastDiff early/always to avoid repeated triggers if we return.
	s.lastDiff = diff

	switch {
	case bullCross && pf.Qty <= 0:
		qty := pf.AffordableQty(bar.Close, s.AllocPct)
		if qty <= 0 {
			return nil
		}
		_, err := pf.Buy(bar.OpenTime, qty, bar.Close, "Bull cross")
		return err

	case bearCross && pf.Qty > 0:
		_, err := pf.Sell(bar.OpenTime, pf.Qty, bar.Close, "Bear cross")
		return err

	default:
		return nil
	}
}

// OnFinish flattens any open position at the close of the last bar seen.
func (s *EMACross) OnFinish(pf *sim.Portfolio) error {
	if !s.haveBar || pf.Qty <= 0 {
		return nil
	}
	_, err := pf.Sell(s.last.OpenTime, pf.Qty, s.last.Close, "Close on finish")
	return err
}
