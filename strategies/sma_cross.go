package strategies

import (
	"encoding/json"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// SMACross trades a fast/slow simple moving average crossover on closes.
// - Golden cross (fast rises above slow): buy alloc% of cash
// - Death cross (fast falls below slow): sell the whole position
// Long only, at most one open position.
type SMACross struct {
	*SMACrossConfig

	fast *indicators.SimpleMA
	slow *indicators.SimpleMA

	lastDiff     float64
	haveLastDiff bool

	last    market.Bar
	haveBar bool
}

type SMACrossConfig struct {
	FastPeriod int     `json:"fast-period"`   // 10
	SlowPeriod int     `json:"slow-period"`   // 50
	AllocPct   float64 `json:"alloc-percent"` // 0.10
}

func (c *SMACrossConfig) JSON() ([]byte, error) {
	return json.Marshal(c)
}

func SMACrossConfigDefaults() *SMACrossConfig {
	return &SMACrossConfig{
		FastPeriod: 10,
		SlowPeriod: 50,
		AllocPct:   0.10,
	}
}

func NewSmaCross(cfg *SMACrossConfig) *SMACross {
	def := SMACrossConfigDefaults()
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

	return &SMACross{
		SMACrossConfig: cfg,
		fast:           indicators.NewSMA(cfg.FastPeriod),
		slow:           indicators.NewSMA(cfg.SlowPeriod),
	}
}

func (s *SMACross) Name() string { return "SMACross" }

func (s *SMACross) OnBar(bar market.Bar, pf *sim.Portfolio) error {
	s.last = bar
	s.haveBar = true

	s.fast.Update(bar)
	s.slow.Update(bar)

	// Wait until both averages are warmed up.
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

	// Golden cross: diff goes from <=0 to >0
	// Death cross: diff goes from >=0 to <0
	goldenCross := diff > 0 && s.lastDiff <= 0
	deathCross := diff < 0 && s.lastDiff >= 0

	// Update lastDiff early/always to avoid repeated triggers if we return.
	s.lastDiff = diff

	switch {
	case goldenCross && pf.Qty <= 0:
		qty := pf.AffordableQty(bar.Close, s.AllocPct)
		if qty <= 0 {
			return nil
		}
		_, err := pf.Buy(bar.OpenTime, qty, bar.Close, "Golden cross")
		return err

	case deathCross && pf.Qty > 0:
		_, err := pf.Sell(bar.OpenTime, pf.Qty, bar.Close, "Death cross")
		return err

	default:
		return nil
	}
}

// OnFinish flattens any open position at the close of the last bar seen.
func (s *SMACross) OnFinish(pf *sim.Portfolio) error {
	if !s.haveBar || pf.Qty <= 0 {
		return nil
	}
	_, err := pf.Sell(s.last.OpenTime, pf.Qty, s.last.Close, "Close on finish")
	return err
}
