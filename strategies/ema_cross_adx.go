package strategies

import (
	"encoding/json"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// EMACrossADX is the EMA crossover gated by trend strength: a bull
// cross only opens a position while ADX is at or above the threshold,
// so the braiding crosses of a flat market are skipped. The gate
// applies to entries; an opposite cross always closes.
type EMACrossADX struct {
	*EMACrossADXConfig

	fast *indicators.ExponentialMA
	slow *indicators.ExponentialMA
	adx  *indicators.ADX

	lastDiff     float64
	haveLastDiff bool

	last    market.Bar
	haveBar bool
}

type EMACrossADXConfig struct {
	FastPeriod   int     `json:"fast-period"`   // 10
	SlowPeriod   int     `json:"slow-period"`   // 30
	ADXPeriod    int     `json:"adx-period"`    // 14
	ADXThreshold float64 `json:"adx-threshold"` // 25
	AllocPct     float64 `json:"alloc-percent"` // 0.10
}

func (c *EMACrossADXConfig) JSON() ([]byte, error) {
	return json.Marshal(c)
}

func EMACrossADXConfigDefaults() *EMACrossADXConfig {
	return &EMACrossADXConfig{
		FastPeriod:   10,
		SlowPeriod:   30,
		ADXPeriod:    14,
		ADXThreshold: 25,
		AllocPct:     0.10,
	}
}

func NewEMACrossADX(cfg *EMACrossADXConfig) *EMACrossADX {
	def := EMACrossADXConfigDefaults()
	if cfg == nil {
		cfg = def
	}
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = def.FastPeriod
	}
	if cfg.SlowPeriod <= 0 {
		cfg.SlowPeriod = def.SlowPeriod
	}
	if cfg.ADXPeriod <= 0 {
		cfg.ADXPeriod = def.ADXPeriod
	}
	if cfg.ADXThreshold <= 0 {
		cfg.ADXThreshold = def.ADXThreshold
	}
	if cfg.AllocPct <= 0 {
		cfg.AllocPct = def.AllocPct
	}

	return &EMACrossADX{
		EMACrossADXConfig: cfg,
		fast:              indicators.NewEMA(cfg.FastPeriod),
		slow:              indicators.NewEMA(cfg.SlowPeriod),
		adx:               indicators.NewADX(cfg.ADXPeriod),
	}
}

func (s *EMACrossADX) Name() string { return "EMACrossADX" }

func (s *EMACrossADX) OnBar(bar market.Bar, pf *sim.Portfolio) error {
	s.last = bar
	s.haveBar = true

	s.fast.Update(bar)
	s.slow.Update(bar)
	s.adx.Update(bar)

	if !s.fast.Ready() || !s.slow.Ready() || !s.adx.Ready() {
		return nil
	}

	diff := s.fast.Value() - s.slow.Value()

	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return nil
	}

	bullCross := diff > 0 && s.lastDiff <= 0
	bearCross := diff < 0 && s.lastDiff >= 0

	// A cross during a weak trend is consumed, not deferred.
	s.lastDiff = diff

	switch {
	case bullCross && pf.Qty <= 0:
		if s.adx.Value() < s.ADXThreshold {
			return nil
		}
		qty := pf.AffordableQty(bar.Close, s.AllocPct)
		if qty <= 0 {
			return nil
		}
		_, err := pf.Buy(bar.OpenTime, qty, bar.Close, "Bull cross (ADX)")
		return err

	case bearCross && pf.Qty > 0:
		_, err := pf.Sell(bar.OpenTime, pf.Qty, bar.Close, "Bear cross")
		return err

	default:
		return nil
	}
}

// OnFinish flattens any open position at the close of the last bar seen.
func (s *EMACrossADX) OnFinish(pf *sim.Portfolio) error {
	if !s.haveBar || pf.Qty <= 0 {
		return nil
	}
	_, err := pf.Sell(s.last.OpenTime, pf.Qty, s.last.Close, "Close on finish")
	return err
}
