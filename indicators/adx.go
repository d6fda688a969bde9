package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/market"
)

// ADX is a streaming Average Directional Index (Wilder) over bar OHLC,
// a 0..100 trend-strength reading with the usual two-stage warmup:
//
//  1. period samples seed the smoothed TR and +DM/-DM averages
//  2. period DX values seed the initial ADX
//
// Warmup() reports 2*period updates; the smoothed true range is an ATR
// with the same period.
type ADX struct {
	period int

	tr *ATR

	prev    market.Bar
	hasPrev bool

	// one period is one delta between consecutive bars
	periods int

	sumPlusDM  float64
	sumMinusDM float64
	smPlusDM   float64
	smMinusDM  float64

	plusDI  float64
	minusDI float64
	lastDX  float64

	dxSum   float64
	dxCount int

	adx   float64
	ready bool
}

// NewADX creates an Average Directional Index indicator with the given period.
func NewADX(period int) *ADX {
	return &ADX{
		period: period,
		tr:     NewATR(period),
	}
}

func (a *ADX) Name() string {
	return fmt.Sprintf("ADX(%d)", a.period)
}

func (a *ADX) Warmup() int {
	return 2 * a.period
}

func (a *ADX) Reset() {
	*a = ADX{
		period: a.period,
		tr:     NewATR(a.period),
	}
}

func (a *ADX) Ready() bool {
	return a.ready
}

func (a *ADX) Value() float64 {
	if !a.ready {
		return 0
	}
	return a.adx
}

// PlusDI and MinusDI expose the directional components for strategies
// that want cross direction confirmed by DI dominance.
func (a *ADX) PlusDI() float64  { return a.plusDI }
func (a *ADX) MinusDI() float64 { return a.minusDI }
func (a *ADX) DX() float64      { return a.lastDX }

// Update consumes the next closed bar.
func (a *ADX) Update(b market.Bar) {
	a.tr.Update(b)

	if !a.hasPrev {
		a.prev = b
		a.hasPrev = true
		return
	}

	upMove := b.High - a.prev.High
	downMove := a.prev.Low - b.Low

	var plusDM, minusDM float64
	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}
	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}

	a.prev = b
	a.periods++

	// Phase 1: average the first period's worth of directional movement.
	if a.periods < a.period {
		a.sumPlusDM += plusDM
		a.sumMinusDM += minusDM
		return
	}
	if a.periods == a.period {
		a.sumPlusDM += plusDM
		a.sumMinusDM += minusDM
		a.smPlusDM = a.sumPlusDM / float64(a.period)
		a.smMinusDM = a.sumMinusDM / float64(a.period)
	} else {
		// Wilder smoothing, same recurrence the ATR uses.
		nf := float64(a.period)
		a.smPlusDM = (a.smPlusDM*(nf-1) + plusDM) / nf
		a.smMinusDM = (a.smMinusDM*(nf-1) + minusDM) / nf
	}

	a.plusDI, a.minusDI = di(a.smPlusDM, a.smMinusDM, a.tr.Value())
	a.lastDX = dx(a.plusDI, a.minusDI)

	// Phase 2: seed ADX with the average of the first period DX values,
	// then Wilder-smooth it.
	if !a.ready {
		a.dxSum += a.lastDX
		a.dxCount++
		if a.dxCount >= a.period {
			a.adx = a.dxSum / float64(a.period)
			a.ready = true
		}
		return
	}

	nf := float64(a.period)
	a.adx = (a.adx*(nf-1) + a.lastDX) / nf
}

func di(smPlusDM, smMinusDM, smTR float64) (plusDI, minusDI float64) {
	if smTR <= 0 {
		return 0, 0
	}
	plusDI = 100.0 * (smPlusDM / smTR)
	minusDI = 100.0 * (smMinusDM / smTR)
	return plusDI, minusDI
}

func dx(plusDI, minusDI float64) float64 {
	den := plusDI + minusDI
	if den <= 0 {
		return 0
	}
	return 100.0 * (math.Abs(plusDI-minusDI) / den)
}
