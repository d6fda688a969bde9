package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/sim"
)

func TestSMACross_TradesTheCrossovers(t *testing.T) {
	strat := NewSmaCross(&SMACrossConfig{FastPeriod: 2, SlowPeriod: 3, AllocPct: 0.10})
	pf := sim.NewPortfolio(10_000, "BTCUSDT")

	// SMA(2) starts below SMA(3), crosses above at the fifth close and
	// back below at the seventh.
	bars := closeBars(100, 90, 80, 81, 100, 110, 60)
	runBars(t, strat, pf, bars)

	trades := pf.Trades()
	require.Len(t, trades, 2)

	entry, exit := trades[0], trades[1]
	assert.Equal(t, sim.SideBuy, entry.Side)
	assert.Equal(t, bars[4].OpenTime, entry.Time)
	assert.Equal(t, "Golden cross", entry.Note)

	assert.Equal(t, sim.SideSell, exit.Side)
	assert.Equal(t, bars[6].OpenTime, exit.Time)
	assert.Equal(t, "Death cross", exit.Note)

	// Bought 10 @ 100, sold 10 @ 60.
	assert.InDelta(t, 0.0, pf.Qty, 1e-12)
	assert.InDelta(t, -400.0, pf.RealizedPnL, 1e-9)
	assert.InDelta(t, 9_600.0, pf.Cash, 1e-9)
}

func TestSMACross_OnFinishClosesOpenPosition(t *testing.T) {
	strat := NewSmaCross(&SMACrossConfig{FastPeriod: 2, SlowPeriod: 3, AllocPct: 0.10})
	pf := sim.NewPortfolio(10_000, "BTCUSDT")

	// Ends right after the golden cross with the position still open.
	bars := closeBars(100, 90, 80, 81, 100, 110)
	runBars(t, strat, pf, bars)

	require.Len(t, pf.Trades(), 1)
	require.Greater(t, pf.Qty, 0.0)

	require.NoError(t, strat.OnFinish(pf))

	trades := pf.Trades()
	require.Len(t, trades, 2)

	exit := trades[1]
	assert.Equal(t, sim.SideSell, exit.Side)
	assert.Equal(t, "Close on finish", exit.Note)
	assert.InDelta(t, 110.0, exit.Price, 1e-9)
	assert.InDelta(t, 0.0, pf.Qty, 1e-12)
}

func TestSMACross_NoTradesWithoutSignChange(t *testing.T) {
	strat := NewSmaCross(&SMACrossConfig{FastPeriod: 2, SlowPeriod: 3, AllocPct: 0.10})
	pf := sim.NewPortfolio(10_000, "BTCUSDT")

	// Monotonic rise keeps the fast average above the slow one from the
	// first comparable bar on, so there is never a cross to trade.
	runBars(t, strat, pf, closeBars(100, 101, 102, 103, 104, 105))

	assert.Empty(t, pf.Trades())
}

func TestNewSmaCross_Defaults(t *testing.T) {
	strat := NewSmaCross(nil)
	assert.Equal(t, 10, strat.FastPeriod)
	assert.Equal(t, 50, strat.SlowPeriod)
	assert.Equal(t, 0.10, strat.AllocPct)

	strat = NewSmaCross(&SMACrossConfig{FastPeriod: -1, SlowPeriod: 0, AllocPct: 0})
	assert.Equal(t, 10, strat.FastPeriod)
	assert.Equal(t, 50, strat.SlowPeriod)
	assert.Equal(t, 0.10, strat.AllocPct)
}
