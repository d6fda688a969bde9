package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/sim"
)

func TestBuySecondBar_BuysOnSecondBarOnly(t *testing.T) {
	strat := NewBuySecondBar(0.10)
	pf := sim.NewPortfolio(10_000, "BTCUSDT")

	bars := closeBars(100, 100, 100, 100)
	runBars(t, strat, pf, bars)

	trades := pf.Trades()
	require.Len(t, trades, 1)

	tr := trades[0]
	assert.Equal(t, sim.SideBuy, tr.Side)
	assert.Equal(t, bars[1].OpenTime, tr.Time)
	// 10% of 10k cash at price 100, no fees configured.
	assert.InDelta(t, 10.0, tr.Qty, 1e-9)
	assert.Equal(t, "Second bar buy (alloc %)", tr.Note)
	assert.InDelta(t, 9_000.0, pf.Cash, 1e-9)
}

func TestBuySecondBar_OnFinishClosesPosition(t *testing.T) {
	strat := NewBuySecondBar(0.10)
	pf := sim.NewPortfolio(10_000, "BTCUSDT")

	bars := closeBars(100, 100, 110)
	runBars(t, strat, pf, bars)
	require.NoError(t, strat.OnFinish(pf))

	trades := pf.Trades()
	require.Len(t, trades, 2)

	exit := trades[1]
	assert.Equal(t, sim.SideSell, exit.Side)
	assert.Equal(t, bars[2].OpenTime, exit.Time)
	assert.InDelta(t, 110.0, exit.Price, 1e-9)
	assert.Equal(t, "Close on finish", exit.Note)

	assert.InDelta(t, 0.0, pf.Qty, 1e-12)
	// Bought 10 @ 100, sold 10 @ 110.
	assert.InDelta(t, 100.0, pf.RealizedPnL, 1e-9)
}

func TestBuySecondBar_SkipsWhenNothingAffordable(t *testing.T) {
	strat := NewBuySecondBar(0.10)
	pf := sim.NewPortfolio(0, "BTCUSDT")

	runBars(t, strat, pf, closeBars(100, 100, 100))
	require.NoError(t, strat.OnFinish(pf))

	assert.Empty(t, pf.Trades())
}

func TestBuySecondBar_OnFinishBeforeAnyBars(t *testing.T) {
	strat := NewBuySecondBar(0.10)
	pf := sim.NewPortfolio(10_000, "BTCUSDT")

	require.NoError(t, strat.OnFinish(pf))
	assert.Empty(t, pf.Trades())
}

func TestNewBuySecondBar_DefaultAlloc(t *testing.T) {
	strat := NewBuySecondBar(0)
	assert.Equal(t, 0.10, strat.AllocPct)

	strat = NewBuySecondBar(-1)
	assert.Equal(t, 0.10, strat.AllocPct)
}
