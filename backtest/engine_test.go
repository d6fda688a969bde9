package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
)

// hourlyBars builds an hourly series with the given closes.
func hourlyBars(closes ...float64) []market.Bar {
	baseTime := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Symbol:   "BTCUSDT",
			Interval: "1h",
			OpenTime: baseTime.Add(time.Duration(i) * time.Hour),
			Open:     c, High: c, Low: c, Close: c,
			Volume: 100,
		}
	}
	return bars
}

// mockBarStrategy counts OnBar calls and can fail on demand.
type mockBarStrategy struct {
	barCount  int
	shouldErr bool
}

func (m *mockBarStrategy) Name() string { return "mock" }

func (m *mockBarStrategy) OnBar(bar market.Bar, pf *sim.Portfolio) error {
	m.barCount++
	if m.shouldErr {
		return errors.New("strategy error")
	}
	return nil
}

// failingFinisher runs fine per bar but fails its finish hook.
type failingFinisher struct {
	mockBarStrategy
}

func (f *failingFinisher) OnFinish(pf *sim.Portfolio) error {
	return errors.New("finish error")
}

// errorFeed returns an error on Next().
type errorFeed struct{}

func (e *errorFeed) Next() (market.Bar, bool, error) {
	return market.Bar{}, false, errors.New("mock error")
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	t.Run("missing portfolio", func(t *testing.T) {
		t.Parallel()

		_, err := New(nil, &mockBarStrategy{}, Config{})
		require.Error(t, err)
		assert.Equal(t, "backtest: portfolio is required", err.Error())
	})

	t.Run("missing strategy", func(t *testing.T) {
		t.Parallel()

		_, err := New(sim.NewPortfolio(10_000, "BTCUSDT"), nil, Config{})
		require.Error(t, err)
		assert.Equal(t, "backtest: strategy is required", err.Error())
	})
}

func TestNew_ResolvesFinisherOnce(t *testing.T) {
	t.Parallel()

	pf := sim.NewPortfolio(10_000, "BTCUSDT")

	eng, err := New(pf, strategies.Hold{}, Config{})
	require.NoError(t, err)
	assert.Nil(t, eng.finisher)

	eng, err = New(pf, strategies.NewBuySecondBar(0.10), Config{})
	require.NoError(t, err)
	assert.NotNil(t, eng.finisher)
}

func TestRun_TenBarScenario(t *testing.T) {
	t.Parallel()

	pf := sim.NewPortfolio(10_000, "BTCUSDT")
	eng, err := New(pf, strategies.NewBuySecondBar(0.10), Config{LogEvery: 5})
	require.NoError(t, err)

	bars := hourlyBars(100, 101, 102, 103, 104, 105, 106, 107, 108, 109)
	res, err := eng.RunBars(bars)
	require.NoError(t, err)

	assert.Equal(t, 10, res.Bars)
	require.Len(t, res.Trades, 2)
	assert.Equal(t, sim.SideBuy, res.Trades[0].Side)
	assert.Equal(t, sim.SideSell, res.Trades[1].Side)

	// Bought 10% of cash @ 101, sold the lot @ 109 with no fees.
	assert.Greater(t, res.FinalEquity, 10_000.0)
	assert.InDelta(t, 10_079.2079, res.FinalEquity, 0.001)

	// The fee-free close already matches the last per-bar sample, so no
	// corrective point is appended.
	require.Len(t, res.EquityCurve, 10)
	last := res.EquityCurve[len(res.EquityCurve)-1]
	assert.Equal(t, bars[9].OpenTime, last.Time)
	assert.Equal(t, res.FinalEquity, last.Equity)

	assert.True(t, res.Start.Equal(bars[0].OpenTime))
	assert.True(t, res.End.Equal(bars[9].OpenTime))
}

func TestRun_OneBarScenario(t *testing.T) {
	t.Parallel()

	pf := sim.NewPortfolio(10_000, "BTCUSDT")
	eng, err := New(pf, strategies.NewBuySecondBar(0.10), Config{})
	require.NoError(t, err)

	bars := hourlyBars(100)
	res, err := eng.RunBars(bars)
	require.NoError(t, err)

	// The strategy only buys on the second bar, so nothing happens.
	assert.Equal(t, 1, res.Bars)
	assert.Empty(t, res.Trades)
	assert.InDelta(t, 10_000.0, res.FinalEquity, 1e-9)

	require.Len(t, res.EquityCurve, 1)
	assert.Equal(t, bars[0].OpenTime, res.EquityCurve[0].Time)
	assert.InDelta(t, 10_000.0, res.EquityCurve[0].Equity, 1e-9)
}

func TestRun_EmptyFeed(t *testing.T) {
	t.Parallel()

	pf := sim.NewPortfolio(10_000, "BTCUSDT")
	eng, err := New(pf, strategies.NewBuySecondBar(0.10), Config{})
	require.NoError(t, err)

	res, err := eng.RunBars(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Bars)
	assert.Empty(t, res.EquityCurve)
	assert.Empty(t, res.Trades)
	assert.True(t, res.Start.IsZero())
	assert.True(t, res.End.IsZero())
	assert.Equal(t, 10_000.0, res.FinalEquity)
}

func TestRun_FinalSampleAppendedAfterFinishTrade(t *testing.T) {
	t.Parallel()

	pf := sim.NewPortfolio(10_000, "BTCUSDT")
	pf.FeeBps = 10 // the closing sell now costs a fee, moving final equity

	eng, err := New(pf, strategies.NewBuySecondBar(0.10), Config{})
	require.NoError(t, err)

	bars := hourlyBars(100, 101, 102)
	res, err := eng.RunBars(bars)
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)

	// Three per-bar samples plus the corrective final sample.
	require.Len(t, res.EquityCurve, 4)
	last := res.EquityCurve[3]
	assert.Equal(t, bars[2].OpenTime, last.Time)
	assert.Equal(t, res.FinalEquity, last.Equity)
	assert.Less(t, last.Equity, res.EquityCurve[2].Equity)
}

func TestRun_StrategySeesEveryBar(t *testing.T) {
	t.Parallel()

	pf := sim.NewPortfolio(10_000, "BTCUSDT")
	strat := &mockBarStrategy{}
	eng, err := New(pf, strat, Config{})
	require.NoError(t, err)

	res, err := eng.RunBars(hourlyBars(100, 101, 102))
	require.NoError(t, err)

	assert.Equal(t, 3, strat.barCount)
	assert.Len(t, res.EquityCurve, 3)
}

func TestRun_StrategyErrorPropagates(t *testing.T) {
	t.Parallel()

	pf := sim.NewPortfolio(10_000, "BTCUSDT")
	eng, err := New(pf, &mockBarStrategy{shouldErr: true}, Config{})
	require.NoError(t, err)

	_, err = eng.RunBars(hourlyBars(100, 101))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy mock on bar 1")
	assert.Contains(t, err.Error(), "strategy error")
}

func TestRun_FinisherErrorPropagates(t *testing.T) {
	t.Parallel()

	pf := sim.NewPortfolio(10_000, "BTCUSDT")
	eng, err := New(pf, &failingFinisher{}, Config{})
	require.NoError(t, err)

	_, err = eng.RunBars(hourlyBars(100))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finish hook")
	assert.Contains(t, err.Error(), "finish error")
}

func TestRun_FeedErrorPropagates(t *testing.T) {
	t.Parallel()

	pf := sim.NewPortfolio(10_000, "BTCUSDT")
	eng, err := New(pf, &mockBarStrategy{}, Config{})
	require.NoError(t, err)

	_, err = eng.Run(&errorFeed{})
	require.Error(t, err)
	assert.Equal(t, "mock error", err.Error())
}

func TestRun_NilFeed(t *testing.T) {
	t.Parallel()

	pf := sim.NewPortfolio(10_000, "BTCUSDT")
	eng, err := New(pf, &mockBarStrategy{}, Config{})
	require.NoError(t, err)

	_, err = eng.Run(nil)
	require.Error(t, err)
	assert.Equal(t, "backtest: feed is required", err.Error())
}
