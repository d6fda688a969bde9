package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/sim"
)

var testBase = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func curveAt(base time.Time, step time.Duration, equities ...float64) []sim.EquityPoint {
	pts := make([]sim.EquityPoint, len(equities))
	for i, e := range equities {
		pts[i] = sim.EquityPoint{Time: base.Add(time.Duration(i) * step), Equity: e}
	}
	return pts
}

func deref(t *testing.T, p *float64) float64 {
	t.Helper()
	require.NotNil(t, p)
	return *p
}

func TestCompute_EmptyCurve(t *testing.T) {
	t.Parallel()

	_, err := Compute(nil, nil, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "equity curve is empty")
}

func TestCompute_FlatCurvePerBar(t *testing.T) {
	t.Parallel()

	curve := curveAt(testBase, time.Hour, 10_000, 10_000, 10_000)
	s, err := Compute(curve, nil, Options{UseDaily: false, AnnualizationDays: 252})
	require.NoError(t, err)

	assert.Equal(t, "per-bar", s.ReturnsBasis)
	assert.Equal(t, 0.0, deref(t, s.TotalReturn))
	assert.Equal(t, 0.0, deref(t, s.AnnualizedReturn))
	assert.Equal(t, 0.0, deref(t, s.AnnualizedVolatility))
	// Zero variance leaves Sharpe undefined.
	assert.Nil(t, s.SharpeRatio)
	assert.Equal(t, 0.0, deref(t, s.MaxDrawdown))

	assert.Equal(t, 0, s.NTrades)
	assert.Equal(t, 0.0, s.TotalPnL)
	assert.Equal(t, 1, s.PeriodDays) // two hours of data still count as one day
	assert.Equal(t, 10_000.0, s.EquityStart)
	assert.Equal(t, 10_000.0, s.EquityEnd)
	assert.Equal(t, "2024-03-01T00:00:00Z", s.StartTimestamp)
	assert.Equal(t, 252, s.AnnualizationDays)
}

func TestCompute_DailyBasisKnownValues(t *testing.T) {
	t.Parallel()

	// Three daily closes: +10% then -5%.
	curve := curveAt(testBase, 24*time.Hour, 10_000, 11_000, 10_450)
	s, err := Compute(curve, nil, Options{UseDaily: true, AnnualizationDays: 4})
	require.NoError(t, err)

	assert.Equal(t, "daily", s.ReturnsBasis)
	assert.Equal(t, 2, s.PeriodDays)

	// total = 10450/10000 - 1
	assert.InDelta(t, 0.045, deref(t, s.TotalReturn), 1e-9)
	// annualized = 1.045^(4/2) - 1
	assert.InDelta(t, 0.092025, deref(t, s.AnnualizedReturn), 1e-9)
	// sample std of {0.10, -0.05} is sqrt(0.01125); vol scales by sqrt(4)
	assert.InDelta(t, 0.212132, deref(t, s.AnnualizedVolatility), 1e-6)
	// sharpe = 0.025/0.106066 * 2
	assert.InDelta(t, 0.4714, deref(t, s.SharpeRatio), 1e-4)
	// deepest dip: 10450/11000 - 1
	assert.InDelta(t, -0.05, deref(t, s.MaxDrawdown), 1e-9)
}

func TestCompute_SingleDailyReturn(t *testing.T) {
	t.Parallel()

	// Two UTC days means exactly one daily return: the mean exists but
	// the sample deviation does not.
	curve := curveAt(testBase, 24*time.Hour, 10_000, 10_100)
	s, err := Compute(curve, nil, Options{UseDaily: true, AnnualizationDays: 252})
	require.NoError(t, err)

	assert.Equal(t, "daily", s.ReturnsBasis)
	assert.Nil(t, s.AnnualizedVolatility)
	assert.Nil(t, s.SharpeRatio)
	assert.InDelta(t, 0.01, deref(t, s.TotalReturn), 1e-9)
}

func TestCompute_DailyFallsBackToPerBar(t *testing.T) {
	t.Parallel()

	// All samples within a single UTC day: no daily returns exist, so
	// the per-bar basis takes over.
	curve := curveAt(testBase.Add(3*time.Hour), time.Hour, 10_000, 10_050, 10_100)
	s, err := Compute(curve, nil, Options{UseDaily: true, AnnualizationDays: 252})
	require.NoError(t, err)

	assert.Equal(t, "per-bar", s.ReturnsBasis)
	assert.NotNil(t, s.AnnualizedVolatility)
}

func TestCompute_DailyResampleTakesLastOfDay(t *testing.T) {
	t.Parallel()

	// Day one has two samples; only its close (10_100) feeds the daily
	// series, so the daily return is 10_201/10_100 - 1.
	curve := []sim.EquityPoint{
		{Time: testBase.Add(10 * time.Hour), Equity: 10_000},
		{Time: testBase.Add(23 * time.Hour), Equity: 10_100},
		{Time: testBase.Add(34 * time.Hour), Equity: 10_201},
	}
	s, err := Compute(curve, nil, Options{UseDaily: true, AnnualizationDays: 252})
	require.NoError(t, err)

	assert.Equal(t, "daily", s.ReturnsBasis)
	// 24-hour window floors to exactly one day.
	assert.Equal(t, 1, s.PeriodDays)
	// Total return still spans the full curve, not the daily series.
	assert.InDelta(t, 0.0201, deref(t, s.TotalReturn), 1e-9)
}

func TestCompute_MaxDrawdown(t *testing.T) {
	t.Parallel()

	curve := curveAt(testBase, time.Hour, 100, 120, 90, 110)
	s, err := Compute(curve, nil, Options{AnnualizationDays: 252})
	require.NoError(t, err)

	// 90 against the 120 peak.
	assert.InDelta(t, -0.25, deref(t, s.MaxDrawdown), 1e-9)
	assert.InDelta(t, 0.1, deref(t, s.TotalReturn), 1e-9)
}

func TestCompute_TradeTotals(t *testing.T) {
	t.Parallel()

	curve := curveAt(testBase, time.Hour, 10_000, 10_007.3)
	trades := []sim.Trade{
		{RealizedPnL: 10.5},
		{RealizedPnL: -3.2},
		{RealizedPnL: 0},
	}
	s, err := Compute(curve, trades, Options{AnnualizationDays: 252})
	require.NoError(t, err)

	assert.Equal(t, 3, s.NTrades)
	assert.InDelta(t, 7.3, s.TotalPnL, 1e-9)
}

func TestCompute_SortsCurveByTime(t *testing.T) {
	t.Parallel()

	curve := []sim.EquityPoint{
		{Time: testBase.Add(2 * time.Hour), Equity: 10_200},
		{Time: testBase, Equity: 10_000},
		{Time: testBase.Add(time.Hour), Equity: 10_100},
	}
	s, err := Compute(curve, nil, Options{AnnualizationDays: 252})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01T00:00:00Z", s.StartTimestamp)
	assert.Equal(t, "2024-03-01T02:00:00Z", s.EndTimestamp)
	assert.Equal(t, 10_000.0, s.EquityStart)
	assert.Equal(t, 10_200.0, s.EquityEnd)
}

func TestCompute_PeriodDaysFloors(t *testing.T) {
	t.Parallel()

	// 36 hours floors to 1 day.
	curve := []sim.EquityPoint{
		{Time: testBase, Equity: 10_000},
		{Time: testBase.Add(36 * time.Hour), Equity: 10_100},
	}
	s, err := Compute(curve, nil, Options{AnnualizationDays: 252})
	require.NoError(t, err)
	assert.Equal(t, 1, s.PeriodDays)

	// 49 hours floors to 2 days.
	curve[1].Time = testBase.Add(49 * time.Hour)
	s, err = Compute(curve, nil, Options{AnnualizationDays: 252})
	require.NoError(t, err)
	assert.Equal(t, 2, s.PeriodDays)
}

func TestCompute_DefaultAnnualizationDays(t *testing.T) {
	t.Parallel()

	curve := curveAt(testBase, time.Hour, 10_000, 10_100)
	s, err := Compute(curve, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, 365, s.AnnualizationDays)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	curve := curveAt(testBase, time.Hour, 10_000, 10_000, 10_000)
	s, err := Compute(curve, nil, Options{AnnualizationDays: 252})
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := WriteJSON(s, filepath.Join(dir, "reports"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// The undefined Sharpe serializes as a real JSON null.
	assert.Contains(t, string(data), `"sharpe_ratio": null`)
	assert.Contains(t, string(data), `"returns_basis": "per-bar"`)

	var back Summary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Nil(t, back.SharpeRatio)
	assert.Equal(t, s.EquityStart, back.EquityStart)
	assert.Equal(t, s.NTrades, back.NTrades)
}
