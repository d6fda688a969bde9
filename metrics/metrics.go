// Package metrics turns an equity curve and trade ledger into the
// run-level summary written to summary.json: total and annualized
// return, annualized volatility, Sharpe ratio, max drawdown and trade
// counters. Metrics that cannot be computed from the data at hand
// (a single return sample, zero variance) come back nil and serialize
// as JSON null rather than NaN.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/rustyeddy/backtester/sim"
)

// Options selects the return basis and the annualization horizon.
type Options struct {
	// UseDaily resamples the curve to the last equity of each UTC day
	// before computing returns. When fewer than two daily samples exist
	// the computation falls back to per-bar returns.
	UseDaily bool

	// AnnualizationDays scales volatility and Sharpe: 252 for trading
	// days, 365 for always-open venues. Non-positive values fall back
	// to 365.
	AnnualizationDays int
}

// Summary is the metric set for one run. Pointer fields are nil when
// the metric is undefined for the input data.
type Summary struct {
	TotalReturn          *float64 `json:"total_return"`
	AnnualizedReturn     *float64 `json:"annualized_return"`
	AnnualizedVolatility *float64 `json:"annualized_volatility"`
	SharpeRatio          *float64 `json:"sharpe_ratio"`
	MaxDrawdown          *float64 `json:"max_drawdown"`
	NTrades              int      `json:"n_trades"`
	TotalPnL             float64  `json:"total_pnl"`
	PeriodDays           int      `json:"period_days"`
	EquityStart          float64  `json:"equity_start"`
	EquityEnd            float64  `json:"equity_end"`
	StartTimestamp       string   `json:"start_timestamp"`
	EndTimestamp         string   `json:"end_timestamp"`
	ReturnsBasis         string   `json:"returns_basis"`
	AnnualizationDays    int      `json:"annualization_days"`
}

// Compute derives the summary from the recorded equity curve and the
// executed trades. The curve must be non-empty; it is re-sorted by time
// before use so callers do not have to care.
func Compute(curve []sim.EquityPoint, trades []sim.Trade, opts Options) (Summary, error) {
	if len(curve) == 0 {
		return Summary{}, fmt.Errorf("metrics: equity curve is empty")
	}
	if opts.AnnualizationDays <= 0 {
		opts.AnnualizationDays = 365
	}

	pts := make([]sim.EquityPoint, len(curve))
	copy(pts, curve)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Time.Before(pts[j].Time) })

	ret, basis := returnsFromEquity(pts, opts.UseDaily)

	t0 := pts[0].Time.UTC()
	t1 := pts[len(pts)-1].Time.UTC()
	periodDays := int(t1.Sub(t0).Hours() / 24)
	if periodDays < 1 {
		periodDays = 1
	}

	equity0 := pts[0].Equity
	equity1 := pts[len(pts)-1].Equity

	totalReturn := math.NaN()
	if equity0 > 0 {
		totalReturn = equity1/equity0 - 1
	}

	retMean, retStd := math.NaN(), math.NaN()
	if len(ret) > 0 {
		retMean, _ = stats.Mean(ret)
		// Sample deviation (ddof=1): one return sample yields NaN, which
		// nulls out volatility and Sharpe below.
		retStd, _ = stats.StandardDeviationSample(ret)
	}

	annDays := float64(opts.AnnualizationDays)

	annReturn := math.NaN()
	if isFinite(totalReturn) {
		annReturn = math.Pow(1+totalReturn, annDays/float64(periodDays)) - 1
	}

	annVol := math.NaN()
	if isFinite(retStd) {
		annVol = retStd * math.Sqrt(annDays)
	}

	sharpe := math.NaN()
	if isFinite(retMean) && isFinite(retStd) && retStd > 0 {
		sharpe = retMean / retStd * math.Sqrt(annDays)
	}

	maxDD := maxDrawdown(pts)

	totalPnL := 0.0
	for _, tr := range trades {
		totalPnL += tr.RealizedPnL
	}

	return Summary{
		TotalReturn:          roundPtr(totalReturn, 6),
		AnnualizedReturn:     roundPtr(annReturn, 6),
		AnnualizedVolatility: roundPtr(annVol, 6),
		SharpeRatio:          roundPtr(sharpe, 4),
		MaxDrawdown:          roundPtr(maxDD, 6),
		NTrades:              len(trades),
		TotalPnL:             roundTo(totalPnL, 2),
		PeriodDays:           periodDays,
		EquityStart:          roundTo(equity0, 2),
		EquityEnd:            roundTo(equity1, 2),
		StartTimestamp:       t0.Format(time.RFC3339),
		EndTimestamp:         t1.Format(time.RFC3339),
		ReturnsBasis:         basis,
		AnnualizationDays:    opts.AnnualizationDays,
	}, nil
}

// returnsFromEquity builds the return series in the requested basis and
// names the basis actually used.
func returnsFromEquity(pts []sim.EquityPoint, useDaily bool) ([]float64, string) {
	if useDaily {
		if ret := pctChange(dailyLast(pts)); len(ret) >= 1 {
			return ret, "daily"
		}
	}

	values := make([]float64, len(pts))
	for i, p := range pts {
		values[i] = p.Equity
	}
	return pctChange(values), "per-bar"
}

// dailyLast reduces a time-sorted curve to the last sample of each UTC
// day.
func dailyLast(pts []sim.EquityPoint) []float64 {
	var (
		days    []float64
		curDay  time.Time
		haveDay bool
	)
	for _, p := range pts {
		day := p.Time.UTC().Truncate(24 * time.Hour)
		if !haveDay || !day.Equal(curDay) {
			days = append(days, p.Equity)
			curDay = day
			haveDay = true
			continue
		}
		days[len(days)-1] = p.Equity
	}
	return days
}

func pctChange(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// maxDrawdown is the most negative value of equity/peak - 1 over the
// whole curve. Non-finite intermediate values (zero peaks) are skipped.
func maxDrawdown(pts []sim.EquityPoint) float64 {
	maxDD := math.NaN()
	peak := math.Inf(-1)
	for _, p := range pts {
		if p.Equity > peak {
			peak = p.Equity
		}
		d := p.Equity/peak - 1
		if !isFinite(d) {
			continue
		}
		if math.IsNaN(maxDD) || d < maxDD {
			maxDD = d
		}
	}
	return maxDD
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// roundPtr rounds finite values and maps everything else to nil.
func roundPtr(x float64, places int) *float64 {
	if !isFinite(x) {
		return nil
	}
	v := roundTo(x, places)
	return &v
}
