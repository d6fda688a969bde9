// Package backtest drives a strategy over a bar series against a
// simulated portfolio and collects the equity curve and trade ledger.
package backtest

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
)

// BarFeed yields bars one at a time, oldest first. Implementations
// should be deterministic and return ok=false at the end of data.
type BarFeed interface {
	Next() (bar market.Bar, ok bool, err error)
}

// Config controls engine behavior that is not part of the portfolio.
type Config struct {
	// LogEvery logs every Nth bar at INFO level; the other bars go to
	// DEBUG. The first bar is always INFO. 0 keeps only the first bar
	// at INFO.
	LogEvery int
}

// Engine walks a strategy through a bar series. Build one per run.
type Engine struct {
	pf    *sim.Portfolio
	strat strategies.Strategy

	// finisher is non-nil when the strategy has a finish hook. Resolved
	// once at construction instead of probing on every run.
	finisher strategies.Finisher

	logEvery int
}

func New(pf *sim.Portfolio, strat strategies.Strategy, cfg Config) (*Engine, error) {
	if pf == nil {
		return nil, fmt.Errorf("backtest: portfolio is required")
	}
	if strat == nil {
		return nil, fmt.Errorf("backtest: strategy is required")
	}

	e := &Engine{
		pf:       pf,
		strat:    strat,
		logEvery: cfg.LogEvery,
	}
	if f, ok := strat.(strategies.Finisher); ok {
		e.finisher = f
	}
	return e, nil
}

// Result carries everything a run produced.
type Result struct {
	EquityCurve []sim.EquityPoint
	Trades      []sim.Trade
	FinalEquity float64
	Bars        int
	Start       time.Time
	End         time.Time
}

// Run executes the backtest loop:
//  1. mark the portfolio to market at the bar close
//  2. record an equity sample at the bar time
//  3. log the bar state
//  4. strategy.OnBar
//
// After the last bar the optional finish hook runs, then a final equity
// sample is appended whenever the recorded curve does not already end
// at the portfolio's true final equity (the hook may have traded after
// the last sample). Orders the execution model rejects never stop the
// run; strategy and feed errors do.
func (e *Engine) Run(feed BarFeed) (*Result, error) {
	if feed == nil {
		return nil, fmt.Errorf("backtest: feed is required")
	}

	prefix := ""
	if id := e.pf.RunID(); id != "" {
		prefix = fmt.Sprintf("[run:%s] ", id)
	}

	var (
		curve   []sim.EquityPoint
		lastBar market.Bar
		haveBar bool
		start   time.Time
		end     time.Time
	)

	i := 0
	for {
		bar, ok, err := feed.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		i++
		lastBar = bar
		haveBar = true
		if start.IsZero() {
			start = bar.OpenTime
		}
		end = bar.OpenTime

		e.pf.MarkToMarket(bar.Close)

		equityNow := e.pf.Equity()
		curve = append(curve, sim.EquityPoint{Time: bar.OpenTime, Equity: equityNow})

		msg := fmt.Sprintf("%s[%s] %s i=%d close=%.8f cash=%.2f qty=%.8f equity=%.2f",
			prefix, bar.OpenTime.Format(time.RFC3339), bar.Symbol, i,
			bar.Close, e.pf.Cash, e.pf.Qty, equityNow)
		if i == 1 || (e.logEvery > 0 && i%e.logEvery == 0) {
			log.Info(msg)
		} else {
			log.Debug(msg)
		}

		if err := e.strat.OnBar(bar, e.pf); err != nil {
			return nil, fmt.Errorf("strategy %s on bar %d: %w", e.strat.Name(), i, err)
		}
	}

	if e.finisher != nil {
		if err := e.finisher.OnFinish(e.pf); err != nil {
			log.Errorf("%sstrategy %s finish hook failed: %v", prefix, e.strat.Name(), err)
			return nil, fmt.Errorf("strategy %s finish hook: %w", e.strat.Name(), err)
		}
	}

	// The curve must end at the true final equity.
	if haveBar {
		final := e.pf.Equity()
		if len(curve) == 0 || curve[len(curve)-1].Equity != final {
			curve = append(curve, sim.EquityPoint{Time: lastBar.OpenTime, Equity: final})
		}
	}

	return &Result{
		EquityCurve: curve,
		Trades:      e.pf.Trades(),
		FinalEquity: e.pf.Equity(),
		Bars:        i,
		Start:       start,
		End:         end,
	}, nil
}

// RunBars runs over an in-memory slice of bars.
func (e *Engine) RunBars(bars []market.Bar) (*Result, error) {
	return e.Run(&sliceFeed{bars: bars})
}

type sliceFeed struct {
	bars []market.Bar
	idx  int
}

func (s *sliceFeed) Next() (market.Bar, bool, error) {
	if s.idx >= len(s.bars) {
		return market.Bar{}, false, nil
	}
	b := s.bars[s.idx]
	s.idx++
	return b, true, nil
}
