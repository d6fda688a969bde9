// Package strategies holds the decision policies the backtest engine can
// drive. A strategy sees every bar in order together with the portfolio
// and reacts by buying or selling; it never touches the data feed or the
// exchange rules directly.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
)

// Strategy is the minimal interface a backtest strategy must implement.
// It is called once per bar.
type Strategy interface {
	Name() string
	OnBar(bar market.Bar, pf *sim.Portfolio) error
}

// Finisher is an optional hook a strategy can implement to run once after
// the last bar, typically to flatten an open position. The engine resolves
// it a single time when it is constructed, not on every bar.
type Finisher interface {
	OnFinish(pf *sim.Portfolio) error
}

type StrategyRegistry map[string]Strategy

var (
	registry = make(map[string]Strategy)
)

func Register(name string, strat Strategy) {
	registry[strings.ToLower(name)] = strat
}

func GetStrategy(name string) (strat Strategy) {
	var ok bool
	if strat, ok = registry[strings.ToLower(name)]; !ok {
		return nil
	}
	return strat
}

// ByName builds one of the shipped strategies from CLI-level settings.
// Strategies added through Register take precedence over the built-ins.
func ByName(name string, allocPct float64, fast, slow int) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	if strat := GetStrategy(key); strat != nil {
		return strat, nil
	}

	switch key {
	case "buy-second-bar", "buysecondbar":
		return NewBuySecondBar(allocPct), nil

	case "hold", "none":
		return Hold{}, nil

	case "sma-cross", "smacross":
		return NewSmaCross(&SMACrossConfig{
			FastPeriod: fast,
			SlowPeriod: slow,
			AllocPct:   allocPct,
		}), nil

	case "ema-cross", "emacross":
		return NewEmaCross(&EMACrossConfig{
			FastPeriod: fast,
			SlowPeriod: slow,
			AllocPct:   allocPct,
		}), nil

	case "ema-cross-adx", "emacrossadx":
		return NewEMACrossADX(&EMACrossADXConfig{
			FastPeriod: fast,
			SlowPeriod: slow,
			AllocPct:   allocPct,
		}), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: buy-second-bar, hold, sma-cross, ema-cross, ema-cross-adx)", name)
	}
}
