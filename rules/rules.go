// Package rules models the per-symbol trading filters of Binance Spot
// (tick size, lot size, minimum notional) and the floor rounding the
// execution model applies before filling an order.
//
// Rounding is always toward zero to the permitted multiple. Rounding up
// could produce a price or quantity the exchange would reject, so the
// simulator only ever shrinks values.
package rules

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SymbolRules holds the execution filters for one symbol. Values are
// decimals so that repeated rounding stays exact; a zero MinQty, MaxQty
// or MinNotional means the exchange did not publish that limit.
type SymbolRules struct {
	Symbol      string          `json:"symbol"`
	TickSize    decimal.Decimal `json:"tick_size"`
	StepSize    decimal.Decimal `json:"step_size"`
	MinQty      decimal.Decimal `json:"min_qty"`
	MaxQty      decimal.Decimal `json:"max_qty"`
	MinNotional decimal.Decimal `json:"min_notional"`
}

func (r SymbolRules) String() string {
	return fmt.Sprintf("%s tick=%s step=%s minQty=%s maxQty=%s minNotional=%s",
		r.Symbol, r.TickSize, r.StepSize, r.MinQty, r.MaxQty, r.MinNotional)
}

// FloorToStep rounds value down to the nearest multiple of step.
// A step of zero or less leaves the value untouched.
//
//	FloorToStep(1.234, 0.01) = 1.23
//	FloorToStep(102, 5)      = 100
//	FloorToStep(0.0009, 0.001) = 0
func FloorToStep(value, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return value
	}
	return value.Div(step).Floor().Mul(step)
}

// RoundPrice floors price to the symbol's tick size.
func (r SymbolRules) RoundPrice(price float64) decimal.Decimal {
	return FloorToStep(decimal.NewFromFloat(price), r.TickSize)
}

// RoundQty floors qty to the symbol's step size.
func (r SymbolRules) RoundQty(qty float64) decimal.Decimal {
	return FloorToStep(decimal.NewFromFloat(qty), r.StepSize)
}

// OrderValid reports whether an already-rounded (price, qty) pair clears
// the minimum quantity and minimum notional limits. Limits the exchange
// did not publish are not enforced.
func (r SymbolRules) OrderValid(price, qty decimal.Decimal) bool {
	if r.MinQty.IsPositive() && qty.LessThan(r.MinQty) {
		return false
	}
	if r.MinNotional.IsPositive() && price.Mul(qty).LessThan(r.MinNotional) {
		return false
	}
	return true
}

// Apply rounds price and qty to the symbol's filters and validates the
// result. The rounded pair is returned even when invalid so callers can
// record what was attempted.
func (r SymbolRules) Apply(price, qty float64) (decimal.Decimal, decimal.Decimal, bool) {
	p := r.RoundPrice(price)
	q := r.RoundQty(qty)
	return p, q, r.OrderValid(p, q)
}
