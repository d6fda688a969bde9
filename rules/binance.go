package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/backtester/binance"
)

// FromExchangeInfo extracts the SymbolRules for symbol from an
// exchangeInfo response. Filters are scanned in wire order; when both
// LOT_SIZE and MARKET_LOT_SIZE are present the later one wins, and
// likewise for NOTIONAL versus the legacy MIN_NOTIONAL.
//
// PRICE_FILTER and a lot size filter are mandatory; everything else is
// optional.
func FromExchangeInfo(info *binance.ExchangeInfo, symbol string) (SymbolRules, error) {
	var sym *binance.SymbolInfo
	for i := range info.Symbols {
		if info.Symbols[i].Symbol == symbol {
			sym = &info.Symbols[i]
			break
		}
	}
	if sym == nil {
		return SymbolRules{}, fmt.Errorf("symbol %s not found in exchangeInfo", symbol)
	}

	r := SymbolRules{Symbol: symbol}
	var haveTick, haveStep bool

	for _, f := range sym.Filters {
		switch f.FilterType {
		case binance.FilterPrice:
			if f.TickSize != "" {
				d, err := parseFilterDec("tickSize", f.TickSize)
				if err != nil {
					return SymbolRules{}, err
				}
				r.TickSize = d
				haveTick = true
			}

		case binance.FilterLotSize, binance.FilterMarketLotSize:
			if f.StepSize != "" {
				d, err := parseFilterDec("stepSize", f.StepSize)
				if err != nil {
					return SymbolRules{}, err
				}
				r.StepSize = d
				haveStep = true
			}
			if f.MinQty != "" {
				d, err := parseFilterDec("minQty", f.MinQty)
				if err != nil {
					return SymbolRules{}, err
				}
				r.MinQty = d
			}
			if f.MaxQty != "" {
				d, err := parseFilterDec("maxQty", f.MaxQty)
				if err != nil {
					return SymbolRules{}, err
				}
				r.MaxQty = d
			}

		case binance.FilterNotional, binance.FilterMinNotional:
			if f.MinNotional != "" {
				d, err := parseFilterDec("minNotional", f.MinNotional)
				if err != nil {
					return SymbolRules{}, err
				}
				r.MinNotional = d
			}
		}
	}

	if !haveTick || !haveStep {
		return SymbolRules{}, fmt.Errorf(
			"exchangeInfo for %s is missing PRICE_FILTER or LOT_SIZE (tick=%v, step=%v)",
			symbol, haveTick, haveStep)
	}
	return r, nil
}

func parseFilterDec(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}
