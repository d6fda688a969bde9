package binance

import (
	"context"
	"net/url"
)

// Filter types carried in exchangeInfo that matter for order sizing.
// NOTIONAL replaced MIN_NOTIONAL on spot; both are still seen in the
// wild, so parsers should accept either.
const (
	FilterPrice         = "PRICE_FILTER"
	FilterLotSize       = "LOT_SIZE"
	FilterMarketLotSize = "MARKET_LOT_SIZE"
	FilterNotional      = "NOTIONAL"
	FilterMinNotional   = "MIN_NOTIONAL"
)

// Filter is one entry of a symbol's filters array. Binance serves the
// numeric limits as quoted decimal strings; only the fields this
// backtester consumes are mapped, the rest are dropped on decode.
type Filter struct {
	FilterType  string `json:"filterType"`
	TickSize    string `json:"tickSize,omitempty"`
	StepSize    string `json:"stepSize,omitempty"`
	MinQty      string `json:"minQty,omitempty"`
	MaxQty      string `json:"maxQty,omitempty"`
	MinNotional string `json:"minNotional,omitempty"`
}

// SymbolInfo describes one tradable symbol in exchangeInfo.
type SymbolInfo struct {
	Symbol     string   `json:"symbol"`
	Status     string   `json:"status"`
	BaseAsset  string   `json:"baseAsset"`
	QuoteAsset string   `json:"quoteAsset"`
	Filters    []Filter `json:"filters"`
}

// ExchangeInfo is the /api/v3/exchangeInfo response.
type ExchangeInfo struct {
	Timezone   string       `json:"timezone"`
	ServerTime int64        `json:"serverTime"`
	Symbols    []SymbolInfo `json:"symbols"`
}

// ExchangeInfo fetches exchange metadata. If symbol is non-empty the
// response is filtered server-side to that symbol.
func (c *Client) ExchangeInfo(ctx context.Context, symbol string) (*ExchangeInfo, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}

	var info ExchangeInfo
	if err := c.get(ctx, "/api/v3/exchangeInfo", params, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
