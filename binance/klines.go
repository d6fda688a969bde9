package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rustyeddy/backtester/market"
)

// pageLimit is the maximum klines Binance returns per call.
const pageLimit = 1000

// KlinesRequest represents parameters for downloading OHLCV bars.
//
// Two modes:
//   - Limit only: a single call returning the most recent Limit bars.
//   - Start and/or End set: Limit is ignored and pages of 1000 bars are
//     fetched until the range is covered.
type KlinesRequest struct {
	Symbol   string     // Required, e.g. "BTCUSDT"
	Interval string     // Required, e.g. "1h"
	Limit    int        // Bars for single-call mode (default 500)
	Start    *time.Time // Range start, inclusive
	End      *time.Time // Range end, exclusive per Binance endTime
}

// Klines downloads bars for the request, paginating when a time range is
// given. Results are sorted by open time and deduplicated across page
// boundaries.
func (c *Client) Klines(ctx context.Context, req KlinesRequest) ([]market.Bar, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if req.Interval == "" {
		return nil, fmt.Errorf("interval is required")
	}

	if req.Start == nil && req.End == nil {
		limit := req.Limit
		if limit <= 0 {
			limit = 500
		}
		return c.klinesPage(ctx, req.Symbol, req.Interval, limit, 0, 0)
	}

	step, err := market.IntervalDuration(req.Interval)
	if err != nil {
		return nil, err
	}
	stepMS := step.Milliseconds()

	var startMS, endMS int64
	if req.Start != nil {
		startMS = req.Start.UnixMilli()
	}
	if req.End != nil {
		endMS = req.End.UnixMilli()
	}

	var all []market.Bar
	cursor := startMS
	for {
		chunk, err := c.klinesPage(ctx, req.Symbol, req.Interval, pageLimit, cursor, endMS)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		all = append(all, chunk...)

		// Advance past the last open time returned. Bail out if the
		// cursor stops moving so a bad response cannot loop forever.
		next := chunk[len(chunk)-1].OpenTime.UnixMilli() + stepMS
		if cursor != 0 && next <= cursor {
			break
		}
		cursor = next

		if endMS != 0 && cursor >= endMS {
			break
		}
		if len(chunk) < pageLimit {
			break
		}
	}

	return dedupeBars(all), nil
}

// klinesPage performs a single /api/v3/klines call. startMS and endMS of
// zero mean unset.
func (c *Client) klinesPage(ctx context.Context, symbol, interval string, limit int, startMS, endMS int64) ([]market.Bar, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))
	if startMS != 0 {
		params.Set("startTime", strconv.FormatInt(startMS, 10))
	}
	if endMS != 0 {
		params.Set("endTime", strconv.FormatInt(endMS, 10))
	}

	var raw [][]any
	if err := c.get(ctx, "/api/v3/klines", params, &raw); err != nil {
		return nil, err
	}

	bars := make([]market.Bar, 0, len(raw))
	for _, row := range raw {
		bar, err := parseKline(symbol, interval, row)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// parseKline converts one kline row into a Bar. The wire format is a
// mixed array:
//
//	[0] open time (ms)   [4] close        [8] trade count
//	[1] open             [5] volume       [9] taker buy base
//	[2] high             [6] close time   [10] taker buy quote
//	[3] low              [7] quote vol    [11] ignore
func parseKline(symbol, interval string, row []any) (market.Bar, error) {
	if len(row) < 7 {
		return market.Bar{}, fmt.Errorf("kline row has %d fields, want at least 7", len(row))
	}

	openMS, err := fieldInt64(row[0])
	if err != nil {
		return market.Bar{}, fmt.Errorf("parse open time: %w", err)
	}
	open, err := fieldFloat(row[1])
	if err != nil {
		return market.Bar{}, fmt.Errorf("parse open: %w", err)
	}
	high, err := fieldFloat(row[2])
	if err != nil {
		return market.Bar{}, fmt.Errorf("parse high: %w", err)
	}
	low, err := fieldFloat(row[3])
	if err != nil {
		return market.Bar{}, fmt.Errorf("parse low: %w", err)
	}
	clos, err := fieldFloat(row[4])
	if err != nil {
		return market.Bar{}, fmt.Errorf("parse close: %w", err)
	}
	volume, err := fieldFloat(row[5])
	if err != nil {
		return market.Bar{}, fmt.Errorf("parse volume: %w", err)
	}
	closeMS, err := fieldInt64(row[6])
	if err != nil {
		return market.Bar{}, fmt.Errorf("parse close time: %w", err)
	}

	return market.Bar{
		Symbol:    symbol,
		Interval:  interval,
		OpenTime:  time.UnixMilli(openMS).UTC(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     clos,
		Volume:    volume,
		CloseTime: time.UnixMilli(closeMS).UTC(),
	}, nil
}

// fieldFloat reads a kline field that Binance serves as a quoted decimal.
func fieldFloat(v any) (float64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseFloat(x, 64)
	case json.Number:
		return x.Float64()
	}
	return 0, fmt.Errorf("unexpected field type %T", v)
}

// fieldInt64 reads a kline timestamp field.
func fieldInt64(v any) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Int64()
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("unexpected field type %T", v)
}

// dedupeBars sorts bars by open time and drops duplicates, keeping the
// most recently fetched row for each open time.
func dedupeBars(bars []market.Bar) []market.Bar {
	if len(bars) == 0 {
		return bars
	}

	byOpen := make(map[int64]market.Bar, len(bars))
	for _, b := range bars {
		byOpen[b.OpenTime.UnixMilli()] = b
	}

	out := make([]market.Bar, 0, len(byOpen))
	for _, b := range byOpen {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})
	return out
}
