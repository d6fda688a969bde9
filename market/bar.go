package market

import (
	"fmt"
	"time"
)

// Bar is one OHLCV sample for a fixed interval, timestamps in UTC.
// Bars are immutable once produced by a feed.
type Bar struct {
	Symbol   string
	Interval string

	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// Validate rejects bars a well-behaved feed should never emit. The engine
// trusts its input, so feeds run this at load time, not per iteration.
func (b Bar) Validate() error {
	if b.OpenTime.IsZero() {
		return fmt.Errorf("bar %s: zero open time", b.Symbol)
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("bar %s %s: non-positive OHLC", b.Symbol, b.OpenTime.Format(time.RFC3339))
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s %s: negative volume", b.Symbol, b.OpenTime.Format(time.RFC3339))
	}
	if b.High < b.Low {
		return fmt.Errorf("bar %s %s: high %.8f below low %.8f", b.Symbol, b.OpenTime.Format(time.RFC3339), b.High, b.Low)
	}
	return nil
}

// CheckOrdered verifies bars are strictly increasing in open time with no
// duplicates. The backtest loop consumes bars in the order given and never
// reorders, so this is the feed's contract to enforce.
func CheckOrdered(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].OpenTime.After(bars[i-1].OpenTime) {
			return fmt.Errorf("bars out of order at index %d: %s then %s",
				i, bars[i-1].OpenTime.Format(time.RFC3339), bars[i].OpenTime.Format(time.RFC3339))
		}
	}
	return nil
}
