package market

import (
	"fmt"
	"time"
)

// intervalMS maps the Binance spot kline intervals to their length in
// milliseconds. "1M" is approximated as 30 days, matching how the kline
// endpoints paginate.
var intervalMS = map[string]int64{
	"1s":  1_000,
	"1m":  60_000,
	"3m":  3 * 60_000,
	"5m":  5 * 60_000,
	"15m": 15 * 60_000,
	"30m": 30 * 60_000,
	"1h":  3_600_000,
	"2h":  2 * 3_600_000,
	"4h":  4 * 3_600_000,
	"6h":  6 * 3_600_000,
	"8h":  8 * 3_600_000,
	"12h": 12 * 3_600_000,
	"1d":  86_400_000,
	"3d":  3 * 86_400_000,
	"1w":  7 * 86_400_000,
	"1M":  30 * 86_400_000,
}

// ValidInterval reports whether s is a recognized kline interval.
func ValidInterval(s string) bool {
	_, ok := intervalMS[s]
	return ok
}

// IntervalDuration returns the bar length for a kline interval.
func IntervalDuration(s string) (time.Duration, error) {
	ms, ok := intervalMS[s]
	if !ok {
		return 0, fmt.Errorf("unknown interval %q", s)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
