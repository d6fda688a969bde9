// Package indicators provides streaming technical indicators for
// strategies. Each indicator consumes closed bars one at a time and is
// deterministic, so the same bar sequence always produces the same
// values.
package indicators

import "github.com/rustyeddy/backtester/market"

// Indicator computes a single streaming value from bars.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)" or "EMA(50)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be
	// true. Some indicators may become ready earlier; that's fine.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar and updates internal state.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value. If !Ready() it returns
	// 0; callers should always check Ready().
	Value() float64
}
