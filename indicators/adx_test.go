package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/market"
)

func ohlcBar(o, h, l, c float64) market.Bar {
	return market.Bar{Open: o, High: h, Low: l, Close: c}
}

func feedFlat(adx *ADX, n int, price float64) {
	for i := 0; i < n; i++ {
		// completely flat OHLC: TR=0 and +DM/-DM=0, so DI/DX/ADX sit at 0
		adx.Update(ohlcBar(price, price, price, price))
	}
}

func feedUptrend(adx *ADX, n int, start, step, halfRange float64) {
	p := start
	for i := 0; i < n; i++ {
		o := p
		c := p + step
		adx.Update(ohlcBar(o, c+halfRange, o-halfRange, c))
		p = c
	}
}

func TestADX_WarmupAndReady(t *testing.T) {
	t.Parallel()

	n := 14
	adx := NewADX(n)

	require.False(t, adx.Ready())
	require.Equal(t, 2*n, adx.Warmup())
	require.Equal(t, 0.0, adx.Value())

	// Needs a previous bar plus roughly 2N periods; 3N is comfortably over.
	feedUptrend(adx, 3*n, 100.0, 1.0, 0.5)

	require.True(t, adx.Ready())
	require.GreaterOrEqual(t, adx.Value(), 0.0)
	require.LessOrEqual(t, adx.Value(), 100.0)
}

func TestADX_FlatMarketStaysAtZero(t *testing.T) {
	t.Parallel()

	n := 14
	adx := NewADX(n)

	feedFlat(adx, 3*n, 123.45)

	require.True(t, adx.Ready())
	require.InDelta(t, 0.0, adx.PlusDI(), 1e-12)
	require.InDelta(t, 0.0, adx.MinusDI(), 1e-12)
	require.InDelta(t, 0.0, adx.DX(), 1e-12)
	require.InDelta(t, 0.0, adx.Value(), 1e-12)
}

func TestADX_UptrendHasPlusDIOverMinusDI(t *testing.T) {
	t.Parallel()

	n := 14
	adx := NewADX(n)

	// Steady rise with a small range on every bar.
	feedUptrend(adx, 3*n, 100.0, 1.0, 0.5)

	require.True(t, adx.Ready())
	require.Greater(t, adx.PlusDI(), adx.MinusDI(), "+DI should exceed -DI in an uptrend")
	require.Greater(t, adx.Value(), 0.0)
	require.LessOrEqual(t, adx.Value(), 100.0)
}

func TestADX_ChopReadsWeakerThanTrend(t *testing.T) {
	t.Parallel()

	n := 5

	trend := NewADX(n)
	feedUptrend(trend, 4*n, 100.0, 1.0, 0.0)

	chop := NewADX(n)
	px := 100.0
	for i := 0; i < 4*n; i++ {
		// alternate one up, one down
		if i%2 == 0 {
			px += 1
		} else {
			px -= 1
		}
		chop.Update(ohlcBar(px, px, px, px))
	}

	require.True(t, trend.Ready())
	require.True(t, chop.Ready())
	require.Greater(t, trend.Value(), chop.Value())
}

func TestADX_Reset(t *testing.T) {
	t.Parallel()

	n := 14
	adx := NewADX(n)

	feedUptrend(adx, 3*n, 100.0, 1.0, 0.5)
	require.True(t, adx.Ready())
	require.Greater(t, adx.Value(), 0.0)

	adx.Reset()
	require.False(t, adx.Ready())
	require.Equal(t, 0.0, adx.Value())
	require.Equal(t, 0.0, adx.PlusDI())
	require.Equal(t, 0.0, adx.MinusDI())
}
