// report/export_test.go
package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/sim"
)

var tradeHeader = []string{
	"ts", "symbol", "side", "qty", "price", "fee",
	"cash_after", "qty_after", "equity_after",
	"realized_pnl", "cum_realized_pnl", "note",
	"intended_price", "exec_price_raw", "price_round_diff",
	"qty_raw", "qty_rounded", "qty_round_diff",
	"slippage_bps", "notional_before_round", "notional_after_round",
	"rule_check", "run_id", "fee_bps",
	"tickSize_used", "stepSize_used", "minNotional_used",
	"schema_version",
}

func sampleTrades() []sim.Trade {
	buyTime := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	sellTime := buyTime.Add(5 * time.Hour)
	return []sim.Trade{
		{
			Time: buyTime, Symbol: "BTCUSDT", Side: sim.SideBuy,
			Qty: 0.0125, Price: 40010.5, Fee: 0.5,
			CashAfter: 9499.37, QtyAfter: 0.0125, EquityAfter: 9999.5,
			Note: "Golden cross",
			Meta: sim.TradeMeta{
				IntendedPrice: 40000, ExecPriceRaw: 40020, PriceRoundDiff: 9.5,
				QtyRaw: 0.0126, QtyRounded: 0.0125, QtyRoundDiff: 0.0001,
				SlippageBps: 5, NotionalBeforeRound: 504.25, NotionalAfterRound: 500.13,
				RuleCheck: "OK", RunID: "01J8Z4YVJ5R2Q0B3C6M7N8P9QA", FeeBps: 10,
				TickSizeUsed: "0.50", StepSizeUsed: "0.0001", MinNotionalUsed: "10.0",
				SchemaVersion: sim.SchemaVersion,
			},
		},
		{
			Time: sellTime, Symbol: "BTCUSDT", Side: sim.SideSell,
			Qty: 0.0125, Price: 41000, Fee: 0.51,
			CashAfter: 10011.49, QtyAfter: 0, EquityAfter: 10011.49,
			RealizedPnL: 12.12, CumRealizedPnL: 12.12,
			Note: "Death cross",
			Meta: sim.TradeMeta{
				IntendedPrice: 41010, ExecPriceRaw: 41000, PriceRoundDiff: -10,
				QtyRaw: 0.0125, QtyRounded: 0.0125,
				SlippageBps: 5, NotionalBeforeRound: 512.5, NotionalAfterRound: 512.5,
				RuleCheck: "OK", RunID: "01J8Z4YVJ5R2Q0B3C6M7N8P9QA", FeeBps: 10,
				TickSizeUsed: "0.50", StepSizeUsed: "0.0001", MinNotionalUsed: "10.0",
				SchemaVersion: sim.SchemaVersion,
			},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteTrades(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteTrades(dir, sampleTrades())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "trades.csv"), path)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, tradeHeader, rows[0])

	buy := rows[1]
	assert.Equal(t, "2024-01-02T03:00:00Z", buy[0])
	assert.Equal(t, "BTCUSDT", buy[1])
	assert.Equal(t, "BUY", buy[2])
	assert.Equal(t, "0.0125", buy[3])
	assert.Equal(t, "40010.5", buy[4])
	assert.Equal(t, "Golden cross", buy[11])
	assert.Equal(t, "OK", buy[21])
	assert.Equal(t, "01J8Z4YVJ5R2Q0B3C6M7N8P9QA", buy[22])
	assert.Equal(t, "0.50", buy[24])
	assert.Equal(t, "0.0001", buy[25])
	assert.Equal(t, "10.0", buy[26])
	assert.Equal(t, "1", buy[27])

	sell := rows[2]
	assert.Equal(t, "SELL", sell[2])
	assert.Equal(t, "12.12", sell[9])
	assert.Equal(t, "12.12", sell[10])
}

func TestWriteTradesEmpty(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteTrades(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	_, statErr := os.Stat(filepath.Join(dir, "trades.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteEquityCurve(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := []sim.EquityPoint{
		{Time: t0, Equity: 10000},
		{Time: t0.Add(time.Hour), Equity: 10050.25},
		{Time: t0.Add(2 * time.Hour), Equity: 9998},
	}

	path, err := WriteEquityCurve(dir, curve)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "equity_curve.csv"), path)

	rows := readCSV(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"ts", "equity"}, rows[0])
	assert.Equal(t, []string{"2024-01-01T00:00:00Z", "10000"}, rows[1])
	assert.Equal(t, []string{"2024-01-01T01:00:00Z", "10050.25"}, rows[2])
	assert.Equal(t, []string{"2024-01-01T02:00:00Z", "9998"}, rows[3])
}

func TestWriteEquityCurveEmpty(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteEquityCurve(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	_, statErr := os.Stat(filepath.Join(dir, "equity_curve.csv"))
	assert.True(t, os.IsNotExist(statErr))
}
