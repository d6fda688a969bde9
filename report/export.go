// report/export.go
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/rustyeddy/backtester/sim"
)

// TradeRow is the trades.csv export schema. Column names and order are
// a stable contract for downstream notebooks, including the mixed-case
// exchange-rule columns, so they must not drift with the Go field names.
type TradeRow struct {
	Ts                  string  `csv:"ts"`
	Symbol              string  `csv:"symbol"`
	Side                string  `csv:"side"`
	Qty                 float64 `csv:"qty"`
	Price               float64 `csv:"price"`
	Fee                 float64 `csv:"fee"`
	CashAfter           float64 `csv:"cash_after"`
	QtyAfter            float64 `csv:"qty_after"`
	EquityAfter         float64 `csv:"equity_after"`
	RealizedPnL         float64 `csv:"realized_pnl"`
	CumRealizedPnL      float64 `csv:"cum_realized_pnl"`
	Note                string  `csv:"note"`
	IntendedPrice       float64 `csv:"intended_price"`
	ExecPriceRaw        float64 `csv:"exec_price_raw"`
	PriceRoundDiff      float64 `csv:"price_round_diff"`
	QtyRaw              float64 `csv:"qty_raw"`
	QtyRounded          float64 `csv:"qty_rounded"`
	QtyRoundDiff        float64 `csv:"qty_round_diff"`
	SlippageBps         float64 `csv:"slippage_bps"`
	NotionalBeforeRound float64 `csv:"notional_before_round"`
	NotionalAfterRound  float64 `csv:"notional_after_round"`
	RuleCheck           string  `csv:"rule_check"`
	RunID               string  `csv:"run_id"`
	FeeBps              float64 `csv:"fee_bps"`
	TickSizeUsed        string  `csv:"tickSize_used"`
	StepSizeUsed        string  `csv:"stepSize_used"`
	MinNotionalUsed     string  `csv:"minNotional_used"`
	SchemaVersion       int     `csv:"schema_version"`
}

// EquityRow is the equity_curve.csv export schema.
type EquityRow struct {
	Ts     string  `csv:"ts"`
	Equity float64 `csv:"equity"`
}

func tradeRow(t sim.Trade) TradeRow {
	return TradeRow{
		Ts:                  t.Time.UTC().Format(time.RFC3339),
		Symbol:              t.Symbol,
		Side:                string(t.Side),
		Qty:                 t.Qty,
		Price:               t.Price,
		Fee:                 t.Fee,
		CashAfter:           t.CashAfter,
		QtyAfter:            t.QtyAfter,
		EquityAfter:         t.EquityAfter,
		RealizedPnL:         t.RealizedPnL,
		CumRealizedPnL:      t.CumRealizedPnL,
		Note:                t.Note,
		IntendedPrice:       t.Meta.IntendedPrice,
		ExecPriceRaw:        t.Meta.ExecPriceRaw,
		PriceRoundDiff:      t.Meta.PriceRoundDiff,
		QtyRaw:              t.Meta.QtyRaw,
		QtyRounded:          t.Meta.QtyRounded,
		QtyRoundDiff:        t.Meta.QtyRoundDiff,
		SlippageBps:         t.Meta.SlippageBps,
		NotionalBeforeRound: t.Meta.NotionalBeforeRound,
		NotionalAfterRound:  t.Meta.NotionalAfterRound,
		RuleCheck:           t.Meta.RuleCheck,
		RunID:               t.Meta.RunID,
		FeeBps:              t.Meta.FeeBps,
		TickSizeUsed:        t.Meta.TickSizeUsed,
		StepSizeUsed:        t.Meta.StepSizeUsed,
		MinNotionalUsed:     t.Meta.MinNotionalUsed,
		SchemaVersion:       t.Meta.SchemaVersion,
	}
}

// WriteTrades exports trades.csv into dir and returns the path written.
// A run with no fills produces no file at all rather than a lone header.
func WriteTrades(dir string, trades []sim.Trade) (string, error) {
	if len(trades) == 0 {
		log.Info("No trades to export")
		return "", nil
	}

	rows := make([]TradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, tradeRow(t))
	}

	path := filepath.Join(dir, "trades.csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create trades csv: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return "", fmt.Errorf("write trades csv: %w", err)
	}
	log.Infof("Wrote %d trades to %s", len(rows), path)
	return path, nil
}

// WriteEquityCurve exports equity_curve.csv into dir and returns the
// path written. An empty curve is logged and skipped.
func WriteEquityCurve(dir string, curve []sim.EquityPoint) (string, error) {
	if len(curve) == 0 {
		log.Info("Equity curve empty, nothing to export")
		return "", nil
	}

	rows := make([]EquityRow, 0, len(curve))
	for _, pt := range curve {
		rows = append(rows, EquityRow{
			Ts:     pt.Time.UTC().Format(time.RFC3339),
			Equity: pt.Equity,
		})
	}

	path := filepath.Join(dir, "equity_curve.csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create equity csv: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return "", fmt.Errorf("write equity csv: %w", err)
	}
	log.Infof("Wrote %d equity points to %s", len(rows), path)
	return path, nil
}
