// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var tradeHeader = []string{
	"run_id", "ts", "symbol", "side", "qty", "price", "fee",
	"cash_after", "qty_after", "equity_after", "realized_pnl", "cum_realized_pnl", "note",
	"intended_price", "exec_price_raw", "price_round_diff", "qty_raw", "qty_rounded", "qty_round_diff",
	"slippage_bps", "notional_before_round", "notional_after_round", "rule_check", "fee_bps",
	"tick_size_used", "step_size_used", "min_notional_used", "schema_version",
}

var equityHeader = []string{"run_id", "ts", "cash", "position_qty", "equity"}

type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write(tradeHeader); err != nil {
		return nil, err
	}
	if err := ew.Write(equityHeader); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, ew, tf, ef}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.RunID,
		t.Time.Format(time.RFC3339),
		t.Symbol,
		t.Side,
		f(t.Qty),
		f(t.Price),
		f(t.Fee),
		f(t.CashAfter),
		f(t.QtyAfter),
		f(t.EquityAfter),
		f(t.RealizedPnL),
		f(t.CumRealizedPnL),
		t.Note,
		f(t.IntendedPrice),
		f(t.ExecPriceRaw),
		f(t.PriceRoundDiff),
		f(t.QtyRaw),
		f(t.QtyRounded),
		f(t.QtyRoundDiff),
		f(t.SlippageBps),
		f(t.NotionalBeforeRound),
		f(t.NotionalAfterRound),
		t.RuleCheck,
		f(t.FeeBps),
		t.TickSizeUsed,
		t.StepSizeUsed,
		t.MinNotionalUsed,
		strconv.Itoa(t.SchemaVersion),
	})
	if err != nil {
		return err
	}

	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	err := j.equity.Write([]string{
		e.RunID,
		e.Time.Format(time.RFC3339),
		f(e.Cash),
		f(e.PositionQty),
		f(e.Equity),
	})
	if err != nil {
		return err
	}

	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.ef.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
