package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, ts, symbol, side, qty, price, fee,
		 cash_after, qty_after, equity_after, realized_pnl, cum_realized_pnl, note,
		 intended_price, exec_price_raw, price_round_diff, qty_raw, qty_rounded, qty_round_diff,
		 slippage_bps, notional_before_round, notional_after_round, rule_check, fee_bps,
		 tick_size_used, step_size_used, min_notional_used, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Time, t.Symbol, t.Side, t.Qty, t.Price, t.Fee,
		t.CashAfter, t.QtyAfter, t.EquityAfter, t.RealizedPnL, t.CumRealizedPnL, t.Note,
		t.IntendedPrice, t.ExecPriceRaw, t.PriceRoundDiff, t.QtyRaw, t.QtyRounded, t.QtyRoundDiff,
		t.SlippageBps, t.NotionalBeforeRound, t.NotionalAfterRound, t.RuleCheck, t.FeeBps,
		t.TickSizeUsed, t.StepSizeUsed, t.MinNotionalUsed, t.SchemaVersion,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, ts, cash, position_qty, equity)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Time, e.Cash, e.PositionQty, e.Equity,
	)
	return err
}

// RecordRun upserts the summary row for a run. Recording the same run
// twice replaces the earlier row, so a rerun with the same ID stays
// consistent with its trades.
func (j *SQLiteJournal) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO backtest_runs
		(run_id, created, symbol, interval, strategy, config, dataset,
		 bars, start_time, end_time, start_cash, end_equity,
		 trades, wins, losses, net_pnl, return_pct, max_dd_pct,
		 fee_bps, slippage_bps, reports_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Symbol, r.Interval, r.Strategy, string(r.Config), r.Dataset,
		r.Bars, r.Start, r.End, r.StartCash, r.EndEquity,
		r.Trades, r.Wins, r.Losses, r.NetPnL, r.ReturnPct, r.MaxDDPct,
		r.FeeBps, r.SlippageBps, r.ReportsDir,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
