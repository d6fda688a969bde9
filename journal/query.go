package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const tradeColumns = `id, run_id, ts, symbol, side, qty, price, fee,
	cash_after, qty_after, equity_after, realized_pnl, cum_realized_pnl, note,
	intended_price, exec_price_raw, price_round_diff, qty_raw, qty_rounded, qty_round_diff,
	slippage_bps, notional_before_round, notional_after_round, rule_check, fee_bps,
	tick_size_used, step_size_used, min_notional_used, schema_version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (TradeRecord, error) {
	var rec TradeRecord
	err := row.Scan(
		&rec.ID, &rec.RunID, &rec.Time, &rec.Symbol, &rec.Side, &rec.Qty, &rec.Price, &rec.Fee,
		&rec.CashAfter, &rec.QtyAfter, &rec.EquityAfter, &rec.RealizedPnL, &rec.CumRealizedPnL, &rec.Note,
		&rec.IntendedPrice, &rec.ExecPriceRaw, &rec.PriceRoundDiff, &rec.QtyRaw, &rec.QtyRounded, &rec.QtyRoundDiff,
		&rec.SlippageBps, &rec.NotionalBeforeRound, &rec.NotionalAfterRound, &rec.RuleCheck, &rec.FeeBps,
		&rec.TickSizeUsed, &rec.StepSizeUsed, &rec.MinNotionalUsed, &rec.SchemaVersion,
	)
	return rec, err
}

func collectTrades(rows *sql.Rows) ([]TradeRecord, error) {
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade record by its journal ID.
func (j *SQLiteJournal) GetTrade(id int64) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE id = ?`, id)

	rec, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %d not found", id)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesBetween returns trades whose timestamp is within [start, end).
func (j *SQLiteJournal) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE ts >= ? AND ts < ?
		ORDER BY ts ASC, id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

// ListTradesByRun returns the full trade tape of one run in execution order.
func (j *SQLiteJournal) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

// ListEquityByRun returns the equity snapshots of one run ordered by time.
func (j *SQLiteJournal) ListEquityByRun(runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT run_id, ts, cash, position_qty, equity
		FROM equity
		WHERE run_id = ?
		ORDER BY ts ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Time, &e.Cash, &e.PositionQty, &e.Equity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRun returns the summary row for one run.
func (j *SQLiteJournal) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`
		SELECT run_id, created, symbol, interval, strategy, config, dataset,
		       bars, start_time, end_time, start_cash, end_equity,
		       trades, wins, losses, net_pnl, return_pct, max_dd_pct,
		       fee_bps, slippage_bps, reports_dir
		FROM backtest_runs
		WHERE run_id = ?`, runID)

	rec, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns the most recent run rows, newest first. A limit of
// zero or less means no limit.
func (j *SQLiteJournal) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`
		SELECT run_id, created, symbol, interval, strategy, config, dataset,
		       bars, start_time, end_time, start_cash, end_equity,
		       trades, wins, losses, net_pnl, return_pct, max_dd_pct,
		       fee_bps, slippage_bps, reports_dir
		FROM backtest_runs
		ORDER BY created DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var config string
	err := row.Scan(
		&rec.RunID, &rec.Created, &rec.Symbol, &rec.Interval, &rec.Strategy, &config, &rec.Dataset,
		&rec.Bars, &rec.Start, &rec.End, &rec.StartCash, &rec.EndEquity,
		&rec.Trades, &rec.Wins, &rec.Losses, &rec.NetPnL, &rec.ReturnPct, &rec.MaxDDPct,
		&rec.FeeBps, &rec.SlippageBps, &rec.ReportsDir,
	)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Config = []byte(config)
	return rec, nil
}
