// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	ts DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	qty REAL NOT NULL,
	price REAL NOT NULL,
	fee REAL NOT NULL,
	cash_after REAL NOT NULL,
	qty_after REAL NOT NULL,
	equity_after REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	cum_realized_pnl REAL NOT NULL,
	note TEXT NOT NULL,
	intended_price REAL NOT NULL,
	exec_price_raw REAL NOT NULL,
	price_round_diff REAL NOT NULL,
	qty_raw REAL NOT NULL,
	qty_rounded REAL NOT NULL,
	qty_round_diff REAL NOT NULL,
	slippage_bps REAL NOT NULL,
	notional_before_round REAL NOT NULL,
	notional_after_round REAL NOT NULL,
	rule_check TEXT NOT NULL,
	fee_bps REAL NOT NULL,
	tick_size_used TEXT NOT NULL,
	step_size_used TEXT NOT NULL,
	min_notional_used TEXT NOT NULL,
	schema_version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	ts DATETIME NOT NULL,
	cash REAL NOT NULL,
	position_qty REAL NOT NULL,
	equity REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	interval TEXT NOT NULL,
	strategy TEXT NOT NULL,
	config TEXT NOT NULL,
	dataset TEXT NOT NULL,
	bars INTEGER NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	start_cash REAL NOT NULL,
	end_equity REAL NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	net_pnl REAL NOT NULL,
	return_pct REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	fee_bps REAL NOT NULL,
	slippage_bps REAL NOT NULL,
	reports_dir TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_equity_run_time ON equity(run_id, ts);
`
