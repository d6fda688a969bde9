package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/binance"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/report"
	"github.com/rustyeddy/backtester/rules"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a strategy over historical klines",
	Long: `Backtest replays Binance klines through a trading strategy against a
simulated spot account and writes the run artifacts (trades.csv,
equity_curve.csv, summary.json, log.txt) into a fresh report directory.

Bars come from Binance unless --data points at a kline CSV.

Supported strategies:
  - buy-second-bar: buy on the second bar, sell at the end (reference flow)
  - hold:           do nothing (baseline)
  - sma-cross:      SMA crossover, long-only
  - ema-cross:      EMA crossover, long-only
  - ema-cross-adx:  EMA crossover entered only while ADX reads a trend

Settings resolve in order: defaults, config file, environment, flags.

Example:
  backtester backtest -s BTCUSDT -i 1h --limit 500 --strategy sma-cross`,
	RunE: runBacktestCmd,
}

var (
	btConfigPath  string
	btEnvFile     string
	btDataCSV     string
	btSymbol      string
	btInterval    string
	btLimit       int
	btStart       string
	btEnd         string
	btCash        float64
	btStrategy    string
	btFast        int
	btSlow        int
	btAlloc       float64
	btFeeBps      float64
	btSlippageBps float64
	btReportsDir  string
	btDBPath      string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "config file (YAML or JSON)")
	backtestCmd.Flags().StringVar(&btEnvFile, "env-file", "", "dotenv file to load before reading the environment")
	backtestCmd.Flags().StringVar(&btDataCSV, "data", "", "kline CSV to replay instead of downloading from Binance")
	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "", "trading pair, e.g. BTCUSDT")
	backtestCmd.Flags().StringVarP(&btInterval, "interval", "i", "", "kline interval, e.g. 1h")
	backtestCmd.Flags().IntVar(&btLimit, "limit", 0, "klines to download when no range is given")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "range start (YYYY-MM-DD or RFC3339)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "range end, exclusive (YYYY-MM-DD or RFC3339)")
	backtestCmd.Flags().Float64Var(&btCash, "cash", 0, "starting cash")
	backtestCmd.Flags().StringVar(&btStrategy, "strategy", "buy-second-bar", "strategy name (buy-second-bar, hold, sma-cross, ema-cross, ema-cross-adx)")
	backtestCmd.Flags().IntVar(&btFast, "fast", 10, "crossover: fast period")
	backtestCmd.Flags().IntVar(&btSlow, "slow", 50, "crossover: slow period")
	backtestCmd.Flags().Float64Var(&btAlloc, "alloc", 0, "order size as fraction of cash, 0..1")
	backtestCmd.Flags().Float64Var(&btFeeBps, "fee-bps", 0, "commission in basis points")
	backtestCmd.Flags().Float64Var(&btSlippageBps, "slippage-bps", 0, "slippage in basis points")
	backtestCmd.Flags().StringVar(&btReportsDir, "reports", "", "reports root directory")
	backtestCmd.Flags().StringVarP(&btDBPath, "db", "d", "", "SQLite journal DB (overrides journal config)")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	runID := id.NewRun()
	fmt.Printf("run_id: %s\n", runID)

	ctx := cmd.Context()

	bars, dataset, err := loadBars(ctx, cfg)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars to backtest")
	}

	pf := sim.NewPortfolio(cfg.Account.Cash, cfg.Data.Symbol)
	pf.FeeBps = cfg.Execution.FeeBps
	pf.RealizedNetFees = cfg.Execution.RealizedNetFees
	pf.SetRunID(runID)

	strat, err := strategies.ByName(btStrategy, cfg.Execution.AllocPct, btFast, btSlow)
	if err != nil {
		return err
	}

	reportsDir, err := report.RunDir(cfg.Reports.Dir, cfg.Data.Symbol, strat.Name(), time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("reports: %s\n", reportsDir)

	// Mirror the engine logs into the report directory.
	if f, err := os.Create(filepath.Join(reportsDir, "log.txt")); err != nil {
		log.Warnf("Could not create run log file: %v", err)
	} else {
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
		defer log.SetOutput(os.Stderr)
	}

	client := binance.NewClient(cfg.Data.Testnet)
	symRules, err := rules.Load(ctx, client, cfg.Data.Symbol, rules.LoadOptions{
		Dir:      cfg.Rules.Dir,
		UseCache: cfg.Rules.UseCache,
		Refresh:  cfg.Rules.Refresh,
	})
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	pf.SetExecutionRules(symRules, cfg.Execution.SlippageBps)

	eng, err := backtest.New(pf, strat, backtest.Config{LogEvery: cfg.Engine.LogEvery})
	if err != nil {
		return err
	}
	res, err := eng.RunBars(bars)
	if err != nil {
		return err
	}

	printRunSummary(pf, res)

	// Exports fail soft: the run already happened and the numbers are
	// printed, so a bad disk only costs the artifact.
	if _, err := report.WriteTrades(reportsDir, res.Trades); err != nil {
		log.Errorf("Export trades: %v", err)
	}
	if _, err := report.WriteEquityCurve(reportsDir, res.EquityCurve); err != nil {
		log.Errorf("Export equity curve: %v", err)
	}

	m, err := metrics.Compute(res.EquityCurve, res.Trades, metrics.Options{
		UseDaily:          cfg.Metrics.UseDaily,
		AnnualizationDays: cfg.Metrics.AnnualizationDays,
	})
	if err != nil {
		log.Errorf("Compute metrics: %v", err)
	} else {
		if _, err := metrics.WriteJSON(m, reportsDir); err != nil {
			log.Errorf("Write summary.json: %v", err)
		}
		fmt.Println("\nBacktest metrics:")
		fmt.Println(report.SummaryTable(m))
	}

	if err := recordRun(cfg, runID, dataset, reportsDir, strat.Name(), res, m); err != nil {
		log.Errorf("Journal run: %v", err)
	}

	fmt.Printf("\nrun_id: %s\n", runID)
	return nil
}

// resolveConfig layers defaults, the config file, the environment and
// finally the explicitly set flags, then validates the result.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnvFile(btEnvFile); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if btConfigPath != "" {
		loaded, err := config.LoadFromFile(btConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if btSymbol != "" {
		cfg.Data.Symbol = strings.ToUpper(btSymbol)
	}
	if btInterval != "" {
		cfg.Data.Interval = btInterval
	}
	if flags.Changed("limit") {
		cfg.Data.Limit = btLimit
	}
	if flags.Changed("cash") {
		cfg.Account.Cash = btCash
	}
	if flags.Changed("alloc") {
		cfg.Execution.AllocPct = btAlloc
	}
	if flags.Changed("fee-bps") {
		cfg.Execution.FeeBps = btFeeBps
	}
	if flags.Changed("slippage-bps") {
		cfg.Execution.SlippageBps = btSlippageBps
	}
	if btReportsDir != "" {
		cfg.Reports.Dir = btReportsDir
	}
	if btDBPath != "" {
		cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: btDBPath}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadBars(ctx context.Context, cfg *config.Config) (bars []market.Bar, dataset string, err error) {
	from, err := parseTimeFlag(btStart)
	if err != nil {
		return nil, "", fmt.Errorf("bad --start: %w", err)
	}
	to, err := parseTimeFlag(btEnd)
	if err != nil {
		return nil, "", fmt.Errorf("bad --end: %w", err)
	}

	if btDataCSV != "" {
		bars, err = market.LoadCSV(btDataCSV, timeOrZero(from), timeOrZero(to))
		if err != nil {
			return nil, "", fmt.Errorf("load bars: %w", err)
		}
		log.Infof("Loaded %d bars from %s", len(bars), btDataCSV)
		return bars, btDataCSV, nil
	}

	client := binance.NewClient(cfg.Data.Testnet)
	bars, err = client.Klines(ctx, binance.KlinesRequest{
		Symbol:   cfg.Data.Symbol,
		Interval: cfg.Data.Interval,
		Limit:    cfg.Data.Limit,
		Start:    from,
		End:      to,
	})
	if err != nil {
		return nil, "", fmt.Errorf("download klines: %w", err)
	}
	log.Infof("Downloaded %d %s %s bars", len(bars), cfg.Data.Symbol, cfg.Data.Interval)
	return bars, "binance", nil
}

func parseTimeFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("want YYYY-MM-DD or RFC3339, got %q", s)
	}
	t = t.UTC()
	return &t, nil
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func printRunSummary(pf *sim.Portfolio, res *backtest.Result) {
	s := pf.Summary()
	fmt.Println("\n=== FINAL SUMMARY ===")
	fmt.Printf("Final equity: %.2f | Total PnL: %.2f | Realized: %.2f | Position: %.8f @ %.2f\n",
		s.Equity, s.TotalPnL, s.RealizedPnL, s.Qty, s.AvgPrice)

	if len(res.Trades) > 0 {
		fmt.Println("\nTrades:")
		fmt.Println(report.TradesTable(res.Trades))
	} else {
		fmt.Println("\nNo trades.")
	}
}

// recordRun persists the run into the configured journal backend. The
// summary row exists only on SQLite; the CSV backend records trades and
// equity alone.
func recordRun(cfg *config.Config, runID, dataset, reportsDir, strategy string, res *backtest.Result, m metrics.Summary) error {
	j, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer j.Close()

	records := make([]journal.TradeRecord, 0, len(res.Trades))
	for _, t := range res.Trades {
		rec := journal.FromTrade(t)
		if err := j.RecordTrade(rec); err != nil {
			return fmt.Errorf("record trade: %w", err)
		}
		records = append(records, rec)
	}

	snaps := journal.SnapshotsFromRun(runID, cfg.Account.Cash, res.EquityCurve, res.Trades)
	for _, snap := range snaps {
		if err := j.RecordEquity(snap); err != nil {
			return fmt.Errorf("record equity: %w", err)
		}
	}

	if sj, ok := j.(*journal.SQLiteJournal); ok {
		wins, losses := journal.TallyTrades(records)
		returnPct := 0.0
		if cfg.Account.Cash > 0 {
			returnPct = (res.FinalEquity/cfg.Account.Cash - 1) * 100
		}
		maxDDPct := 0.0
		if m.MaxDrawdown != nil {
			maxDDPct = *m.MaxDrawdown * 100
		}

		run := journal.RunRecord{
			RunID:       runID,
			Created:     time.Now().UTC(),
			Symbol:      cfg.Data.Symbol,
			Interval:    cfg.Data.Interval,
			Strategy:    strategy,
			Config:      strategyParamsJSON(cfg),
			Dataset:     dataset,
			Bars:        res.Bars,
			Start:       res.Start,
			End:         res.End,
			StartCash:   cfg.Account.Cash,
			EndEquity:   res.FinalEquity,
			Trades:      len(records),
			Wins:        wins,
			Losses:      losses,
			NetPnL:      res.FinalEquity - cfg.Account.Cash,
			ReturnPct:   returnPct,
			MaxDDPct:    maxDDPct,
			FeeBps:      cfg.Execution.FeeBps,
			SlippageBps: cfg.Execution.SlippageBps,
			ReportsDir:  reportsDir,
		}
		if err := sj.RecordRun(run); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	log.Infof("Journaled %d trades and %d equity points", len(records), len(snaps))
	return nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(jc.TradesFile, jc.EquityFile)
		if err != nil {
			return nil, fmt.Errorf("open csv journal: %w", err)
		}
		return j, nil
	}
	return nil, fmt.Errorf("unknown journal type %q", jc.Type)
}

func strategyParamsJSON(cfg *config.Config) []byte {
	params := struct {
		Strategy string  `json:"strategy"`
		AllocPct float64 `json:"alloc-percent"`
		Fast     int     `json:"fast-period"`
		Slow     int     `json:"slow-period"`
	}{btStrategy, cfg.Execution.AllocPct, btFast, btSlow}

	b, err := json.Marshal(params)
	if err != nil {
		return nil
	}
	return b
}
