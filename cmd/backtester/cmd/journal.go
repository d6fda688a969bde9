package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the trade journal",
	Long: `Query and display journal records from the SQLite database.

Subcommands:
  trade  - Show one trade by journal id as an Org-mode entry
  day    - List trades executed on a UTC day
  today  - List trades executed today (UTC)
  runs   - List recorded backtest runs, newest first
  run    - Export the Org-mode report for a run

Examples:
  backtester journal trade 42
  backtester journal day 2024-01-15
  backtester journal runs --limit 10
  backtester journal run ab12cd34ef --out run.org`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <id>",
	Short: "Show one trade by journal id",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades executed on a UTC day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades executed today (UTC)",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded backtest runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Export the Org-mode report for a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var (
	journalDBPath    string
	journalRunsLimit int
	journalRunOut    string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalRunCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "backtester.db", "path to SQLite journal DB")
	journalRunsCmd.Flags().IntVar(&journalRunsLimit, "limit", 20, "maximum runs to list (0 = all)")
	journalRunCmd.Flags().StringVarP(&journalRunOut, "out", "o", "", "write the report to a file instead of stdout")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad trade id %q: %w", args[0], err)
	}

	rec, err := j.GetTrade(id)
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return listTradesForDay(args[0])
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	return listTradesForDay(time.Now().UTC().Format("2006-01-02"))
}

func listTradesForDay(day string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	// Kline data is UTC end to end, so the journal day is too.
	start, end, err := dayBounds(time.UTC, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(journalRunsLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-12s %-17s %-9s %-15s %6s %10s %8s\n",
		"RUN ID", "CREATED", "SYMBOL", "STRATEGY", "TRADES", "NET PNL", "RETURN%")
	for _, r := range runs {
		fmt.Printf("%-12s %-17s %-9s %-15s %6d %10.2f %8.2f\n",
			r.RunID,
			r.Created.UTC().Format("2006-01-02 15:04"),
			r.Symbol,
			r.Strategy,
			r.Trades,
			r.NetPnL,
			r.ReturnPct,
		)
	}
	return nil
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	org, err := j.ExportRunOrg(args[0])
	if err != nil {
		return fmt.Errorf("export run: %w", err)
	}

	if journalRunOut != "" {
		if err := os.WriteFile(journalRunOut, []byte(org), 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("Wrote %s\n", journalRunOut)
		return nil
	}

	fmt.Println(org)
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)
	return start, end, nil
}
