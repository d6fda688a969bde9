package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/binance"
	"github.com/rustyeddy/backtester/market"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Download Binance kline data to CSV",
	Long: `Download historical klines from Binance and save them in the CSV
layout the backtest command replays with --data.

Without --start/--end the most recent --limit bars are fetched; with a
range the download paginates until the range is covered.

Example:
  backtester data -s BTCUSDT -i 1h --start 2024-01-01 --end 2024-03-01 \
    --out data/BTCUSDT_1h.csv`,
	RunE: runData,
}

var (
	dataSymbol   string
	dataInterval string
	dataLimit    int
	dataStart    string
	dataEnd      string
	dataOut      string
	dataTestnet  bool
)

func init() {
	rootCmd.AddCommand(dataCmd)

	dataCmd.Flags().StringVarP(&dataSymbol, "symbol", "s", "BTCUSDT", "trading pair")
	dataCmd.Flags().StringVarP(&dataInterval, "interval", "i", "1h", "kline interval")
	dataCmd.Flags().IntVar(&dataLimit, "limit", 200, "bars to fetch when no range is given")
	dataCmd.Flags().StringVar(&dataStart, "start", "", "range start (YYYY-MM-DD or RFC3339)")
	dataCmd.Flags().StringVar(&dataEnd, "end", "", "range end, exclusive (YYYY-MM-DD or RFC3339)")
	dataCmd.Flags().StringVar(&dataOut, "out", "", "output CSV path (default data/<SYMBOL>_<interval>.csv)")
	dataCmd.Flags().BoolVar(&dataTestnet, "testnet", true, "use the Binance testnet endpoint")
}

func runData(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(dataSymbol)
	if !market.ValidInterval(dataInterval) {
		return fmt.Errorf("unknown interval: %s", dataInterval)
	}

	from, err := parseTimeFlag(dataStart)
	if err != nil {
		return fmt.Errorf("bad --start: %w", err)
	}
	to, err := parseTimeFlag(dataEnd)
	if err != nil {
		return fmt.Errorf("bad --end: %w", err)
	}
	if from != nil && to != nil && !from.Before(*to) {
		return fmt.Errorf("--start must be before --end")
	}

	client := binance.NewClient(dataTestnet)
	fmt.Printf("Downloading %s %s klines...\n", symbol, dataInterval)

	bars, err := client.Klines(cmd.Context(), binance.KlinesRequest{
		Symbol:   symbol,
		Interval: dataInterval,
		Limit:    dataLimit,
		Start:    from,
		End:      to,
	})
	if err != nil {
		return fmt.Errorf("download klines: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars returned for %s %s", symbol, dataInterval)
	}

	out := dataOut
	if out == "" {
		out = filepath.Join("data", fmt.Sprintf("%s_%s.csv", symbol, dataInterval))
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := market.SaveCSV(out, bars); err != nil {
		return fmt.Errorf("save bars: %w", err)
	}

	first := bars[0].OpenTime.UTC().Format(time.RFC3339)
	last := bars[len(bars)-1].OpenTime.UTC().Format(time.RFC3339)
	fmt.Printf("Saved %d bars to %s (%s .. %s)\n", len(bars), out, first, last)
	return nil
}
