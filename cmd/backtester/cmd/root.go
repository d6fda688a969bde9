package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "A spot trading backtester for Binance kline data",
	Long: `Backtester replays historical Binance klines through trading strategies
against a simulated spot account.

It provides tools for:
  - Downloading kline data from Binance (live or testnet)
  - Backtesting strategies with exchange-accurate price/qty rounding
  - Fee and slippage modelling in basis points
  - Recording trades and equity curves to CSV or SQLite journals
  - Per-run reports: metrics summary, trade ledger and Org-mode notes`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
