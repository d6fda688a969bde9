package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/binance"
	"github.com/rustyeddy/backtester/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Fetch and cache exchange trading rules",
	Long: `Fetch the trading rules for a symbol (tick size, lot step, minimum
quantity and notional) from the Binance exchangeInfo endpoint and cache
them locally. The backtest command consults the same cache.

Examples:
  backtester rules -s BTCUSDT
  backtester rules -s ETHUSDT --refresh`,
	RunE: runRules,
}

var (
	rulesSymbol  string
	rulesDir     string
	rulesTestnet bool
	rulesRefresh bool
	rulesNoCache bool
)

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVarP(&rulesSymbol, "symbol", "s", "BTCUSDT", "trading pair")
	rulesCmd.Flags().StringVar(&rulesDir, "dir", "rules", "rule cache directory")
	rulesCmd.Flags().BoolVar(&rulesTestnet, "testnet", true, "use the Binance testnet endpoint")
	rulesCmd.Flags().BoolVar(&rulesRefresh, "refresh", false, "ignore the cache and fetch fresh rules")
	rulesCmd.Flags().BoolVar(&rulesNoCache, "no-cache", false, "do not read the cache (a fresh fetch is still written back)")
}

func runRules(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(rulesSymbol)

	client := binance.NewClient(rulesTestnet)
	r, err := rules.Load(cmd.Context(), client, symbol, rules.LoadOptions{
		Dir:      rulesDir,
		UseCache: !rulesNoCache,
		Refresh:  rulesRefresh,
	})
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	fmt.Println(r.String())
	fmt.Printf("cache: %s\n", rules.CachePath(rulesDir, symbol))
	return nil
}
