// config/env.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/rustyeddy/backtester/market"
)

// LoadEnvFile loads a dotenv file into the process environment so a
// following ApplyEnv picks its values up. An empty path means the
// default ".env", which is optional; a path named explicitly must
// exist.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides the configuration from environment variables.
// Out-of-range values are clamped rather than rejected and unparseable
// ones keep the current value, so a bad variable in CI degrades to the
// defaults instead of aborting the run. An unknown INTERVAL falls back
// to DefaultInterval.
func (c *Config) ApplyEnv() {
	c.Data.Symbol = strings.ToUpper(envString("SYMBOL", c.Data.Symbol))
	c.Data.Interval = envString("INTERVAL", c.Data.Interval)
	if !market.ValidInterval(c.Data.Interval) {
		c.Data.Interval = DefaultInterval
	}
	c.Data.Limit = max(1, min(1000, envInt("LIMIT", c.Data.Limit)))
	c.Data.Testnet = envBool("TESTNET", c.Data.Testnet)

	c.Execution.FeeBps = max(0, envFloat("FEE_BPS", c.Execution.FeeBps))
	c.Execution.SlippageBps = max(0, envFloat("SLIPPAGE_BPS", c.Execution.SlippageBps))
	c.Execution.AllocPct = min(1, max(0, envFloat("ALLOC_PCT", c.Execution.AllocPct)))
	c.Execution.RealizedNetFees = envBool("REALIZED_NET_FEES", c.Execution.RealizedNetFees)

	c.Engine.LogEvery = max(0, envInt("LOG_EVERY", c.Engine.LogEvery))

	c.Metrics.UseDaily = envBool("METRICS_USE_DAILY", c.Metrics.UseDaily)
	c.Metrics.AnnualizationDays = max(1, envInt("METRICS_ANNUALIZATION_DAYS", c.Metrics.AnnualizationDays))

	c.Rules.UseCache = envBool("RULES_USE_CACHE", c.Rules.UseCache)
	c.Rules.Refresh = envBool("RULES_REFRESH", c.Rules.Refresh)
}

func envString(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envFloat(name string, def float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// envBool accepts "1", "true", "yes", "y" and "on" (case-insensitive)
// as true; any other present value is false.
func envBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
