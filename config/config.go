package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/market"
)

// DefaultInterval is the fallback when an unknown kline interval is
// configured, so a typo degrades to hourly bars instead of breaking the
// download.
const DefaultInterval = "1h"

// Config represents the complete backtest configuration
type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account"`
	Data      DataConfig      `json:"data" yaml:"data"`
	Execution ExecutionConfig `json:"execution" yaml:"execution"`
	Engine    EngineConfig    `json:"engine" yaml:"engine"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
	Rules     RulesConfig     `json:"rules" yaml:"rules"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Reports   ReportsConfig   `json:"reports" yaml:"reports"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Cash float64 `json:"cash" yaml:"cash"`
}

// DataConfig selects the market data to backtest over
type DataConfig struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Interval string `json:"interval" yaml:"interval"`
	Limit    int    `json:"limit" yaml:"limit"`
	Testnet  bool   `json:"testnet" yaml:"testnet"`
}

// ExecutionConfig contains the cost and sizing model
type ExecutionConfig struct {
	FeeBps          float64 `json:"fee_bps" yaml:"fee_bps"`
	SlippageBps     float64 `json:"slippage_bps" yaml:"slippage_bps"`
	AllocPct        float64 `json:"alloc_pct" yaml:"alloc_pct"`
	RealizedNetFees bool    `json:"realized_net_fees" yaml:"realized_net_fees"`
}

// EngineConfig contains backtest loop parameters
type EngineConfig struct {
	// LogEvery is the INFO cadence in bars; 0 silences intermediate bars.
	LogEvery int `json:"log_every" yaml:"log_every"`
}

// MetricsConfig contains metric computation parameters
type MetricsConfig struct {
	UseDaily          bool `json:"use_daily" yaml:"use_daily"`
	AnnualizationDays int  `json:"annualization_days" yaml:"annualization_days"`
}

// RulesConfig controls the exchange rule cache
type RulesConfig struct {
	UseCache bool   `json:"use_cache" yaml:"use_cache"`
	Refresh  bool   `json:"refresh" yaml:"refresh"`
	Dir      string `json:"dir" yaml:"dir"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// ReportsConfig contains report output parameters
type ReportsConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Cash <= 0 {
		return fmt.Errorf("account.cash must be positive")
	}
	if c.Data.Symbol == "" {
		return fmt.Errorf("data.symbol is required")
	}
	if !market.ValidInterval(c.Data.Interval) {
		return fmt.Errorf("unknown interval: %s", c.Data.Interval)
	}
	if c.Data.Limit < 1 || c.Data.Limit > 1000 {
		return fmt.Errorf("data.limit must be between 1 and 1000")
	}
	if c.Execution.FeeBps < 0 {
		return fmt.Errorf("execution.fee_bps must not be negative")
	}
	if c.Execution.SlippageBps < 0 {
		return fmt.Errorf("execution.slippage_bps must not be negative")
	}
	if c.Execution.AllocPct < 0 || c.Execution.AllocPct > 1 {
		return fmt.Errorf("execution.alloc_pct must be between 0 and 1")
	}
	if c.Engine.LogEvery < 0 {
		return fmt.Errorf("engine.log_every must not be negative")
	}
	if c.Metrics.AnnualizationDays < 1 {
		return fmt.Errorf("metrics.annualization_days must be at least 1")
	}
	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.TradesFile == "" || c.Journal.EquityFile == "") {
		return fmt.Errorf("journal trades_file and equity_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Cash: 10_000,
		},
		Data: DataConfig{
			Symbol:   "BTCUSDT",
			Interval: DefaultInterval,
			Limit:    200,
			Testnet:  true,
		},
		Execution: ExecutionConfig{
			FeeBps:      1.0,
			SlippageBps: 5.0,
			AllocPct:    0.10,
		},
		Engine: EngineConfig{
			LogEvery: 10,
		},
		Metrics: MetricsConfig{
			UseDaily:          true,
			AnnualizationDays: 252,
		},
		Rules: RulesConfig{
			UseCache: true,
			Dir:      "rules",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "backtester.db",
		},
		Reports: ReportsConfig{
			Dir: "reports",
		},
	}
}
