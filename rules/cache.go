package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rustyeddy/backtester/binance"
)

// ExchangeInfoFetcher is the slice of the Binance client the rules
// loader needs. *binance.Client satisfies it.
type ExchangeInfoFetcher interface {
	ExchangeInfo(ctx context.Context, symbol string) (*binance.ExchangeInfo, error)
}

// LoadOptions controls where cached rules live and when the cache is
// consulted.
type LoadOptions struct {
	Dir      string // cache directory, e.g. "rules"
	UseCache bool   // read <Dir>/<SYMBOL>_rules.json before hitting the API
	Refresh  bool   // skip the cache read and overwrite it with a fresh fetch
}

// CachePath returns the cache file for symbol, e.g. rules/BTCUSDT_rules.json.
func CachePath(dir, symbol string) string {
	return filepath.Join(dir, symbol+"_rules.json")
}

// ReadCache loads rules from a cache file written by WriteCache.
func ReadCache(path string) (SymbolRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SymbolRules{}, err
	}

	var r SymbolRules
	if err := json.Unmarshal(data, &r); err != nil {
		return SymbolRules{}, fmt.Errorf("parse rules cache %s: %w", path, err)
	}
	return r, nil
}

// WriteCache persists the rules under dir, creating it if needed.
// Decimals are serialized as strings so no precision is lost.
func (r SymbolRules) WriteCache(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create rules dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	if err := os.WriteFile(CachePath(dir, r.Symbol), data, 0o644); err != nil {
		return fmt.Errorf("write rules cache: %w", err)
	}
	return nil
}

// Fetch downloads exchangeInfo for symbol and parses its filters.
func Fetch(ctx context.Context, client ExchangeInfoFetcher, symbol string) (SymbolRules, error) {
	info, err := client.ExchangeInfo(ctx, symbol)
	if err != nil {
		return SymbolRules{}, fmt.Errorf("fetch exchangeInfo: %w", err)
	}
	return FromExchangeInfo(info, symbol)
}

// Load returns the rules for symbol, preferring the local cache.
//
// With UseCache set and Refresh unset, an existing cache file is read
// and returned; a corrupt cache is an error rather than a silent
// refetch. On a cache miss (or Refresh) the rules are fetched from the
// API and written back to the cache.
func Load(ctx context.Context, client ExchangeInfoFetcher, symbol string, opts LoadOptions) (SymbolRules, error) {
	path := CachePath(opts.Dir, symbol)

	if opts.UseCache && !opts.Refresh {
		r, err := ReadCache(path)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return SymbolRules{}, err
		}
	}

	r, err := Fetch(ctx, client, symbol)
	if err != nil {
		return SymbolRules{}, err
	}
	if err := r.WriteCache(opts.Dir); err != nil {
		return SymbolRules{}, err
	}
	return r, nil
}
