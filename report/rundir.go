// Package report writes the per-run artifacts: the run directory, the
// trade and equity CSV exports and the console summary tables.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

var strategySafe = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// RunDir creates and returns the next run directory under root, named
//
//	<SYMBOL>_<Strategy>_<YYYY-MM-DD>_runNN
//
// The date is taken from ts in UTC so runs sort the same across time
// zones. NN continues from the highest existing suffix for the same
// prefix, so deleting old runs never reuses a number below the latest.
func RunDir(root, symbol, strategy string, ts time.Time) (string, error) {
	date := ts.UTC().Format("2006-01-02")
	safe := strategySafe.ReplaceAllString(strategy, "")
	prefix := fmt.Sprintf("%s_%s_%s_run", symbol, safe, date)

	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("create reports root: %w", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("scan reports root: %w", err)
	}

	pat := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d+)$`)
	next := 1
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := pat.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n >= next {
			next = n + 1
		}
	}

	dir := filepath.Join(root, fmt.Sprintf("%s%02d", prefix, next))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}
