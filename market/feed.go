package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVBarFeed reads canonical bar CSV rows:
//
//	open_time,symbol,interval,open,high,low,close,volume,close_time
//
// where times are RFC3339 or RFC3339Nano.
//
// It optionally filters bars to [From, To) if provided.
// Header row ("open_time,...") is allowed.
// Empty/short rows are skipped.
type CSVBarFeed struct {
	f    *os.File
	r    *csv.Reader
	from time.Time
	to   time.Time

	sawFirst bool
}

func NewCSVBarFeed(path string, from, to time.Time) (*CSVBarFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	return &CSVBarFeed{f: f, r: r, from: from, to: to}, nil
}

func (f *CSVBarFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *CSVBarFeed) Next() (Bar, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return Bar{}, false, nil
		}
		if err != nil {
			return Bar{}, false, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !f.sawFirst {
			f.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "open_time") {
				continue
			}
		}

		b, ok, err := parseBarRow(row)
		if err != nil {
			return Bar{}, false, err
		}
		if !ok {
			continue
		}
		if !inRange(b.OpenTime, f.from, f.to) {
			continue
		}
		return b, true, nil
	}
}

func parseBarRow(row []string) (Bar, bool, error) {
	// Need at least: open_time,symbol,interval,open,high,low,close,volume
	if len(row) < 8 {
		return Bar{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Bar{}, false, nil
	}
	openTime, err := parseTime(ts)
	if err != nil {
		return Bar{}, false, fmt.Errorf("bad open_time %q: %w", ts, err)
	}

	symbol := strings.TrimSpace(row[1])
	if symbol == "" {
		return Bar{}, false, nil
	}
	interval := strings.TrimSpace(row[2])

	vals := make([]float64, 5)
	names := []string{"open", "high", "low", "close", "volume"}
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[3+i]), 64)
		if err != nil {
			return Bar{}, false, fmt.Errorf("bad %s %q: %w", names[i], row[3+i], err)
		}
		vals[i] = v
	}

	b := Bar{
		Symbol:   symbol,
		Interval: interval,
		OpenTime: openTime,
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}

	if len(row) > 8 && strings.TrimSpace(row[8]) != "" {
		ct, err := parseTime(strings.TrimSpace(row[8]))
		if err != nil {
			return Bar{}, false, fmt.Errorf("bad close_time %q: %w", row[8], err)
		}
		b.CloseTime = ct
	}

	return b, true, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, s)
		if err2 != nil {
			return time.Time{}, err
		}
		t = t2
	}
	return t.UTC(), nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// LoadCSV drains a CSVBarFeed into a slice, validating each bar and the
// overall ordering. This is the entry point the backtest command uses; the
// streaming feed stays available for callers that do not want the whole
// file in memory.
func LoadCSV(path string, from, to time.Time) ([]Bar, error) {
	feed, err := NewCSVBarFeed(path, from, to)
	if err != nil {
		return nil, err
	}
	defer feed.Close()

	var bars []Bar
	for {
		b, ok, err := feed.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}

	if err := CheckOrdered(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// SaveCSV writes bars in the canonical CSV layout understood by LoadCSV.
func SaveCSV(path string, bars []Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"open_time", "symbol", "interval", "open", "high", "low", "close", "volume", "close_time"}); err != nil {
		return err
	}

	for _, b := range bars {
		closeTime := ""
		if !b.CloseTime.IsZero() {
			closeTime = b.CloseTime.UTC().Format(time.RFC3339)
		}
		row := []string{
			b.OpenTime.UTC().Format(time.RFC3339),
			b.Symbol,
			b.Interval,
			fmtFloat(b.Open),
			fmtFloat(b.High),
			fmtFloat(b.Low),
			fmtFloat(b.Close),
			fmtFloat(b.Volume),
			closeTime,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
