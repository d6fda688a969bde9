package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	trade := tradeAt(
		"01J8Z4YVJ5R2Q0B3C6M7N8P9QA",
		time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		"SELL",
		250.00,
		"Death cross",
	)

	result := FormatTradeOrg(trade)

	// Check heading
	assert.Contains(t, result, "** Trade: SELL BTCUSDT (01J8Z4YV)")

	// Check properties drawer
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":RUN_ID: 01J8Z4YVJ5R2Q0B3C6M7N8P9QA")
	assert.Contains(t, result, ":TIME: 2024-03-15T10:00:00Z")
	assert.Contains(t, result, ":SYMBOL: BTCUSDT")
	assert.Contains(t, result, ":SIDE: SELL")
	assert.Contains(t, result, ":QTY: 0.01250000")
	assert.Contains(t, result, ":PRICE: 40010.50000000")
	assert.Contains(t, result, ":FEE: 0.50000000")
	assert.Contains(t, result, ":REALIZED_PNL: 250.00")
	assert.Contains(t, result, ":EQUITY_AFTER: 9999.50")
	assert.Contains(t, result, ":RULE_CHECK: OK")
	assert.Contains(t, result, ":NOTE: Death cross")
	assert.Contains(t, result, ":END:")

	// Check narrative sections
	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Execution")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgShortRunID(t *testing.T) {
	t.Parallel()

	trade := tradeAt("short", time.Now(), "BUY", 0, "test")

	result := FormatTradeOrg(trade)
	assert.Contains(t, result, "** Trade: BUY BTCUSDT (short)")
}

func TestFormatTradeOrgNegativePnL(t *testing.T) {
	t.Parallel()

	trade := tradeAt("loss-run", time.Now(), "SELL", -500.00, "stop out")

	result := FormatTradeOrg(trade)
	assert.Contains(t, result, ":REALIZED_PNL: -500.00")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	trades := []TradeRecord{
		tradeAt("run-a", time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), "BUY", 0, "breakout"),
		tradeAt("run-a", time.Date(2024, 1, 11, 10, 0, 0, 0, time.UTC), "SELL", -100, "reversal"),
	}

	result := FormatTradesOrg(trades)

	// Check both trades are present
	assert.Contains(t, result, "breakout")
	assert.Contains(t, result, "reversal")
	assert.Contains(t, result, ":SIDE: BUY")
	assert.Contains(t, result, ":SIDE: SELL")

	// Check trades are separated by blank lines
	parts := strings.Split(result, "\n\n\n")
	assert.Len(t, parts, 2, "Expected two trades separated by blank lines")
}

func TestFormatTradesOrgEmpty(t *testing.T) {
	t.Parallel()

	result := FormatTradesOrg([]TradeRecord{})
	assert.Empty(t, result)
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "long ID gets truncated",
			input:    "01J8Z4YVJ5R2Q0B3C6M7N8P9QA",
			expected: "01J8Z4YV",
		},
		{
			name:     "exactly 8 characters",
			input:    "12345678",
			expected: "12345678",
		},
		{
			name:     "less than 8 characters",
			input:    "short",
			expected: "short",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "exactly 9 characters gets truncated",
			input:    "123456789",
			expected: "12345678",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shortID(tt.input)
			assert.Equal(t, tt.expected, result)
			assert.LessOrEqual(t, len(result), 8, "shortID result should be at most 8 characters")
		})
	}
}

func TestFormatTradeOrgStructure(t *testing.T) {
	t.Parallel()

	trade := tradeAt("structure-run", time.Now(), "BUY", 0, "test")

	result := FormatTradeOrg(trade)

	lines := strings.Split(result, "\n")
	require.Greater(t, len(lines), 10, "Expected at least 10 lines in formatted output")

	// First line should be the heading
	assert.True(t, strings.HasPrefix(lines[0], "** Trade:"))

	// Find properties drawer
	propertiesStart := -1
	propertiesEnd := -1
	for i, line := range lines {
		if line == ":PROPERTIES:" {
			propertiesStart = i
		}
		if line == ":END:" && propertiesStart >= 0 && propertiesEnd < 0 {
			propertiesEnd = i
			break
		}
	}

	assert.Greater(t, propertiesStart, 0, "Properties drawer should start after heading")
	assert.Greater(t, propertiesEnd, propertiesStart, "Properties drawer should have end marker")

	// Narrative sections come after properties
	thesisIdx := -1
	executionIdx := -1
	reviewIdx := -1
	for i, line := range lines {
		if strings.Contains(line, "*** Thesis") {
			thesisIdx = i
		}
		if strings.Contains(line, "*** Execution") {
			executionIdx = i
		}
		if strings.Contains(line, "*** Review") {
			reviewIdx = i
		}
	}

	assert.Greater(t, thesisIdx, propertiesEnd, "Thesis section should come after properties")
	assert.Greater(t, executionIdx, thesisIdx, "Execution should come after Thesis")
	assert.Greater(t, reviewIdx, executionIdx, "Review should come after Execution")
}
