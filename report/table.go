// report/table.go
package report

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/sim"
)

// TradesTable renders the fills of a run as a console table.
func TradesTable(trades []sim.Trade) string {
	sb := &strings.Builder{}
	table := tablewriter.NewWriter(sb)
	table.SetHeader([]string{"Time", "Side", "Qty", "Price", "Fee", "Realized PnL", "Equity", "Note"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetColumnSeparator("")

	for _, t := range trades {
		table.Append([]string{
			t.Time.UTC().Format("2006-01-02 15:04"),
			string(t.Side),
			fmt.Sprintf("%.8f", t.Qty),
			fmt.Sprintf("%.2f", t.Price),
			fmt.Sprintf("%.4f", t.Fee),
			fmt.Sprintf("%.2f", t.RealizedPnL),
			fmt.Sprintf("%.2f", t.EquityAfter),
			t.Note,
		})
	}
	table.Render()
	return sb.String()
}

// SummaryTable renders the run metrics as a two-column console table.
// Metrics that were undefined for the input data show as n/a.
func SummaryTable(s metrics.Summary) string {
	sb := &strings.Builder{}
	table := tablewriter.NewWriter(sb)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator("")

	table.Append([]string{"Total return", pct(s.TotalReturn)})
	table.Append([]string{"Annualized return", pct(s.AnnualizedReturn)})
	table.Append([]string{"Annualized volatility", pct(s.AnnualizedVolatility)})
	table.Append([]string{"Sharpe ratio", num(s.SharpeRatio)})
	table.Append([]string{"Max drawdown", pct(s.MaxDrawdown)})
	table.Append([]string{"Trades", fmt.Sprintf("%d", s.NTrades)})
	table.Append([]string{"Total PnL", fmt.Sprintf("%.2f", s.TotalPnL)})
	table.Append([]string{"Equity", fmt.Sprintf("%.2f -> %.2f", s.EquityStart, s.EquityEnd)})
	table.Append([]string{"Period", fmt.Sprintf("%d days (%s returns)", s.PeriodDays, s.ReturnsBasis)})
	table.Render()
	return sb.String()
}

func pct(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *p*100)
}

func num(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *p)
}
