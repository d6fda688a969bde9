package journal

import (
	"bytes"
	"os"
	"text/template"
	"time"
)

// RunRecord mirrors one row of the backtest_runs table. Notes and
// NextActions only feed the Org export and are not persisted.
type RunRecord struct {
	RunID   string
	Created time.Time

	Symbol   string
	Interval string

	// Strategy name and its JSON config as run.
	Strategy string
	Config   []byte

	// Dataset names the bar source, a CSV path or "binance".
	Dataset string

	Bars  int
	Start time.Time
	End   time.Time

	StartCash float64
	EndEquity float64

	Trades int
	Wins   int
	Losses int

	// ReturnPct and MaxDDPct are percentages, not ratios.
	NetPnL    float64
	ReturnPct float64
	MaxDDPct  float64

	FeeBps      float64
	SlippageBps float64

	ReportsDir string

	Notes       []string
	NextActions []string
}

// WinRate is the fraction of recorded fills that realized a profit.
func (r *RunRecord) WinRate() float64 {
	if r.Trades == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Trades)
}

// TallyTrades counts winning and losing fills by realized PnL. Buys
// realize nothing and count as neither.
func TallyTrades(trades []TradeRecord) (wins, losses int) {
	for _, tr := range trades {
		if tr.RealizedPnL > 0 {
			wins++
		} else if tr.RealizedPnL < 0 {
			losses++
		}
	}
	return wins, losses
}

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrgTmpl = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// RenderOrg renders the run summary as an Org-mode block.
func (r *RunRecord) RenderOrg() (string, error) {
	buf := new(bytes.Buffer)
	if err := runOrgTmpl.Execute(buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteOrg renders the run summary and writes it to path.
func (r *RunRecord) WriteOrg(path string) error {
	s, err := r.RenderOrg()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

// ExportRunOrg loads a run row and its trades and returns the combined
// Org block.
func (j *SQLiteJournal) ExportRunOrg(runID string) (string, error) {
	run, err := j.GetRun(runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRun(runID)
	if err != nil {
		return "", err
	}

	head, err := run.RenderOrg()
	if err != nil {
		return "", err
	}
	if len(trades) == 0 {
		return head, nil
	}
	return head + "\n" + FormatTradesOrg(trades), nil
}

const RunOrgTemplate = `
* BACKTEST: {{.Strategy}} {{.Symbol}} {{if .Interval}}{{.Interval}}{{else}}(interval?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:SYMBOL:      {{.Symbol}}
:INTERVAL:    {{if .Interval}}{{.Interval}}{{else}}(interval?){{end}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_CASH:  {{printf "%.2f" .StartCash}}
:END_EQUITY:  {{printf "%.2f" .EndEquity}}
:NET_PNL:     {{printf "%.2f" .NetPnL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{if ne .MaxDDPct 0.0}}{{printf "%.2f" .MaxDDPct}}{{else}}(max-dd?){{end}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Strategy Parameters
| Parameter      | Value |
|----------------+-------|
| Config         | {{printf "%s" .Config}} |
| Fee (bps)      | {{printf "%.2f" .FeeBps}} |
| Slippage (bps) | {{printf "%.2f" .SlippageBps}} |

** Performance Summary
- Net P/L:      *{{printf "%.2f" .NetPnL}}*
- Return:       *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown: *{{if ne .MaxDDPct 0.0}}{{printf "%.2f" .MaxDDPct}}{{else}}(max-dd?){{end}}%*
- Win Rate:     *{{printf "%.2f" (mul100 .WinRate)}}%*

** Equity Curve
{{- if .ReportsDir }}
[[file:{{.ReportsDir}}/equity_curve.csv]]
{{- else }}
# (optional) link the exported equity curve here
{{- end }}

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |

{{- if .Notes }}
** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}

{{- if .NextActions }}
** Notes / Next Actions
{{- range .NextActions }}
- [ ] {{.}}
{{- end }}
{{- end }}
`
