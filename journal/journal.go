// journal/journal.go
package journal

import (
	"time"

	"github.com/rustyeddy/backtester/sim"
)

// TradeRecord is one row in the trades table: the executed fill plus the
// flattened execution audit trail. The column layout is pinned by
// SchemaVersion; consumers must treat a version bump as a column-set
// change.
type TradeRecord struct {
	// ID is assigned by the SQLite backend; zero until recorded.
	ID    int64
	RunID string

	Time   time.Time
	Symbol string
	Side   string
	Qty    float64
	Price  float64
	Fee    float64

	CashAfter      float64
	QtyAfter       float64
	EquityAfter    float64
	RealizedPnL    float64
	CumRealizedPnL float64
	Note           string

	// Audit trail, flattened from the fill metadata.
	IntendedPrice       float64
	ExecPriceRaw        float64
	PriceRoundDiff      float64
	QtyRaw              float64
	QtyRounded          float64
	QtyRoundDiff        float64
	SlippageBps         float64
	NotionalBeforeRound float64
	NotionalAfterRound  float64
	RuleCheck           string
	FeeBps              float64
	TickSizeUsed        string
	StepSizeUsed        string
	MinNotionalUsed     string
	SchemaVersion       int
}

// EquitySnapshot is the spot account state at one bar: cash, position
// size and marked equity.
type EquitySnapshot struct {
	RunID       string
	Time        time.Time
	Cash        float64
	PositionQty float64
	Equity      float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// FromTrade flattens an executed trade and its metadata into a journal row.
func FromTrade(t sim.Trade) TradeRecord {
	return TradeRecord{
		RunID:  t.Meta.RunID,
		Time:   t.Time,
		Symbol: t.Symbol,
		Side:   string(t.Side),
		Qty:    t.Qty,
		Price:  t.Price,
		Fee:    t.Fee,

		CashAfter:      t.CashAfter,
		QtyAfter:       t.QtyAfter,
		EquityAfter:    t.EquityAfter,
		RealizedPnL:    t.RealizedPnL,
		CumRealizedPnL: t.CumRealizedPnL,
		Note:           t.Note,

		IntendedPrice:       t.Meta.IntendedPrice,
		ExecPriceRaw:        t.Meta.ExecPriceRaw,
		PriceRoundDiff:      t.Meta.PriceRoundDiff,
		QtyRaw:              t.Meta.QtyRaw,
		QtyRounded:          t.Meta.QtyRounded,
		QtyRoundDiff:        t.Meta.QtyRoundDiff,
		SlippageBps:         t.Meta.SlippageBps,
		NotionalBeforeRound: t.Meta.NotionalBeforeRound,
		NotionalAfterRound:  t.Meta.NotionalAfterRound,
		RuleCheck:           t.Meta.RuleCheck,
		FeeBps:              t.Meta.FeeBps,
		TickSizeUsed:        t.Meta.TickSizeUsed,
		StepSizeUsed:        t.Meta.StepSizeUsed,
		MinNotionalUsed:     t.Meta.MinNotionalUsed,
		SchemaVersion:       t.Meta.SchemaVersion,
	}
}

// SnapshotsFromRun rebuilds per-bar account snapshots from an equity
// curve and the trades of the same run. A curve sample at time T is
// taken before that bar's trades execute, except the final sample,
// which the engine appends after the finish hook; cash and position are
// replayed from the trade tape under that ordering.
func SnapshotsFromRun(runID string, startCash float64, curve []sim.EquityPoint, trades []sim.Trade) []EquitySnapshot {
	if len(curve) == 0 {
		return nil
	}

	cash := startCash
	qty := 0.0
	j := 0

	out := make([]EquitySnapshot, 0, len(curve))
	for i, pt := range curve {
		last := i == len(curve)-1
		for j < len(trades) && (last || trades[j].Time.Before(pt.Time)) {
			cash = trades[j].CashAfter
			qty = trades[j].QtyAfter
			j++
		}
		out = append(out, EquitySnapshot{
			RunID:       runID,
			Time:        pt.Time,
			Cash:        cash,
			PositionQty: qty,
			Equity:      pt.Equity,
		})
	}
	return out
}
