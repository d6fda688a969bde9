package sim

import (
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rustyeddy/backtester/rules"
)

// ErrInsufficientPosition is returned by Sell when the requested
// quantity exceeds the open position. Asking to sell more than is held
// is a caller bug, unlike exchange-filter rejections which are skipped
// silently.
var ErrInsufficientPosition = errors.New("insufficient position")

// Portfolio tracks cash, a single-symbol position at average cost, and
// the trades executed against the simulated exchange. It is driven from
// a single goroutine by the backtest engine; Buy and Sell mutate state
// only when the execution model accepts the order.
type Portfolio struct {
	Cash         float64
	Qty          float64
	Symbol       string
	FeeBps       float64
	StartingCash float64

	AvgPrice        float64
	RealizedPnL     float64
	RealizedNetFees bool

	// SlippageBps moves the reference price against every order.
	SlippageBps float64

	// LastPrice is the most recent mark, valid once marked is set.
	LastPrice float64
	marked    bool

	rules *rules.SymbolRules
	runID string

	trades []Trade
}

// NewPortfolio creates a portfolio holding only cash. Fees, rules and
// slippage are configured separately before the run starts.
func NewPortfolio(cash float64, symbol string) *Portfolio {
	return &Portfolio{
		Cash:         cash,
		StartingCash: cash,
		Symbol:       symbol,
	}
}

// SetExecutionRules injects the exchange filters and slippage used by
// the execution model. Call it before the backtest starts; without it
// orders execute at the slipped price with no rounding or limits.
func (p *Portfolio) SetExecutionRules(r rules.SymbolRules, slippageBps float64) {
	p.rules = &r
	p.SlippageBps = slippageBps
}

// SetRunID tags subsequent trades with the run identifier.
func (p *Portfolio) SetRunID(id string) {
	p.runID = id
}

// RunID returns the identifier set with SetRunID.
func (p *Portfolio) RunID() string {
	return p.runID
}

// MarkToMarket records the observed price, typically the bar close.
// Cash and position are untouched; only Equity changes.
func (p *Portfolio) MarkToMarket(price float64) {
	p.LastPrice = price
	p.marked = true
}

// Equity values the portfolio at the last mark. Before the first mark
// there is no price, so equity is just cash.
func (p *Portfolio) Equity() float64 {
	if !p.marked {
		return p.Cash
	}
	return p.Cash + p.Qty*p.LastPrice
}

// EquityAt values the portfolio at an explicit price.
func (p *Portfolio) EquityAt(price float64) float64 {
	return p.Cash + p.Qty*price
}

// PnLTotal is equity at the last mark minus the starting cash.
func (p *Portfolio) PnLTotal() float64 {
	return p.Equity() - p.StartingCash
}

// Trades returns the executed trades in execution order.
func (p *Portfolio) Trades() []Trade {
	return p.trades
}

func (p *Portfolio) feeFromNotional(notional float64) float64 {
	return notional * (p.FeeBps / 10_000.0)
}

// Buy executes a buy at the model price. Orders the execution model
// rejects (filters, insufficient cash) are logged and dropped with a
// nil trade and nil error. A non-positive qty is a no-op.
func (p *Portfolio) Buy(ts time.Time, qty, price float64, note string) (*Trade, error) {
	if qty <= 0 {
		return nil, nil
	}

	prev := p.Preview(SideBuy, price, qty)
	if !prev.Valid {
		log.Infof("buy skipped: %s | qty_raw=%.8f ref=%.2f", prev.Reason, qty, price)
		return nil, nil
	}

	execPrice := prev.ExecPrice
	execQty := prev.QtyRounded

	notional := execQty * execPrice
	fee := p.feeFromNotional(notional)
	total := notional + fee

	// The preview already checked cash; re-check against the final
	// notional in case rounding moved it.
	if p.Cash+1e-9 < total {
		log.Infof("buy skipped: insufficient cash at execution | total=%.8f cash=%.8f", total, p.Cash)
		return nil, nil
	}

	p.Cash -= total
	newQty := p.Qty + execQty
	if p.Qty <= 0 {
		p.AvgPrice = execPrice
	} else {
		p.AvgPrice = (p.AvgPrice*p.Qty + execPrice*execQty) / newQty
	}
	p.Qty = newQty
	p.MarkToMarket(execPrice)

	tr := Trade{
		Time:           ts,
		Symbol:         p.Symbol,
		Side:           SideBuy,
		Qty:            execQty,
		Price:          execPrice,
		Fee:            fee,
		CashAfter:      p.Cash,
		QtyAfter:       p.Qty,
		EquityAfter:    p.EquityAt(execPrice),
		RealizedPnL:    0,
		CumRealizedPnL: p.RealizedPnL,
		Note:           note,
		Meta:           p.tradeMeta(prev, fee),
	}
	p.trades = append(p.trades, tr)
	return &tr, nil
}

// Sell executes a sell at the model price. Selling more than the open
// position returns ErrInsufficientPosition; filter rejections are
// logged and dropped like Buy. Realized PnL is (price - avg) * qty,
// minus the fee when the portfolio nets fees into PnL.
func (p *Portfolio) Sell(ts time.Time, qty, price float64, note string) (*Trade, error) {
	if qty <= 0 {
		return nil, nil
	}
	if qty > p.Qty+1e-12 {
		return nil, fmt.Errorf("sell %.8f exceeds position %.8f: %w", qty, p.Qty, ErrInsufficientPosition)
	}

	prev := p.Preview(SideSell, price, qty)
	if !prev.Valid {
		log.Infof("sell skipped: %s | qty_raw=%.8f ref=%.2f", prev.Reason, qty, price)
		return nil, nil
	}

	execPrice := prev.ExecPrice
	execQty := prev.QtyRounded
	// Rounding is a floor so this should never trigger, but never let
	// the executed quantity exceed the position.
	if execQty > p.Qty+1e-12 {
		execQty = math.Min(execQty, p.Qty)
	}

	notional := execQty * execPrice
	fee := p.feeFromNotional(notional)

	realized := (execPrice - p.AvgPrice) * execQty
	if p.RealizedNetFees {
		realized -= fee
	}
	p.RealizedPnL += realized

	p.Cash += notional - fee

	p.Qty -= execQty
	if p.Qty <= 1e-12 {
		p.Qty = 0
		p.AvgPrice = 0
	}

	p.MarkToMarket(execPrice)

	tr := Trade{
		Time:           ts,
		Symbol:         p.Symbol,
		Side:           SideSell,
		Qty:            execQty,
		Price:          execPrice,
		Fee:            fee,
		CashAfter:      p.Cash,
		QtyAfter:       p.Qty,
		EquityAfter:    p.EquityAt(execPrice),
		RealizedPnL:    realized,
		CumRealizedPnL: p.RealizedPnL,
		Note:           note,
		Meta:           p.tradeMeta(prev, fee),
	}
	p.trades = append(p.trades, tr)
	return &tr, nil
}

// AffordableQty returns the maximum raw quantity a buy could afford
// with cash * allocPct, accounting for the explicit fee. Exchange
// rounding is not applied here; the execution model shrinks the result
// to the step size later.
func (p *Portfolio) AffordableQty(price, allocPct float64) float64 {
	if price <= 0 || allocPct <= 0 {
		return 0
	}
	feeMult := 1.0 + p.FeeBps/10_000.0
	budget := p.Cash * allocPct
	return math.Max(0, budget/(price*feeMult))
}

func (p *Portfolio) tradeMeta(prev ExecPreview, fee float64) TradeMeta {
	feeBps := 0.0
	if prev.NotionalAfterRound != 0 {
		feeBps = 1e4 * fee / prev.NotionalAfterRound
	}

	m := TradeMeta{
		IntendedPrice:       prev.IntendedPrice,
		ExecPriceRaw:        prev.ExecPriceRaw,
		PriceRoundDiff:      prev.PriceRoundDiff,
		QtyRaw:              prev.QtyRaw,
		QtyRounded:          prev.QtyRounded,
		QtyRoundDiff:        prev.QtyRoundDiff,
		SlippageBps:         prev.SlippageBps,
		NotionalBeforeRound: prev.NotionalBeforeRound,
		NotionalAfterRound:  prev.NotionalAfterRound,
		RuleCheck:           "OK",
		RunID:               p.runID,
		FeeBps:              feeBps,
		SchemaVersion:       SchemaVersion,
	}
	if p.rules != nil {
		m.TickSizeUsed = p.rules.TickSize.String()
		m.StepSizeUsed = p.rules.StepSize.String()
		m.MinNotionalUsed = p.rules.MinNotional.String()
	}
	return m
}

// Summary is a compact snapshot of the portfolio state.
type Summary struct {
	StartingCash float64 `json:"starting_cash"`
	Cash         float64 `json:"cash"`
	Qty          float64 `json:"qty"`
	LastPrice    float64 `json:"last_price"`
	Equity       float64 `json:"equity"`
	RealizedPnL  float64 `json:"realized_pnl"`
	TotalPnL     float64 `json:"total_pnl"`
	AvgPrice     float64 `json:"avg_price"`
}

// Summary returns the current portfolio snapshot.
func (p *Portfolio) Summary() Summary {
	return Summary{
		StartingCash: p.StartingCash,
		Cash:         p.Cash,
		Qty:          p.Qty,
		LastPrice:    p.LastPrice,
		Equity:       p.Equity(),
		RealizedPnL:  p.RealizedPnL,
		TotalPnL:     p.PnLTotal(),
		AvgPrice:     p.AvgPrice,
	}
}
