package sim

// ExecPreview is the dry-run result of pushing an order through the
// execution model, computed before any portfolio state changes. Invalid
// previews keep the intermediate numbers so skipped orders can still be
// logged and audited.
type ExecPreview struct {
	Valid  bool
	Reason string // empty when valid

	IntendedPrice  float64 // reference price, usually the bar close
	ExecPriceRaw   float64 // after slippage, before tick rounding
	ExecPrice      float64 // final price after tick rounding
	QtyRaw         float64 // requested quantity before step rounding
	QtyRounded     float64 // final quantity after step rounding
	PriceRoundDiff float64 // raw minus final price
	QtyRoundDiff   float64 // raw minus final quantity
	SlippageBps    float64

	NotionalBeforeRound float64 // exec_price_raw * qty_raw
	NotionalAfterRound  float64 // exec_price * qty_rounded, fee base
}

// Preview applies the execution model to an order without mutating the
// portfolio:
//
//  1. slippage in bps moves the reference price against the order,
//  2. price and quantity are floored to the exchange filters,
//  3. the result is checked against cash (buys) and minQty/minNotional.
//
// Orders with non-positive quantity or price are invalid from the start.
func (p *Portfolio) Preview(side Side, refPrice, qtyRaw float64) ExecPreview {
	if qtyRaw <= 0 || refPrice <= 0 {
		return ExecPreview{
			Reason:        "invalid qty or reference price",
			IntendedPrice: refPrice,
			ExecPriceRaw:  refPrice,
			ExecPrice:     refPrice,
			QtyRaw:        qtyRaw,
			QtyRoundDiff:  qtyRaw,
			SlippageBps:   p.SlippageBps,
		}
	}

	slip := p.SlippageBps / 10_000.0
	execPriceRaw := refPrice * (1 + slip)
	if side == SideSell {
		execPriceRaw = refPrice * (1 - slip)
	}

	execPrice := execPriceRaw
	qtyRounded := qtyRaw
	rulesOK := true
	if p.rules != nil {
		pDec, qDec, ok := p.rules.Apply(execPriceRaw, qtyRaw)
		execPrice = pDec.InexactFloat64()
		qtyRounded = qDec.InexactFloat64()
		rulesOK = ok
	}

	prev := ExecPreview{
		Valid:               true,
		IntendedPrice:       refPrice,
		ExecPriceRaw:        execPriceRaw,
		ExecPrice:           execPrice,
		QtyRaw:              qtyRaw,
		QtyRounded:          qtyRounded,
		PriceRoundDiff:      execPriceRaw - execPrice,
		QtyRoundDiff:        qtyRaw - qtyRounded,
		SlippageBps:         p.SlippageBps,
		NotionalBeforeRound: execPriceRaw * qtyRaw,
		NotionalAfterRound:  execPrice * qtyRounded,
	}

	if qtyRounded <= 0 {
		prev.Valid = false
		prev.Reason = "qty rounded to zero by step size"
		return prev
	}

	if side == SideBuy {
		feeFactor := 1.0 + p.FeeBps/10_000.0
		if prev.NotionalAfterRound*feeFactor > p.Cash+1e-9 {
			prev.Valid = false
			prev.Reason = "insufficient cash for notional plus fee"
			return prev
		}
	}

	if p.rules != nil && !rulesOK {
		prev.Valid = false
		prev.Reason = "below exchange minQty or minNotional"
		return prev
	}

	return prev
}
