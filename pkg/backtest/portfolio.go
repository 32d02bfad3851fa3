package backtest

import "math"

// portfolio is the mutable trading state owned exclusively by one Runner
// for the duration of one run. Cash can never go negative and shorting is
// not supported, so Position stays >= 0 at all times.
type portfolio struct {
	cash          float64
	position      int64
	positionValue float64
	totalValue    float64

	feeRate  float64
	slippage float64
}

func newPortfolio(initialCash, feeRate, slippage float64) *portfolio {
	return &portfolio{
		cash:       initialCash,
		totalValue: initialCash,
		feeRate:    feeRate,
		slippage:   slippage,
	}
}

// execute applies one signal at the given market price. Fills are
// all-or-nothing: a BUY whose cost plus fee would exceed available cash is
// skipped entirely rather than partially filled. The returned record is nil
// for every skipped or hold signal; skips are expected behaviour, not errors.
func (p *portfolio) execute(tsMs int64, sig Signal, price float64) *TradeRecord {
	switch sig.Direction {
	case 1:
		return p.buy(tsMs, sig, price)
	case -1:
		return p.sell(tsMs, sig, price)
	default:
		return nil
	}
}

func (p *portfolio) buy(tsMs int64, sig Signal, price float64) *TradeRecord {
	// Slippage works against the trader: buys fill above market.
	fillPrice := price * (1 + p.slippage)
	tradableCash := p.cash * sig.SizeFraction * sig.Confidence
	quantity := int64(math.Floor(tradableCash / fillPrice))
	if quantity <= 0 {
		return nil
	}
	gross := float64(quantity) * fillPrice
	fee := gross * p.feeRate
	totalCost := gross + fee
	if totalCost > p.cash {
		// Solvency invariant: never let cash go negative.
		return nil
	}
	p.cash -= totalCost
	p.position += quantity
	return &TradeRecord{
		TsMs:          tsMs,
		Action:        ActionBuy,
		FillPrice:     fillPrice,
		Quantity:      quantity,
		Gross:         gross,
		Fee:           fee,
		NetCashDelta:  -totalCost,
		CashAfter:     p.cash,
		PositionAfter: p.position,
	}
}

func (p *portfolio) sell(tsMs int64, sig Signal, price float64) *TradeRecord {
	if p.position <= 0 {
		return nil
	}
	fillPrice := price * (1 - p.slippage)
	tradable := int64(math.Floor(float64(p.position) * sig.SizeFraction * sig.Confidence))
	quantity := min64(tradable, p.position)
	if quantity <= 0 {
		return nil
	}
	revenue := float64(quantity) * fillPrice
	fee := revenue * p.feeRate
	net := revenue - fee
	p.cash += net
	p.position -= quantity
	return &TradeRecord{
		TsMs:          tsMs,
		Action:        ActionSell,
		FillPrice:     fillPrice,
		Quantity:      quantity,
		Gross:         revenue,
		Fee:           fee,
		NetCashDelta:  net,
		CashAfter:     p.cash,
		PositionAfter: p.position,
	}
}

// mark revalues the portfolio at the unadjusted market price and returns
// the snapshot for this row. Called exactly once per input row, after any
// trade for that row has settled.
func (p *portfolio) mark(tsMs int64, price float64) Snapshot {
	p.positionValue = float64(p.position) * price
	p.totalValue = p.cash + p.positionValue
	return Snapshot{
		TsMs:          tsMs,
		Cash:          p.cash,
		Position:      p.position,
		PositionValue: p.positionValue,
		TotalValue:    p.totalValue,
		Price:         price,
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
