package backtest

import "math"

// periodsPerYear is the annualization base: 252 trading days.
const periodsPerYear = 252.0

// computeReport derives the standard performance metrics from a completed
// run. Degenerate inputs are handled by explicit guards (Sharpe is 0 when
// volatility is 0, win rate is 0 when no trades occurred) so the report
// never carries NaN or Inf.
func computeReport(initialCash float64, snapshots []Snapshot, trades []TradeRecord) Report {
	if len(snapshots) == 0 {
		return Report{InitialCash: initialCash, FinalValue: initialCash}
	}

	finalValue := snapshots[len(snapshots)-1].TotalValue
	totalReturn := finalValue/initialCash - 1
	annualReturn := math.Pow(1+totalReturn, periodsPerYear/float64(len(snapshots))) - 1

	returns := periodReturns(snapshots)
	volatility := sampleStdev(returns) * math.Sqrt(periodsPerYear)

	sharpe := 0.0
	if volatility > 0 {
		sharpe = annualReturn / volatility
	}

	// Buy-and-hold uses the raw price series, independent of any trades.
	benchmark := snapshots[len(snapshots)-1].Price/snapshots[0].Price - 1

	return Report{
		InitialCash:      initialCash,
		FinalValue:       finalValue,
		TotalReturn:      totalReturn,
		AnnualReturn:     annualReturn,
		AnnualVolatility: volatility,
		SharpeRatio:      sharpe,
		MaxDrawdown:      maxDrawdown(snapshots),
		BenchmarkReturn:  benchmark,
		ExcessReturn:     totalReturn - benchmark,
		TotalTrades:      len(trades),
		WinRate:          winRate(trades),
	}
}

// periodReturns computes simple per-period returns; the first period has no
// return and is excluded.
func periodReturns(snapshots []Snapshot) []float64 {
	if len(snapshots) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(snapshots)-1)
	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1].TotalValue
		if prev == 0 {
			continue
		}
		returns = append(returns, snapshots[i].TotalValue/prev-1)
	}
	return returns
}

// CumulativeReturn compounds a return series: prod(1+r) - 1.
func CumulativeReturn(returns []float64) float64 {
	acc := 1.0
	for _, r := range returns {
		acc *= 1 + r
	}
	return acc - 1
}

// sampleStdev is the n-1 standard deviation; 0 for fewer than two samples.
func sampleStdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	variance := 0.0
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs) - 1)
	return math.Sqrt(variance)
}

// maxDrawdown returns the most negative peak-to-current decline of total
// value over the run, as a fraction (always <= 0).
func maxDrawdown(snapshots []Snapshot) float64 {
	peak := snapshots[0].TotalValue
	mdd := 0.0
	for _, s := range snapshots {
		if s.TotalValue > peak {
			peak = s.TotalValue
		}
		if peak == 0 {
			continue
		}
		dd := (s.TotalValue - peak) / peak
		if dd < mdd {
			mdd = dd
		}
	}
	return mdd
}

// winRate counts SELL fills whose net proceeds were positive against the
// total number of executed trades. Buys only commit capital, so they never
// count as wins on their own.
func winRate(trades []TradeRecord) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.Action == ActionSell && t.NetCashDelta > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades))
}
