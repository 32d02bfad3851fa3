package walkforward

import "quantbt/pkg/backtest"

// BuildLaggedDataset derives a supervised dataset from a price history.
// Each sample's features are the previous lags one-period returns and its
// target is the next period's return. The first lags rows and the final row
// carry incomplete context and are dropped, so the output is aligned and
// shorter than the input by lags+1.
func BuildLaggedDataset(rows []backtest.Row, lags int) Dataset {
	if lags < 1 {
		lags = 1
	}
	if len(rows) <= lags+1 {
		return Dataset{}
	}

	n := len(rows) - lags - 1
	ds := Dataset{
		Rows:     make([]backtest.Row, n),
		Features: make([][]float64, n),
		Target:   make([]float64, n),
	}

	ret := func(i int) float64 {
		return rows[i].Close/rows[i-1].Close - 1
	}

	for i := 0; i < n; i++ {
		at := i + lags
		feats := make([]float64, lags)
		for k := 0; k < lags; k++ {
			feats[k] = ret(at - k)
		}
		ds.Rows[i] = rows[at]
		ds.Features[i] = feats
		ds.Target[i] = ret(at + 1)
	}
	return ds
}
