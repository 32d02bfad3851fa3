package walkforward

import (
	"context"
	"fmt"

	"quantbt/pkg/backtest"
)

// StitchOutOfSample re-evaluates every completed test window as one
// continuous backtest. Test windows are contiguous and non-overlapping, so
// concatenating each period's out-of-sample predictions yields a single
// leak-free equity curve spanning the whole evaluated range.
func StitchOutOfSample(ctx context.Context, cfg Config, ds Dataset, periods []PeriodResult) (*backtest.Result, error) {
	if len(periods) == 0 {
		return nil, backtest.ErrNoRows
	}

	first, last := periods[0], periods[len(periods)-1]
	preds := make([]float64, 0, last.TestEnd-first.TestStart)
	for _, pr := range periods {
		p, err := pr.Predictor.Predict(ctx, ds.Features[pr.TestStart:pr.TestEnd])
		if err != nil {
			return nil, fmt.Errorf("walkforward: stitch period %d: %w", pr.Index, err)
		}
		preds = append(preds, p...)
	}

	runner := backtest.NewRunner(cfg.Backtest)
	return runner.Run(ds.Rows[first.TestStart:last.TestEnd], preds)
}
