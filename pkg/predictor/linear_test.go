package predictor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantbt/pkg/backtest"
	"quantbt/pkg/walkforward"
)

func TestLinearTrainer_RecoversLinearRelation(t *testing.T) {
	// y = 0.5 + 2*x0 - 3*x1, noise-free.
	var features [][]float64
	var target []float64
	for i := 0; i < 50; i++ {
		x0 := float64(i%10) / 10
		x1 := float64(i%7) / 7
		features = append(features, []float64{x0, x1})
		target = append(target, 0.5+2*x0-3*x1)
	}

	model, err := LinearTrainer{}.Fit(context.Background(), features, target)
	require.NoError(t, err)

	preds, err := model.Predict(context.Background(), features)
	require.NoError(t, err)
	for i := range preds {
		assert.InDelta(t, target[i], preds[i], 1e-4)
	}

	lm := model.(*LinearModel)
	require.Len(t, lm.Weights, 3)
	assert.InDelta(t, 0.5, lm.Weights[0], 1e-4)
	assert.InDelta(t, 2.0, lm.Weights[1], 1e-4)
	assert.InDelta(t, -3.0, lm.Weights[2], 1e-4)
}

func TestLinearTrainer_InputValidation(t *testing.T) {
	_, err := LinearTrainer{}.Fit(context.Background(), nil, nil)
	assert.Error(t, err, "empty training set")

	_, err = LinearTrainer{}.Fit(context.Background(), [][]float64{{1}}, []float64{1, 2})
	assert.Error(t, err, "row/target count mismatch")

	_, err = LinearTrainer{}.Fit(context.Background(),
		[][]float64{{1, 2}, {1}}, []float64{1, 2})
	assert.Error(t, err, "ragged feature rows")
}

func TestLinearModel_PredictUnfitted(t *testing.T) {
	var m LinearModel
	_, err := m.Predict(context.Background(), [][]float64{{1}})
	assert.Error(t, err)
}

func TestLinearTrainer_WorksAsWalkForwardTrainer(t *testing.T) {
	n := 120
	ds := walkforward.Dataset{}
	for i := 0; i < n; i++ {
		mom := float64(i%5-2) / 100
		ds.Rows = append(ds.Rows, backtest.Row{TsMs: int64(i+1) * 1000, Close: 100 + float64(i%5)})
		ds.Features = append(ds.Features, []float64{mom})
		ds.Target = append(ds.Target, 2*mom)
	}

	sched := walkforward.NewScheduler(
		walkforward.Config{TrainPeriod: 60, TestPeriod: 30},
		LinearTrainer{},
	)
	results, err := sched.Run(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, pr := range results {
		assert.Less(t, pr.Errors.RMSE, 1e-3, "linear target is learned almost exactly")
	}
}
