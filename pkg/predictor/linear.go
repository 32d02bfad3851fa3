// Package predictor provides a small ridge-regularized least-squares model
// implementing the walk-forward Trainer contract. It stands in for heavier
// external models in tests and the CLI; the scheduler treats it as opaque.
package predictor

import (
	"context"
	"errors"
	"fmt"

	"quantbt/pkg/walkforward"
)

// Compile-time contract checks.
var (
	_ walkforward.Trainer         = LinearTrainer{}
	_ walkforward.Predictor       = (*LinearModel)(nil)
	_ walkforward.ArtifactEncoder = (*LinearModel)(nil)
)

// LinearTrainer fits a linear model with an intercept by solving the normal
// equations. Lambda adds ridge regularization to keep the system solvable
// on collinear features.
type LinearTrainer struct {
	Lambda float64 // defaults to 1e-8
}

// LinearModel holds fitted coefficients. Weights[0] is the intercept.
type LinearModel struct {
	Weights []float64 `msgpack:"weights"`
}

// Fit solves (X'X + lambda*I) w = X'y over the training window.
func (t LinearTrainer) Fit(_ context.Context, features [][]float64, target []float64) (walkforward.Predictor, error) {
	if len(features) == 0 {
		return nil, errors.New("predictor: empty training set")
	}
	if len(features) != len(target) {
		return nil, fmt.Errorf("predictor: %d feature rows for %d targets", len(features), len(target))
	}
	k := len(features[0]) + 1 // +1 for intercept
	lambda := t.Lambda
	if lambda <= 0 {
		lambda = 1e-8
	}

	// Accumulate X'X and X'y with the intercept column prepended.
	xtx := make([][]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	xty := make([]float64, k)
	xi := make([]float64, k)
	for r, row := range features {
		if len(row) != k-1 {
			return nil, fmt.Errorf("predictor: ragged feature row %d", r)
		}
		xi[0] = 1
		copy(xi[1:], row)
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				xtx[i][j] += xi[i] * xi[j]
			}
			xty[i] += xi[i] * target[r]
		}
	}
	for i := 0; i < k; i++ {
		xtx[i][i] += lambda
	}

	weights, err := solve(xtx, xty)
	if err != nil {
		return nil, err
	}
	return &LinearModel{Weights: weights}, nil
}

// Predict applies the fitted coefficients row by row.
func (m *LinearModel) Predict(_ context.Context, features [][]float64) ([]float64, error) {
	if len(m.Weights) == 0 {
		return nil, errors.New("predictor: model is not fitted")
	}
	out := make([]float64, len(features))
	for r, row := range features {
		if len(row) != len(m.Weights)-1 {
			return nil, fmt.Errorf("predictor: ragged feature row %d", r)
		}
		y := m.Weights[0]
		for j, x := range row {
			y += m.Weights[j+1] * x
		}
		out[r] = y
	}
	return out, nil
}

// EncodeArtifact exposes the coefficients for per-period persistence.
func (m *LinearModel) EncodeArtifact() (any, error) {
	return m, nil
}

// solve runs Gaussian elimination with partial pivoting on a dense square
// system. The ridge term guarantees a non-singular matrix in practice.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if abs(a[r][col]) > abs(a[pivot][col]) {
				pivot = r
			}
		}
		if abs(a[pivot][col]) == 0 {
			return nil, errors.New("predictor: singular normal equations")
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}
	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
