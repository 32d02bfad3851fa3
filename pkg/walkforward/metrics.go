package walkforward

import "math"

// ErrorMetrics summarizes prediction quality over one test window.
type ErrorMetrics struct {
	MSE               float64 `json:"mse"`
	MAE               float64 `json:"mae"`
	RMSE              float64 `json:"rmse"`
	DirectionAccuracy float64 `json:"direction_accuracy"`
	IC                float64 `json:"ic"` // Pearson correlation of prediction vs realized target
}

// EvaluatePredictions computes error metrics for aligned prediction and
// realized-target slices. Mismatched or empty input yields the zero value
// rather than NaN.
func EvaluatePredictions(predictions, actual []float64) ErrorMetrics {
	n := len(predictions)
	if n == 0 || n != len(actual) {
		return ErrorMetrics{}
	}

	var sumSq, sumAbs float64
	directionHits := 0
	for i := 0; i < n; i++ {
		d := predictions[i] - actual[i]
		sumSq += d * d
		sumAbs += math.Abs(d)
		if sign(predictions[i]) == sign(actual[i]) {
			directionHits++
		}
	}

	mse := sumSq / float64(n)
	return ErrorMetrics{
		MSE:               mse,
		MAE:               sumAbs / float64(n),
		RMSE:              math.Sqrt(mse),
		DirectionAccuracy: float64(directionHits) / float64(n),
		IC:                pearson(predictions, actual),
	}
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// pearson returns the correlation coefficient, or 0 when either series is
// constant.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n < 2 {
		return 0
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}
