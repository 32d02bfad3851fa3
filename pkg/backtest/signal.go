package backtest

import "math"

// Default translation thresholds, matching a prediction expressed as an
// expected forward return (0.02 == +2%).
const (
	DefaultBuyThreshold        = 0.02
	DefaultSellThreshold       = -0.02
	DefaultMaxPositionFraction = 0.2
)

// SignalPolicy converts a raw numeric prediction into a discrete trade
// signal with a confidence score and a position-size fraction.
type SignalPolicy struct {
	BuyThreshold        float64 // prediction above this opens longs; must be > 0
	SellThreshold       float64 // prediction below this closes longs; must be < 0
	MaxPositionFraction float64 // cap applied to confidence-scaled sizing
}

// DefaultSignalPolicy returns the policy used when callers do not override
// thresholds.
func DefaultSignalPolicy() SignalPolicy {
	return SignalPolicy{
		BuyThreshold:        DefaultBuyThreshold,
		SellThreshold:       DefaultSellThreshold,
		MaxPositionFraction: DefaultMaxPositionFraction,
	}
}

func (p SignalPolicy) withDefaults() SignalPolicy {
	if p.BuyThreshold <= 0 {
		p.BuyThreshold = DefaultBuyThreshold
	}
	if p.SellThreshold >= 0 {
		p.SellThreshold = DefaultSellThreshold
	}
	if p.MaxPositionFraction <= 0 || p.MaxPositionFraction > 1 {
		p.MaxPositionFraction = DefaultMaxPositionFraction
	}
	return p
}

// Translate maps one prediction to a Signal. Confidence is the prediction
// magnitude normalized against twice the threshold and clamped to [0,1];
// the size fraction scales confidence by the position cap. A NaN prediction
// translates to hold so that a single bad model output can never leak NaN
// into execution.
func (p SignalPolicy) Translate(prediction float64) Signal {
	p = p.withDefaults()
	if math.IsNaN(prediction) {
		return Signal{}
	}
	switch {
	case prediction > p.BuyThreshold:
		conf := math.Min(prediction/(2*p.BuyThreshold), 1.0)
		return Signal{Direction: 1, Confidence: conf, SizeFraction: conf * p.MaxPositionFraction}
	case prediction < p.SellThreshold:
		conf := math.Min(math.Abs(prediction)/(2*math.Abs(p.SellThreshold)), 1.0)
		return Signal{Direction: -1, Confidence: conf, SizeFraction: conf * p.MaxPositionFraction}
	default:
		return Signal{}
	}
}

// TranslateAll converts a prediction series into signals, one per element.
func (p SignalPolicy) TranslateAll(predictions []float64) []Signal {
	signals := make([]Signal, len(predictions))
	for i, pred := range predictions {
		signals[i] = p.Translate(pred)
	}
	return signals
}
