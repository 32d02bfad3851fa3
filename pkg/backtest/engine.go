// Package backtest simulates the execution of a predictive trading signal
// against a historical price series and scores the outcome against a
// buy-and-hold benchmark. One Runner owns one portfolio for exactly one
// pass over the input; runs are deterministic and side-effect free.
package backtest

import "fmt"

// Default simulation parameters.
const (
	DefaultInitialCash = 100000.0
	DefaultFeeRate     = 0.001
	DefaultSlippage    = 0.001
)

// Config holds the cost model for one simulation.
type Config struct {
	InitialCash float64 `yaml:"initial_cash"`
	FeeRate     float64 `yaml:"fee_rate"`
	Slippage    float64 `yaml:"slippage"`

	Policy SignalPolicy `yaml:"-"`

	BuyThreshold        float64 `yaml:"buy_threshold"`
	SellThreshold       float64 `yaml:"sell_threshold"`
	MaxPositionFraction float64 `yaml:"max_position_fraction"`
}

func (c Config) withDefaults() Config {
	if c.InitialCash <= 0 {
		c.InitialCash = DefaultInitialCash
	}
	if c.FeeRate < 0 {
		c.FeeRate = DefaultFeeRate
	}
	if c.Slippage < 0 {
		c.Slippage = DefaultSlippage
	}
	if c.Policy == (SignalPolicy{}) {
		c.Policy = SignalPolicy{
			BuyThreshold:        c.BuyThreshold,
			SellThreshold:       c.SellThreshold,
			MaxPositionFraction: c.MaxPositionFraction,
		}
	}
	c.Policy = c.Policy.withDefaults()
	return c
}

// Runner drives one full simulation: translate, execute, mark, one row at
// a time in timestamp order, then derive the performance report.
type Runner struct {
	cfg Config
}

// NewRunner constructs a Runner. Zero-valued config fields fall back to the
// package defaults.
func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg.withDefaults()}
}

// Run translates one prediction per row through the signal policy and
// simulates the resulting orders. The prediction slice must be the same
// length as rows; a mismatch is a fatal input error.
func (r *Runner) Run(rows []Row, predictions []float64) (*Result, error) {
	if len(predictions) != len(rows) {
		return nil, fmt.Errorf("%w: %d predictions for %d rows",
			ErrPredictionCount, len(predictions), len(rows))
	}
	return r.RunSignals(rows, r.cfg.Policy.TranslateAll(predictions))
}

// RunSignals simulates precomputed signals, one per row. This is the
// state-machine core: a fresh portfolio is created per call and discarded
// after the report is derived, so no state ever leaks across runs.
func (r *Runner) RunSignals(rows []Row, signals []Signal) (*Result, error) {
	if len(signals) != len(rows) {
		return nil, fmt.Errorf("%w: %d signals for %d rows",
			ErrPredictionCount, len(signals), len(rows))
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	pf := newPortfolio(r.cfg.InitialCash, r.cfg.FeeRate, r.cfg.Slippage)
	trades := make([]TradeRecord, 0)
	snapshots := make([]Snapshot, 0, len(rows))

	for i, row := range rows {
		if rec := pf.execute(row.TsMs, signals[i], row.Close); rec != nil {
			trades = append(trades, *rec)
		}
		snapshots = append(snapshots, pf.mark(row.TsMs, row.Close))
	}

	return &Result{
		Report:    computeReport(r.cfg.InitialCash, snapshots, trades),
		Trades:    trades,
		Snapshots: snapshots,
	}, nil
}
