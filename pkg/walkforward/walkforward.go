// Package walkforward evaluates a predictor by repeatedly training it on a
// sliding historical window and backtesting it on the immediately following
// out-of-sample window. Train windows may overlap; test windows never do, so
// stitched results are leak-free.
package walkforward

import (
	"context"
	"errors"
	"fmt"

	"quantbt/pkg/backtest"
)

// Default window lengths, expressed in row counts.
const (
	DefaultTrainPeriod = 1000
	DefaultTestPeriod  = 200
)

// Fatal input errors for a scheduler run.
var (
	ErrDatasetMisaligned = errors.New("walkforward: dataset columns have different lengths")
	ErrBadWindows        = errors.New("walkforward: train and test periods must be positive")
)

// Trainer fits a predictor on a feature matrix and its target column. The
// model itself is opaque to the scheduler; only the numeric predictions are
// consumed.
type Trainer interface {
	Fit(ctx context.Context, features [][]float64, target []float64) (Predictor, error)
}

// Predictor produces one numeric prediction per feature row.
type Predictor interface {
	Predict(ctx context.Context, features [][]float64) ([]float64, error)
}

// Dataset is the aligned input for a walk-forward run: one price row, one
// feature vector, and one realized target per index.
type Dataset struct {
	Rows     []backtest.Row
	Features [][]float64
	Target   []float64
}

func (d Dataset) validate() error {
	if len(d.Features) != len(d.Rows) || len(d.Target) != len(d.Rows) {
		return fmt.Errorf("%w: rows=%d features=%d target=%d",
			ErrDatasetMisaligned, len(d.Rows), len(d.Features), len(d.Target))
	}
	return nil
}

// Config controls window sizes and the per-window backtest parameters.
type Config struct {
	TrainPeriod int             `yaml:"train_period"`
	TestPeriod  int             `yaml:"test_period"`
	Backtest    backtest.Config `yaml:"backtest"`
}

func (c Config) withDefaults() Config {
	if c.TrainPeriod == 0 {
		c.TrainPeriod = DefaultTrainPeriod
	}
	if c.TestPeriod == 0 {
		c.TestPeriod = DefaultTestPeriod
	}
	return c
}

// Validate rejects non-positive window lengths.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.TrainPeriod <= 0 || c.TestPeriod <= 0 {
		return ErrBadWindows
	}
	return nil
}

// PeriodResult is the outcome of one (train, test) pair. Window bounds are
// half-open row indexes into the dataset.
type PeriodResult struct {
	Index      int
	TrainStart int
	TrainEnd   int
	TestStart  int
	TestEnd    int

	Errors    ErrorMetrics
	Report    backtest.Report
	Trades    []backtest.TradeRecord
	Snapshots []backtest.Snapshot

	// Predictor is the fitted model used for this window; ArtifactPath is
	// set when an ArtifactWriter persisted its parameters.
	Predictor    Predictor
	ArtifactPath string
}

// Scheduler partitions a history into successive train/test pairs and runs
// one fresh backtest per test window. It holds no state across Run calls.
type Scheduler struct {
	cfg       Config
	trainer   Trainer
	artifacts *ArtifactWriter // optional
}

// NewScheduler constructs a scheduler around an external trainer.
func NewScheduler(cfg Config, trainer Trainer) *Scheduler {
	return &Scheduler{cfg: cfg.withDefaults(), trainer: trainer}
}

// WithArtifacts enables per-period persistence of fitted predictor
// parameters.
func (s *Scheduler) WithArtifacts(w *ArtifactWriter) *Scheduler {
	s.artifacts = w
	return s
}

// Run walks the dataset. It stops — without error — as soon as the
// remaining rows cannot fill one more full train+test pair; a dataset too
// short for even one pair yields an empty, valid result set.
func (s *Scheduler) Run(ctx context.Context, ds Dataset) ([]PeriodResult, error) {
	if s.trainer == nil {
		return nil, errors.New("walkforward: trainer is required")
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}

	var results []PeriodResult
	train, test := s.cfg.TrainPeriod, s.cfg.TestPeriod

	for start := 0; start+train+test <= len(ds.Rows); start += test {
		trainEnd := start + train
		testEnd := trainEnd + test

		predictor, err := s.trainer.Fit(ctx, ds.Features[start:trainEnd], ds.Target[start:trainEnd])
		if err != nil {
			return nil, fmt.Errorf("walkforward: fit period %d: %w", len(results), err)
		}

		preds, err := predictor.Predict(ctx, ds.Features[trainEnd:testEnd])
		if err != nil {
			return nil, fmt.Errorf("walkforward: predict period %d: %w", len(results), err)
		}
		if len(preds) != test {
			return nil, fmt.Errorf("walkforward: period %d: %d predictions for %d test rows",
				len(results), len(preds), test)
		}

		runner := backtest.NewRunner(s.cfg.Backtest)
		res, err := runner.Run(ds.Rows[trainEnd:testEnd], preds)
		if err != nil {
			return nil, fmt.Errorf("walkforward: backtest period %d: %w", len(results), err)
		}

		pr := PeriodResult{
			Index:      len(results),
			TrainStart: start,
			TrainEnd:   trainEnd,
			TestStart:  trainEnd,
			TestEnd:    testEnd,
			Errors:     EvaluatePredictions(preds, ds.Target[trainEnd:testEnd]),
			Report:     res.Report,
			Trades:     res.Trades,
			Snapshots:  res.Snapshots,
			Predictor:  predictor,
		}

		if s.artifacts != nil {
			path, err := s.artifacts.Write(pr.Index, predictor)
			if err != nil {
				return nil, fmt.Errorf("walkforward: persist period %d: %w", pr.Index, err)
			}
			pr.ArtifactPath = path
		}

		results = append(results, pr)
	}

	return results, nil
}
