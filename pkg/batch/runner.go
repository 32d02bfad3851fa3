// Package batch runs independent single-instrument evaluation pipelines
// concurrently over a bounded worker pool. Units are fully isolated: each
// owns its portfolio, trade log, and model end to end, and one unit's
// failure never aborts its siblings.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/zeromicro/go-zero/core/logx"

	"quantbt/pkg/backtest"
)

// ErrInsufficientData marks a unit whose input is too short to evaluate.
// Pipelines return it (wrapped or not) to report a "failed" rather than
// "error" status.
var ErrInsufficientData = errors.New("batch: insufficient data")

// Unit identifies one instrument to evaluate.
type Unit struct {
	ID   string
	Name string
}

// Pipeline runs the full evaluation for one unit: acquire data, build
// features, train, backtest. It must not share mutable state across calls.
type Pipeline func(ctx context.Context, unit Unit) (*backtest.Report, error)

// Unit completion statuses.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// UnitResult is the outcome for one unit, keyed by unit identity rather
// than completion order.
type UnitResult struct {
	Unit   Unit
	Status Status
	Reason string
	Report *backtest.Report
}

// Summary aggregates a whole batch after every unit has finished or failed.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int

	MeanStrategyReturn  float64 // over successful units
	MeanBenchmarkReturn float64

	Results []UnitResult // in submission order
}

// Config sizes the worker pool.
type Config struct {
	Workers int `yaml:"workers"` // defaults to runtime.NumCPU()
}

// Runner executes pipelines over a fixed-size worker pool.
type Runner struct {
	workers  int
	pipeline Pipeline
}

// NewRunner constructs a batch runner. Workers <= 0 falls back to the
// available CPU parallelism.
func NewRunner(cfg Config, pipeline Pipeline) *Runner {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{workers: workers, pipeline: pipeline}
}

// Run evaluates all units and blocks until every one has completed.
// Results are collected from the pool as units finish, then re-keyed into
// submission order; printing and aggregation happen only after the pool
// has drained.
func (r *Runner) Run(ctx context.Context, units []Unit) Summary {
	type indexed struct {
		pos    int
		result UnitResult
	}

	workCh := make(chan int, len(units))
	resultCh := make(chan indexed, len(units))

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range workCh {
				resultCh <- indexed{pos: pos, result: r.runUnit(ctx, units[pos])}
			}
		}()
	}

	for i := range units {
		workCh <- i
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]UnitResult, len(units))
	for ir := range resultCh {
		results[ir.pos] = ir.result
	}

	return summarize(results)
}

// runUnit isolates one pipeline call, converting panics and sentinel
// errors into per-unit statuses.
func (r *Runner) runUnit(ctx context.Context, unit Unit) (res UnitResult) {
	res = UnitResult{Unit: unit}
	defer func() {
		if p := recover(); p != nil {
			res.Status = StatusError
			res.Reason = fmt.Sprintf("panic: %v", p)
			res.Report = nil
		}
	}()

	report, err := r.pipeline(ctx, unit)
	switch {
	case errors.Is(err, ErrInsufficientData):
		res.Status = StatusFailed
		res.Reason = "insufficient data"
	case err != nil:
		res.Status = StatusError
		res.Reason = err.Error()
	case report == nil:
		res.Status = StatusError
		res.Reason = "pipeline returned no report"
	default:
		res.Status = StatusSuccess
		res.Report = report
	}
	return res
}

func summarize(results []UnitResult) Summary {
	s := Summary{Total: len(results), Results: results}
	var strat, bench float64
	for _, res := range results {
		if res.Status == StatusSuccess && res.Report != nil {
			s.Succeeded++
			strat += res.Report.TotalReturn
			bench += res.Report.BenchmarkReturn
		} else {
			s.Failed++
		}
	}
	if s.Succeeded > 0 {
		s.MeanStrategyReturn = strat / float64(s.Succeeded)
		s.MeanBenchmarkReturn = bench / float64(s.Succeeded)
	}
	return s
}

// Log emits one status line per unit plus the aggregate block, after the
// whole batch has settled.
func (s Summary) Log() {
	for i, res := range s.Results {
		switch res.Status {
		case StatusSuccess:
			logx.Infof("[%d/%d] %s %s success strategy=%+.2f%% benchmark=%+.2f%%",
				i+1, s.Total, res.Unit.ID, res.Unit.Name,
				res.Report.TotalReturn*100, res.Report.BenchmarkReturn*100)
		default:
			logx.Infof("[%d/%d] %s %s %s: %s",
				i+1, s.Total, res.Unit.ID, res.Unit.Name, res.Status, res.Reason)
		}
	}
	logx.Infof("batch complete: %d units, %d succeeded, %d failed", s.Total, s.Succeeded, s.Failed)
	if s.Succeeded > 0 {
		logx.Infof("mean strategy return %+.2f%%, mean buy-and-hold %+.2f%%",
			s.MeanStrategyReturn*100, s.MeanBenchmarkReturn*100)
	}
}
