package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"quantbt/pkg/backtest"
)

// RunRecord is a persisted view of one completed run (a single backtest or
// one walk-forward period).
type RunRecord struct {
	ID         int64
	Instrument string
	Kind       string
	Period     int
	CreatedAt  time.Time

	InitialCash      float64
	FinalValue       float64
	TotalReturn      float64
	AnnualReturn     float64
	AnnualVolatility float64
	SharpeRatio      float64
	MaxDrawdown      float64
	BenchmarkReturn  float64
	ExcessReturn     float64
	TotalTrades      int
	WinRate          float64
}

// ResultsRepo persists run reports and their trade logs.
type ResultsRepo interface {
	// InsertRun stores one report and returns the generated run id.
	InsertRun(ctx context.Context, instrument, kind string, period int, report backtest.Report) (int64, error)
	// InsertTrades stores the full trade log for a run.
	InsertTrades(ctx context.Context, runID int64, trades []backtest.TradeRecord) error
	// RecentRuns returns runs for an instrument ordered by creation time
	// descending. Limit defaults to 50 when non-positive.
	RecentRuns(ctx context.Context, instrument string, limit int) ([]RunRecord, error)
}

type resultsRepo struct {
	conn sqlx.SqlConn
}

func newResultsRepo(deps Dependencies) ResultsRepo {
	return &resultsRepo{conn: deps.DBConn}
}

func (r *resultsRepo) InsertRun(ctx context.Context, instrument, kind string, period int, report backtest.Report) (int64, error) {
	const query = `
INSERT INTO backtest_runs (
    instrument, kind, period,
    initial_cash, final_value, total_return, annual_return,
    annual_volatility, sharpe_ratio, max_drawdown,
    benchmark_return, excess_return, total_trades, win_rate
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id`

	var id int64
	err := r.conn.QueryRowCtx(ctx, &id, query,
		instrument, kind, period,
		report.InitialCash, report.FinalValue, report.TotalReturn, report.AnnualReturn,
		report.AnnualVolatility, report.SharpeRatio, report.MaxDrawdown,
		report.BenchmarkReturn, report.ExcessReturn, report.TotalTrades, report.WinRate,
	)
	if err != nil {
		return 0, fmt.Errorf("repo: insert run: %w", err)
	}
	return id, nil
}

func (r *resultsRepo) InsertTrades(ctx context.Context, runID int64, trades []backtest.TradeRecord) error {
	const query = `
INSERT INTO backtest_trades (
    run_id, ts_ms, action, fill_price, quantity,
    gross, fee, net_cash_delta, cash_after, position_after
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for i, t := range trades {
		if _, err := r.conn.ExecCtx(ctx, query,
			runID, t.TsMs, t.Action, t.FillPrice, t.Quantity,
			t.Gross, t.Fee, t.NetCashDelta, t.CashAfter, t.PositionAfter,
		); err != nil {
			return fmt.Errorf("repo: insert trade %d for run %d: %w", i, runID, err)
		}
	}
	return nil
}

func (r *resultsRepo) RecentRuns(ctx context.Context, instrument string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
SELECT
    id, instrument, kind, period, created_at,
    initial_cash, final_value, total_return, annual_return,
    annual_volatility, sharpe_ratio, max_drawdown,
    benchmark_return, excess_return, total_trades, win_rate
FROM backtest_runs
WHERE instrument = $1
ORDER BY created_at DESC
LIMIT $2`

	var rows []RunRecord
	if err := r.conn.QueryRowsCtx(ctx, &rows, query, instrument, limit); err != nil {
		return nil, fmt.Errorf("repo: recent runs for %s: %w", instrument, err)
	}
	return rows, nil
}
