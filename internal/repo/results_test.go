package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"quantbt/pkg/backtest"
)

// fakeConn records queries and serves canned responses; the embedded
// interface panics on any method the repo should never touch.
type fakeConn struct {
	sqlx.SqlConn

	queries []string
	args    [][]any

	rowID   int64
	rows    []RunRecord
	execErr error
}

func (c *fakeConn) QueryRowCtx(_ context.Context, v any, query string, args ...any) error {
	c.queries = append(c.queries, query)
	c.args = append(c.args, args)
	*(v.(*int64)) = c.rowID
	return nil
}

func (c *fakeConn) QueryRowsCtx(_ context.Context, v any, query string, args ...any) error {
	c.queries = append(c.queries, query)
	c.args = append(c.args, args)
	*(v.(*[]RunRecord)) = c.rows
	return nil
}

func (c *fakeConn) ExecCtx(_ context.Context, query string, args ...any) (sql.Result, error) {
	c.queries = append(c.queries, query)
	c.args = append(c.args, args)
	return nil, c.execErr
}

func TestNew_RequiresDBConn(t *testing.T) {
	_, err := New(Dependencies{})
	assert.Error(t, err)
}

func TestResultsRepo_InsertRun(t *testing.T) {
	conn := &fakeConn{rowID: 42}
	repos, err := New(Dependencies{DBConn: conn})
	require.NoError(t, err)

	report := backtest.Report{
		InitialCash: 100000,
		FinalValue:  105000,
		TotalReturn: 0.05,
		TotalTrades: 3,
		WinRate:     0.5,
	}
	id, err := repos.Results.InsertRun(context.Background(), "BTC", "backtest", 0, report)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	require.Len(t, conn.queries, 1)
	assert.Contains(t, conn.queries[0], "INSERT INTO backtest_runs")
	require.Len(t, conn.args[0], 14)
	assert.Equal(t, "BTC", conn.args[0][0])
	assert.Equal(t, "backtest", conn.args[0][1])
	assert.Equal(t, 0.05, conn.args[0][5])
}

func TestResultsRepo_InsertTrades(t *testing.T) {
	conn := &fakeConn{}
	repos, err := New(Dependencies{DBConn: conn})
	require.NoError(t, err)

	trades := []backtest.TradeRecord{
		{TsMs: 1000, Action: backtest.ActionBuy, Quantity: 10},
		{TsMs: 2000, Action: backtest.ActionSell, Quantity: 10},
	}
	require.NoError(t, repos.Results.InsertTrades(context.Background(), 7, trades))

	require.Len(t, conn.queries, 2)
	for i, args := range conn.args {
		assert.Contains(t, conn.queries[i], "INSERT INTO backtest_trades")
		assert.Equal(t, int64(7), args[0], "every trade carries the run id")
	}
	assert.Equal(t, int64(1000), conn.args[0][1])
	assert.Equal(t, backtest.ActionSell, conn.args[1][2])
}

func TestResultsRepo_InsertTrades_ErrorWrapsIndex(t *testing.T) {
	conn := &fakeConn{execErr: errors.New("connection reset")}
	repos, err := New(Dependencies{DBConn: conn})
	require.NoError(t, err)

	err = repos.Results.InsertTrades(context.Background(), 7, []backtest.TradeRecord{{TsMs: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert trade 0 for run 7")
}

func TestResultsRepo_RecentRuns(t *testing.T) {
	want := []RunRecord{
		{ID: 2, Instrument: "ETH", Kind: "backtest", CreatedAt: time.Now()},
		{ID: 1, Instrument: "ETH", Kind: "walkforward_period"},
	}
	conn := &fakeConn{rows: want}
	repos, err := New(Dependencies{DBConn: conn})
	require.NoError(t, err)

	runs, err := repos.Results.RecentRuns(context.Background(), "ETH", 5)
	require.NoError(t, err)
	assert.Equal(t, want, runs)

	require.Len(t, conn.args, 1)
	assert.Equal(t, "ETH", conn.args[0][0])
	assert.Equal(t, 5, conn.args[0][1])
	assert.Contains(t, conn.queries[0], "ORDER BY created_at DESC")
}

func TestResultsRepo_RecentRuns_DefaultLimit(t *testing.T) {
	conn := &fakeConn{}
	repos, err := New(Dependencies{DBConn: conn})
	require.NoError(t, err)

	_, err = repos.Results.RecentRuns(context.Background(), "ETH", 0)
	require.NoError(t, err)
	assert.Equal(t, 50, conn.args[0][1])
}
