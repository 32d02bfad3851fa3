package journal

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantbt/pkg/backtest"
)

func TestWriteRun(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.nowFn = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	path, err := w.WriteRun(&RunRecord{
		Instrument: "BTC",
		Kind:       "backtest",
		Report:     backtest.Report{InitialCash: 100000, FinalValue: 105000, TotalReturn: 0.05},
		TradeCount: 3,
		Success:    true,
	})
	require.NoError(t, err)
	assert.Contains(t, path, "run_20250301_120000_00001.json")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got RunRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "BTC", got.Instrument)
	assert.InDelta(t, 0.05, got.Report.TotalReturn, 1e-12)
	assert.True(t, got.Success)
	assert.Nil(t, got.Errors)
}

func TestWriteRun_SequenceAndNil(t *testing.T) {
	w := NewWriter(t.TempDir())

	p1, err := w.WriteRun(&RunRecord{Instrument: "ETH", Kind: "backtest"})
	require.NoError(t, err)
	p2, err := w.WriteRun(&RunRecord{Instrument: "ETH", Kind: "backtest"})
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)

	_, err = w.WriteRun(nil)
	assert.Error(t, err)
}
