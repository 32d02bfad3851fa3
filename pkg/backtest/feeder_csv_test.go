package backtest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRowsCSV(t *testing.T) {
	in := "ts_ms,close\n1000,100.5\n2000,101.25\n3000,99.75\n"
	rows, err := ReadRowsCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3, "header skipped")

	assert.Equal(t, int64(1000), rows[0].TsMs)
	assert.InDelta(t, 100.5, rows[0].Close, 1e-12)
	assert.InDelta(t, 99.75, rows[2].Close, 1e-12)
}

func TestReadRowsCSV_BadRecord(t *testing.T) {
	in := "1000,100.5\n2000,not-a-price\n"
	_, err := ReadRowsCSV(strings.NewReader(in))
	assert.Error(t, err, "malformed non-header record is rejected")
}

func TestReadRowsCSV_NoHeader(t *testing.T) {
	rows, err := ReadRowsCSV(strings.NewReader("1000,100\n2000,101\n"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
