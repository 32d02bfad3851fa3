package walkforward

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromReader(t *testing.T) {
	in := `
train_period: 500
test_period: 100
backtest:
  initial_cash: 250000
  fee_rate: 0.0005
  slippage: 0.0002
  buy_threshold: 0.01
  sell_threshold: -0.01
  max_position_fraction: 0.3
`
	cfg, err := LoadConfigFromReader(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.TrainPeriod)
	assert.Equal(t, 100, cfg.TestPeriod)
	assert.InDelta(t, 250000, cfg.Backtest.InitialCash, 1e-9)
	assert.InDelta(t, 0.0005, cfg.Backtest.FeeRate, 1e-12)
	assert.InDelta(t, 0.01, cfg.Backtest.BuyThreshold, 1e-12)
}

func TestLoadConfigFromReader_DefaultsAndValidation(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader("{}"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTrainPeriod, cfg.TrainPeriod)
	assert.Equal(t, DefaultTestPeriod, cfg.TestPeriod)

	_, err = LoadConfigFromReader(strings.NewReader("train_period: -5\n"))
	assert.ErrorIs(t, err, ErrBadWindows)
}

func TestLoadConfigFromReader_BadYAML(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("train_period: ["))
	assert.Error(t, err)
}
