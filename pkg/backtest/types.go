package backtest

import (
	"errors"
	"fmt"
	"math"
)

// Trade actions recorded in the trade log.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Fatal input errors. A run that hits one of these produces no report.
var (
	ErrNoRows          = errors.New("backtest: input has no rows")
	ErrOutOfOrder      = errors.New("backtest: timestamps are not in ascending order")
	ErrMissingPrice    = errors.New("backtest: row has no usable price")
	ErrPredictionCount = errors.New("backtest: prediction count does not match row count")
)

// Row is one time-ordered observation of the instrument under test.
type Row struct {
	TsMs  int64   // epoch milliseconds
	Close float64 // mark price for execution and valuation
}

// Signal is a discrete trading decision derived from a model prediction.
type Signal struct {
	Direction    int     // +1 buy, -1 sell, 0 hold
	Confidence   float64 // normalized prediction magnitude in [0,1]
	SizeFraction float64 // fraction of cash/position to commit in [0,1]
}

// TradeRecord captures one filled order. Records are append-only; the
// engine never mutates a record after it is written to the log.
type TradeRecord struct {
	TsMs          int64   `json:"ts_ms"`
	Action        string  `json:"action"`
	FillPrice     float64 `json:"fill_price"` // slippage-adjusted
	Quantity      int64   `json:"quantity"`
	Gross         float64 `json:"gross"` // cost (BUY) or revenue (SELL) before fee
	Fee           float64 `json:"fee"`
	NetCashDelta  float64 `json:"net_cash_delta"` // signed change applied to cash
	CashAfter     float64 `json:"cash_after"`
	PositionAfter int64   `json:"position_after"`
}

// Snapshot is the post-trade portfolio valuation for one input row, marked
// at the unadjusted market price.
type Snapshot struct {
	TsMs          int64   `json:"ts_ms"`
	Cash          float64 `json:"cash"`
	Position      int64   `json:"position"`
	PositionValue float64 `json:"position_value"`
	TotalValue    float64 `json:"total_value"`
	Price         float64 `json:"price"`
}

// Report is the per-run performance summary against a buy-and-hold benchmark.
type Report struct {
	InitialCash      float64 `json:"initial_cash"`
	FinalValue       float64 `json:"final_value"`
	TotalReturn      float64 `json:"total_return"`
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"` // most negative peak-to-trough fraction
	BenchmarkReturn  float64 `json:"benchmark_return"`
	ExcessReturn     float64 `json:"excess_return"`
	TotalTrades      int     `json:"total_trades"`
	WinRate          float64 `json:"win_rate"`
}

// Result bundles everything one run produces. All three members are
// immutable once returned.
type Result struct {
	Report    Report
	Trades    []TradeRecord
	Snapshots []Snapshot
}

// validateRows enforces the fatal-input contract: at least one row, usable
// prices everywhere, and ascending timestamps. Out-of-order input is
// rejected, never silently reordered.
func validateRows(rows []Row) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	for i, r := range rows {
		if r.Close <= 0 || math.IsNaN(r.Close) {
			return fmt.Errorf("%w: row %d", ErrMissingPrice, i)
		}
		if i > 0 && r.TsMs < rows[i-1].TsMs {
			return fmt.Errorf("%w: row %d (%d < %d)", ErrOutOfOrder, i, r.TsMs, rows[i-1].TsMs)
		}
	}
	return nil
}
