// Package journal persists run outcomes as timestamped JSON files for
// audit and offline analysis. Records are write-once: the writer never
// rewrites a file it has produced.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quantbt/pkg/backtest"
	"quantbt/pkg/walkforward"
)

// RunRecord captures one backtest or walk-forward period end to end.
type RunRecord struct {
	Timestamp    time.Time                 `json:"timestamp"`
	Instrument   string                    `json:"instrument"`
	Kind         string                    `json:"kind"` // "backtest" | "walkforward_period"
	Period       int                       `json:"period,omitempty"`
	Report       backtest.Report           `json:"report"`
	Errors       *walkforward.ErrorMetrics `json:"error_metrics,omitempty"`
	TradeCount   int                       `json:"trade_count"`
	ArtifactPath string                    `json:"artifact_path,omitempty"`
	Success      bool                      `json:"success"`
	ErrorMessage string                    `json:"error_message,omitempty"`
}

// Writer appends run records to a directory as individual JSON files.
type Writer struct {
	dir   string
	seq   int
	nowFn func() time.Time
}

// NewWriter constructs a journal writer rooted at dir.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// WriteRun writes one record to a timestamped JSON file and returns its path.
func (w *Writer) WriteRun(rec *RunRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	name := fmt.Sprintf("run_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
