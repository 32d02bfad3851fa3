package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ReadRowsCSV loads input rows from a two-column CSV of (timestamp_ms, close).
// A non-numeric first record is treated as a header and skipped. The rows are
// returned in file order; ordering is validated later by the Runner, not here.
func ReadRowsCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("backtest: read csv: %w", err)
	}
	var rows []Row
	for i, rec := range records {
		if len(rec) < 2 {
			continue
		}
		ts, tsErr := strconv.ParseInt(rec[0], 10, 64)
		px, pxErr := strconv.ParseFloat(rec[1], 64)
		if tsErr != nil || pxErr != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("backtest: csv record %d: bad timestamp or price", i)
		}
		rows = append(rows, Row{TsMs: ts, Close: px})
	}
	return rows, nil
}

// ReadRowsCSVFile loads input rows from a CSV file on disk.
func ReadRowsCSVFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("backtest: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRowsCSV(f)
}
