package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ReadCSV loads a numeric CSV file into a table. The first row is the
// header; every other cell must parse as a float64.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}

	header := records[0]
	cols := make([][]float64, len(header))
	for i := range cols {
		cols[i] = make([]float64, 0, len(records)-1)
	}
	for rowIdx, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("%s row %d has %d fields, header has %d", path, rowIdx+2, len(record), len(header))
		}
		for colIdx, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %q: %w", path, rowIdx+2, header[colIdx], err)
			}
			cols[colIdx] = append(cols[colIdx], v)
		}
	}

	table := NewTable()
	for i, name := range header {
		if err := table.AddColumn(name, cols[i]); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Str("path", path).
		Int("rows", table.NumRows()).
		Int("columns", table.NumColumns()).
		Msg("loaded CSV table")

	return table, nil
}
