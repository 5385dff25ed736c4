package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrColumnNotFound = errors.New("column not found in header")
	ErrNoData         = errors.New("no valid data found in CSV")
)

// missing cell markers, skipped rather than rejected
var missingMarkers = map[string]struct{}{
	"":     {},
	"NA":   {},
	"NaN":  {},
	"nan":  {},
	"null": {},
}

// LoadColumn reads the named column of a headed CSV file as a series.
func LoadColumn(filename, column string) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open dataset %q: %w", filename, err)
	}
	defer file.Close()

	series, err := LoadColumnFromReader(file, column)
	if err != nil {
		return nil, fmt.Errorf("load dataset %q: %w", filename, err)
	}
	if series.Name == column {
		base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		series.Name = base + "/" + column
	}
	return series, nil
}

// LoadColumnFromReader reads the named column of headed CSV data.
// Missing cells are skipped; any other non-numeric cell is an error.
func LoadColumnFromReader(r io.Reader, column string) (*Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := -1
	for i, h := range header {
		if cleanCell(h) == column {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%q: %w", column, ErrColumnNotFound)
	}

	var values []float64
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		if idx >= len(record) {
			continue
		}

		cell := cleanCell(record[idx])
		if _, missing := missingMarkers[cell]; missing {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d column %q: %w", row, column, err)
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil, ErrNoData
	}
	return NewNamed(column, values), nil
}

func cleanCell(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\""))
}
