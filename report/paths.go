// Package report writes the outputs of an order search: the results log, the
// console status lines and the optional ranking table, JSON summary and chart.
package report

import (
	"fmt"
	"path/filepath"

	"github.com/sartorproj/arimagrid/metric"
)

// DatasetPath returns <dir>/<dataset>.csv.
func DatasetPath(dir, dataset string) string {
	return filepath.Join(dir, dataset+".csv")
}

// ResultsPath returns <dir>/<dataset>/<column>_MAPE.csv.
func ResultsPath(dir, dataset, column string) string {
	return filepath.Join(dir, dataset, column+"_MAPE.csv")
}

// SummaryPath returns <dir>/<dataset>/<column>_summary.json.
func SummaryPath(dir, dataset, column string) string {
	return filepath.Join(dir, dataset, column+"_summary.json")
}

// ChartPath returns <dir>/<dataset>/<column>_MAPE.html.
func ChartPath(dir, dataset, column string) string {
	return filepath.Join(dir, dataset, column+"_MAPE.html")
}

// FormatScore renders a MAPE with three decimals and a percent sign. An
// undefined score renders as "nan%".
func FormatScore(score float64) string {
	if metric.IsUndefined(score) {
		return "nan%"
	}
	return fmt.Sprintf("%.3f%%", score)
}
