package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sartorproj/arimagrid/grid"
)

// ResultsHeader is the first line of every results log.
const ResultsHeader = "P, D, Q, MAPE"

// ResultsLog is the append-only results file, one row per evaluated order.
type ResultsLog struct {
	path string
	file *os.File
	w    *bufio.Writer
	rows int
}

// CreateResultsLog creates or truncates the log at path, creating parent
// directories, and writes the header.
func CreateResultsLog(path string) (*ResultsLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create results directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create results log: %w", err)
	}

	l := &ResultsLog{path: path, file: file, w: bufio.NewWriter(file)}
	if _, err := l.w.WriteString(ResultsHeader + "\n"); err != nil {
		file.Close()
		return nil, fmt.Errorf("write results header: %w", err)
	}
	if err := l.w.Flush(); err != nil {
		file.Close()
		return nil, fmt.Errorf("write results header: %w", err)
	}
	return l, nil
}

// Path returns the file location.
func (l *ResultsLog) Path() string {
	return l.path
}

// Rows returns the number of records written.
func (l *ResultsLog) Rows() int {
	return l.rows
}

// Append writes one record and flushes it to disk.
func (l *ResultsLog) Append(r grid.Record) error {
	_, err := fmt.Fprintf(l.w, "%d, %d, %d, %s\n", r.Order.P, r.Order.D, r.Order.Q, FormatScore(r.Score))
	if err == nil {
		err = l.w.Flush()
	}
	if err != nil {
		return fmt.Errorf("append to results log: %w", err)
	}
	l.rows++
	return nil
}

// Attempt implements grid.Observer. Failed orders are not logged.
func (l *ResultsLog) Attempt(o grid.Outcome) error {
	if !o.OK() {
		return nil
	}
	return l.Append(grid.Record{Order: o.Order, Score: o.Score})
}

// Close flushes and closes the file.
func (l *ResultsLog) Close() error {
	if err := l.w.Flush(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
