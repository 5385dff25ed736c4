package report

import (
	"fmt"
	"io"
	"os"

	"github.com/sartorproj/arimagrid/grid"
)

// NoScore marks an order whose evaluation failed.
const NoScore = "Nil"

// Console prints one status line per attempted order and the final best line.
type Console struct {
	out io.Writer
}

// NewConsole writes to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter writes to w.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Attempt implements grid.Observer.
func (c *Console) Attempt(o grid.Outcome) error {
	score := NoScore
	if o.OK() {
		score = FormatScore(o.Score)
	}
	_, err := fmt.Fprintf(c.out, "ARIMA%s MAPE=%s\n", o.Order, score)
	return err
}

// Best prints the best configuration, or that none was found.
func (c *Console) Best(b grid.Best) error {
	if !b.Found() {
		_, err := fmt.Fprintln(c.out, "Best ARIMA: no valid configuration found")
		return err
	}
	_, err := fmt.Fprintf(c.out, "Best ARIMA%s MAPE=%s\n", b.Order, FormatScore(b.Score))
	return err
}
