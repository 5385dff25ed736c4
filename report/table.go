package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/olekukonko/tablewriter"

	"github.com/sartorproj/arimagrid/grid"
	"github.com/sartorproj/arimagrid/metric"
)

// Rank returns records sorted by ascending score. Undefined scores go last and
// equal scores keep their search order.
func Rank(records []grid.Record) []grid.Record {
	ranked := slices.Clone(records)
	slices.SortStableFunc(ranked, func(a, b grid.Record) int {
		au, bu := metric.IsUndefined(a.Score), metric.IsUndefined(b.Score)
		switch {
		case au && bu:
			return 0
		case au:
			return 1
		case bu:
			return -1
		}
		return cmp.Compare(a.Score, b.Score)
	})
	return ranked
}

// RankingTable renders the best limit records as a table; limit <= 0 renders all.
func RankingTable(w io.Writer, records []grid.Record, limit int) error {
	ranked := Rank(records)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "P", "D", "Q", "MAPE")
	for i, r := range ranked {
		if err := table.Append(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", r.Order.P),
			fmt.Sprintf("%d", r.Order.D),
			fmt.Sprintf("%d", r.Order.Q),
			FormatScore(r.Score),
		); err != nil {
			return fmt.Errorf("ranking table: %w", err)
		}
	}
	return table.Render()
}
