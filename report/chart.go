package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sartorproj/arimagrid/grid"
	"github.com/sartorproj/arimagrid/metric"
)

// MAPEChart builds a bar chart of the defined scores in search order.
func MAPEChart(title string, records []grid.Record) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "MAPE %",
		}),
	)

	labels := make([]string, 0, len(records))
	data := make([]opts.BarData, 0, len(records))
	for _, r := range records {
		if metric.IsUndefined(r.Score) {
			continue
		}
		labels = append(labels, fmt.Sprintf("ARIMA%s", r.Order))
		data = append(data, opts.BarData{Value: r.Score})
	}

	bar.SetXAxis(labels).AddSeries("MAPE", data)
	return bar
}

// WriteChart renders the MAPE chart as an HTML page.
func WriteChart(w io.Writer, title string, records []grid.Record) error {
	return MAPEChart(title, records).Render(w)
}
