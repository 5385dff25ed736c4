// Package arimagrid selects an ARIMA(p, d, q) order for a univariate series by
// exhaustive grid search, scoring each order with walk-forward validation.
//
// Every order of the candidate grid is evaluated the same way: the first 66%
// of the series is the initial history, a fresh model is fit on the history
// before each one-step forecast, and the history then grows by the observed
// value. The forecasts are scored with the mean absolute percentage error
// (MAPE) and the order with the lowest score wins; ties keep the first order
// found.
//
// # Packages
//
//   - timeseries: Series type and CSV column loading
//   - stats: autocorrelation used to seed model fitting
//   - arima: CSS-fitted ARIMA(p, d, q) model
//   - metric: MAPE and score comparison
//   - walkforward: rolling-origin evaluation of a single order
//   - grid: candidate grids and the order search
//   - report: results log, console lines, ranking table, JSON summary, chart
//   - config: YAML configuration with environment overrides
//
// # Quick Start
//
// Score one order:
//
//	series, _ := timeseries.LoadColumn("Datasets/airline.csv", "Passengers")
//	eval, _ := walkforward.NewEvaluator().Evaluate(ctx, series, arima.Order{P: 1, D: 1, Q: 0})
//	fmt.Println(eval.Score)
//
// Search the reference grid:
//
//	searcher := grid.New(logger, walkforward.NewEvaluator(), grid.WithObserver(report.NewConsole()))
//	res, _ := searcher.Search(ctx, series, grid.ReferenceCandidates())
//	fmt.Println(res.Best.Order, res.Best.Score)
//
// The arimaeval command wraps the search and writes the results log to
// Results_Forecast/<dataset>/<column>_MAPE.csv.
package arimagrid
