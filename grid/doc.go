// Package grid implements brute-force ARIMA order search.
//
// Every (p, d, q) in the Cartesian product of the candidate sets is scored by
// an Evaluator, normally a walkforward.Evaluator, and the order with the
// lowest MAPE is kept as the best result.
//
// # Basic Usage
//
//	searcher := grid.New(logger, walkforward.NewEvaluator(),
//	    grid.WithObserver(console),
//	)
//	result, err := searcher.Search(ctx, series, grid.ReferenceCandidates())
//	if err != nil {
//	    return err
//	}
//	if result.Best.Found() {
//	    fmt.Printf("Best ARIMA%s MAPE=%.3f%%\n", result.Best.Order, result.Best.Score)
//	}
//
// # Iteration Order and Ties
//
// Orders are visited with p outermost and q innermost, each set in the order
// given. The best result only changes on a strictly lower score, so ties keep
// the earliest order. Undefined scores are recorded but never selected.
//
// # Failures
//
// An order whose evaluation fails is reported to observers with Outcome.Err
// set, is left out of Result.Records, and does not stop the search. If every
// order fails, Result.Best.Found returns false.
//
// # Concurrency
//
// WithWorkers evaluates orders on a bounded pool. Outcomes are collected per
// order and reduced in iteration order afterwards, so records, best result and
// observer calls are identical to a sequential search.
package grid
