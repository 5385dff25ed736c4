package grid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/arimagrid/arima"
	"github.com/sartorproj/arimagrid/metric"
	"github.com/sartorproj/arimagrid/timeseries"
	"github.com/sartorproj/arimagrid/walkforward"
)

// Evaluator scores a single order.
type Evaluator interface {
	Evaluate(ctx context.Context, series *timeseries.Series, order arima.Order) (*walkforward.Evaluation, error)
}

// Outcome is the result of attempting one order.
type Outcome struct {
	Index   int // position in iteration order
	Order   arima.Order
	Score   float64
	Err     error
	Elapsed time.Duration
}

// OK reports whether the order was evaluated. The score may still be undefined.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Record is one line of the results log.
type Record struct {
	Order arima.Order `json:"order"`
	Score float64     `json:"mape"`
}

// Best is the lowest score seen so far.
type Best struct {
	Order arima.Order
	Score float64
	found bool
}

// NewBest returns the empty best result with a score of +Inf.
func NewBest() Best {
	return Best{Score: math.Inf(1)}
}

// Found reports whether any order produced a defined score.
func (b Best) Found() bool {
	return b.found
}

// Offer replaces the best result when score is a strict improvement.
func (b *Best) Offer(order arima.Order, score float64) bool {
	if !metric.Better(score, b.Score) {
		return false
	}
	b.Order, b.Score, b.found = order, score, true
	return true
}

// Observer is notified of every attempted order, in iteration order.
// An error from an observer aborts the search.
type Observer interface {
	Attempt(o Outcome) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(o Outcome) error

// Attempt calls f(o).
func (f ObserverFunc) Attempt(o Outcome) error {
	return f(o)
}

// Result summarizes a completed search.
type Result struct {
	Records   []Record
	Outcomes  []Outcome
	Best      Best
	Attempted int
	Failed    int
	Elapsed   time.Duration
}

// Searcher evaluates every order of a candidate grid.
type Searcher struct {
	logger    *zap.Logger
	evaluator Evaluator
	workers   int
	observers []Observer
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithWorkers evaluates up to n orders concurrently. Outcomes are still
// reduced and observed in iteration order.
func WithWorkers(n int) Option {
	return func(s *Searcher) {
		s.workers = max(n, 1)
	}
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(s *Searcher) {
		s.observers = append(s.observers, o)
	}
}

// New creates a Searcher.
func New(logger *zap.Logger, evaluator Evaluator, opts ...Option) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Searcher{
		logger:    logger,
		evaluator: evaluator,
		workers:   1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search evaluates every order in candidates against series. Failing orders
// are reported to observers and skipped; only cancellation or an observer
// error stops the search early.
func (s *Searcher) Search(ctx context.Context, series *timeseries.Series, candidates Candidates) (*Result, error) {
	if err := candidates.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	orders := candidates.Orders()
	s.logger.Info("starting grid search",
		zap.String("series", series.Name),
		zap.Int("observations", series.Len()),
		zap.Int("orders", len(orders)),
		zap.Int("workers", s.workers),
	)

	red := &reducer{
		result: &Result{
			Records:  make([]Record, 0, len(orders)),
			Outcomes: make([]Outcome, 0, len(orders)),
			Best:     NewBest(),
		},
		observers: s.observers,
		logger:    s.logger,
	}

	var err error
	if s.workers > 1 {
		err = s.searchParallel(ctx, series, orders, red)
	} else {
		err = s.searchSequential(ctx, series, orders, red)
	}
	if err != nil {
		return nil, err
	}

	res := red.result
	res.Elapsed = time.Since(start)

	fields := []zap.Field{
		zap.Int("attempted", res.Attempted),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", res.Elapsed),
	}
	if res.Best.Found() {
		fields = append(fields, zap.Stringer("best", res.Best.Order), zap.Float64("mape", res.Best.Score))
	}
	s.logger.Info("grid search complete", fields...)

	return res, nil
}

func (s *Searcher) searchSequential(ctx context.Context, series *timeseries.Series, orders []arima.Order, red *reducer) error {
	for i, order := range orders {
		if err := ctx.Err(); err != nil {
			return err
		}
		o := s.evaluate(ctx, series, i, order)
		if err := abortErr(ctx, o); err != nil {
			return err
		}
		if err := red.add(o); err != nil {
			return err
		}
	}
	return nil
}

// searchParallel fills one outcome slot per order and reduces afterwards,
// so the reduction is single-writer and matches the sequential result.
func (s *Searcher) searchParallel(ctx context.Context, series *timeseries.Series, orders []arima.Order, red *reducer) error {
	outcomes := make([]Outcome, len(orders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, order := range orders {
		i, order := i, order
		g.Go(func() error {
			outcomes[i] = s.evaluate(gctx, series, i, order)
			return abortErr(gctx, outcomes[i])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, o := range outcomes {
		if err := red.add(o); err != nil {
			return err
		}
	}
	return nil
}

func (s *Searcher) evaluate(ctx context.Context, series *timeseries.Series, index int, order arima.Order) Outcome {
	start := time.Now()
	o := Outcome{Index: index, Order: order, Score: metric.Undefined()}

	eval, err := s.evaluator.Evaluate(ctx, series, order)
	o.Elapsed = time.Since(start)
	if err != nil {
		o.Err = err
		return o
	}
	o.Score = eval.Score
	return o
}

// abortErr returns the context error when an outcome failed because the
// search itself was canceled.
func abortErr(ctx context.Context, o Outcome) error {
	if o.Err == nil || ctx.Err() == nil {
		return nil
	}
	if errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded) {
		return ctx.Err()
	}
	return nil
}

// reducer applies outcomes to the result in iteration order.
type reducer struct {
	result    *Result
	observers []Observer
	logger    *zap.Logger
}

func (r *reducer) add(o Outcome) error {
	res := r.result
	res.Attempted++
	res.Outcomes = append(res.Outcomes, o)

	if o.OK() {
		res.Records = append(res.Records, Record{Order: o.Order, Score: o.Score})
		improved := res.Best.Offer(o.Order, o.Score)
		r.logger.Debug("order evaluated",
			zap.Stringer("order", o.Order),
			zap.Float64("mape", o.Score),
			zap.Bool("best", improved),
			zap.Duration("elapsed", o.Elapsed),
		)
	} else {
		res.Failed++
		r.logger.Debug("order failed",
			zap.Stringer("order", o.Order),
			zap.Error(o.Err),
			zap.Duration("elapsed", o.Elapsed),
		)
	}

	for _, obs := range r.observers {
		if err := obs.Attempt(o); err != nil {
			return fmt.Errorf("observe ARIMA%s: %w", o.Order, err)
		}
	}
	return nil
}
