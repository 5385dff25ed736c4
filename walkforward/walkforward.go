// Package walkforward scores a model order by rolling-origin validation: the
// model is refit on an expanding history before every one-step forecast, and
// the history is extended with the observed value, never the forecast.
package walkforward

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/sartorproj/arimagrid/arima"
	"github.com/sartorproj/arimagrid/metric"
	"github.com/sartorproj/arimagrid/timeseries"
)

// DefaultTrainRatio is the share of the series used as the initial history.
const DefaultTrainRatio = 0.66

var ErrEvaluation = errors.New("walk-forward evaluation failed")

// Model is a forecaster that can be fit on a history and predict ahead of it.
type Model interface {
	Fit(series *timeseries.Series) error
	Predict(steps int) ([]float64, error)
}

// Factory builds a fresh, unfitted model for an order.
type Factory func(order arima.Order) Model

// ARIMA is the default Factory.
func ARIMA(order arima.Order) Model {
	return arima.NewWithOrder(order)
}

// Evaluation is the outcome of one walk-forward run.
type Evaluation struct {
	Order       arima.Order
	TrainSize   int
	Actual      []float64
	Predictions []float64
	Score       float64
}

// Evaluator runs walk-forward validation for single orders.
type Evaluator struct {
	factory    Factory
	trainRatio float64
	logger     *zap.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithFactory overrides the model constructor.
func WithFactory(f Factory) Option {
	return func(e *Evaluator) {
		e.factory = f
	}
}

// WithTrainRatio sets the train share of the series, in (0, 1).
func WithTrainRatio(ratio float64) Option {
	return func(e *Evaluator) {
		e.trainRatio = ratio
	}
}

// WithLogger sets the logger used for per-step debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator returns an Evaluator fitting ARIMA models on a 66% split unless
// configured otherwise.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		factory:    ARIMA,
		trainRatio: DefaultTrainRatio,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TrainRatio returns the configured train share.
func (e *Evaluator) TrainRatio() float64 {
	return e.trainRatio
}

// SplitIndex returns floor(ratio * n), the positional train/test boundary.
func SplitIndex(n int, ratio float64) int {
	idx := int(float64(n) * ratio)
	return min(max(idx, 0), n)
}

// Split copies values into a train prefix and a test suffix. Empty halves of
// a non-nil input are empty, not nil.
func Split(values []float64, ratio float64) (train, test []float64) {
	idx := SplitIndex(len(values), ratio)
	return slices.Clone(values[:idx]), slices.Clone(values[idx:])
}

// Evaluate runs walk-forward validation of order over series. Any fit or
// forecast failure aborts the run with an error wrapping ErrEvaluation and no
// score. A successful run may still carry an undefined score.
func (e *Evaluator) Evaluate(ctx context.Context, series *timeseries.Series, order arima.Order) (*Evaluation, error) {
	train, test := Split(series.Values, e.trainRatio)

	history := make([]float64, len(train), len(series.Values))
	copy(history, train)
	predictions := make([]float64, 0, len(test))

	log := e.logger.With(zap.Stringer("order", order))

	for t, observed := range test {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		yhat, err := e.step(history, order)
		if err != nil {
			return nil, fmt.Errorf("%w: ARIMA%s step %d/%d (history %d): %w",
				ErrEvaluation, order, t+1, len(test), len(history), err)
		}
		log.Debug("forecast",
			zap.Int("step", t),
			zap.Int("history", len(history)),
			zap.Float64("forecast", yhat),
			zap.Float64("observed", observed),
		)

		predictions = append(predictions, yhat)
		history = append(history, observed)
	}

	score, err := metric.MAPE(test, predictions)
	if err != nil {
		return nil, fmt.Errorf("%w: ARIMA%s: %w", ErrEvaluation, order, err)
	}

	return &Evaluation{
		Order:       order,
		TrainSize:   len(train),
		Actual:      test,
		Predictions: predictions,
		Score:       score,
	}, nil
}

// step fits a fresh model on history and returns the first forecast point.
func (e *Evaluator) step(history []float64, order arima.Order) (float64, error) {
	model := e.factory(order)
	// the model sees a capped view so it can never grow history itself
	if err := model.Fit(timeseries.New(history[:len(history):len(history)])); err != nil {
		return 0, fmt.Errorf("fit: %w", err)
	}

	forecast, err := model.Predict(1)
	if err != nil {
		return 0, fmt.Errorf("forecast: %w", err)
	}
	if len(forecast) == 0 {
		return 0, errors.New("forecast: empty forecast")
	}
	if math.IsNaN(forecast[0]) || math.IsInf(forecast[0], 0) {
		return 0, fmt.Errorf("forecast: %w", arima.ErrNonFinite)
	}
	return forecast[0], nil
}
