// Package metric scores forecasts against observed values.
package metric

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrLengthMismatch = errors.New("predicted and actual have different lengths")

// Undefined returns the sentinel for a score that cannot be computed.
func Undefined() float64 {
	return math.NaN()
}

// IsUndefined reports whether score is the undefined sentinel.
func IsUndefined(score float64) bool {
	return math.IsNaN(score)
}

// Better reports whether candidate strictly improves on incumbent.
// An undefined candidate never improves on anything.
func Better(candidate, incumbent float64) bool {
	if IsUndefined(candidate) {
		return false
	}
	return IsUndefined(incumbent) || candidate < incumbent
}

// MAPE calculates the mean absolute percentage error of predicted against
// actual: mean(|actual-predicted| / |actual|) * 100. The denominator is always
// actual, so the metric is not symmetric.
//
// The score is undefined when actual is empty, contains a zero, or either
// sequence contains NaN. Mismatched lengths are an error.
func MAPE(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrLengthMismatch)
	}
	if len(actual) == 0 {
		return Undefined(), nil
	}

	ape := make([]float64, len(actual))
	for i, a := range actual {
		if a == 0 || math.IsNaN(a) || math.IsNaN(predicted[i]) {
			return Undefined(), nil
		}
		ape[i] = math.Abs((a - predicted[i]) / a)
	}
	floats.Scale(100, ape)
	return stat.Mean(ape, nil), nil
}
