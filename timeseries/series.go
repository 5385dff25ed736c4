// Package timeseries provides the observation series consumed by the order search.
package timeseries

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series is an ordered sequence of observations, oldest first.
type Series struct {
	Values []float64
	Name   string
}

// New wraps values in a Series. The slice is not copied.
func New(values []float64) *Series {
	return &Series{Values: values}
}

// NewNamed wraps values in a Series carrying a display name.
func NewNamed(name string, values []float64) *Series {
	return &Series{Values: values, Name: name}
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance returns the unbiased sample variance, or 0 with fewer than two points.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Min returns the smallest observation, NaN when empty.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the largest observation, NaN when empty.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// Diff returns the first difference y[t] - y[t-1].
func (s *Series) Diff() *Series {
	if len(s.Values) < 2 {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	result := make([]float64, len(s.Values)-1)
	for i := 1; i < len(s.Values); i++ {
		result[i-1] = s.Values[i] - s.Values[i-1]
	}
	return &Series{Values: result, Name: s.Name + "_diff"}
}

// HasNonFinite reports whether any observation is NaN or infinite.
func (s *Series) HasNonFinite() bool {
	for _, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
