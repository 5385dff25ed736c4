package grid

import (
	"errors"
	"fmt"

	"github.com/sartorproj/arimagrid/arima"
)

var (
	ErrNoCandidates     = errors.New("candidate set is empty")
	ErrInvalidCandidate = errors.New("candidate value must be non-negative")
)

// Candidates holds the values tried for each component of the order.
type Candidates struct {
	P []int `yaml:"p_values" json:"p_values"`
	D []int `yaml:"d_values" json:"d_values"`
	Q []int `yaml:"q_values" json:"q_values"`
}

// ReferenceCandidates returns the 7x4x4 reference grid.
func ReferenceCandidates() Candidates {
	return Candidates{
		P: []int{0, 1, 2, 4, 6, 8, 10},
		D: []int{0, 1, 2, 3},
		Q: []int{0, 1, 2, 3},
	}
}

// Len returns the number of orders in the Cartesian product.
func (c Candidates) Len() int {
	return len(c.P) * len(c.D) * len(c.Q)
}

// Orders expands the Cartesian product with p outermost and q innermost,
// preserving the given order of each set.
func (c Candidates) Orders() []arima.Order {
	orders := make([]arima.Order, 0, c.Len())
	for _, p := range c.P {
		for _, d := range c.D {
			for _, q := range c.Q {
				orders = append(orders, arima.Order{P: p, D: d, Q: q})
			}
		}
	}
	return orders
}

// Validate rejects empty sets and negative values.
func (c Candidates) Validate() error {
	sets := []struct {
		name   string
		values []int
	}{
		{"p", c.P},
		{"d", c.D},
		{"q", c.Q},
	}
	for _, set := range sets {
		if len(set.values) == 0 {
			return fmt.Errorf("%s: %w", set.name, ErrNoCandidates)
		}
		for _, v := range set.values {
			if v < 0 {
				return fmt.Errorf("%s=%d: %w", set.name, v, ErrInvalidCandidate)
			}
		}
	}
	return nil
}
