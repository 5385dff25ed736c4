package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/arimagrid/stats"
	"github.com/sartorproj/arimagrid/timeseries"
)

var (
	ErrInvalidOrder     = errors.New("invalid ARIMA order")
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
	ErrNotFitted        = errors.New("model must be fitted before prediction")
	ErrInvalidSteps     = errors.New("steps must be at least 1")
	ErrNonFinite        = errors.New("non-finite value")
)

// coefficient bound keeping the AR part stationary and the MA part invertible
const coeffBound = 0.99

const (
	cssMaxIter      = 100
	cssTolerance    = 1e-6
	cssLearningRate = 0.01
)

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int // AR order
	D int // differencing order
	Q int // MA order
}

// String renders the order as "(p, d, q)".
func (o Order) String() string {
	return fmt.Sprintf("(%d, %d, %d)", o.P, o.D, o.Q)
}

// Validate rejects negative components.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidOrder, o)
	}
	return nil
}

// MinObservations is the shortest series Fit accepts for this order.
func (o Order) MinObservations() int {
	return o.P + o.D + o.Q + 2
}

// Model represents an ARIMA model estimated by conditional sum of squares.
type Model struct {
	Order     Order
	ARCoeffs  []float64 // phi
	MACoeffs  []float64 // theta
	Intercept float64   // mean of the differenced series
	Variance  float64   // residual variance

	fitted    bool
	nObs      int
	diffData  []float64
	tails     []float64 // last value of each differencing level below D
	residuals []float64
}

// New creates an unfitted ARIMA(p,d,q) model.
func New(p, d, q int) *Model {
	return NewWithOrder(Order{P: p, D: d, Q: q})
}

// NewWithOrder creates an unfitted model for order.
func NewWithOrder(order Order) *Model {
	return &Model{
		Order:    order,
		ARCoeffs: make([]float64, max(order.P, 0)),
		MACoeffs: make([]float64, max(order.Q, 0)),
	}
}

// Fit estimates the model on series. The series is not modified.
// A model can be refit; each call discards the previous estimate.
func (m *Model) Fit(series *timeseries.Series) error {
	if err := m.Order.Validate(); err != nil {
		return err
	}
	if series.Len() < m.Order.MinObservations() {
		return fmt.Errorf("%w: have %d, need %d for ARIMA%s",
			ErrInsufficientData, series.Len(), m.Order.MinObservations(), m.Order)
	}
	if series.HasNonFinite() {
		return fmt.Errorf("%w in input series", ErrNonFinite)
	}

	m.fitted = false
	m.nObs = series.Len()

	level := series
	m.tails = make([]float64, m.Order.D)
	for i := 0; i < m.Order.D; i++ {
		m.tails[i] = level.Values[level.Len()-1]
		level = level.Diff()
	}
	m.diffData = level.Values

	m.fitCSS()

	if !m.finite() {
		return fmt.Errorf("%w in ARIMA%s estimate", ErrNonFinite, m.Order)
	}
	m.fitted = true
	return nil
}

// fitCSS fits the differenced data with conditional sum of squares.
func (m *Model) fitCSS() {
	y := m.diffData
	p, q := m.Order.P, m.Order.Q

	m.Intercept = stat.Mean(y, nil)

	if p > 0 {
		m.ARCoeffs = yuleWalker(stats.ACF(timeseries.New(y), p), p)
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}

	if p > 0 || q > 0 {
		m.optimizeCSS(y)
	}

	start := max(p, q)
	m.residuals = make([]float64, len(y))
	for t := 0; t < start; t++ {
		m.residuals[t] = y[t] - m.Intercept
	}
	sse := m.cssResiduals(y, m.residuals)

	count := len(y) - start
	if dof := count - p - q - 1; dof > 0 {
		m.Variance = sse / float64(dof)
	} else {
		m.Variance = sse / float64(count)
	}
}

// cssResiduals fills residuals from max(p,q) onward and returns their sum of squares.
func (m *Model) cssResiduals(y, residuals []float64) float64 {
	p, q := m.Order.P, m.Order.Q
	sse := 0.0
	for t := max(p, q); t < len(y); t++ {
		pred := m.Intercept
		for i := 0; i < p; i++ {
			pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
		}
		for i := 0; i < q; i++ {
			pred += m.MACoeffs[i] * residuals[t-i-1]
		}
		residuals[t] = y[t] - pred
		sse += residuals[t] * residuals[t]
	}
	return sse
}

// optimizeCSS refines AR and MA coefficients with bounded gradient steps.
func (m *Model) optimizeCSS(y []float64) {
	n := float64(len(y))
	p, q := m.Order.P, m.Order.Q
	start := max(p, q)

	residuals := make([]float64, len(y))
	arGrad := make([]float64, p)
	maGrad := make([]float64, q)

	prevSSE := m.cssResiduals(y, residuals)
	for iter := 0; iter < cssMaxIter; iter++ {
		clear(arGrad)
		clear(maGrad)
		for t := start; t < len(y); t++ {
			for i := 0; i < p; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < q; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
		}

		for i := range arGrad {
			m.ARCoeffs[i] = clamp(m.ARCoeffs[i] - cssLearningRate*arGrad[i]/n)
		}
		for i := range maGrad {
			m.MACoeffs[i] = clamp(m.MACoeffs[i] - cssLearningRate*maGrad[i]/n)
		}

		sse := m.cssResiduals(y, residuals)
		if math.Abs(prevSSE-sse) < cssTolerance {
			break
		}
		prevSSE = sse
	}
}

func (m *Model) finite() bool {
	check := []float64{m.Intercept, m.Variance}
	check = append(check, m.ARCoeffs...)
	check = append(check, m.MACoeffs...)
	for _, v := range check {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Predict generates forecasts for the given number of steps ahead on the
// original scale of the fitted series.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, ErrInvalidSteps
	}

	p, q := m.Order.P, m.Order.Q
	y := m.diffData
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)
	extResiduals := make([]float64, n+steps)
	copy(extResiduals, m.residuals)

	for t := n; t < n+steps; t++ {
		pred := m.Intercept
		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.ARCoeffs[i] * (extY[t-i-1] - m.Intercept)
		}
		// future shocks have zero expectation
		for i := 0; i < q && t-i-1 >= 0; i++ {
			pred += m.MACoeffs[i] * extResiduals[t-i-1]
		}
		extY[t] = pred
	}

	forecasts := m.integrate(extY[n:])
	for i, f := range forecasts {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w in ARIMA%s forecast %d", ErrNonFinite, m.Order, i)
		}
	}
	return forecasts, nil
}

// Forecast returns the one-step-ahead forecast.
func (m *Model) Forecast() (float64, error) {
	f, err := m.Predict(1)
	if err != nil {
		return 0, err
	}
	return f[0], nil
}

// integrate undoes differencing level by level, innermost first.
func (m *Model) integrate(diffed []float64) []float64 {
	result := make([]float64, len(diffed))
	copy(result, diffed)

	for level := m.Order.D - 1; level >= 0; level-- {
		prev := m.tails[level]
		for j := range result {
			result[j] += prev
			prev = result[j]
		}
	}
	return result
}

// Residuals returns a copy of the in-sample residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

// NObs returns the number of observations used by the last fit.
func (m *Model) NObs() int {
	return m.nObs
}

// yuleWalker solves the Yule-Walker equations for order AR coefficients.
// A singular or missing autocorrelation yields zero coefficients.
func yuleWalker(acf []float64, order int) []float64 {
	phi := make([]float64, order)
	if order <= 0 || len(acf) <= order {
		return phi
	}

	r := mat.NewDense(order, order, nil)
	for i := 0; i < order; i++ {
		for j := 0; j < order; j++ {
			k := i - j
			if k < 0 {
				k = -k
			}
			r.Set(i, j, acf[k])
		}
	}
	rhs := mat.NewVecDense(order, append([]float64(nil), acf[1:order+1]...))

	var sol mat.VecDense
	if err := sol.SolveVec(r, rhs); err != nil {
		return phi
	}
	for i := range phi {
		phi[i] = clamp(sol.AtVec(i))
	}
	return phi
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-coeffBound, math.Min(coeffBound, v))
}
