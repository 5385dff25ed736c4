package arima

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/arimagrid/timeseries"
)

func ar1Series(n int, phi float64) *timeseries.Series {
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		innovation := float64(i%7-3) / 3
		values[i] = phi*(values[i-1]-100) + 100 + innovation
	}
	return timeseries.New(values)
}

func TestNewARIMA(t *testing.T) {
	model := New(2, 1, 1)

	assert.Equal(t, Order{P: 2, D: 1, Q: 1}, model.Order)
	assert.Len(t, model.ARCoeffs, 2)
	assert.Len(t, model.MACoeffs, 1)
}

func TestOrderString(t *testing.T) {
	assert.Equal(t, "(0, 0, 0)", Order{}.String())
	assert.Equal(t, "(10, 3, 2)", Order{P: 10, D: 3, Q: 2}.String())
}

func TestOrderValidate(t *testing.T) {
	assert.NoError(t, Order{P: 1, D: 1, Q: 1}.Validate())
	assert.ErrorIs(t, Order{P: -1}.Validate(), ErrInvalidOrder)

	err := New(0, -1, 0).Fit(ar1Series(50, 0.5))
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestARIMAFitAR1(t *testing.T) {
	model := New(1, 0, 0)
	require.NoError(t, model.Fit(ar1Series(200, 0.7)))

	require.Len(t, model.ARCoeffs, 1)
	assert.Greater(t, model.ARCoeffs[0], 0.0)
	assert.LessOrEqual(t, model.ARCoeffs[0], coeffBound)
	assert.InDelta(t, 100, model.Intercept, 1)
	assert.Len(t, model.Residuals(), 200)
	assert.Equal(t, 200, model.NObs())
}

func TestARIMAFitMA1(t *testing.T) {
	n := 200
	innovations := make([]float64, n)
	for i := range innovations {
		innovations[i] = float64(i%7-3) / 3
	}
	values := make([]float64, n)
	values[0] = 100 + innovations[0]
	for i := 1; i < n; i++ {
		values[i] = 100 + innovations[i] + 0.5*innovations[i-1]
	}

	model := New(0, 0, 1)
	require.NoError(t, model.Fit(timeseries.New(values)))
	assert.LessOrEqual(t, math.Abs(model.MACoeffs[0]), coeffBound)
}

func TestARIMAWhiteNoise(t *testing.T) {
	n := 200
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i%7-3) / 3
	}
	series := timeseries.New(values)

	model := New(0, 0, 0)
	require.NoError(t, model.Fit(series))
	assert.InDelta(t, series.Mean(), model.Intercept, 1e-12)
	assert.InDelta(t, series.Variance(), model.Variance, 1e-12)

	f, err := model.Forecast()
	require.NoError(t, err)
	assert.InDelta(t, series.Mean(), f, 1e-12)
}

func TestARIMAConstantModelShortSeries(t *testing.T) {
	model := New(0, 0, 0)
	require.NoError(t, model.Fit(timeseries.New([]float64{10, 20, 30, 40, 50, 60})))

	f, err := model.Forecast()
	require.NoError(t, err)
	assert.InDelta(t, 35.0, f, 1e-12)
}

func TestARIMADifferencingRecoversTrend(t *testing.T) {
	// a straight line differences to a constant, so the forecast continues it
	values := make([]float64, 30)
	for i := range values {
		values[i] = 5 + 2*float64(i)
	}

	model := New(0, 1, 0)
	require.NoError(t, model.Fit(timeseries.New(values)))

	forecasts, err := model.Predict(3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{65, 67, 69}, forecasts, 1e-9)
}

func TestARIMASecondDifference(t *testing.T) {
	// quadratic: second difference is the constant 2
	values := make([]float64, 20)
	for i := range values {
		x := float64(i)
		values[i] = x * x
	}

	model := New(0, 2, 0)
	require.NoError(t, model.Fit(timeseries.New(values)))

	forecasts, err := model.Predict(2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{400, 441}, forecasts, 1e-9)
}

func TestARIMAPredict(t *testing.T) {
	n := 100
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + float64(i)/10 + float64(i%7-3)/2
	}

	model := New(1, 1, 0)
	require.NoError(t, model.Fit(timeseries.New(values)))

	forecasts, err := model.Predict(5)
	require.NoError(t, err)
	require.Len(t, forecasts, 5)
	for _, f := range forecasts {
		assert.False(t, math.IsNaN(f) || math.IsInf(f, 0))
		assert.InDelta(t, values[n-1], f, 50)
	}
}

func TestARIMAPredictErrors(t *testing.T) {
	model := New(1, 0, 0)
	_, err := model.Predict(1)
	assert.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, model.Fit(ar1Series(50, 0.5)))
	_, err = model.Predict(0)
	assert.ErrorIs(t, err, ErrInvalidSteps)
}

func TestARIMAInsufficientData(t *testing.T) {
	model := New(5, 2, 5)
	err := model.Fit(timeseries.New([]float64{1, 2, 3}))
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = model.Predict(1)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestARIMANonFiniteInput(t *testing.T) {
	values := ar1Series(40, 0.5).Values
	values[10] = math.NaN()

	err := New(1, 0, 0).Fit(timeseries.New(values))
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestARIMARefit(t *testing.T) {
	model := New(1, 0, 1)
	require.NoError(t, model.Fit(ar1Series(60, 0.5)))
	first, err := model.Forecast()
	require.NoError(t, err)

	require.NoError(t, model.Fit(ar1Series(80, 0.5)))
	assert.Equal(t, 80, model.NObs())
	second, err := model.Forecast()
	require.NoError(t, err)
	assert.False(t, math.IsNaN(first) || math.IsNaN(second))
}

func TestYuleWalker(t *testing.T) {
	// autocorrelations of an AR(1) with phi = 0.6
	acf := []float64{1.0, 0.6, 0.36, 0.216, 0.13}

	coeffs := yuleWalker(acf, 2)
	require.Len(t, coeffs, 2)
	assert.InDelta(t, 0.6, coeffs[0], 1e-9)
	assert.InDelta(t, 0.0, coeffs[1], 1e-9)

	assert.Equal(t, []float64{0, 0}, yuleWalker(nil, 2))
	assert.Equal(t, []float64{0, 0, 0}, yuleWalker([]float64{1, 0.5}, 3))
}

func TestARIMAMultipleOrders(t *testing.T) {
	tests := []struct {
		name    string
		p, d, q int
	}{
		{"AR1", 1, 0, 0},
		{"AR2", 2, 0, 0},
		{"MA1", 0, 0, 1},
		{"MA2", 0, 0, 2},
		{"ARMA11", 1, 0, 1},
		{"ARIMA110", 1, 1, 0},
		{"ARIMA011", 0, 1, 1},
		{"ARIMA111", 1, 1, 1},
		{"ARIMA211", 2, 1, 1},
		{"ARIMA212", 2, 1, 2},
		{"ARIMA1032", 10, 3, 2},
	}

	series := ar1Series(150, 0.6)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := New(tt.p, tt.d, tt.q)
			if err := model.Fit(series); err != nil {
				// divergent estimates are reported, never returned as numbers
				assert.ErrorIs(t, err, ErrNonFinite)
				return
			}

			forecasts, err := model.Predict(3)
			if err != nil {
				assert.ErrorIs(t, err, ErrNonFinite)
				return
			}
			assert.Len(t, forecasts, 3)
		})
	}
}
