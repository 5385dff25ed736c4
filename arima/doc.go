// Package arima implements AutoRegressive Integrated Moving Average models.
//
// An ARIMA(p,d,q) model combines:
//   - AR(p): AutoRegressive component with p lags
//   - I(d): Integration (differencing) of order d
//   - MA(q): Moving Average component with q lags
//
// Coefficients are estimated by conditional sum of squares: AR terms are
// seeded from the Yule-Walker equations, MA terms from a small constant, and
// both are refined with bounded gradient steps that keep the process
// stationary and invertible.
//
// # Basic Usage
//
//	model := arima.New(1, 1, 0)
//	if err := model.Fit(series); err != nil {
//	    return err
//	}
//	next, _ := model.Forecast()
//	horizon, _ := model.Predict(10)
//
// Fit fails with ErrInsufficientData when the series is shorter than
// Order.MinObservations, and with ErrNonFinite when the input or the estimate
// contains NaN or infinite values. A failed model cannot be used to predict.
package arima
