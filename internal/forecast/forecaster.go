// Package forecast produces one-step-ahead forecasts of yearly case counts
// with a fixed SARIMA(1,1,1)x(1,1,1,7) model fitted by maximum likelihood.
//
// The model is cast in state-space form and evaluated with a Kalman filter.
// The innovation variance is profiled out of the likelihood and the four
// coefficients are found with Nelder-Mead. Orders and the seasonal period
// are constants so forecasts of the same input are comparable across runs.
package forecast

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/crime-data-analytics/internal/domain"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MinObservations is the shortest series the model can be fitted to: the
// differencing lags plus at least two likelihood terms. Series of two to
// MinObservations-1 points are reported unavailable instead of being
// forecast from a state that is still almost entirely diffuse.
const MinObservations = burnIn + 2

// minLikelihoodSteps is the number of likelihood terms below which the
// profiled variance is not trusted on its own. Shorter fits widen the
// interval to at least the spread of year-to-year changes.
const minLikelihoodSteps = 8

// ConfidenceLevel is the two-sided coverage of the forecast interval.
const ConfidenceLevel = 0.95

const defaultMaxEvaluations = 2000

var (
	// ErrSeriesTooShort is returned for series with fewer than
	// MinObservations points.
	ErrSeriesTooShort = errors.New("series too short for seasonal differencing")

	// ErrNotConverged is returned when the optimizer ends without a finite
	// likelihood.
	ErrNotConverged = errors.New("likelihood optimization did not converge")
)

// Forecaster fits the model to one series per call. It holds no per-call
// state and is safe for concurrent use.
type Forecaster struct {
	logger         *slog.Logger
	maxEvaluations int
	evaluate       func(p params, y []float64) (filterResult, error)
}

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithMaxEvaluations caps likelihood evaluations per fit.
func WithMaxEvaluations(n int) Option {
	return func(f *Forecaster) {
		if n > 0 {
			f.maxEvaluations = n
		}
	}
}

// New creates a Forecaster.
func New(logger *slog.Logger, opts ...Option) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Forecaster{logger: logger, maxEvaluations: defaultMaxEvaluations, evaluate: evaluate}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// estimate is a fitted one-step forecast.
type estimate struct {
	mean   float64
	lower  float64
	upper  float64
	params params
	loglik float64
}

// Forecast returns the next-year forecast for series. It never fails: short
// series yield ForecastInsufficientData and fitting problems yield
// ForecastUnavailable with the cause in Reason.
func (f *Forecaster) Forecast(series domain.Series) (fc domain.Forecast) {
	fc = domain.Forecast{Key: series.Key}

	last, ok := series.Last()
	if ok {
		fc.LastObserved = last.Cases
	}
	if series.Len() <= 1 {
		fc.Status = domain.ForecastInsufficientData
		fc.Reason = "at least two yearly observations are required"
		return fc
	}

	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("forecast panicked", "key", series.Key, "panic", r)
			fc = unavailable(series.Key, last.Cases, fmt.Sprintf("numerical failure: %v", r))
		}
	}()

	values := series.Values()
	est, err := f.fit(values)
	if err != nil {
		f.logger.Debug("forecast unavailable", "key", series.Key, "error", err)
		return unavailable(series.Key, last.Cases, err.Error())
	}

	fc.Status = domain.ForecastOK
	fc.Year = last.Year + 1
	fc.PointEstimate = est.mean
	fc.LowerBound = est.lower
	fc.UpperBound = est.upper
	fc.ChangePct = changePct(est.mean, float64(last.Cases))
	fc.ProjectedIncrease = est.mean > stat.Mean(values, nil)
	return fc
}

func unavailable(key string, last int, reason string) domain.Forecast {
	return domain.Forecast{
		Key:          key,
		Status:       domain.ForecastUnavailable,
		Reason:       reason,
		LastObserved: last,
	}
}

// changePct is nil when the base is zero.
func changePct(point, last float64) *float64 {
	if last == 0 {
		return nil
	}
	pct := (point - last) / last * 100
	return &pct
}

func (f *Forecaster) fit(y []float64) (estimate, error) {
	if len(y) < MinObservations {
		return estimate{}, fmt.Errorf("%w: have %d observations, need %d", ErrSeriesTooShort, len(y), MinObservations)
	}

	if differencedIsZero(y) {
		mean := extrapolate(y)
		return estimate{mean: mean, lower: mean, upper: mean}, nil
	}

	var lastErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			res, err := f.guardedEvaluate(paramsFrom(x), y)
			if err != nil {
				lastErr = err
				return math.Inf(1)
			}
			return -res.logLikelihood()
		},
	}
	settings := &optimize.Settings{FuncEvaluations: f.maxEvaluations}

	result, err := optimize.Minimize(problem, make([]float64, 4), settings, &optimize.NelderMead{SimplexSize: 0.5})
	if result == nil || math.IsInf(result.F, 0) || math.IsNaN(result.F) {
		if cause := errors.Join(err, lastErr); cause != nil {
			return estimate{}, fmt.Errorf("%w: %w", ErrNotConverged, cause)
		}
		return estimate{}, ErrNotConverged
	}
	if err != nil {
		return estimate{}, fmt.Errorf("maximum likelihood fit: %w", err)
	}

	p := paramsFrom(result.X)
	res, err := f.evaluate(p, y)
	if err != nil {
		return estimate{}, fmt.Errorf("refit at optimum: %w", err)
	}

	est := estimate{mean: res.nextMean, params: p, loglik: res.logLikelihood()}
	variance := res.sigma2() * res.nextVar
	if res.steps < minLikelihoodSteps {
		variance = math.Max(variance, changeVariance(y))
	}
	switch {
	case variance <= 0:
		est.lower, est.upper = est.mean, est.mean
	case math.IsInf(variance, 0):
		return estimate{}, errors.New("forecast variance is not finite")
	default:
		half := distuv.UnitNormal.Quantile(1-(1-ConfidenceLevel)/2) * math.Sqrt(variance)
		est.lower, est.upper = est.mean-half, est.mean+half
	}

	f.logger.Debug("forecast fitted",
		"observations", len(y),
		"phi", p.Phi,
		"theta", p.Theta,
		"seasonal_phi", p.SeasonalPhi,
		"seasonal_theta", p.SeasonalTheta,
		"loglik", est.loglik,
		"evaluations", result.Stats.FuncEvaluations,
	)
	return est, nil
}

// guardedEvaluate turns a panic in the numerical code into an error. The
// optimizer calls the objective from its own goroutines, where a panic could
// not be recovered by Forecast.
func (f *Forecaster) guardedEvaluate(p params, y []float64) (res filterResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("numerical failure: %v", r)
		}
	}()
	return f.evaluate(p, y)
}

// changeVariance is the sample variance of the first differences of y.
func changeVariance(y []float64) float64 {
	d := make([]float64, len(y)-1)
	for i := range d {
		d[i] = y[i+1] - y[i]
	}
	return stat.Variance(d, nil)
}

func evaluate(p params, y []float64) (filterResult, error) {
	ss, err := newStateSpace(p)
	if err != nil {
		return filterResult{}, err
	}
	res, err := runFilter(ss, y, burnIn)
	if err != nil {
		return filterResult{}, err
	}
	if s2 := res.sigma2(); !(s2 > 0) || math.IsInf(s2, 0) {
		return filterResult{}, fmt.Errorf("innovation variance %g", s2)
	}
	return res, nil
}
