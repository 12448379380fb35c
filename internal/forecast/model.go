package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SeasonalPeriod is the seasonal lag of the fixed SARIMA(1,1,1)x(1,1,1,7)
// model.
const SeasonalPeriod = 7

const (
	// diffStates hold y(t-1)..y(t-8), the lags consumed by (1-B)(1-B^7).
	diffStates = SeasonalPeriod + 1
	// armaStates is max(p, q+1) for the expanded ARMA(8,8) on the
	// differenced series.
	armaStates = SeasonalPeriod + 2
	stateDim   = diffStates + armaStates

	// burnIn observations only initialise the differencing lags and are
	// excluded from the likelihood.
	burnIn = diffStates

	// diffuseVariance approximates an uninformative prior on the lag states.
	diffuseVariance = 1e6

	// maxCoefficient keeps every AR/MA coefficient strictly inside (-1, 1).
	maxCoefficient = 0.99
)

var errNonStationary = errors.New("no stationary covariance for the ARMA block")

// params are the four free coefficients of the model.
type params struct {
	Phi           float64 `json:"phi"`
	Theta         float64 `json:"theta"`
	SeasonalPhi   float64 `json:"seasonal_phi"`
	SeasonalTheta float64 `json:"seasonal_theta"`
}

// paramsFrom maps an unconstrained optimizer point to coefficients in
// (-maxCoefficient, maxCoefficient).
func paramsFrom(x []float64) params {
	return params{
		Phi:           constrain(x[0]),
		Theta:         constrain(x[1]),
		SeasonalPhi:   constrain(x[2]),
		SeasonalTheta: constrain(x[3]),
	}
}

func constrain(x float64) float64 {
	return maxCoefficient * x / math.Sqrt(1+x*x)
}

// arLags returns the coefficients of (1-phi B)(1-Phi B^7) as lag weights
// a1..a8, so w(t) = sum a_i w(t-i) + ...
func (p params) arLags() []float64 {
	a := make([]float64, diffStates)
	a[0] = p.Phi
	a[SeasonalPeriod-1] = p.SeasonalPhi
	a[SeasonalPeriod] = -p.Phi * p.SeasonalPhi
	return a
}

// maLags returns the coefficients of (1+theta B)(1+Theta B^7) as m1..m8.
func (p params) maLags() []float64 {
	m := make([]float64, diffStates)
	m[0] = p.Theta
	m[SeasonalPeriod-1] = p.SeasonalTheta
	m[SeasonalPeriod] = p.Theta * p.SeasonalTheta
	return m
}

// stateSpace is the linear Gaussian form
//
//	y(t)   = Z x(t)
//	x(t+1) = T x(t) + R e(t+1),  e ~ N(0, sigma2)
//
// where x holds the differencing lags followed by the Harvey-form ARMA
// states of the differenced series.
type stateSpace struct {
	T  *mat.Dense
	R  *mat.VecDense
	Z  *mat.VecDense
	RR *mat.Dense
	P0 *mat.Dense
}

func newStateSpace(p params) (*stateSpace, error) {
	z := mat.NewVecDense(stateDim, nil)
	z.SetVec(0, 1)                // y(t-1)
	z.SetVec(SeasonalPeriod-1, 1) // y(t-7)
	z.SetVec(SeasonalPeriod, -1)  // y(t-8)
	z.SetVec(diffStates, 1)       // w(t)

	t := mat.NewDense(stateDim, stateDim, nil)
	for j := range stateDim {
		t.Set(0, j, z.AtVec(j))
	}
	for i := 1; i < diffStates; i++ {
		t.Set(i, i-1, 1)
	}

	ar := p.arLags()
	for i := range armaStates {
		if i < len(ar) {
			t.Set(diffStates+i, diffStates, ar[i])
		}
		if i+1 < armaStates {
			t.Set(diffStates+i, diffStates+i+1, 1)
		}
	}

	r := mat.NewVecDense(stateDim, nil)
	r.SetVec(diffStates, 1)
	for j, m := range p.maLags() {
		r.SetVec(diffStates+1+j, m)
	}

	rr := mat.NewDense(stateDim, stateDim, nil)
	rr.Outer(1, r, r)

	ta := t.Slice(diffStates, stateDim, diffStates, stateDim)
	ra := r.SliceVec(diffStates, stateDim)
	sigma, err := stationaryCovariance(ta, ra)
	if err != nil {
		return nil, err
	}

	p0 := mat.NewDense(stateDim, stateDim, nil)
	for i := range diffStates {
		p0.Set(i, i, diffuseVariance)
	}
	for i := range armaStates {
		for j := range armaStates {
			p0.Set(diffStates+i, diffStates+j, sigma.At(i, j))
		}
	}

	return &stateSpace{T: t, R: r, Z: z, RR: rr, P0: p0}, nil
}

// stationaryCovariance solves the discrete Lyapunov equation
// S = T S T' + R R' through vec(S) = (I - T kron T)^-1 vec(R R').
func stationaryCovariance(t mat.Matrix, r mat.Vector) (*mat.SymDense, error) {
	n, _ := t.Dims()

	var kron mat.Dense
	kron.Kronecker(t, t)

	a := mat.NewDense(n*n, n*n, nil)
	for i := range n * n {
		a.Set(i, i, 1)
	}
	a.Sub(a, &kron)

	q := mat.NewVecDense(n*n, nil)
	for i := range n {
		for j := range n {
			q.SetVec(i*n+j, r.AtVec(i)*r.AtVec(j))
		}
	}

	var s mat.VecDense
	if err := s.SolveVec(a, q); err != nil {
		return nil, fmt.Errorf("%w: %w", errNonStationary, err)
	}

	sigma := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			v := (s.AtVec(i*n+j) + s.AtVec(j*n+i)) / 2
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errNonStationary
			}
			sigma.SetSym(i, j, v)
		}
		if sigma.At(i, i) < 0 {
			return nil, errNonStationary
		}
	}
	return sigma, nil
}

// differencedIsZero reports whether (1-B)(1-B^7) annihilates the series,
// which leaves no innovations to estimate a variance from.
func differencedIsZero(y []float64) bool {
	for t := burnIn; t < len(y); t++ {
		if differenced(y, t) != 0 {
			return false
		}
	}
	return true
}

func differenced(y []float64, t int) float64 {
	return y[t] - y[t-1] - y[t-SeasonalPeriod] + y[t-SeasonalPeriod-1]
}

// extrapolate is the one-step forecast when the differenced series is
// identically zero.
func extrapolate(y []float64) float64 {
	n := len(y)
	return y[n-1] + y[n-SeasonalPeriod] - y[n-SeasonalPeriod-1]
}
