package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// filterResult carries what the likelihood and the forecast need from one
// pass of the Kalman filter.
type filterResult struct {
	ssr      float64 // sum of v^2/F over likelihood steps
	sumLogF  float64
	steps    int
	nextMean float64
	nextVar  float64 // unscaled; multiply by sigma2
}

// sigma2 is the profiled-out innovation variance. With few likelihood steps
// the optimizer can drive it close to zero; fit widens short intervals.
func (r filterResult) sigma2() float64 {
	if r.steps == 0 {
		return 0
	}
	return r.ssr / float64(r.steps)
}

// logLikelihood is the concentrated Gaussian log-likelihood.
func (r filterResult) logLikelihood() float64 {
	n := float64(r.steps)
	return -n/2*(math.Log(2*math.Pi)+math.Log(r.sigma2())+1) - r.sumLogF/2
}

// runFilter runs the prediction-form Kalman filter over y with unit
// innovation variance. The first burn observations update the state but do
// not enter the likelihood.
func runFilter(ss *stateSpace, y []float64, burn int) (filterResult, error) {
	var res filterResult

	a := mat.NewVecDense(stateDim, nil)
	p := mat.DenseCopyOf(ss.P0)

	var (
		pz    mat.VecDense
		next  mat.VecDense
		outer mat.Dense
		tp    mat.Dense
		pt    mat.Dense
	)

	for t, obs := range y {
		pz.MulVec(p, ss.Z)
		f := mat.Dot(ss.Z, &pz)
		if !(f > 0) || math.IsInf(f, 0) {
			return res, fmt.Errorf("innovation variance %g at step %d", f, t)
		}
		v := obs - mat.Dot(ss.Z, a)

		if t >= burn {
			res.ssr += v * v / f
			res.sumLogF += math.Log(f)
			res.steps++
		}

		a.AddScaledVec(a, v/f, &pz)
		outer.Outer(1/f, &pz, &pz)
		p.Sub(p, &outer)

		next.MulVec(ss.T, a)
		a.CopyVec(&next)

		tp.Mul(ss.T, p)
		p.Mul(&tp, ss.T.T())
		p.Add(p, ss.RR)

		pt.CloneFrom(p.T())
		p.Add(p, &pt)
		p.Scale(0.5, p)
	}

	pz.MulVec(p, ss.Z)
	res.nextMean = mat.Dot(ss.Z, a)
	res.nextVar = mat.Dot(ss.Z, &pz)

	if math.IsNaN(res.ssr) || math.IsNaN(res.nextMean) || math.IsNaN(res.nextVar) {
		return res, errors.New("kalman filter produced NaN")
	}
	return res, nil
}
