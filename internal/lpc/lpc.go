// Package lpc implements the four LPC coefficient estimators SRLA supports
// (Levinson-Durbin, Burg, an auxiliary-function L1 solver, and an SVR-style
// soft-thresholding solver), PARCOR<->LPC conversion, and coefficient
// quantisation, grounded on original_source/libs/lpc/src/lpc.c and
// spec.md §4.5.
package lpc

import (
	"math"

	"github.com/srla-audio/srla/internal/fft"
)

// Window names the analysis window applied before autocorrelation.
type Window int

const (
	WindowRectangular Window = iota
	WindowSine
	WindowWelch
)

// ApplyWindow returns a windowed copy of signal.
func ApplyWindow(signal []float64, w Window) []float64 {
	n := len(signal)
	out := make([]float64, n)
	switch w {
	case WindowRectangular:
		copy(out, signal)
	case WindowSine:
		for i, v := range signal {
			out[i] = v * math.Sin(math.Pi*float64(i)/float64(n-1))
		}
	case WindowWelch:
		divisor := 4.0 / float64(n-1) / float64(n-1)
		for i, v := range signal {
			weight := divisor * float64(i) * float64(n-1-i)
			out[i] = v * weight
		}
	}
	return out
}

// ridgeRegularize returns autocorr with r[0] boosted by (1+lambda), the
// ridge regularisation spec.md §4.5 names for Levinson-Durbin stability.
func ridgeRegularize(autocorr []float64, lambda float64) []float64 {
	out := append([]float64(nil), autocorr...)
	out[0] *= 1 + lambda
	return out
}

// Estimate holds the outcome of an estimator run at a single order.
type Estimate struct {
	Coefficients []float64 // a_1..a_order such that prediction = sum a_i * x[t-i]
	ErrorVariance float64
}

// LevinsonDurbin runs the classical recursion with ridge regularisation and
// returns the coefficient vector and error variance at every order from 0
// to maxOrder (AllOrders[k] is the order-k solution, of length k; index 0
// is the empty order-0 solution), plus the PARCOR coefficients
// (ParcorCoef[k] is the reflection coefficient that raises the order to k;
// index 0 is unused).
type LevinsonDurbinResult struct {
	AllOrders  [][]float64
	ErrorVars  []float64
	ParcorCoef []float64
}

// LevinsonDurbin computes all-orders LPC coefficients up to maxOrder via
// the classical Levinson-Durbin recursion, per spec.md §4.5.
func LevinsonDurbin(autocorr []float64, maxOrder int, ridge float64) LevinsonDurbinResult {
	ac := ridgeRegularize(autocorr, ridge)
	res := LevinsonDurbinResult{
		AllOrders:  make([][]float64, maxOrder+1),
		ErrorVars:  make([]float64, maxOrder+1),
		ParcorCoef: make([]float64, maxOrder+1),
	}

	if math.Abs(ac[0]) < 1e-30 {
		for k := 0; k <= maxOrder; k++ {
			res.AllOrders[k] = make([]float64, k)
			res.ErrorVars[k] = ac[0]
		}
		return res
	}

	a := make([]float64, maxOrder+2)
	a[0] = 1.0
	errVar := ac[0]
	res.AllOrders[0] = []float64{}
	res.ErrorVars[0] = errVar

	for k := 0; k < maxOrder; k++ {
		var acc float64
		for i := 0; i <= k; i++ {
			acc += a[i] * ac[k+1-i]
		}
		gamma := -acc / errVar
		res.ParcorCoef[k+1] = -gamma

		newA := make([]float64, k+2)
		copy(newA, a[:k+1])
		for i := 1; i <= k; i++ {
			newA[i] += gamma * a[k+1-i]
		}
		newA[k+1] = gamma
		copy(a, newA)

		errVar *= 1 - gamma*gamma
		res.ErrorVars[k+1] = errVar

		coeffs := make([]float64, k+1)
		for i := 1; i <= k+1; i++ {
			coeffs[i-1] = -a[i]
		}
		res.AllOrders[k+1] = coeffs
	}
	return res
}

// Burg estimates order-`order` coefficients directly from the signal using
// the covariance-form Burg recursion: reflection coefficient
// mu = -2*C_k / (F_k+B_k), coefficients updated by the symmetric
// order-doubling step a_i <- a_i + mu*a_{k+1-i}, per spec.md §4.5.
func Burg(signal []float64, order int) Estimate {
	n := len(signal)
	f := append([]float64(nil), signal...)
	b := append([]float64(nil), signal...)
	a := make([]float64, order+1)
	a[0] = 1.0

	var errVar float64
	for _, v := range signal {
		errVar += v * v
	}
	errVar /= float64(n)

	for k := 0; k < order; k++ {
		var num, den float64
		for t := k + 1; t < n; t++ {
			num += f[t] * b[t-1]
			den += f[t]*f[t] + b[t-1]*b[t-1]
		}
		var mu float64
		if den != 0 {
			mu = -2 * num / den
		}

		newA := make([]float64, k+2)
		copy(newA, a[:k+1])
		for i := 1; i <= k+1; i++ {
			newA[i] += mu * a[k+1-i]
		}
		copy(a, newA)
		a[k+1] = newA[k+1]

		newF := make([]float64, n)
		newB := make([]float64, n)
		for t := k + 1; t < n; t++ {
			newF[t] = f[t] + mu*b[t-1]
			newB[t] = b[t-1] + mu*f[t]
		}
		f, b = newF, newB

		errVar *= 1 - mu*mu
	}

	coeffs := make([]float64, order)
	for i := 1; i <= order; i++ {
		coeffs[i-1] = -a[i]
	}
	return Estimate{Coefficients: coeffs, ErrorVariance: errVar}
}

// residualEpsilon floors residual magnitudes in the AF iteratively
// reweighted solve to avoid division by zero, per
// LPCAF_RESIDUAL_EPSILON in the source.
const residualEpsilon = 1e-6

// AF estimates order-`order` coefficients minimising the L1 residual norm
// via iteratively reweighted least squares, initialised from
// Levinson-Durbin and solved each iteration via Cholesky, per spec.md §4.5.
func AF(signal []float64, order int, maxIterations int, ridge float64) Estimate {
	n := len(signal)
	ac := fft.Autocorrelation(signal, order+1)
	ld := LevinsonDurbin(ac, order, ridge)
	coeffs := append([]float64(nil), ld.AllOrders[order]...)

	prevObjective := math.Inf(1)
	for iter := 0; iter < maxIterations; iter++ {
		weights := make([]float64, n)
		var objective float64
		for t := order; t < n; t++ {
			e := signal[t]
			for i := 0; i < order; i++ {
				e -= coeffs[i] * signal[t-1-i]
			}
			ae := math.Abs(e)
			if ae < residualEpsilon {
				ae = residualEpsilon
			}
			weights[t] = 1.0 / ae
			objective += ae
		}
		objective /= float64(n - order)

		r := make([][]float64, order)
		for i := range r {
			r[i] = make([]float64, order)
		}
		rhs := make([]float64, order)
		for t := order; t < n; t++ {
			wt := weights[t]
			for i := 0; i < order; i++ {
				rhs[i] -= wt * signal[t] * signal[t-1-i]
				for j := 0; j < order; j++ {
					r[i][j] += wt * signal[t-1-i] * signal[t-1-j]
				}
			}
		}
		for i := 0; i < order; i++ {
			r[i][i] *= 1 + ridge
		}

		sol, ok := CholeskySolve(r, rhs)
		if !ok {
			break
		}
		for i := range coeffs {
			coeffs[i] = -sol[i]
		}

		if prevObjective-objective < 1e-8 {
			break
		}
		prevObjective = objective
	}

	var errVar float64
	for t := order; t < n; t++ {
		e := signal[t]
		for i := 0; i < order; i++ {
			e -= coeffs[i] * signal[t-1-i]
		}
		errVar += e * e
	}
	if n > order {
		errVar /= float64(n - order)
	}
	return Estimate{Coefficients: coeffs, ErrorVariance: errVar}
}

// SVR estimates order-`order` coefficients by iterating soft-thresholded
// residual refinement over a preset-supplied margin list, keeping the
// coefficients with the lowest estimated bits-per-sample over all
// (margin, iteration) pairs, per spec.md §4.5.
func SVR(signal []float64, order int, margins []float64, maxIterations int, ridge float64) Estimate {
	n := len(signal)
	ac := fft.Autocorrelation(signal, order+1)
	ld := LevinsonDurbin(ac, order, ridge)
	best := append([]float64(nil), ld.AllOrders[order]...)
	bestCost := codeLengthProxy(signal, best, order)

	for _, margin := range margins {
		coeffs := append([]float64(nil), ld.AllOrders[order]...)
		for iter := 0; iter < maxIterations; iter++ {
			r := make([][]float64, order)
			for i := range r {
				r[i] = make([]float64, order)
			}
			rhs := make([]float64, order)
			for t := order; t < n; t++ {
				e := signal[t]
				for i := 0; i < order; i++ {
					e -= coeffs[i] * signal[t-1-i]
				}
				e = softThreshold(e, margin)
				for i := 0; i < order; i++ {
					rhs[i] -= e * signal[t-1-i]
					for j := 0; j < order; j++ {
						r[i][j] += signal[t-1-i] * signal[t-1-j]
					}
				}
			}
			for i := 0; i < order; i++ {
				r[i][i] *= 1 + ridge
			}
			sol, ok := CholeskySolve(r, rhs)
			if !ok {
				break
			}
			for i := range coeffs {
				coeffs[i] -= sol[i]
			}

			cost := codeLengthProxy(signal, coeffs, order)
			if cost < bestCost {
				bestCost = cost
				best = append([]float64(nil), coeffs...)
			}
		}
	}

	return Estimate{Coefficients: best, ErrorVariance: bestCost}
}

func softThreshold(x, margin float64) float64 {
	switch {
	case x > margin:
		return x - margin
	case x < -margin:
		return x + margin
	default:
		return 0
	}
}

// codeLengthProxy estimates a RecursiveRice mean code length at 16
// bits-per-sample for the residual of coeffs against signal, used as the
// SVR selection criterion per spec.md §4.5.
func codeLengthProxy(signal []float64, coeffs []float64, order int) float64 {
	n := len(signal)
	var sumAbs float64
	count := 0
	for t := order; t < n; t++ {
		e := signal[t]
		for i := 0; i < order; i++ {
			e -= coeffs[i] * signal[t-1-i]
		}
		sumAbs += math.Abs(e)
		count++
	}
	if count == 0 {
		return 0
	}
	mean := sumAbs / float64(count) * (1 << 16)
	rho := 1.0 / (1.0 + mean)
	k2 := math.Max(0, math.Floor(math.Log2(math.Max(1, 0.66794162356*(1+mean)))))
	k1 := k2 + 1
	fk1 := math.Pow(1-rho, math.Pow(2, k1))
	fk2 := math.Pow(1-rho, math.Pow(2, k2))
	return (1.0+k1)*(1.0-fk1) + (1.0+k2+1.0/(1.0-fk2))*fk1
}

// LPCToParcor converts an order-N LPC coefficient vector to PARCOR
// coefficients via the standard step-down recursion.
func LPCToParcor(coeffs []float64) []float64 {
	order := len(coeffs)
	a := make([]float64, order+1)
	a[0] = 1.0
	for i, c := range coeffs {
		a[i+1] = -c
	}
	parcor := make([]float64, order)
	for k := order; k >= 1; k-- {
		parcor[k-1] = -a[k]
		denom := 1 - a[k]*a[k]
		if math.Abs(denom) < 1e-12 {
			for j := k - 1; j >= 1; j-- {
				parcor[j-1] = 0
			}
			break
		}
		newA := make([]float64, k)
		newA[0] = 1.0
		for i := 1; i < k; i++ {
			newA[i] = (a[i] - a[k]*a[k-i]) / denom
		}
		a = append(newA, make([]float64, order+1-len(newA))...)
	}
	return parcor
}

// ParcorToLPC converts PARCOR coefficients back to LPC coefficients via the
// standard step-up recursion, the inverse of LPCToParcor.
func ParcorToLPC(parcor []float64) []float64 {
	order := len(parcor)
	a := make([]float64, order+1)
	a[0] = 1.0
	for k := 0; k < order; k++ {
		gamma := -parcor[k]
		newA := make([]float64, k+2)
		copy(newA, a[:k+1])
		for i := 1; i <= k; i++ {
			newA[i] += gamma * a[k+1-i]
		}
		newA[k+1] = gamma
		a = append(newA, make([]float64, order-len(newA)+1)...)
	}
	coeffs := make([]float64, order)
	for i := 1; i <= order; i++ {
		coeffs[i-1] = -a[i]
	}
	return coeffs
}

// QuantizeCoefficients quantises double-precision LPC coefficients to
// signed nbits-wide integers with a shared right-shift, using noise-shaped
// error feedback iterating from the highest-index coefficient down, per
// spec.md §4.5.
func QuantizeCoefficients(coeffs []float64, nbits int, maxRshift int) ([]int32, int) {
	maxAbs := 0.0
	for _, c := range coeffs {
		if a := math.Abs(c); a > maxAbs {
			maxAbs = a
		}
	}
	rshift := maxRshift - 1
	if maxAbs > 0 {
		rshift = (nbits - 1) - int(math.Ceil(math.Log2(maxAbs)))
		if rshift > maxRshift-1 {
			rshift = maxRshift - 1
		}
		if rshift < 0 {
			rshift = 0
		}
	}

	lo := int32(-(1 << uint(nbits-1)))
	hi := int32((1 << uint(nbits-1)) - 1)

	quant := make([]int32, len(coeffs))
	var errFeed float64
	scale := math.Pow(2, float64(rshift))
	for i := len(coeffs) - 1; i >= 0; i-- {
		target := coeffs[i]*scale + errFeed
		q := math.Round(target)
		if q < float64(lo) {
			q = float64(lo)
		}
		if q > float64(hi) {
			q = float64(hi)
		}
		errFeed = target - q
		quant[i] = int32(q)
	}
	return quant, rshift
}

// QuantizeAsParcor converts LPC coefficients to PARCOR, rounds each value
// to nbits fixed point, and clamps to the representable range.
func QuantizeAsParcor(coeffs []float64, nbits int) []int32 {
	parcor := LPCToParcor(coeffs)
	lo := int32(-(1 << uint(nbits-1)))
	hi := int32((1 << uint(nbits-1)) - 1)
	scale := math.Pow(2, float64(nbits-1))
	out := make([]int32, len(parcor))
	for i, p := range parcor {
		q := math.Round(p * scale)
		if q < float64(lo) {
			q = float64(lo)
		}
		if q > float64(hi) {
			q = float64(hi)
		}
		out[i] = int32(q)
	}
	return out
}
