package lpc

import "math"

// OrderTactic selects how BlockCodec picks the LPC order to use, per
// spec.md §4.5 and the SRLAChannelLPCOrderDecisionTactics enum in
// original_source/libs/srla_internal/include/srla_internal.h.
type OrderTactic int

const (
	OrderMaxFixed OrderTactic = iota
	OrderBruteforceEstimation
	OrderBruteforceSearch
)

// SelectOrder picks an LPC order in [1, maxOrder] from the Levinson-Durbin
// all-orders result, signal, and configured tactic.
//
//   - MaxFixed: always maxOrder.
//   - BruteforceEstimation: predicts residual variance per order from the
//     Levinson error-variance chain, converts to mean |e| via a Laplace
//     assumption, and picks the order minimising estimated entropy plus
//     coefficient bits.
//   - BruteforceSearch: actually evaluates residuals at each order with
//     the Levinson coefficients and picks the minimum sum of residual
//     coding bits plus coefficient bits.
func SelectOrder(ld LevinsonDurbinResult, signal []float64, maxOrder int, tactic OrderTactic, coefBitsPerOrder float64) int {
	switch tactic {
	case OrderMaxFixed:
		return maxOrder

	case OrderBruteforceEstimation:
		best, bestCost := 1, math.Inf(1)
		n := float64(len(signal))
		for order := 1; order <= maxOrder; order++ {
			errVar := ld.ErrorVars[order]
			if errVar < 1e-12 {
				errVar = 1e-12
			}
			// Laplace mean |e| from variance: var = 2*b^2, mean|e| = b.
			meanAbs := math.Sqrt(errVar / 2.0)
			entropyPerSample := laplaceEntropyBits(meanAbs)
			cost := n*entropyPerSample + float64(order)*coefBitsPerOrder
			if cost < bestCost {
				bestCost = cost
				best = order
			}
		}
		return best

	case OrderBruteforceSearch:
		best, bestCost := 1, math.Inf(1)
		n := len(signal)
		for order := 1; order <= maxOrder; order++ {
			coeffs := ld.AllOrders[order]
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
				continue
			}
			meanAbs := sumAbs / float64(count)
			entropyPerSample := laplaceEntropyBits(meanAbs)
			cost := float64(count)*entropyPerSample + float64(order)*coefBitsPerOrder
			if cost < bestCost {
				bestCost = cost
				best = order
			}
		}
		return best
	}
	return maxOrder
}

// optX is the root of (x-1)^2 + ln(2)*x*ln(x) = 0, used in the closed-form
// optimal Rice parameter estimate.
const optX = 0.5127629514437670454896078808815218508243560791015625

// laplaceEntropyBits estimates bits/sample for a Laplace-distributed
// residual with the given mean absolute value, via the geometric-source
// entropy approximation used throughout spec.md §4.5/§4.3.
func laplaceEntropyBits(meanAbs float64) float64 {
	if meanAbs < 1e-9 {
		return 1
	}
	rho := 1.0 / (1.0 + meanAbs)
	k := math.Max(0, math.Round(math.Log2(math.Log(optX)/math.Log(1.0-rho))))
	fk := math.Pow(1.0-rho, math.Pow(2, k))
	return k + 1.0/(1.0-fk)
}
