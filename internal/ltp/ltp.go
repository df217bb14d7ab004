// Package ltp implements SRLA's long-term (pitch) predictor: pitch
// detection from autocorrelation peaks and coefficient solve via Cholesky,
// grounded on spec.md §4.6 and
// original_source/libs/ltp/src/ltp.c.
package ltp

import (
	"math"

	"github.com/srla-audio/srla/internal/fft"
	"github.com/srla-audio/srla/internal/lpc"
)

const (
	// MinPeriod and MaxPeriod bound the detectable pitch period, per
	// SRLA_LTP_MIN_PERIOD/SRLA_LTP_MAX_PERIOD.
	MinPeriod = 20
	MaxPeriod = 255
	// Order is the fixed number of long-term predictor taps,
	// SRLA_LTP_ORDER.
	Order = 3
	// pitchRatioVsMaxThreshold is the fraction of the strongest candidate
	// peak magnitude a peak must reach to be selected, choosing the
	// earliest (smallest lag) qualifying peak.
	pitchRatioVsMaxThreshold = 1.0
	ridge                    = 1e-5
	// maxPitchCandidates bounds the number of zero-crossing-delimited
	// segments examined per call, LTP_MAX_NUM_PITCH_CANDIDATES.
	maxPitchCandidates = 20
)

// Result is the outcome of pitch detection and coefficient estimation: a
// period of 0 means LTP is disabled for this block.
type Result struct {
	Period       int
	Coefficients []float64 // length Order, reverse-ordered for direct convolution
}

// Analyze detects the pitch period in signal (up to maxPeriod, itself
// capped at MaxPeriod) and solves for the Order-tap predictor coefficients.
func Analyze(signal []float64, maxPeriod int) Result {
	if maxPeriod > MaxPeriod {
		maxPeriod = MaxPeriod
	}
	if len(signal) < maxPeriod+Order {
		return Result{}
	}

	ac := fft.Autocorrelation(signal, maxPeriod+1)
	period := detectPitch(ac, maxPeriod)
	if period == 0 {
		return Result{}
	}
	if period < Order/2+1 {
		return Result{}
	}
	if period < MinPeriod {
		return Result{}
	}

	coeffs, ok := solveCoefficients(ac, period)
	if !ok {
		return Result{}
	}

	var l1 float64
	for _, c := range coeffs {
		l1 += math.Abs(c)
	}
	if l1 >= 1.0 {
		// Unstable: collapse to a one-tap copy at the period.
		coeffs = make([]float64, Order)
		if ac[0] != 0 {
			coeffs[Order/2] = ac[period] / ac[0]
		}
	}

	// Reverse order so the integer predictor can iterate with increasing
	// index, per spec.md §3/§4.8.
	rev := make([]float64, Order)
	for i, c := range coeffs {
		rev[Order-1-i] = c
	}
	return Result{Period: period, Coefficients: rev}
}

// detectPitch segments [1, maxPeriod) by consecutive negative-to-positive
// then positive-to-negative zero crossings and keeps the single strongest
// local maximum within each segment as that segment's pitch candidate (at
// most maxPitchCandidates segments), then returns the earliest candidate
// reaching pitchRatioVsMaxThreshold of the strongest one found, per
// original_source/libs/ltp/src/ltp.c:361-407 (LTPCalculator_DetectPitch).
// Returns 0 if no candidate is found.
func detectPitch(ac []float64, maxPeriod int) int {
	n := len(ac)
	if maxPeriod+1 > n {
		maxPeriod = n - 1
	}

	var candidates []int
	maxPeak := 0.0

	for i := 1; i < maxPeriod && len(candidates) < maxPitchCandidates; {
		// Negative -> positive zero crossing.
		start := i
		for start < maxPeriod && !(ac[start-1] < 0 && ac[start] > 0) {
			start++
		}

		// Positive -> negative zero crossing.
		end := start + 1
		for end < maxPeriod && !(ac[end] > 0 && ac[end+1] < 0) {
			end++
		}

		// The single strongest local max within [start, end].
		localPeakIndex := 0
		localPeak := 0.0
		for j := start; j <= end; j++ {
			if j-1 < 0 || j+1 >= n {
				continue
			}
			if ac[j] > ac[j-1] && ac[j] > ac[j+1] && ac[j] > localPeak {
				localPeakIndex = j
				localPeak = ac[j]
			}
		}
		if localPeakIndex != 0 {
			candidates = append(candidates, localPeakIndex)
			if localPeak > maxPeak {
				maxPeak = localPeak
			}
		}

		i = end + 1
	}

	if len(candidates) == 0 {
		return 0
	}
	for _, lag := range candidates {
		if ac[lag] >= pitchRatioVsMaxThreshold*maxPeak {
			return lag
		}
	}
	return candidates[len(candidates)-1]
}

// solveCoefficients solves the symmetric Order x Order Toeplitz system
// R_ij = ac[|i-j|], rhs = [ac[period-Order/2], ..., ac[period+Order/2]],
// via ridge-regularised Cholesky.
func solveCoefficients(ac []float64, period int) ([]float64, bool) {
	half := Order / 2
	r := make([][]float64, Order)
	for i := range r {
		r[i] = make([]float64, Order)
		for j := range r[i] {
			lag := i - j
			if lag < 0 {
				lag = -lag
			}
			if lag >= len(ac) {
				r[i][j] = 0
			} else {
				r[i][j] = ac[lag]
			}
		}
		r[i][i] *= 1 + ridge
	}

	rhs := make([]float64, Order)
	for i := 0; i < Order; i++ {
		lag := period - half + i
		if lag >= 0 && lag < len(ac) {
			rhs[i] = ac[lag]
		}
	}

	return lpc.CholeskySolve(r, rhs)
}
