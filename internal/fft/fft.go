// Package fft provides a complex FFT and the real-signal autocorrelation
// built on top of it, grounded on
// original_source/libs/fft/src/fft.c. The original ships a radix-4
// Stockham FFT; spec.md does not require FFT bit-exactness (only the
// integer predictor/synthesiser round trip is a bit-exact contract), so
// this package uses a simpler radix-2 Cooley-Tukey algorithm instead — see
// DESIGN.md for the grounded simplification rationale.
package fft

import "math"

// complex128 is used directly from the standard library; no custom complex
// type is introduced since Go has a native one (unlike C, which the
// original source works around with a hand-rolled FFTComplex struct).

// Forward computes the in-place forward FFT of x, whose length must be a
// power of two.
func Forward(x []complex128) {
	transform(x, false)
}

// Inverse computes the in-place inverse FFT of x (unnormalised, matching
// the original's "no normalisation" contract — callers apply their own
// scale factor).
func Inverse(x []complex128) {
	transform(x, true)
}

func transform(x []complex128, inverse bool) {
	n := len(x)
	if n <= 1 {
		return
	}
	if n&(n-1) != 0 {
		panic("fft: length must be a power of two")
	}

	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}

	sign := -1.0
	if inverse {
		sign = 1.0
	}
	for length := 2; length <= n; length <<= 1 {
		ang := sign * 2 * math.Pi / float64(length)
		wLen := complex(math.Cos(ang), math.Sin(ang))
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			half := length / 2
			for k := 0; k < half; k++ {
				u := x[i+k]
				v := x[i+k+half] * w
				x[i+k] = u + v
				x[i+k+half] = u - v
				w *= wLen
			}
		}
	}
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Autocorrelation computes autocorrelation at lags [0, order) for signal
// via zero-padded FFT, power-spectrum, inverse FFT: the signal is
// zero-padded to fft_size = NextPowerOfTwo(2N) so the circular correlation
// does not wrap, each complex bin is replaced by its squared magnitude, and
// the inverse transform is scaled by 1/fft_size.
func Autocorrelation(signal []float64, order int) []float64 {
	n := len(signal)
	if n == 0 || order <= 0 {
		return make([]float64, order)
	}
	fftSize := NextPowerOfTwo(2 * n)
	buf := make([]complex128, fftSize)
	for i, v := range signal {
		buf[i] = complex(v, 0)
	}
	Forward(buf)
	for i := range buf {
		m := buf[i]
		mag2 := real(m)*real(m) + imag(m)*imag(m)
		buf[i] = complex(mag2, 0)
	}
	Inverse(buf)

	// This package's Inverse applies no 1/fftSize normalisation (matching
	// the "no normalisation" FFT contract in spec.md §4.4), so dividing by
	// fftSize here recovers the same unnormalised linear autocorrelation
	// AutocorrelationDirect computes, since zero-padding to >= 2n eliminates
	// circular wraparound for all lags < order <= n.
	scale := 1.0 / float64(fftSize)
	out := make([]float64, order)
	for lag := 0; lag < order && lag < fftSize; lag++ {
		out[lag] = real(buf[lag]) * scale
	}
	return out
}

// AutocorrelationDirect computes autocorrelation at lags [0, order) via the
// direct O(N*order) dual loop, the time-domain fallback named in
// spec.md §4.4.
func AutocorrelationDirect(signal []float64, order int) []float64 {
	n := len(signal)
	out := make([]float64, order)
	for lag := 0; lag < order; lag++ {
		var sum float64
		for t := lag; t < n; t++ {
			sum += signal[t] * signal[t-lag]
		}
		out[lag] = sum
	}
	return out
}
