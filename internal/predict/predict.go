// Package predict implements SRLA's bit-exact integer LPC and LTP
// forward/inverse filters, grounded on spec.md §4.8 and
// original_source/libs/srla_encoder/src/srla_lpc_predict.c /
// srla_decoder's synthesis routines.
package predict

// LPCResidual computes, in place, the LPC forward-prediction residual of
// data using coef (order coefficients, reverse-ordered so coef[i]
// multiplies data[t-order+i]) and rshift. For t < order, the partial-order
// warm-up form is used so the first `order` samples are reproducible
// bit-exactly by LPCSynthesize.
func LPCResidual(data []int32, coef []int32, rshift uint32) {
	order := len(coef)
	n := len(data)
	half := int32(0)
	if rshift > 0 {
		half = 1 << (rshift - 1)
	}

	// Walk from the tail backward so each sample's prediction uses the
	// still-unmodified preceding samples.
	for t := n - 1; t >= order; t-- {
		var predict int64 = int64(half)
		for i := 0; i < order; i++ {
			predict += int64(coef[i]) * int64(data[t-order+i])
		}
		data[t] += int32(predict >> rshift)
	}
	for t := order - 1; t >= 0; t-- {
		if t >= n {
			continue
		}
		var predict int64 = int64(half)
		for i := 0; i < t; i++ {
			predict += int64(coef[i]) * int64(data[t-i-1])
		}
		data[t] += int32(predict >> rshift)
	}
}

// LPCSynthesize reverses LPCResidual in place: given the residual stream
// produced by LPCResidual, it reconstructs the original data.
func LPCSynthesize(data []int32, coef []int32, rshift uint32) {
	order := len(coef)
	n := len(data)
	half := int32(0)
	if rshift > 0 {
		half = 1 << (rshift - 1)
	}

	for t := 0; t < order && t < n; t++ {
		var predict int64 = int64(half)
		for i := 0; i < t; i++ {
			predict += int64(coef[i]) * int64(data[t-i-1])
		}
		data[t] -= int32(predict >> rshift)
	}
	for t := order; t < n; t++ {
		var predict int64 = int64(half)
		for i := 0; i < order; i++ {
			predict += int64(coef[i]) * int64(data[t-order+i])
		}
		data[t] -= int32(predict >> rshift)
	}
}

// LTPRshift is the fixed-point right-shift applied to the LTP predictor
// sum: LTP coefficients are quantised to SRLA_LTP_COEFFICIENT_BITWIDTH=8
// bits as a Q(bitwidth-1) fraction, so the accumulated dot product must be
// descaled by bitwidth-1 bits, per
// original_source/libs/srla_encoder/src/srla_encoder.c.
const LTPRshift = 7

// LTPResidual computes, in place, the long-term-predictor residual of data
// for samples t >= period+1, using the 3 reverse-ordered coefficients.
// Samples before that index are left untouched (LTP has no warm-up form;
// callers skip it when period==0).
func LTPResidual(data []int32, coef []int32, period int) {
	order := len(coef)
	n := len(data)
	half := int64(1) << (LTPRshift - 1)
	for t := n - 1; t >= period+1; t-- {
		predict := half
		for i := 0; i < order; i++ {
			predict += int64(coef[i]) * int64(data[t-period-1+i])
		}
		data[t] += int32(predict >> LTPRshift)
	}
}

// LTPSynthesize reverses LTPResidual in place.
func LTPSynthesize(data []int32, coef []int32, period int) {
	order := len(coef)
	n := len(data)
	half := int64(1) << (LTPRshift - 1)
	for t := period + 1; t < n; t++ {
		predict := half
		for i := 0; i < order; i++ {
			predict += int64(coef[i]) * int64(data[t-period-1+i])
		}
		data[t] -= int32(predict >> LTPRshift)
	}
}
