// Package block implements SRLA's per-block orchestration (BlockCodec):
// channel decorrelation choice, the preemphasis/LTP/LPC analysis chain,
// residual coding, and RAW/SILENT fallback classification, grounded on
// spec.md §4.9 and
// original_source/libs/srla_encoder/src/srla_encoder.c /
// srla_decoder.c.
package block

import (
	"math"

	"github.com/srla-audio/srla/internal/bitstream"
	"github.com/srla-audio/srla/internal/fft"
	"github.com/srla-audio/srla/internal/lpc"
	"github.com/srla-audio/srla/internal/ltp"
	"github.com/srla-audio/srla/internal/predict"
	"github.com/srla-audio/srla/internal/preemphasis"
	"github.com/srla-audio/srla/internal/rice"
)

// ChannelMode identifies the stereo decorrelation transform applied to a
// two-channel block, per the SRLAChannelProcessMethod enum.
type ChannelMode uint8

const (
	ModeNone ChannelMode = iota // L, R unchanged
	ModeMS                      // mid = L + ((R-L)>>1), side = R-L
	ModeLS                      // L, side = R-L
	ModeSR                      // side = R-L, R
)

// Type classifies a block's payload encoding.
type Type uint8

const (
	TypeCompressed Type = iota
	TypeSilent
	TypeRaw
)

const (
	coefBits        = 8
	maxCoefRshift   = 1 << 4 // 4-bit rshift field
	ltpCoefBits     = 8
	ltpPeriodBits   = 8
	preemphasisBits = preemphasis.Shift + 1
)

// Config carries the per-stream parameters BlockCodec needs, sourced from
// the active preset (spec.md §3 "Preset").
type Config struct {
	BitsPerSample int
	MaxOrder      int
	OrderTactic   lpc.OrderTactic
	SVRIterations int
	Margins       []float64
	MaxLTPPeriod  int
}

// ChannelParams is one channel's emitted COMPRESSED-block parameter set.
type ChannelParams struct {
	Preemphasis   [preemphasis.NumStages]preemphasis.Filter
	LPCOrder      int
	LPCRshift     int
	UseSumCoef    bool
	LPCCoef       []int32 // reverse-ordered, length LPCOrder
	LTPPeriod     int
	LTPCoef       []int32 // reverse-ordered, length ltp.Order if LTPPeriod>0
	Residual      []int32
	EstimatedBits int
}

// analyzeChannel runs the preemphasis -> LTP -> LPC chain over one
// channel's int32 samples (data is consumed/mutated as working storage)
// and returns the parameters and final residual, per spec.md §4.9(b).
func analyzeChannel(data []int32, cfg Config) ChannelParams {
	n := len(data)
	var params ChannelParams

	working := append([]int32(nil), data...)
	params.Preemphasis = preemphasis.EncodeMultiStage(working)

	normConst := math.Pow(2, -float64(cfg.BitsPerSample-1))
	toDouble := func(src []int32) []float64 {
		out := make([]float64, len(src))
		for i, v := range src {
			out[i] = float64(v) * normConst
		}
		return out
	}
	dbl := toDouble(working)

	maxPeriod := cfg.MaxLTPPeriod
	if maxPeriod > ltp.MaxPeriod {
		maxPeriod = ltp.MaxPeriod
	}
	ltpResult := ltp.Analyze(dbl, maxPeriod)
	if ltpResult.Period > 0 {
		ltpCoefInt := make([]int32, len(ltpResult.Coefficients))
		scale := math.Pow(2, ltpCoefBits-1)
		lo, hi := int32(-(1 << (ltpCoefBits - 1))), int32((1<<(ltpCoefBits-1))-1)
		// LTPResidual adds the shifted coefficient sum to each sample, so the
		// prediction coefficients are stored negated.
		for i, c := range ltpResult.Coefficients {
			q := int32(math.Round(-c * scale))
			if q < lo {
				q = lo
			}
			if q > hi {
				q = hi
			}
			ltpCoefInt[i] = q
		}
		predict.LTPResidual(working, ltpCoefInt, ltpResult.Period)
		params.LTPPeriod = ltpResult.Period
		params.LTPCoef = ltpCoefInt
		dbl = toDouble(working)
	}

	windowed := lpc.ApplyWindow(dbl, lpc.WindowWelch)
	maxOrder := cfg.MaxOrder
	if maxOrder >= n {
		maxOrder = n - 1
	}
	if maxOrder < 1 {
		maxOrder = 0
	}

	if maxOrder > 0 {
		ac := fft.Autocorrelation(windowed, maxOrder+1)
		ld := lpc.LevinsonDurbin(ac, maxOrder, 1e-9)
		order := lpc.SelectOrder(ld, windowed, maxOrder, cfg.OrderTactic, float64(coefBits))

		if order > 0 {
			coeffs := ld.AllOrders[order]
			if cfg.SVRIterations > 0 && len(cfg.Margins) > 0 {
				est := lpc.SVR(windowed, order, cfg.Margins, cfg.SVRIterations, 1e-9)
				coeffs = est.Coefficients
			}

			// LPCResidual adds the shifted coefficient sum to each sample, so
			// the prediction coefficients are quantised negated.
			negated := make([]float64, len(coeffs))
			for i, c := range coeffs {
				negated[i] = -c
			}
			quant, rshift := lpc.QuantizeCoefficients(negated, coefBits, maxCoefRshift)
			reversed := make([]int32, order)
			for i, c := range quant {
				reversed[order-1-i] = c
			}

			predict.LPCResidual(working, reversed, uint32(rshift))

			params.LPCOrder = order
			params.LPCRshift = rshift
			params.LPCCoef = reversed
		}
	}

	params.Residual = working
	params.EstimatedBits = estimateChannelBits(cfg, &params)
	return params
}

// estimateChannelBits predicts the bit cost of emitting params: residual
// payload plus preemphasis, LPC and LTP header fields, choosing between the
// raw and sum-delta Huffman codings of the LPC coefficients.
func estimateChannelBits(cfg Config, p *ChannelParams) int {
	bits := 2 * preemphasisBits // two stage coefficients
	bits += cfg.BitsPerSample + 1

	bits += 8 + 4 + 1 // order, rshift, use_sum flag
	rawBits, sumBits := huffmanCost(p.LPCCoef)
	if sumBits < rawBits {
		p.UseSumCoef = true
		bits += sumBits
	} else {
		p.UseSumCoef = false
		bits += rawBits
	}

	bits += ltpPeriodBits
	if p.LTPPeriod > 0 {
		bits += len(p.LTPCoef) * ltpCoefBits
	}

	bits += rice.EstimateBits(p.Residual)
	return bits
}

// huffmanCost estimates the bit cost of coef under the raw coding and under
// the sum coding. Index 0 has no predecessor, so it always routes through
// rawCoefTree in both cases, matching srla_encoder.c:1212-1213/1459-1465.
// If any sum falls outside the signed 8-bit range of the sum alphabet,
// sumBits is math.MaxInt32 so the sum coding is never chosen.
func huffmanCost(coef []int32) (rawBits, sumBits int) {
	prev := int32(0)
	sumFits := true
	for i, c := range coef {
		rawCode := int(bitstream.EncodeZigZag(c)) & 0xFF
		rawBits += int(rawCoefTree.Code(rawCode).Count)
		if i == 0 {
			sumBits += int(rawCoefTree.Code(rawCode).Count)
		} else {
			summed := c + prev
			if summed < -128 || summed > 127 {
				sumFits = false
			}
			sumBits += int(sumCoefTree.Code(int(bitstream.EncodeZigZag(summed))&0xFF).Count)
		}
		prev = c
	}
	if !sumFits {
		sumBits = math.MaxInt32
	}
	return rawBits, sumBits
}

// putLPCCoefficients writes coef using whichever table useSum selects.
// Index 0 always goes through rawCoefTree regardless of useSum, and the sum
// coding emits coef[i]+coef[i-1] (not a difference), per spec.md §4.2 and
// srla_encoder.c:1212-1221/1459-1475.
func putLPCCoefficients(w *bitstream.Writer, coef []int32, useSum bool) error {
	prev := int32(0)
	for i, c := range coef {
		sym, tree := c, rawCoefTree
		if i != 0 && useSum {
			sym, tree = c+prev, sumCoefTree
		}
		prev = c
		if err := tree.PutCode(w, int(bitstream.EncodeZigZag(sym))&0xFF); err != nil {
			return err
		}
	}
	return nil
}

// getLPCCoefficients reverses putLPCCoefficients: index 0 always decodes
// through rawCoefTree, and the sum coding recovers coef[i] by subtracting
// the already-decoded coef[i-1] from the decoded sum, per
// srla_decoder.c:487-494 (`lpc_coef[i] = uval; lpc_coef[i] -= lpc_coef[i-1]`).
func getLPCCoefficients(r *bitstream.Reader, order int, useSum bool) ([]int32, error) {
	out := make([]int32, order)
	prev := int32(0)
	for i := 0; i < order; i++ {
		tree := rawCoefTree
		if i != 0 && useSum {
			tree = sumCoefTree
		}
		sym, err := tree.GetCode(r)
		if err != nil {
			return nil, err
		}
		v := bitstream.DecodeZigZag(uint32(sym))
		c := v
		if i != 0 && useSum {
			c = v - prev
		}
		out[i] = c
		prev = c
	}
	return out, nil
}
