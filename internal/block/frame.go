package block

import (
	"bytes"
	"math"

	"github.com/srla-audio/srla/internal/bitstream"
	"github.com/srla-audio/srla/internal/ltp"
	"github.com/srla-audio/srla/internal/predict"
	"github.com/srla-audio/srla/internal/preemphasis"
	"github.com/srla-audio/srla/internal/rice"
)

// ltpOrder mirrors ltp.Order, named locally for readability at call sites.
const ltpOrder = ltp.Order

// Classify decides which of RAW/SILENT/COMPRESSED a block should use
// before any analysis is attempted, per spec.md §4.9 step 2.
func Classify(channels [][]int32, maxOrder int) Type {
	n := 0
	if len(channels) > 0 {
		n = len(channels[0])
	}
	if n <= maxOrder {
		return TypeRaw
	}
	allZero := true
outer:
	for _, ch := range channels {
		for _, s := range ch {
			if s != 0 {
				allZero = false
				break outer
			}
		}
	}
	if allZero {
		return TypeSilent
	}
	return TypeCompressed
}

// EncodeRaw writes interleaved big-endian samples at bitsPerSample each.
func EncodeRaw(w *bitstream.Writer, channels [][]int32, bitsPerSample int) error {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	mask := uint64(1)<<uint(bitsPerSample) - 1
	for s := 0; s < n; s++ {
		for _, ch := range channels {
			if err := w.PutBits(uint64(ch[s])&mask, uint8(bitsPerSample)); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodeRaw reverses EncodeRaw.
func DecodeRaw(r *bitstream.Reader, numChannels, numSamples, bitsPerSample int) ([][]int32, error) {
	channels := make([][]int32, numChannels)
	for c := range channels {
		channels[c] = make([]int32, numSamples)
	}
	for s := 0; s < numSamples; s++ {
		for c := 0; c < numChannels; c++ {
			v, err := r.GetBits(uint8(bitsPerSample))
			if err != nil {
				return nil, err
			}
			channels[c][s] = int32(bitstream.IntN(v, uint(bitsPerSample)))
		}
	}
	return channels, nil
}

// decorrelate applies a two-channel transform, returning new buffers.
func decorrelate(mode ChannelMode, l, r []int32) (a, b []int32) {
	n := len(l)
	a = make([]int32, n)
	b = make([]int32, n)
	switch mode {
	case ModeNone:
		copy(a, l)
		copy(b, r)
	case ModeMS:
		for i := range l {
			a[i] = l[i] + ((r[i] - l[i]) >> 1)
			b[i] = r[i] - l[i]
		}
	case ModeLS:
		for i := range l {
			a[i] = l[i]
			b[i] = r[i] - l[i]
		}
	case ModeSR:
		for i := range l {
			a[i] = r[i] - l[i]
			b[i] = r[i]
		}
	}
	return a, b
}

// undecorrelate reverses decorrelate, reconstructing L, R into newly
// allocated slices from the transformed pair (a, b) written under mode.
func undecorrelate(mode ChannelMode, a, b []int32) (l, r []int32) {
	n := len(a)
	l = make([]int32, n)
	r = make([]int32, n)
	switch mode {
	case ModeNone:
		copy(l, a)
		copy(r, b)
	case ModeMS:
		for i := range a {
			side := b[i]
			mid := a[i]
			l[i] = mid - (side >> 1)
			r[i] = l[i] + side
		}
	case ModeLS:
		for i := range a {
			l[i] = a[i]
			r[i] = a[i] + b[i]
		}
	case ModeSR:
		for i := range a {
			r[i] = b[i]
			l[i] = r[i] - a[i]
		}
	}
	return l, r
}

// EncodeCompressed runs channel-mode selection (for exactly two channels)
// and the per-channel preemphasis/LTP/LPC chain, and writes the COMPRESSED
// bit layout of spec.md §6 to w.
func EncodeCompressed(w *bitstream.Writer, cfg Config, channels [][]int32) error {
	mode, analyzed := chooseChannelMode(cfg, channels)

	if err := w.PutBits(uint64(mode), 2); err != nil {
		return err
	}
	for _, p := range analyzed {
		if err := putPreemphasis(w, p.Preemphasis, cfg.BitsPerSample); err != nil {
			return err
		}
	}
	for _, p := range analyzed {
		if err := w.PutBits(uint64(p.LPCOrder), 8); err != nil {
			return err
		}
		if err := w.PutBits(uint64(p.LPCRshift), 4); err != nil {
			return err
		}
		useSum := uint64(0)
		if p.UseSumCoef {
			useSum = 1
		}
		if err := w.PutBits(useSum, 1); err != nil {
			return err
		}
		if err := putLPCCoefficients(w, p.LPCCoef, p.UseSumCoef); err != nil {
			return err
		}
	}
	for _, p := range analyzed {
		coded := uint64(0)
		if p.LTPPeriod > 0 {
			coded = uint64(p.LTPPeriod - minLTPPeriod + 1)
		}
		if err := w.PutBits(coded, ltpPeriodBits); err != nil {
			return err
		}
		if p.LTPPeriod > 0 {
			for _, c := range p.LTPCoef {
				if err := w.PutZigZag(c, ltpCoefBits); err != nil {
					return err
				}
			}
		}
	}
	for _, p := range analyzed {
		if err := rice.Encode(w, p.Residual); err != nil {
			return err
		}
	}
	return w.Flush()
}

const minLTPPeriod = ltp.MinPeriod

func putPreemphasis(w *bitstream.Writer, filters [preemphasis.NumStages]preemphasis.Filter, bitsPerSample int) error {
	if err := w.PutZigZag(filters[0].Prev, uint8(bitsPerSample+1)); err != nil {
		return err
	}
	for _, f := range filters {
		if err := w.PutZigZag(f.Coef, preemphasisBits); err != nil {
			return err
		}
	}
	return nil
}

// chooseChannelMode analyzes channels under every applicable decorrelation
// mode and returns the cheapest, per spec.md §4.9(d). Non-stereo blocks are
// analyzed independently under ModeNone.
func chooseChannelMode(cfg Config, channels [][]int32) (ChannelMode, []ChannelParams) {
	if len(channels) != 2 {
		out := make([]ChannelParams, len(channels))
		for i, ch := range channels {
			out[i] = analyzeChannel(ch, cfg)
		}
		return ModeNone, out
	}

	modes := []ChannelMode{ModeNone, ModeMS, ModeLS, ModeSR}
	bestBits := math.MaxInt64
	var bestMode ChannelMode
	var bestParams []ChannelParams
	for _, mode := range modes {
		a, b := decorrelate(mode, channels[0], channels[1])
		pa := analyzeChannel(a, cfg)
		pb := analyzeChannel(b, cfg)
		total := pa.EstimatedBits + pb.EstimatedBits
		if total < bestBits {
			bestBits = total
			bestMode = mode
			bestParams = []ChannelParams{pa, pb}
		}
	}
	return bestMode, bestParams
}

// EncodeBlock runs Classify and produces the fully encoded payload bytes
// (not including the 11-byte BlockHeader) for one block, falling back to
// RAW if the COMPRESSED encoding is not smaller, per spec.md §4.9 step 4.
func EncodeBlock(cfg Config, channels [][]int32) (Type, []byte, error) {
	t := Classify(channels, cfg.MaxOrder)
	if t == TypeSilent {
		return TypeSilent, nil, nil
	}

	var rawBuf bytes.Buffer
	rw := bitstream.NewWriter(&rawBuf)
	if err := EncodeRaw(rw, channels, cfg.BitsPerSample); err != nil {
		return 0, nil, err
	}
	if err := rw.Flush(); err != nil {
		return 0, nil, err
	}
	if t == TypeRaw {
		return TypeRaw, rawBuf.Bytes(), nil
	}

	var cmpBuf bytes.Buffer
	cw := bitstream.NewWriter(&cmpBuf)
	if err := EncodeCompressed(cw, cfg, channels); err != nil {
		return 0, nil, err
	}

	if cmpBuf.Len() >= rawBuf.Len() {
		return TypeRaw, rawBuf.Bytes(), nil
	}
	return TypeCompressed, cmpBuf.Bytes(), nil
}

// DecodeBlock reverses EncodeBlock given the block's declared Type,
// channel count and sample count.
func DecodeBlock(cfg Config, t Type, payload []byte, numChannels, numSamples int) ([][]int32, error) {
	switch t {
	case TypeSilent:
		channels := make([][]int32, numChannels)
		for c := range channels {
			channels[c] = make([]int32, numSamples)
		}
		return channels, nil
	case TypeRaw:
		r := bitstream.NewReader(bytes.NewReader(payload))
		return DecodeRaw(r, numChannels, numSamples, cfg.BitsPerSample)
	case TypeCompressed:
		r := bitstream.NewReader(bytes.NewReader(payload))
		return decodeCompressed(r, cfg, numChannels, numSamples)
	}
	return nil, nil
}

func decodeCompressed(r *bitstream.Reader, cfg Config, numChannels, numSamples int) ([][]int32, error) {
	modeBits, err := r.GetBits(2)
	if err != nil {
		return nil, err
	}
	mode := ChannelMode(modeBits)

	filters := make([][preemphasis.NumStages]preemphasis.Filter, numChannels)
	for c := 0; c < numChannels; c++ {
		prev, err := r.GetZigZag(uint8(cfg.BitsPerSample + 1))
		if err != nil {
			return nil, err
		}
		for s := 0; s < preemphasis.NumStages; s++ {
			coef, err := r.GetZigZag(preemphasisBits)
			if err != nil {
				return nil, err
			}
			filters[c][s] = preemphasis.Filter{Prev: prev, Coef: coef}
		}
	}

	orders := make([]int, numChannels)
	rshifts := make([]int, numChannels)
	lpcCoefs := make([][]int32, numChannels)
	for c := 0; c < numChannels; c++ {
		order, err := r.GetBits(8)
		if err != nil {
			return nil, err
		}
		rshift, err := r.GetBits(4)
		if err != nil {
			return nil, err
		}
		useSumBit, err := r.GetBits(1)
		if err != nil {
			return nil, err
		}
		orders[c] = int(order)
		rshifts[c] = int(rshift)
		coef, err := getLPCCoefficients(r, orders[c], useSumBit == 1)
		if err != nil {
			return nil, err
		}
		lpcCoefs[c] = coef
	}

	periods := make([]int, numChannels)
	ltpCoefs := make([][]int32, numChannels)
	for c := 0; c < numChannels; c++ {
		coded, err := r.GetBits(ltpPeriodBits)
		if err != nil {
			return nil, err
		}
		if coded != 0 {
			periods[c] = int(coded) + minLTPPeriod - 1
			coef := make([]int32, ltpOrder)
			for i := range coef {
				v, err := r.GetZigZag(ltpCoefBits)
				if err != nil {
					return nil, err
				}
				coef[i] = v
			}
			ltpCoefs[c] = coef
		}
	}

	channels := make([][]int32, numChannels)
	for c := 0; c < numChannels; c++ {
		residual, err := rice.Decode(r, numSamples)
		if err != nil {
			return nil, err
		}
		data := residual
		if orders[c] > 0 {
			predict.LPCSynthesize(data, lpcCoefs[c], uint32(rshifts[c]))
		}
		if periods[c] > 0 {
			predict.LTPSynthesize(data, ltpCoefs[c], periods[c])
		}
		preemphasis.DecodeMultiStage(filters[c], data)
		channels[c] = data
	}

	if numChannels == 2 && mode != ModeNone {
		l, r := undecorrelate(mode, channels[0], channels[1])
		channels[0], channels[1] = l, r
	}

	return channels, nil
}
