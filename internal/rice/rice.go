// Package rice implements SRLA's partitioned recursive Rice residual coder:
// partition-order search over plain Rice or two-parameter recursive Rice
// coding, grounded on original_source/libs/srla_coder/src/srla_coder.c and
// spec.md §4.3/§6.
package rice

import (
	"math"

	"github.com/srla-audio/srla/internal/bitstream"
)

const (
	// logMaxNumPartitions is the bit width of the transmitted partition
	// order field; partitions = 2^porder.
	logMaxNumPartitions = 10
	maxPartitionOrder   = logMaxNumPartitions
	// riceParameterBits is the width of the first partition's absolute
	// Rice/RecursiveRice parameter.
	riceParameterBits = 5
)

// optX is the root of (x-1)^2 + ln(2)*x*ln(x) = 0, used in the closed-form
// optimal Rice parameter estimate.
const optX = 0.5127629514437670454896078808815218508243560791015625

// mlnOptX is -ln(optX), used by the fast recursive-Rice parameter estimate.
const mlnOptX = 0.66794162356

// codeType distinguishes the two residual coding schemes a partitioned
// block may use, chosen once per call based on the whole-signal mean.
type codeType uint8

const (
	codeTypeRice codeType = iota
	codeTypeRecursiveRice
)

// optimalRiceParameter returns the maximum-likelihood optimal Rice
// parameter k for a geometric source with the given mean magnitude.
func optimalRiceParameter(mean float64) uint32 {
	rho := 1.0 / (1.0 + mean)
	k := int32(math.Round(math.Log2(math.Log(optX) / math.Log(1.0-rho))))
	if k < 0 {
		k = 0
	}
	return uint32(k)
}

// optimalRecursiveRiceParameter returns the pair (k1, k2) with k1 = k2+1
// via the fast approximation used by the shipped encoder.
func optimalRecursiveRiceParameter(mean float64) (k1, k2 uint32) {
	optGolombParam := mlnOptX * (1.0 + mean)
	if optGolombParam < 1 {
		optGolombParam = 1
	}
	k2 = log2Floor(uint32(optGolombParam))
	k1 = k2 + 1
	return k1, k2
}

func log2Floor(v uint32) uint32 {
	n := uint32(0)
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// riceCodeLength returns the bit length of the plain-Rice codeword for uval
// with parameter k.
func riceCodeLength(k uint32, uval uint32) uint32 {
	return 1 + k + (uval >> k)
}

// recursiveRiceCodeLength returns the total bit length of num samples coded
// with recursive-Rice parameters (k1, k2), assuming k1 = k2+1.
func recursiveRiceCodeLength(uvals []uint32, k1, k2 uint32) uint32 {
	k1pow := uint32(1) << k1
	length := (k1 + 1) * uint32(len(uvals))
	for _, u := range uvals {
		d := int64(u) - int64(k1pow)
		if d < 0 {
			d = 0
		}
		length += uint32(d) >> k2
	}
	return length
}

// gammaCodeLength returns the Elias-gamma code length of u.
func gammaCodeLength(u uint32) uint32 {
	v := u + 1
	d := uint32(bitLen(v))
	return 2*d - 1
}

func bitLen(v uint32) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

func signedDelta(cur, prev uint32) uint32 {
	diff := int32(cur) - int32(prev)
	return bitstream.EncodeZigZag(diff)
}

// partitionPlan holds the outcome of the partition-order search: the chosen
// code type, partition order, and per-partition mean table needed to
// reproduce parameter choices during emission without recomputing means.
type partitionPlan struct {
	ctype     codeType
	porder    uint32
	partMeans [][]float64 // partMeans[order][part]
	uvals     []uint32
}

// plan runs the partition-order search described in spec.md §4.3 and
// returns the chosen configuration, without emitting any bits.
func plan(data []int32) partitionPlan {
	n := uint32(len(data))
	uvals := make([]uint32, n)
	for i, s := range data {
		uvals[i] = bitstream.EncodeZigZag(s)
	}

	maxPorder := uint32(1)
	for n%(1<<maxPorder) == 0 {
		maxPorder++
	}
	maxPorder--
	if maxPorder > maxPartitionOrder {
		maxPorder = maxPartitionOrder
	}
	maxNumPartitions := uint32(1) << maxPorder

	partMeans := make([][]float64, maxPorder+1)
	finest := make([]float64, maxNumPartitions)
	nsmplFinest := n / maxNumPartitions
	for part := uint32(0); part < maxNumPartitions; part++ {
		var sum float64
		for s := uint32(0); s < nsmplFinest; s++ {
			sum += float64(uvals[part*nsmplFinest+s])
		}
		finest[part] = sum / float64(nsmplFinest)
	}
	partMeans[maxPorder] = finest
	for o := int(maxPorder) - 1; o >= 0; o-- {
		row := make([]float64, uint32(1)<<uint(o))
		prev := partMeans[o+1]
		for part := range row {
			row[part] = (prev[2*part] + prev[2*part+1]) / 2.0
		}
		partMeans[o] = row
	}

	var ctype codeType
	if partMeans[0][0] < 2 {
		ctype = codeTypeRice
	} else {
		ctype = codeTypeRecursiveRice
	}

	minBits := uint32(math.MaxUint32)
	bestPorder := maxPorder + 1
	for porder := uint32(0); porder <= maxPorder; porder++ {
		nsmpl := n >> porder
		bits := uint32(0)
		switch ctype {
		case codeTypeRice:
			var prevK uint32
			for part := uint32(0); part < (1 << porder); part++ {
				k := optimalRiceParameter(partMeans[porder][part])
				for s := uint32(0); s < nsmpl; s++ {
					bits += riceCodeLength(k, uvals[part*nsmpl+s])
				}
				if part == 0 {
					bits += riceParameterBits
				} else {
					bits += gammaCodeLength(signedDelta(k, prevK))
				}
				prevK = k
				if bits >= minBits {
					break
				}
			}
		case codeTypeRecursiveRice:
			var prevK2 uint32
			for part := uint32(0); part < (1 << porder); part++ {
				_, k2 := optimalRecursiveRiceParameter(partMeans[porder][part])
				k1 := k2 + 1
				bits += recursiveRiceCodeLength(uvals[part*nsmpl:(part+1)*nsmpl], k1, k2)
				if part == 0 {
					bits += riceParameterBits
				} else {
					bits += gammaCodeLength(signedDelta(k2, prevK2))
				}
				prevK2 = k2
				if bits >= minBits {
					break
				}
			}
		}
		if bits < minBits {
			minBits = bits
			bestPorder = porder
		}
	}

	return partitionPlan{ctype: ctype, porder: bestPorder, partMeans: partMeans, uvals: uvals}
}

// EstimateBits returns the number of bits Encode would emit for data,
// without writing anything. BlockCodec uses it for its per-channel cost
// estimate, and through that for channel-mode selection.
func EstimateBits(data []int32) int {
	if len(data) == 0 {
		return 0
	}
	p := plan(data)
	return int(partitionTotalBits(p))
}

func partitionTotalBits(p partitionPlan) uint32 {
	n := uint32(len(p.uvals))
	nsmpl := n >> p.porder
	bits := uint32(1 + logMaxNumPartitions)
	switch p.ctype {
	case codeTypeRice:
		var prevK uint32
		for part := uint32(0); part < (1 << p.porder); part++ {
			k := optimalRiceParameter(p.partMeans[p.porder][part])
			for s := uint32(0); s < nsmpl; s++ {
				bits += riceCodeLength(k, p.uvals[part*nsmpl+s])
			}
			if part == 0 {
				bits += riceParameterBits
			} else {
				bits += gammaCodeLength(signedDelta(k, prevK))
			}
			prevK = k
		}
	case codeTypeRecursiveRice:
		var prevK2 uint32
		for part := uint32(0); part < (1 << p.porder); part++ {
			_, k2 := optimalRecursiveRiceParameter(p.partMeans[p.porder][part])
			k1 := k2 + 1
			bits += recursiveRiceCodeLength(p.uvals[part*nsmpl:(part+1)*nsmpl], k1, k2)
			if part == 0 {
				bits += riceParameterBits
			} else {
				bits += gammaCodeLength(signedDelta(k2, prevK2))
			}
			prevK2 = k2
		}
	}
	return bits
}

// Encode writes the partitioned recursive Rice (or plain Rice) encoding of
// data to w.
func Encode(w *bitstream.Writer, data []int32) error {
	if len(data) == 0 {
		return nil
	}
	p := plan(data)
	n := uint32(len(p.uvals))
	nsmpl := n >> p.porder

	if err := w.PutBits(uint64(p.ctype), 1); err != nil {
		return err
	}
	if err := w.PutBits(uint64(p.porder), logMaxNumPartitions); err != nil {
		return err
	}

	switch p.ctype {
	case codeTypeRice:
		var prevK uint32
		for part := uint32(0); part < (1 << p.porder); part++ {
			k := optimalRiceParameter(p.partMeans[p.porder][part])
			if part == 0 {
				if err := w.PutBits(uint64(k), riceParameterBits); err != nil {
					return err
				}
			} else {
				if err := w.PutGamma(signedDelta(k, prevK)); err != nil {
					return err
				}
			}
			prevK = k
			for s := uint32(0); s < nsmpl; s++ {
				if err := putRice(w, k, p.uvals[part*nsmpl+s]); err != nil {
					return err
				}
			}
		}
	case codeTypeRecursiveRice:
		var prevK2 uint32
		for part := uint32(0); part < (1 << p.porder); part++ {
			_, k2 := optimalRecursiveRiceParameter(p.partMeans[p.porder][part])
			k1 := k2 + 1
			if part == 0 {
				if err := w.PutBits(uint64(k2), riceParameterBits); err != nil {
					return err
				}
			} else {
				if err := w.PutGamma(signedDelta(k2, prevK2)); err != nil {
					return err
				}
			}
			prevK2 = k2
			for s := uint32(0); s < nsmpl; s++ {
				if err := putRecursiveRice(w, k1, k2, p.uvals[part*nsmpl+s]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Decode reads numSamples signed residuals previously written by Encode.
func Decode(r *bitstream.Reader, numSamples int) ([]int32, error) {
	if numSamples == 0 {
		return nil, nil
	}
	n := uint32(numSamples)

	ctbit, err := r.GetBits(1)
	if err != nil {
		return nil, err
	}
	ct := codeType(ctbit)
	porderBits, err := r.GetBits(logMaxNumPartitions)
	if err != nil {
		return nil, err
	}
	porder := uint32(porderBits)
	nsmpl := n >> porder

	out := make([]int32, n)
	switch ct {
	case codeTypeRice:
		var k uint32
		for part := uint32(0); part < (1 << porder); part++ {
			if part == 0 {
				v, err := r.GetBits(riceParameterBits)
				if err != nil {
					return nil, err
				}
				k = uint32(v)
			} else {
				d, err := r.GetGamma()
				if err != nil {
					return nil, err
				}
				k = uint32(int32(k) + bitstream.DecodeZigZag(d))
			}
			for s := uint32(0); s < nsmpl; s++ {
				u, err := getRice(r, k)
				if err != nil {
					return nil, err
				}
				out[part*nsmpl+s] = bitstream.DecodeZigZag(u)
			}
		}
	case codeTypeRecursiveRice:
		var k2 uint32
		for part := uint32(0); part < (1 << porder); part++ {
			if part == 0 {
				v, err := r.GetBits(riceParameterBits)
				if err != nil {
					return nil, err
				}
				k2 = uint32(v)
			} else {
				d, err := r.GetGamma()
				if err != nil {
					return nil, err
				}
				k2 = uint32(int32(k2) + bitstream.DecodeZigZag(d))
			}
			k1 := k2 + 1
			for s := uint32(0); s < nsmpl; s++ {
				u, err := getRecursiveRice(r, k1, k2)
				if err != nil {
					return nil, err
				}
				out[part*nsmpl+s] = bitstream.DecodeZigZag(u)
			}
		}
	}
	return out, nil
}

func putRice(w *bitstream.Writer, k uint32, uval uint32) error {
	if err := w.PutZeroRun(uval >> k); err != nil {
		return err
	}
	mask := uint32(1)<<k - 1
	return w.PutBits(uint64(uval&mask), uint8(k))
}

func getRice(r *bitstream.Reader, k uint32) (uint32, error) {
	quot, err := r.GetZeroRun()
	if err != nil {
		return 0, err
	}
	low, err := r.GetBits(uint8(k))
	if err != nil {
		return 0, err
	}
	return (quot << k) + uint32(low), nil
}

func putRecursiveRice(w *bitstream.Writer, k1, k2 uint32, uval uint32) error {
	k1pow := uint32(1) << k1
	if uval < k1pow {
		if err := w.PutZeroRun(0); err != nil {
			return err
		}
		return w.PutBits(uint64(uval), uint8(k1))
	}
	uval -= k1pow
	if err := w.PutZeroRun(1 + (uval >> k2)); err != nil {
		return err
	}
	mask := uint32(1)<<k2 - 1
	return w.PutBits(uint64(uval&mask), uint8(k2))
}

func getRecursiveRice(r *bitstream.Reader, k1, k2 uint32) (uint32, error) {
	run, err := r.GetZeroRun()
	if err != nil {
		return 0, err
	}
	if run == 0 {
		v, err := r.GetBits(uint8(k1))
		if err != nil {
			return 0, err
		}
		return uint32(v), nil
	}
	low, err := r.GetBits(uint8(k2))
	if err != nil {
		return 0, err
	}
	return (uint32(1) << k1) + (run-1)<<k2 + uint32(low), nil
}
