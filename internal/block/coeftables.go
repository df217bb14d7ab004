package block

import "github.com/srla-audio/srla/internal/huffman"

// Compiled-in Huffman tables for the two LPC-coefficient codings: one for
// raw zig-zag-mapped coefficients, one for zig-zag-mapped sums of adjacent
// coefficients (coef[i] + coef[i-1], per spec.md §4.2 "sum-of-adjacent").
// Both alphabets are the 256 zig-zag codes of a signed 8-bit value. Real
// LPC coefficient streams concentrate heavily near zero (geometric decay),
// so both tables are built from a geometric frequency model rather than
// trained on a corpus, matching the "shared static tables" design of
// spec.md §4.2 without requiring a training step.
var (
	rawCoefTree = huffman.NewTree(geometricZigZagFreq(0.80))
	sumCoefTree = huffman.NewTree(geometricZigZagFreq(0.90))
)

// geometricZigZagFreq builds a 256-entry frequency table for zig-zag-mapped
// signed 8-bit values, weighting small-magnitude values higher by a
// geometric decay rate. rate closer to 1 decays more slowly, leaving more
// mass away from zero, modelling a flatter coefficient or delta
// distribution.
func geometricZigZagFreq(rate float64) []uint32 {
	const n = 256
	freq := make([]uint32, n)
	scale := 1 << 20
	for u := 0; u < n; u++ {
		mag := (u + 1) / 2 // zig-zag magnitude rank: 0,1,1,2,2,3,3,...
		w := float64(scale)
		for i := 0; i < mag; i++ {
			w *= rate
		}
		freq[u] = uint32(w) + 1
	}
	return freq
}
