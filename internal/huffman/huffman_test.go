package huffman

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/srla-audio/srla/internal/bitstream"
)

func skewedFreqTable() []uint32 {
	freq := make([]uint32, 256)
	for i := range freq {
		freq[i] = 1
	}
	// A handful of symbols dominate, like real LPC-coefficient histograms.
	freq[128] = 10000
	freq[127] = 5000
	freq[129] = 5000
	freq[0] = 2000
	return freq
}

func TestPrefixFreeCodes(t *testing.T) {
	tree := NewTree(skewedFreqTable())
	type cw struct {
		bits  uint32
		count uint8
	}
	var codes []cw
	for sym := 0; sym < 256; sym++ {
		c := tree.Code(sym)
		codes = append(codes, cw{c.Bits, c.Count})
	}
	for i := range codes {
		for j := range codes {
			if i == j {
				continue
			}
			a, b := codes[i], codes[j]
			if a.count == 0 || b.count == 0 {
				continue
			}
			if a.count <= b.count {
				// Is a's code a prefix of b's code?
				shift := b.count - a.count
				if a.bits == b.bits>>shift {
					t.Fatalf("code for symbol %d (bits=%b,count=%d) is a prefix of symbol's code (bits=%b,count=%d)",
						i, a.bits, a.count, b.bits, b.count)
				}
			}
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tree := NewTree(skewedFreqTable())
	rng := rand.New(rand.NewSource(1))
	var symbols []int
	for i := 0; i < 5000; i++ {
		symbols = append(symbols, rng.Intn(256))
	}

	buf := new(bytes.Buffer)
	w := bitstream.NewWriter(buf)
	for _, s := range symbols {
		if err := tree.PutCode(w, s); err != nil {
			t.Fatalf("PutCode(%d): %v", s, err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	r := bitstream.NewReader(buf)
	for i, want := range symbols {
		got, err := tree.GetCode(r)
		if err != nil {
			t.Fatalf("GetCode() at %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("GetCode() at %d = %d, want %d", i, got, want)
		}
	}
}

func TestUniformFrequenciesBuildValidTree(t *testing.T) {
	freq := make([]uint32, 256)
	for i := range freq {
		freq[i] = 1
	}
	tree := NewTree(freq)
	for sym := 0; sym < 256; sym++ {
		c := tree.Code(sym)
		if c.Count == 0 {
			t.Fatalf("symbol %d got a zero-length code in a 256-symbol alphabet", sym)
		}
	}
}
