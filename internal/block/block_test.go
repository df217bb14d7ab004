package block

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/srla-audio/srla/internal/bitstream"
	"github.com/srla-audio/srla/internal/lpc"
)

func testConfig() Config {
	return Config{
		BitsPerSample: 16,
		MaxOrder:      8,
		OrderTactic:   lpc.OrderMaxFixed,
		SVRIterations: 0,
		Margins:       nil,
		MaxLTPPeriod:  200,
	}
}

func sineChannel(n int, freq float64) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(8000 * math.Sin(2*math.Pi*freq*float64(i)/44100))
	}
	return out
}

func noiseChannel(n int, seed int64, amp int32) []int32 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int32, n)
	for i := range out {
		out[i] = rng.Int31n(2*amp) - amp
	}
	return out
}

func TestEncodeDecodeBlockMono(t *testing.T) {
	cfg := testConfig()
	original := sineChannel(2000, 440)
	channels := [][]int32{append([]int32(nil), original...)}

	typ, payload, err := EncodeBlock(cfg, channels)
	if err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}

	decoded, err := DecodeBlock(cfg, typ, payload, 1, len(original))
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	for i := range original {
		if decoded[0][i] != original[i] {
			t.Fatalf("sample %d: got %d, want %d", i, decoded[0][i], original[i])
		}
	}
}

func TestEncodeDecodeBlockStereo(t *testing.T) {
	cfg := testConfig()
	l := sineChannel(2000, 440)
	r := sineChannel(2000, 441) // nearly identical: should favor MS
	channels := [][]int32{append([]int32(nil), l...), append([]int32(nil), r...)}

	typ, payload, err := EncodeBlock(cfg, channels)
	if err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	decoded, err := DecodeBlock(cfg, typ, payload, 2, len(l))
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	for i := range l {
		if decoded[0][i] != l[i] || decoded[1][i] != r[i] {
			t.Fatalf("sample %d: got (%d,%d), want (%d,%d)", i, decoded[0][i], decoded[1][i], l[i], r[i])
		}
	}
}

func TestEncodeDecodeBlockSilence(t *testing.T) {
	cfg := testConfig()
	channels := [][]int32{make([]int32, 1000), make([]int32, 1000)}

	typ, payload, err := EncodeBlock(cfg, channels)
	if err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if typ != TypeSilent {
		t.Fatalf("Classify: got %v, want TypeSilent", typ)
	}
	if len(payload) != 0 {
		t.Errorf("SILENT payload should be empty, got %d bytes", len(payload))
	}
	decoded, err := DecodeBlock(cfg, typ, payload, 2, 1000)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	for _, ch := range decoded {
		for _, s := range ch {
			if s != 0 {
				t.Fatal("decoded silent block has non-zero sample")
			}
		}
	}
}

func TestEncodeDecodeBlockShortIsRaw(t *testing.T) {
	cfg := testConfig()
	original := noiseChannel(4, 1, 1000)
	channels := [][]int32{append([]int32(nil), original...)}

	typ, payload, err := EncodeBlock(cfg, channels)
	if err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if typ != TypeRaw {
		t.Fatalf("Classify(short block) = %v, want TypeRaw", typ)
	}
	decoded, err := DecodeBlock(cfg, typ, payload, 1, len(original))
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	for i := range original {
		if decoded[0][i] != original[i] {
			t.Fatalf("sample %d: got %d, want %d", i, decoded[0][i], original[i])
		}
	}
}

func TestEncodeDecodeBlockWhiteNoise(t *testing.T) {
	cfg := testConfig()
	original := noiseChannel(3000, 2, 1<<15)
	channels := [][]int32{append([]int32(nil), original...)}

	typ, payload, err := EncodeBlock(cfg, channels)
	if err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	decoded, err := DecodeBlock(cfg, typ, payload, 1, len(original))
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	for i := range original {
		if decoded[0][i] != original[i] {
			t.Fatalf("sample %d: got %d, want %d", i, decoded[0][i], original[i])
		}
	}
}

func TestCompressedNotLargerThanRaw(t *testing.T) {
	cfg := testConfig()
	original := sineChannel(4000, 220)
	channels := [][]int32{append([]int32(nil), original...)}

	typ, payload, err := EncodeBlock(cfg, channels)
	if err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}

	var rawBuf bytes.Buffer
	rw := bitstream.NewWriter(&rawBuf)
	if err := EncodeRaw(rw, [][]int32{original}, cfg.BitsPerSample); err != nil {
		t.Fatal(err)
	}
	if err := rw.Flush(); err != nil {
		t.Fatal(err)
	}
	if typ == TypeCompressed && len(payload) > rawBuf.Len() {
		t.Errorf("compressed payload %d bytes exceeds raw-equivalent %d bytes", len(payload), rawBuf.Len())
	}
}

func TestUndecorrelateInvertsDecorrelate(t *testing.T) {
	l := noiseChannel(500, 5, 10000)
	r := noiseChannel(500, 6, 10000)
	for _, mode := range []ChannelMode{ModeNone, ModeMS, ModeLS, ModeSR} {
		a, b := decorrelate(mode, l, r)
		l2, r2 := undecorrelate(mode, a, b)
		for i := range l {
			if l2[i] != l[i] || r2[i] != r[i] {
				t.Fatalf("mode %v: sample %d round trip failed: got (%d,%d) want (%d,%d)", mode, i, l2[i], r2[i], l[i], r[i])
			}
		}
	}
}
