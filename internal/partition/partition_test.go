package partition

import (
	"math"
	"testing"

	"github.com/srla-audio/srla/internal/block"
	"github.com/srla-audio/srla/internal/lpc"
)

func testConfig() block.Config {
	return block.Config{
		BitsPerSample: 16,
		MaxOrder:      4,
		OrderTactic:   lpc.OrderMaxFixed,
		MaxLTPPeriod:  64,
	}
}

func sineChannel(n int, freq float64) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(4000 * math.Sin(2*math.Pi*freq*float64(i)/44100))
	}
	return out
}

func TestSearchCoversFullWindow(t *testing.T) {
	cfg := testConfig()
	channels := [][]int32{sineChannel(1024, 220)}

	plans, err := Search(cfg, channels, 128, 512)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(plans) == 0 {
		t.Fatal("expected at least one plan")
	}

	total := 0
	for i, p := range plans {
		if p.Start != total {
			t.Fatalf("plan %d starts at %d, want contiguous %d", i, p.Start, total)
		}
		if p.Length <= 0 || p.Length > 512 {
			t.Fatalf("plan %d length %d out of bounds", i, p.Length)
		}
		total += p.Length
	}
	if total != 1024 {
		t.Errorf("plans cover %d samples, want 1024", total)
	}
}

func TestSearchDecodesBackToOriginal(t *testing.T) {
	cfg := testConfig()
	original := sineChannel(1024, 220)
	channels := [][]int32{append([]int32(nil), original...)}

	plans, err := Search(cfg, channels, 128, 512)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	var restored []int32
	for _, p := range plans {
		decoded, err := block.DecodeBlock(cfg, p.Type, p.Payload, 1, p.Length)
		if err != nil {
			t.Fatalf("DecodeBlock: %v", err)
		}
		restored = append(restored, decoded[0]...)
	}

	if len(restored) != len(original) {
		t.Fatalf("restored %d samples, want %d", len(restored), len(original))
	}
	for i := range original {
		if restored[i] != original[i] {
			t.Fatalf("sample %d: got %d, want %d", i, restored[i], original[i])
		}
	}
}

func TestSearchSingleBlockWhenMinEqualsMax(t *testing.T) {
	cfg := testConfig()
	channels := [][]int32{sineChannel(256, 220)}

	plans, err := Search(cfg, channels, 256, 256)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("expected exactly one block, got %d", len(plans))
	}
	if plans[0].Length != 256 {
		t.Errorf("block length = %d, want 256", plans[0].Length)
	}
}

func TestSearchEmptyInput(t *testing.T) {
	cfg := testConfig()
	plans, err := Search(cfg, [][]int32{{}}, 128, 512)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(plans) != 0 {
		t.Errorf("expected no plans for empty input, got %d", len(plans))
	}
}
