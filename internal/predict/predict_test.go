package predict

import (
	"math/rand"
	"testing"
)

func randomSamples(n int, bits int) []int32 {
	rng := rand.New(rand.NewSource(3))
	max := int32(1) << uint(bits-1)
	out := make([]int32, n)
	for i := range out {
		out[i] = rng.Int31n(2*max) - max
	}
	return out
}

func TestLPCRoundTrip(t *testing.T) {
	original := randomSamples(500, 16)
	coef := []int32{10, -5, 3, 20, -8}
	const rshift = 6

	residual := append([]int32(nil), original...)
	LPCResidual(residual, coef, rshift)

	restored := append([]int32(nil), residual...)
	LPCSynthesize(restored, coef, rshift)

	for i := range original {
		if restored[i] != original[i] {
			t.Fatalf("sample %d: got %d, want %d", i, restored[i], original[i])
		}
	}
}

func TestLPCRoundTripOrderZero(t *testing.T) {
	original := randomSamples(100, 16)
	var coef []int32
	residual := append([]int32(nil), original...)
	LPCResidual(residual, coef, 0)
	for i := range original {
		if residual[i] != original[i] {
			t.Fatalf("order-0 residual should equal input: sample %d got %d want %d", i, residual[i], original[i])
		}
	}
}

func TestLPCRoundTripShortBuffer(t *testing.T) {
	original := randomSamples(3, 16)
	coef := []int32{10, -5, 3, 20, -8}
	const rshift = 6

	residual := append([]int32(nil), original...)
	LPCResidual(residual, coef, rshift)
	restored := append([]int32(nil), residual...)
	LPCSynthesize(restored, coef, rshift)

	for i := range original {
		if restored[i] != original[i] {
			t.Fatalf("sample %d: got %d, want %d", i, restored[i], original[i])
		}
	}
}

func TestLTPRoundTrip(t *testing.T) {
	original := randomSamples(1000, 16)
	coef := []int32{-10, 100, -20}
	period := 64

	residual := append([]int32(nil), original...)
	LTPResidual(residual, coef, period)

	restored := append([]int32(nil), residual...)
	LTPSynthesize(restored, coef, period)

	for i := range original {
		if restored[i] != original[i] {
			t.Fatalf("sample %d: got %d, want %d", i, restored[i], original[i])
		}
	}
}

func TestLTPLeavesWarmupUntouched(t *testing.T) {
	original := randomSamples(200, 16)
	coef := []int32{-10, 100, -20}
	period := 64

	residual := append([]int32(nil), original...)
	LTPResidual(residual, coef, period)
	for i := 0; i <= period; i++ {
		if residual[i] != original[i] {
			t.Errorf("warm-up sample %d modified: got %d, want %d", i, residual[i], original[i])
		}
	}
}

func TestCombinedLTPThenLPCChain(t *testing.T) {
	original := randomSamples(800, 16)
	ltpCoef := []int32{-10, 100, -20}
	period := 40
	lpcCoef := []int32{30, -10, 5}
	const rshift = 5

	// Encode: data -> LTP residual -> LPC residual.
	stage1 := append([]int32(nil), original...)
	LTPResidual(stage1, ltpCoef, period)
	stage2 := append([]int32(nil), stage1...)
	LPCResidual(stage2, lpcCoef, rshift)

	// Decode: LPC synth -> LTP synth.
	restored := append([]int32(nil), stage2...)
	LPCSynthesize(restored, lpcCoef, rshift)
	LTPSynthesize(restored, ltpCoef, period)

	for i := range original {
		if restored[i] != original[i] {
			t.Fatalf("sample %d: got %d, want %d", i, restored[i], original[i])
		}
	}
}
