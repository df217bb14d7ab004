package preemphasis

import (
	"math"
	"math/rand"
	"testing"
)

func correlatedSignal(n int) []int32 {
	rng := rand.New(rand.NewSource(7))
	out := make([]int32, n)
	var prev float64
	for i := range out {
		prev = 0.9*prev + rng.Float64()*200 - 100
		out[i] = int32(prev)
	}
	return out
}

func TestCalculateCoefficientsBounds(t *testing.T) {
	signal := correlatedSignal(2000)
	coef := CalculateCoefficients(signal)
	for i, c := range coef {
		if c < CoefMin || c > CoefMax {
			t.Errorf("stage %d coefficient %d out of [%d,%d]", i, c, CoefMin, CoefMax)
		}
	}
}

func TestCalculateCoefficientsSilence(t *testing.T) {
	signal := make([]int32, 100)
	coef := CalculateCoefficients(signal)
	for i, c := range coef {
		if c != 0 {
			t.Errorf("stage %d coefficient = %d, want 0 for silence", i, c)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := correlatedSignal(500)
	buffer := append([]int32(nil), original...)

	filters := EncodeMultiStage(buffer)
	DecodeMultiStage(filters, buffer)

	for i := range original {
		if buffer[i] != original[i] {
			t.Fatalf("sample %d: got %d, want %d", i, buffer[i], original[i])
		}
	}
}

func TestEncodeReducesEnergyForCorrelatedSignal(t *testing.T) {
	original := correlatedSignal(2000)
	buffer := append([]int32(nil), original...)
	EncodeMultiStage(buffer)

	var origEnergy, residEnergy float64
	for i := range original {
		origEnergy += float64(original[i]) * float64(original[i])
		residEnergy += float64(buffer[i]) * float64(buffer[i])
	}
	if residEnergy >= origEnergy {
		t.Errorf("preemphasis residual energy %v did not decrease below original %v", residEnergy, origEnergy)
	}
}

func TestSingleStageApplyMatchesFormula(t *testing.T) {
	f := Filter{Prev: 10, Coef: 5}
	buffer := []int32{100, 200, 300}
	want := make([]int32, len(buffer))
	prev := int32(10)
	for i, x := range buffer {
		want[i] = x - ((prev * 5) >> Shift)
		prev = x
	}
	f.Apply(buffer)
	for i := range buffer {
		if buffer[i] != want[i] {
			t.Errorf("sample %d: got %d want %d", i, buffer[i], want[i])
		}
	}
	if f.Prev != prev {
		t.Errorf("final Prev = %d, want %d", f.Prev, prev)
	}
}

func TestRoundTripSingleSampleBlock(t *testing.T) {
	original := []int32{42}
	buffer := append([]int32(nil), original...)
	filters := EncodeMultiStage(buffer)
	DecodeMultiStage(filters, buffer)
	if buffer[0] != original[0] {
		t.Errorf("single-sample round trip: got %d, want %d", buffer[0], original[0])
	}
}

func TestCalculateCoefficientsFinite(t *testing.T) {
	signal := correlatedSignal(50)
	coef := CalculateCoefficients(signal)
	for i, c := range coef {
		if math.IsNaN(float64(c)) {
			t.Errorf("stage %d coefficient is NaN", i)
		}
	}
}
