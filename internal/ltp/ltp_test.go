package ltp

import (
	"math"
	"testing"
)

func pulseTrain(n, period int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i += period {
		out[i] = 1.0
	}
	// Smear the pulses slightly so the autocorrelation peak is not a
	// degenerate single-sample spike.
	for i := 1; i < n; i++ {
		out[i] += 0.3 * out[i-1]
	}
	// Remove the mean so the autocorrelation has the zero crossings the
	// pitch detector segments on.
	var mean float64
	for _, v := range out {
		mean += v
	}
	mean /= float64(n)
	for i := range out {
		out[i] -= mean
	}
	return out
}

func TestAnalyzeDetectsPeriod(t *testing.T) {
	const period = 50
	signal := pulseTrain(2000, period)

	res := Analyze(signal, 200)
	if res.Period == 0 {
		t.Fatal("expected a detected pitch period, got 0 (disabled)")
	}
	// Allow the detector to lock onto a harmonic (integer multiple) of the
	// true period.
	if res.Period%period != 0 {
		t.Errorf("detected period %d is not a multiple of the true period %d", res.Period, period)
	}
	if len(res.Coefficients) != Order {
		t.Errorf("len(Coefficients) = %d, want %d", len(res.Coefficients), Order)
	}
}

func TestAnalyzeSilenceDisabled(t *testing.T) {
	signal := make([]float64, 1000)
	res := Analyze(signal, 200)
	if res.Period != 0 {
		t.Errorf("expected LTP disabled on silence, got period %d", res.Period)
	}
}

func TestAnalyzeShortSignalDisabled(t *testing.T) {
	signal := make([]float64, 10)
	res := Analyze(signal, 200)
	if res.Period != 0 {
		t.Errorf("expected LTP disabled on too-short signal, got period %d", res.Period)
	}
}

func TestAnalyzeCoefficientsAreStable(t *testing.T) {
	const period = 64
	signal := pulseTrain(3000, period)
	res := Analyze(signal, 200)
	if res.Period == 0 {
		t.Fatal("expected detected pitch period")
	}
	var l1 float64
	for _, c := range res.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			t.Fatalf("non-finite coefficient: %v", res.Coefficients)
		}
		l1 += math.Abs(c)
	}
	if l1 > 1.0+1e-9 {
		t.Errorf("L1 norm of coefficients = %v, want <= 1 (one-tap fallback should trigger)", l1)
	}
}

func TestDetectPitchNoPeaks(t *testing.T) {
	ac := make([]float64, 300)
	if got := detectPitch(ac, 200); got != 0 {
		t.Errorf("detectPitch on flat zero autocorrelation = %d, want 0", got)
	}
}
