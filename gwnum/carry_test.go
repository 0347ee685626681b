package gwnum

import (
	"math"
	"testing"
)

func TestNormalizeRejectsNaN(t *testing.T) {
	wt := NewWeightTable(8, 2, 24) // rational, 3 bits/word
	raw := make([]float64, 8)
	raw[3] = math.NaN()

	_, _, err := Normalize(raw, wt, NormalizeConfig{K: 1, B: 2, C: -1})
	if err == nil {
		t.Fatalf("expected an error for a NaN FFT word")
	}
	ge, ok := err.(*GwError)
	if !ok || ge.Kind != ErrBadFFTData {
		t.Errorf("Normalize(NaN) = %v, want ErrBadFFTData", err)
	}
}

func TestNormalizeRejectsInf(t *testing.T) {
	wt := NewWeightTable(8, 2, 24)
	raw := make([]float64, 8)
	raw[0] = math.Inf(1)

	_, _, err := Normalize(raw, wt, NormalizeConfig{K: 1, B: 2, C: -1})
	if err == nil {
		t.Fatalf("expected an error for an infinite FFT word")
	}
	if ge, ok := err.(*GwError); !ok || ge.Kind != ErrBadFFTData {
		t.Errorf("Normalize(Inf) = %v, want ErrBadFFTData", err)
	}
}

func TestNormalizeAcceptsFiniteValues(t *testing.T) {
	wt := NewWeightTable(8, 2, 24)
	raw := []float64{1, 2, 3, 4, 5, 6, 7, 0}

	words, _, err := Normalize(raw, wt, NormalizeConfig{K: 1, B: 2, C: -1})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(words) != 8 {
		t.Errorf("Normalize returned %d words, want 8", len(words))
	}
}
