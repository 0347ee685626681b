package gwnum

import "testing"

func TestSelectShapeMersenne(t *testing.T) {
	shape, err := SelectShape(ShapeParams{K: 1, B: 2, N: 9689, C: -1, Caps: DetectCPU()})
	if err != nil {
		t.Fatalf("SelectShape: %v", err)
	}
	if shape.Length <= 0 {
		t.Fatalf("expected a positive FFT length, got %d", shape.Length)
	}
	if shape.Type != TransformCyclic {
		t.Errorf("Mersenne-style (c=-1) modulus should select cyclic, got %v", shape.Type)
	}
}

func TestSelectShapeFermatIsNegacyclic(t *testing.T) {
	shape, err := SelectShape(ShapeParams{K: 1, B: 2, N: 1024, C: 1, Caps: DetectCPU()})
	if err != nil {
		t.Fatalf("SelectShape: %v", err)
	}
	if shape.Type != TransformNegacyclic && shape.Type != TransformZeroPadded {
		t.Errorf("Fermat-style (c=+1) modulus should select negacyclic or zero-padded, got %v", shape.Type)
	}
}

func TestSelectShapeRejectsHugeKTooLarge(t *testing.T) {
	_, err := SelectShape(ShapeParams{K: float64(1 << 60), B: 2, N: 100, C: -1})
	if err == nil {
		t.Fatalf("expected ErrKTooLarge for k >= 2^53")
	}
	if ge, ok := err.(*GwError); !ok || ge.Kind != ErrKTooLarge {
		t.Errorf("expected ErrKTooLarge, got %v", err)
	}
}

func TestSelectShapeMonotonicLength(t *testing.T) {
	small, err := SelectShape(ShapeParams{K: 1, B: 2, N: 2000, C: -1})
	if err != nil {
		t.Fatalf("SelectShape(small): %v", err)
	}
	big, err := SelectShape(ShapeParams{K: 1, B: 2, N: 200000, C: -1})
	if err != nil {
		t.Fatalf("SelectShape(big): %v", err)
	}
	if big.Length <= small.Length {
		t.Errorf("a larger exponent should need a strictly larger length than the smaller one's: got %d vs %d", big.Length, small.Length)
	}
}

func TestSelectShapeLargerFFTCountSteps(t *testing.T) {
	base, err := SelectShape(ShapeParams{K: 1, B: 2, N: 9689, C: -1})
	if err != nil {
		t.Fatalf("SelectShape: %v", err)
	}
	stepped, err := SelectShape(ShapeParams{K: 1, B: 2, N: 9689, C: -1, LargerFFTCount: 2})
	if err != nil {
		t.Fatalf("SelectShape(stepped): %v", err)
	}
	if stepped.Length <= base.Length {
		t.Errorf("LargerFFTCount should step to a bigger length: base=%d stepped=%d", base.Length, stepped.Length)
	}
}

func TestPathologicalDistributionDetection(t *testing.T) {
	if !isPathologicalDistribution(10.5) {
		t.Errorf("10.5 bits/word (fraction 1/2) should be flagged pathological")
	}
	if isPathologicalDistribution(10.07) {
		t.Errorf("10.07 should not be flagged pathological")
	}
}
