package gwnum

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestRadix2FFTRoundTrip(t *testing.T) {
	x := []complex128{1, 2, 3, 4, 5, 6, 7, 8}
	orig := append([]complex128(nil), x...)

	freq := dft(x, false)
	back := dft(freq, true)

	for i := range orig {
		if cmplx.Abs(back[i]-orig[i]) > 1e-9 {
			t.Errorf("round trip mismatch at %d: got %v want %v", i, back[i], orig[i])
		}
	}
}

func TestBluesteinNonPowerOfTwoRoundTrip(t *testing.T) {
	n := 12 // not a power of two
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(float64(i+1), 0)
	}
	orig := append([]complex128(nil), x...)

	freq := dft(x, false)
	back := dft(freq, true)

	for i := range orig {
		if cmplx.Abs(back[i]-orig[i]) > 1e-6 {
			t.Errorf("bluestein round trip mismatch at %d: got %v want %v", i, back[i], orig[i])
		}
	}
}

func TestCyclicConvolutionViaPointwiseMultiply(t *testing.T) {
	// Convolving [1,1,0,0] with itself cyclically (mod x^4-1) gives [1,2,1,0].
	a := []complex128{1, 1, 0, 0}
	fa := dft(a, false)
	prod := genericKernel{}.PointwiseSquare(fa)
	back := dft(prod, true)

	want := []float64{1, 2, 1, 0}
	for i, w := range want {
		if math.Abs(real(back[i])-w) > 1e-9 {
			t.Errorf("cyclic convolution[%d] = %v, want %v", i, real(back[i]), w)
		}
	}
}
