package gwnum

import "math"
import "math/cmplx"

func init() {
	registerKernel(genericKernel{})
}

// genericKernel is the portable, SIMD-free transform implementation: a radix-2
// Cooley-Tukey FFT for power-of-two lengths, widened to arbitrary lengths via
// Bluestein's chirp-z transform. Every other registered Kernel (kernel_amd64.go,
// kernel_arm64.go) currently delegates to this same math; the split exists so a
// later build can drop in hand-tuned butterflies per ImplID without touching the
// dispatch table or arithmetic.go.
type genericKernel struct{}

func (genericKernel) Impl() ImplID { return ImplGeneric }

func (genericKernel) Forward(words []int64, wt *WeightTable, tt TransformType) []complex128 {
	n := len(words)
	x := make([]complex128, n)
	for i, w := range words {
		v := float64(w)
		if !wt.Rational {
			v *= wt.Weight[i]
		}
		x[i] = complex(v, 0)
	}
	if tt == TransformNegacyclic {
		twiddleNegacyclic(x, false)
	}
	return dft(x, false)
}

func (genericKernel) Inverse(freq []complex128, tt TransformType) []float64 {
	x := dft(freq, true)
	if tt == TransformNegacyclic {
		twiddleNegacyclic(x, true)
	}
	out := make([]float64, len(x))
	for i, c := range x {
		out[i] = real(c)
	}
	return out
}

func (genericKernel) PointwiseMul(a, b []complex128) []complex128 {
	out := make([]complex128, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

func (genericKernel) PointwiseSquare(a []complex128) []complex128 {
	out := make([]complex128, len(a))
	for i := range a {
		out[i] = a[i] * a[i]
	}
	return out
}

// twiddleNegacyclic implements the standard cyclic-to-negacyclic reduction: premultiply
// x[j] by the 2N-th root of unity w^j before the forward transform, and postmultiply
// by w^-j after the inverse transform, so that an ordinary length-N cyclic convolution
// of the twiddled sequences computes a negacyclic (mod x^N+1) convolution of the
// originals.
func twiddleNegacyclic(x []complex128, inverse bool) {
	n := len(x)
	sign := 1.0
	if inverse {
		sign = -1.0
	}
	for j := range x {
		theta := sign * math.Pi * float64(j) / float64(n)
		x[j] *= cmplx.Exp(complex(0, theta))
	}
}

// dft dispatches to the fast power-of-two path when possible, else Bluestein.
func dft(x []complex128, inverse bool) []complex128 {
	n := len(x)
	if n&(n-1) == 0 {
		out := make([]complex128, n)
		copy(out, x)
		radix2FFT(out, inverse)
		if inverse {
			for i := range out {
				out[i] /= complex(float64(n), 0)
			}
		}
		return out
	}
	return bluestein(x, inverse)
}

// radix2FFT is the classic iterative in-place Cooley-Tukey transform; len(a) must be
// a power of two. It leaves the un-normalized (non-divided-by-n) inverse transform in
// a when inverse is true; dft() above divides by n afterward.
func radix2FFT(a []complex128, inverse bool) {
	n := len(a)
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}
	for length := 2; length <= n; length <<= 1 {
		angSign := -1.0
		if inverse {
			angSign = 1.0
		}
		ang := angSign * 2 * math.Pi / float64(length)
		wlen := cmplx.Exp(complex(0, ang))
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			half := length / 2
			for k := 0; k < half; k++ {
				u := a[i+k]
				v := a[i+k+half] * w
				a[i+k] = u + v
				a[i+k+half] = u - v
				w *= wlen
			}
		}
	}
}

// bluestein evaluates the DFT of an arbitrary-length sequence by rewriting it as a
// convolution, which is then computed with radix2FFT at the next power of two length
// that can hold the linear (non-wrapping) convolution.
func bluestein(x []complex128, inverse bool) []complex128 {
	n := len(x)
	m := 1
	for m < 2*n-1 {
		m <<= 1
	}

	sign := -1.0
	if inverse {
		sign = 1.0
	}

	chirp := make([]complex128, n)
	for k := 0; k < n; k++ {
		theta := sign * math.Pi * float64(k) * float64(k) / float64(n)
		chirp[k] = cmplx.Exp(complex(0, theta))
	}

	a := make([]complex128, m)
	for k := 0; k < n; k++ {
		a[k] = x[k] * chirp[k]
	}
	b := make([]complex128, m)
	b[0] = cmplx.Conj(chirp[0])
	for k := 1; k < n; k++ {
		b[k] = cmplx.Conj(chirp[k])
		b[m-k] = cmplx.Conj(chirp[k])
	}

	radix2FFT(a, false)
	radix2FFT(b, false)
	for i := range a {
		a[i] *= b[i]
	}
	radix2FFT(a, true)
	for i := range a {
		a[i] /= complex(float64(m), 0)
	}

	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		out[k] = a[k] * chirp[k]
	}
	if inverse {
		for k := range out {
			out[k] /= complex(float64(n), 0)
		}
	}
	return out
}
