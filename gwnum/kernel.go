package gwnum

import "sync"

// Kernel is the low-level transform engine one ImplID registers: forward and
// inverse weighted transforms plus the frequency-domain pointwise operations that
// back the arithmetic facade in arithmetic.go. Real SIMD butterflies are out of
// scope for this module (spec section 1's Non-goals); every registered Kernel
// performs the same portable math, but the dispatch table itself follows
// std/crypt.go's name-to-constructor map so that swapping in a hand-tuned
// amd64/arm64 kernel later is a registration, not a rewrite.
type Kernel interface {
	Impl() ImplID

	// Forward applies the shape's IBDWT weight and any transform-type twiddle,
	// then runs the length-N transform, producing frequency-domain data.
	Forward(words []int64, wt *WeightTable, tt TransformType) []complex128

	// Inverse runs the inverse length-N transform and any transform-type
	// untwiddle, producing the still-weighted real words that carry.go's
	// Normalize un-weights and rebalances.
	Inverse(freq []complex128, tt TransformType) []float64

	// PointwiseMul and PointwiseSquare implement the convolution step in the
	// frequency domain: elementwise multiply (by another operand's transform,
	// or by itself for squaring).
	PointwiseMul(a, b []complex128) []complex128
	PointwiseSquare(a []complex128) []complex128
}

var (
	kernelMu       sync.RWMutex
	kernelRegistry = map[ImplID]Kernel{}
)

// registerKernel adds a Kernel to the dispatch table; called from each kernel_*.go
// file's init(), mirroring std/crypt.go's cryptMethods map being populated by name.
func registerKernel(k Kernel) {
	kernelMu.Lock()
	defer kernelMu.Unlock()
	kernelRegistry[k.Impl()] = k
}

// kernelFor returns the registered Kernel for impl, falling back to ImplGeneric
// (always registered by kernel_generic.go's init) if impl was never registered on
// this build.
func kernelFor(impl ImplID) Kernel {
	kernelMu.RLock()
	defer kernelMu.RUnlock()
	if k, ok := kernelRegistry[impl]; ok {
		return k
	}
	return kernelRegistry[ImplGeneric]
}
