package gwnum

import (
	"fmt"
	"sync"
)

// ReducerKind selects how a Handle folds a wide product back down to its modulus,
// per spec sections 4.3/4.7.
type ReducerKind int

const (
	// ReducerIBDWT means the modulus is encoded directly in the transform's
	// weighting and top_carry_adjust; used for special-form k*b^n+c moduli.
	ReducerIBDWT ReducerKind = iota
	// ReducerBarrett means a Barrett reduction over math/big runs after every
	// multiply; used for SetupGeneralMod with an arbitrary odd modulus.
	ReducerBarrett
	// ReducerMMGW means the dual cyclic/negacyclic Montgomery-like reduction
	// (R=2^n-1, Q=2^n+1) runs after every multiply; an alternative
	// SetupGeneralMod strategy for moduli that do not suit Barrett well.
	ReducerMMGW
	// ReducerNone means no modular reduction is applied at all; used by
	// SetupWithoutMod for plain wide multiplication.
	ReducerNone
)

// Handle is the top-level FFT context: spec section 3's "opaque handle... created
// once per modulus/FFT-length pair, then used to allocate many Values." A Handle
// owns (or, for a Clone, shares) a WeightTable and a registered Kernel, and tracks
// roundoff error and unnormalized-add bookkeeping across the Values it produces.
type Handle struct {
	mu sync.Mutex

	initialized bool
	parent      *Handle // non-nil for a Clone; shared tables are only freed by the root

	K uint64
	B uint64
	N uint64
	C int64

	Reducer ReducerKind
	Shape   Shape
	wt      *WeightTable
	kernel  Kernel

	barrett *barrettReducer
	mmgw    *mmgwReducer

	safety safetyTracker
	maxErr float64

	mulByConst float64
	addInConst int64
	hasAddIn   bool

	careful carefulState

	threads int
	sched   *scheduler

	generation uint64 // not updated or read by any code in this package
}

// New allocates an uninitialized Handle. Callers must follow with exactly one of
// SetupSpecial, SetupGeneralMod, or SetupWithoutMod before using it, mirroring
// spec 3's two-phase gwsetup/gwnum allocation lifecycle.
func New() *Handle {
	return &Handle{threads: 1}
}

// NewWithVersion is New, but first checks callerVersion against this build's
// Version constant (spec 3's init(handle, version_string)), failing fast with
// ErrVersionMismatch rather than letting a caller built against a different
// gwnum release silently misinterpret this Handle. An empty callerVersion skips
// the check, the same opt-out New() implicitly takes.
func NewWithVersion(callerVersion string) (*Handle, error) {
	if err := checkVersion(callerVersion); err != nil {
		return nil, err
	}
	return New(), nil
}

// SetupSpecial configures the Handle for the special form k*b^n+c, selecting an FFT
// shape and weight table whose cyclic/negacyclic convolution and top_carry_adjust
// directly encode reduction mod k*b^n+c (spec sections 2-4).
func (h *Handle) SetupSpecial(k uint64, b uint64, n uint64, c int64, opts ...ShapeOption) error {
	if h.initialized {
		return newErr(ErrInternal, "SetupSpecial called on an already-initialized Handle")
	}
	sp := ShapeParams{K: float64(k), B: b, N: n, C: c, Caps: DetectCPU()}
	for _, o := range opts {
		o(&sp)
	}

	shape, err := SelectShape(sp)
	if err != nil {
		return wrapSetupErr(err, "SetupSpecial: shape selection failed")
	}

	h.K, h.B, h.N, h.C = k, b, n, c
	h.Reducer = ReducerIBDWT
	h.Shape = shape
	h.wt = InternWeightTable(shape.Length, b, n)
	h.kernel = kernelFor(shape.Impl)
	h.sched = newScheduler(h.threads)
	h.initialized = true
	return nil
}

// SetupGeneralMod configures the Handle for an arbitrary odd modulus not of
// special form, per spec section 4.7. kind selects Barrett or MMGW; bits is the
// modulus's bit length, used to pick a safely-oversized zero-padded shape.
func (h *Handle) SetupGeneralMod(modulus *Giant, kind ReducerKind, bits uint64) error {
	if h.initialized {
		return newErr(ErrInternal, "SetupGeneralMod called on an already-initialized Handle")
	}
	if kind != ReducerBarrett && kind != ReducerMMGW {
		return newErr(ErrInternal, "SetupGeneralMod requires ReducerBarrett or ReducerMMGW")
	}

	// N here is the operand bit length; bestLength's zero-pad branch already
	// doubles it when budgeting headroom for the full unreduced product, so the
	// weight table (which must physically hold that doubled width) is built
	// with 2*bits total bits below, not bits.
	sp := ShapeParams{K: 1, B: 2, N: bits, C: -1, Caps: DetectCPU()}
	shape, err := SelectShape(sp)
	if err != nil {
		return wrapSetupErr(err, "SetupGeneralMod: shape selection failed")
	}
	// The Barrett/MMGW reducers need the full, unreduced wide product (reduction
	// happens afterward over the Giant, not via the transform's own weighting),
	// so the shape must be zero-padded rather than wrapping cyclically.
	shape.Type = TransformZeroPadded

	h.K, h.B, h.N, h.C = 1, 2, bits, -1
	h.Reducer = kind
	h.Shape = shape
	h.wt = InternWeightTable(shape.Length, 2, 2*bits)
	h.kernel = kernelFor(shape.Impl)
	h.sched = newScheduler(h.threads)

	switch kind {
	case ReducerBarrett:
		h.barrett, err = newBarrettReducer(modulus, bits)
	case ReducerMMGW:
		h.mmgw, err = newMMGWReducer(modulus, bits)
		if err != nil {
			// no n in newMMGWReducer's retry window suits this modulus: fall
			// back to Barrett instead of failing the setup.
			h.Reducer = ReducerBarrett
			h.mmgw = nil
			h.barrett, err = newBarrettReducer(modulus, bits)
		}
	}
	if err != nil {
		return wrapSetupErr(err, "SetupGeneralMod: reducer construction failed")
	}

	h.initialized = true
	return nil
}

// SetupWithoutMod configures the Handle for unreduced wide multiplication: the
// product of two maxBits-bit operands is returned exactly (as long as it fits
// within the chosen zero-padded shape), with no modular folding at all.
func (h *Handle) SetupWithoutMod(maxBits uint64) error {
	if h.initialized {
		return newErr(ErrInternal, "SetupWithoutMod called on an already-initialized Handle")
	}
	sp := ShapeParams{K: 1, B: 2, N: maxBits, C: -1, Caps: DetectCPU()}
	shape, err := SelectShape(sp)
	if err != nil {
		return wrapSetupErr(err, "SetupWithoutMod: shape selection failed")
	}
	// force zero-padding: an unreduced product needs the full double-width
	// output, not a cyclic wraparound.
	shape.Type = TransformZeroPadded

	h.K, h.B, h.N, h.C = 1, 2, maxBits, -1
	h.Reducer = ReducerNone
	h.Shape = shape
	h.wt = InternWeightTable(shape.Length, 2, 2*maxBits)
	h.kernel = kernelFor(shape.Impl)
	h.sched = newScheduler(h.threads)
	h.initialized = true
	return nil
}

// ShapeOption adjusts ShapeParams before SelectShape runs; WithSafetyMargin,
// WithMinFFTLength and WithLargerFFT below are the options this module exposes, mirroring
// reedsolomon's functional-option constructors.
type ShapeOption func(*ShapeParams)

// WithSafetyMargin reserves extra roundoff-bit headroom, e.g. for a long-running
// primality test that cannot tolerate even a rare roundoff-driven restart.
func WithSafetyMargin(bits float64) ShapeOption {
	return func(p *ShapeParams) { p.SafetyMargin = bits }
}

// WithMinFFTLength forces SelectShape to ignore any table entry smaller than min.
func WithMinFFTLength(min int) ShapeOption {
	return func(p *ShapeParams) { p.MinFFTLen = min }
}

// WithLargerFFT steps the chosen length up by count entries in the shape table,
// trading performance for additional roundoff headroom without a manual retry loop.
func WithLargerFFT(count int) ShapeOption {
	return func(p *ShapeParams) { p.LargerFFTCount = count }
}

// SetThreads configures the worker count of the Handle's scheduler (scheduler.go).
// NormalizeThreaded's carry/normalize pass is the only work spread across those
// workers; the forward and inverse transforms run single-threaded on the calling
// goroutine. Must be called before Setup*; changing thread
// count after initialization is not supported, matching spec 3's one-time
// gwset_num_threads-before-gwsetup ordering.
func (h *Handle) SetThreads(n int) error {
	if h.initialized {
		return newErr(ErrInternal, "SetThreads must be called before Setup*")
	}
	if n <= 0 {
		return newErr(ErrZeroThreads, "thread count must be positive")
	}
	h.threads = n
	return nil
}

// Clone returns a new Handle that shares this Handle's weight table and kernel
// (spec 3: "Clones share immutable tables... only the parent may free shared
// tables") but has its own independent roundoff-error and unnormalized-add state.
func (h *Handle) Clone() (*Handle, error) {
	if !h.initialized {
		return nil, newErr(ErrNoInit, "Clone called before Setup*")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	root := h
	if h.parent != nil {
		root = h.parent
	}

	h.wt.refMu.Lock()
	h.wt.refs++
	h.wt.refMu.Unlock()

	clone := &Handle{
		initialized: true,
		parent:      root,
		K:           h.K, B: h.B, N: h.N, C: h.C,
		Reducer: h.Reducer,
		Shape:   h.Shape,
		wt:      h.wt,
		kernel:  h.kernel,
		barrett: h.barrett,
		mmgw:    h.mmgw,
		threads: h.threads,
		sched:   newScheduler(h.threads),
	}
	return clone, nil
}

// Done releases the Handle's reference to its (possibly shared) weight table. Only
// once every clone and the parent have called Done is the table actually freed, per
// weights.go's refcounted intern pool.
func (h *Handle) Done() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.initialized || h.wt == nil {
		return
	}
	ReleaseWeightTable(h.wt)
	h.wt = nil
	h.initialized = false
}

// MaxErr returns the largest per-word roundoff residual observed across every
// Normalize call made through this Handle so far (spec's MAXERR statistic).
func (h *Handle) MaxErr() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxErr
}

func (h *Handle) recordMaxErr(e float64) {
	h.mu.Lock()
	if e > h.maxErr {
		h.maxErr = e
	}
	h.mu.Unlock()
}

func (h *Handle) String() string {
	return fmt.Sprintf("Handle(k=%d b=%d n=%d c=%+d shape=%d/%s reducer=%d)",
		h.K, h.B, h.N, h.C, h.Shape.Length, h.Shape.Type, h.Reducer)
}
