package gwnum

// fftState tracks how far toward frequency domain a Value's cached transform has
// progressed, spec 4.6/4.8's four-state FFT tag: a Value either hasn't been
// transformed at all, is only usable as a multiply operand, or has additionally
// been earmarked to be folded into a product's frequency-domain accumulator by
// MulAdd4/MulSub4 before the single shared inverse transform runs.
type fftState int32

const (
	notFFTed fftState = iota
	// partiallyFFTed is reserved for a future weighted-but-not-transformed
	// intermediate stage (spec 4.8); this kernel always weights and transforms
	// together, so nothing currently produces it.
	partiallyFFTed
	fullyFFTed
	fftedForFMA
)

// Value is a single FFT-ready number living under a Handle: spec section 3's gwnum
// handle/value split, where the Handle owns the shape and shared tables and each
// Value owns its own balanced-word data. Values from the same Handle (or Clones of
// it) can be freely mixed in arithmetic calls; Values from different Handles cannot.
type Value struct {
	h     *Handle
	words []int64

	// freq caches this Value's forward transform so a chain of operations that
	// reuse the same operand (e.g. repeated squaring) does not retransform it
	// every time. Any mutation of words must clear this cache. state records which
	// of the four stages that cache (or its absence) represents.
	freq  []complex128
	state fftState
}

// NewValue allocates a zero-valued Value under this Handle.
func (h *Handle) NewValue() (*Value, error) {
	if !h.initialized {
		return nil, newErr(ErrNoInit, "NewValue called before Setup*")
	}
	return &Value{h: h, words: make([]int64, h.wt.Length)}, nil
}

// SetGiant loads g's value into v, replacing whatever v held before.
func (v *Value) SetGiant(g *Giant) error {
	if v.h == nil {
		return newErr(ErrNoInit, "SetGiant called on a zero Value")
	}
	v.words = toBalancedWords(g, v.h.wt)
	v.freq = nil
	v.state = notFFTed
	return nil
}

// SetInt64 is a convenience wrapper around SetGiant for small constants.
func (v *Value) SetInt64(x int64) error {
	return v.SetGiant(GiantFromInt64(x))
}

// Giant materializes v's current value as a Giant, applying whatever final
// reduction this Value's Handle's Reducer calls for.
func (v *Value) Giant() (*Giant, error) {
	if v.h == nil {
		return nil, newErr(ErrNoInit, "Giant called on a zero Value")
	}
	switch v.h.Reducer {
	case ReducerIBDWT:
		return FinalReduceSpecial(v.words, v.h.wt, v.h.K, v.h.B, v.h.N, v.h.C), nil
	default:
		return fromBalancedWords(v.words, v.h.wt), nil
	}
}

// Clone returns an independent copy of v sharing v's Handle.
func (v *Value) Clone() *Value {
	words := make([]int64, len(v.words))
	copy(words, v.words)
	return &Value{h: v.h, words: words}
}

// Free releases v's word storage. It is always safe to call and safe to call more
// than once; the Handle and its shared tables are unaffected.
func (v *Value) Free() {
	v.words = nil
	v.freq = nil
	v.state = notFFTed
}

// IsZero reports whether every word of v's representation is zero. That holds for
// a Value set to 0; a Value holding a nonzero multiple of the modulus has nonzero
// words and reports false, even though Giant() returns 0 for it.
func (v *Value) IsZero() bool {
	for _, w := range v.words {
		if w != 0 {
			return false
		}
	}
	return true
}

func (v *Value) forward(tt TransformType) []complex128 {
	if v.freq == nil {
		v.freq = v.h.kernel.Forward(v.words, v.h.wt, tt)
		v.state = fullyFFTed
	}
	return v.freq
}

// forwardForFMA is forward, but additionally sets v's state to fftedForFMA. Nothing
// reads that state back: MulAdd4/MulSub4 take the fused path because the caller
// passed OptFFTS3, and forward()'s freq cache is what lets a repeated addend skip
// retransforming. It is valid to call this on a Value that will also be used as an
// ordinary multiply operand elsewhere.
func (v *Value) forwardForFMA(tt TransformType) []complex128 {
	freq := v.forward(tt)
	v.state = fftedForFMA
	return freq
}
