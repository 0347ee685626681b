package gwnum

import (
	"fmt"
	"math/big"
)

// Options is the bitmask spec 4.6 describes controlling every arithmetic facade
// call: which operand(s) are already in FFT domain, which should be left
// unnormalized for a later call to fold in, and whether a multiply-by-constant or
// add-in-constant should be fused into this call's normalization pass.
type Options uint32

const (
	// OptFFTS1/S2/S3/S4 mark that operand 1/2/3/4 is already forward-transformed
	// (its Value carries a cached freq transform); passing an operand that is not
	// actually cached is harmless, just slower, since forward() recomputes on miss.
	OptFFTS1 Options = 1 << iota
	OptFFTS2
	OptFFTS3
	OptFFTS4
	// OptPreserveS1..S4 mark results that are being summed before the next
	// multiply. Add3 and Sub3 count each call carrying OptPreserveS1 or
	// OptPreserveS2 with safetyTracker.recordUnnormalizedAdd, and Mul3 charges that
	// count against the shape's headroom; the sum or difference itself is still
	// returned fully normalized.
	OptPreserveS1
	OptPreserveS2
	OptPreserveS3
	OptPreserveS4
	// OptAddInConst folds the Handle's configured addin constant into this
	// normalization pass (spec 4.3 step 6 / ADDINCONST).
	OptAddInConst
	// OptMulByConst folds the Handle's configured multiply-by-constant into this
	// normalization pass (MULBYCONST).
	OptMulByConst
	// OptStartNextFFT hints that the result should eagerly forward-transform
	// itself before returning, anticipating it will be multiplied again soon.
	OptStartNextFFT
)

func (h *Handle) has(o, bit Options) bool { return o&bit != 0 }

func (h *Handle) normalizeConfig(o Options) NormalizeConfig {
	cfg := NormalizeConfig{
		K: h.K, B: h.B, C: h.C,
		ZeroPadded: h.Shape.Type == TransformZeroPadded,
	}
	if h.has(o, OptMulByConst) && h.mulByConst != 0 {
		cfg.HasMulByConst = true
		cfg.MulByConst = h.mulByConst
	}
	if h.has(o, OptAddInConst) {
		cfg.HasPreAddin = h.hasAddIn
		cfg.PreAddin = h.addInConst
	}
	return cfg
}

// SetMulByConst configures the constant a later OptMulByConst call folds in.
func (h *Handle) SetMulByConst(c float64) { h.mulByConst = c }

// SetAddInConst configures the constant a later OptAddInConst call folds in.
func (h *Handle) SetAddInConst(c int64) { h.addInConst, h.hasAddIn = c, true }

func (h *Handle) finishMultiply(raw []float64, o Options) (*Value, error) {
	cfg := h.normalizeConfig(o)
	words, maxErr, err := NormalizeThreaded(raw, h.wt, cfg, h.sched)
	if err != nil {
		return nil, err
	}
	h.recordMaxErr(maxErr)

	out := &Value{h: h, words: words}
	if err := h.applyGiantReducer(out); err != nil {
		return nil, err
	}
	if h.has(o, OptStartNextFFT) {
		out.forward(h.Shape.Type)
	}
	return out, nil
}

// applyGiantReducer folds an unreduced wide product down to the Handle's modulus
// when the Handle's reducer operates at the Giant level (Barrett, MMGW); IBDWT and
// ReducerNone Handles leave the Value as-is.
func (h *Handle) applyGiantReducer(v *Value) error {
	switch h.Reducer {
	case ReducerBarrett:
		g := fromBalancedWords(v.words, h.wt)
		reduced := h.barrett.Reduce(g)
		v.words = toBalancedWords(reduced, h.wt)
		v.freq = nil
	case ReducerMMGW:
		g := fromBalancedWords(v.words, h.wt)
		reduced := h.mmgw.Reduce(g)
		v.words = toBalancedWords(reduced, h.wt)
		v.freq = nil
	}
	return nil
}

// Mul3 computes out = a*b. If a and b are the same Value, the pointwise step
// squares rather than multiplies, matching gwsquare's usual fast path for a*a.
//
// Before running the transform it checks the outstanding unnormalized-add roundoff
// cost against the chosen shape's reserved headroom. That cost is one Handle-wide
// count of the OptPreserveS1/S2 Add3/Sub3 calls made since the last Mul3 (every Mul3
// resets it); it is not tracked per operand, so a and b themselves play no part in
// the check. A Mul3 that would blow that budget either fails with
// ErrSafetyBudgetExceeded or, if the Handle's careful-mode fallback is available,
// is routed through MulCareful instead.
func (h *Handle) Mul3(a, b *Value, o Options) (*Value, error) {
	if err := h.checkOwned(a, b); err != nil {
		return nil, err
	}
	if eb := h.safety.extraBits(); eb > h.Shape.Headroom {
		if h.careful.available() {
			// MulCareful recomputes the product through ar=a+r, br=b-r and calls
			// back into Mul3(ar, br, ...); reset first so that inner call sees a
			// clean budget instead of immediately re-tripping this same guard.
			h.safety.reset()
			return h.MulCareful(a, b, o)
		}
		return nil, wrapErr(ErrSafetyBudgetExceeded,
			fmt.Sprintf("unnormalized-add roundoff cost %.2f bits exceeds shape headroom %.2f bits", eb, h.Shape.Headroom),
			nil)
	}
	h.safety.reset()

	tt := h.Shape.Type
	fa := a.forward(tt)

	var prod []complex128
	if a == b {
		prod = h.kernel.PointwiseSquare(fa)
	} else {
		fb := b.forward(tt)
		prod = h.kernel.PointwiseMul(fa, fb)
	}
	raw := h.kernel.Inverse(prod, tt)
	return h.finishMultiply(raw, o)
}

// MulAdd4 computes out = a*b + c. When the caller passes OptFFTS3, c is folded into
// the product's frequency-domain data before the single shared inverse transform
// runs (spec 4.6/4.8's "free" fused multiply-add), rather than computing a*b and c
// as two separate normalized Values and adding them through a big.Int round trip.
func (h *Handle) MulAdd4(a, b, c *Value, o Options) (*Value, error) {
	if h.has(o, OptFFTS3) {
		return h.fusedMulAddSub(a, b, c, o, false)
	}
	prod, err := h.Mul3(a, b, o&^(OptPreserveS1|OptPreserveS2))
	if err != nil {
		return nil, err
	}
	return h.Add3(prod, c, o)
}

// MulSub4 computes out = a*b - c, taking the same OptFFTS3 fused fast path MulAdd4
// does.
func (h *Handle) MulSub4(a, b, c *Value, o Options) (*Value, error) {
	if h.has(o, OptFFTS3) {
		return h.fusedMulAddSub(a, b, c, o, true)
	}
	prod, err := h.Mul3(a, b, o&^(OptPreserveS1|OptPreserveS2))
	if err != nil {
		return nil, err
	}
	return h.Sub3(prod, c, o)
}

// fusedMulAddSub implements the OptFFTS3 fast path MulAdd4/MulSub4 share: it forward
// transforms c (through the same freq cache forward() uses, so an addend whose
// transform is already cached is not retransformed) and adds or subtracts its
// frequency-domain data directly into a*b's
// pointwise product, before the one inverse transform and normalize pass that would
// otherwise only have covered a*b alone. The IDWT's linearity is what makes this
// exact and not an approximation: IDFT(X) +/- IDFT(Y) == IDFT(X +/- Y).
func (h *Handle) fusedMulAddSub(a, b, c *Value, o Options, subtract bool) (*Value, error) {
	if err := h.checkOwned(a, b, c); err != nil {
		return nil, err
	}
	tt := h.Shape.Type
	fa := a.forward(tt)
	var prod []complex128
	if a == b {
		prod = h.kernel.PointwiseSquare(fa)
	} else {
		fb := b.forward(tt)
		prod = h.kernel.PointwiseMul(fa, fb)
	}
	fc := c.forwardForFMA(tt)
	if len(fc) != len(prod) {
		return nil, newErr(ErrInternal, "fused mul-add/sub: addend transform length mismatch")
	}
	combined := make([]complex128, len(prod))
	if subtract {
		for i := range prod {
			combined[i] = prod[i] - fc[i]
		}
	} else {
		for i := range prod {
			combined[i] = prod[i] + fc[i]
		}
	}
	raw := h.kernel.Inverse(combined, tt)
	return h.finishMultiply(raw, o&^(OptFFTS3))
}

// AddMul4 computes out = (a+b)*c.
func (h *Handle) AddMul4(a, b, c *Value, o Options) (*Value, error) {
	sum, err := h.Add3(a, b, o&^(OptPreserveS1|OptPreserveS2))
	if err != nil {
		return nil, err
	}
	return h.Mul3(sum, c, o)
}

// SubMul4 computes out = (a-b)*c.
func (h *Handle) SubMul4(a, b, c *Value, o Options) (*Value, error) {
	diff, err := h.Sub3(a, b, o&^(OptPreserveS1|OptPreserveS2))
	if err != nil {
		return nil, err
	}
	return h.Mul3(diff, c, o)
}

// MulMulAdd5 computes out = a*b + c*d.
func (h *Handle) MulMulAdd5(a, b, c, d *Value, o Options) (*Value, error) {
	p1, err := h.Mul3(a, b, OptPreserveS1)
	if err != nil {
		return nil, err
	}
	p2, err := h.Mul3(c, d, OptPreserveS1)
	if err != nil {
		return nil, err
	}
	return h.Add3(p1, p2, o)
}

// MulMulSub5 computes out = a*b - c*d.
func (h *Handle) MulMulSub5(a, b, c, d *Value, o Options) (*Value, error) {
	p1, err := h.Mul3(a, b, OptPreserveS1)
	if err != nil {
		return nil, err
	}
	p2, err := h.Mul3(c, d, OptPreserveS1)
	if err != nil {
		return nil, err
	}
	return h.Sub3(p1, p2, o)
}

// Add3 computes out = a+b by reassembling both operands as big.Int values, adding
// them, and splitting the sum back into words (no transform needed).
func (h *Handle) Add3(a, b *Value, o Options) (*Value, error) {
	if err := h.checkOwned(a, b); err != nil {
		return nil, err
	}
	if h.has(o, OptPreserveS1) || h.has(o, OptPreserveS2) {
		h.safety.recordUnnormalizedAdd()
	}
	ga := fromBalancedWords(a.words, h.wt)
	gb := fromBalancedWords(b.words, h.wt)
	sum := new(big.Int).Add(ga.v, gb.v)
	return &Value{h: h, words: toBalancedWords(&Giant{v: sum}, h.wt)}, nil
}

// Sub3 computes out = a-b.
func (h *Handle) Sub3(a, b *Value, o Options) (*Value, error) {
	if err := h.checkOwned(a, b); err != nil {
		return nil, err
	}
	if h.has(o, OptPreserveS1) || h.has(o, OptPreserveS2) {
		h.safety.recordUnnormalizedAdd()
	}
	ga := fromBalancedWords(a.words, h.wt)
	gb := fromBalancedWords(b.words, h.wt)
	diff := new(big.Int).Sub(ga.v, gb.v)
	return &Value{h: h, words: toBalancedWords(&Giant{v: diff}, h.wt)}, nil
}

// AddSub4 computes sum = a+b and diff = a-b in one call, the common butterfly pair.
func (h *Handle) AddSub4(a, b *Value, o Options) (sum, diff *Value, err error) {
	sum, err = h.Add3(a, b, o)
	if err != nil {
		return nil, nil, err
	}
	diff, err = h.Sub3(a, b, o)
	if err != nil {
		return nil, nil, err
	}
	return sum, diff, nil
}

// SmallAdd adds a native int64 constant to v in place and returns v.
func (h *Handle) SmallAdd(v *Value, c int64) (*Value, error) {
	g := fromBalancedWords(v.words, h.wt)
	g.v.Add(g.v, big.NewInt(c))
	v.words = toBalancedWords(g, h.wt)
	v.freq = nil
	return v, nil
}

// SmallMul multiplies v by a native int64 constant in place and returns v.
func (h *Handle) SmallMul(v *Value, c int64) (*Value, error) {
	g := fromBalancedWords(v.words, h.wt)
	g.v.Mul(g.v, big.NewInt(c))
	v.words = toBalancedWords(g, h.wt)
	v.freq = nil
	return v, nil
}

// Unfft forces v out of cached FFT-domain state, recomputing its canonical
// balanced-word representation from the cached transform if one is present. It is
// idempotent: calling it on a Value with no cached transform is a no-op.
func (h *Handle) Unfft(v *Value) (*Value, error) {
	if v.freq == nil {
		return v, nil
	}
	raw := h.kernel.Inverse(v.freq, h.Shape.Type)
	words, maxErr, err := NormalizeThreaded(raw, h.wt, h.normalizeConfig(0), h.sched)
	if err != nil {
		return nil, err
	}
	h.recordMaxErr(maxErr)
	v.words = words
	v.freq = nil
	return v, nil
}

func (h *Handle) checkOwned(vs ...*Value) error {
	for _, v := range vs {
		if v == nil || v.h == nil {
			return newErr(ErrNoInit, "operand Value is zero-valued")
		}
		root := v.h
		if root.parent != nil {
			root = root.parent
		}
		hRoot := h
		if hRoot.parent != nil {
			hRoot = hRoot.parent
		}
		if root != hRoot {
			return newErr(ErrInternal, "operand Value belongs to a different Handle family")
		}
	}
	return nil
}
