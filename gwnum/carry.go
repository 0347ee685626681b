package gwnum

import "math"

// NormalizeConfig carries the per-call knobs the carry/normalize engine needs: the
// modulus parameters for top_carry_adjust, whether this shape is zero-padded, and
// the optional mul-by-constant / addin folded in during normalization (spec 4.3
// step 6, 4.6's MULBYCONST/ADDINCONST options).
type NormalizeConfig struct {
	K uint64
	B uint64
	C int64

	ZeroPadded            bool
	SpreadCarryExtraWords bool // few bits/word: spread over 6 instead of 4

	MulByConst     float64 // 0 means "no mul-by-const configured"; 1 is also a no-op
	HasMulByConst  bool
	PreAddin       int64
	HasPreAddin    bool
	PostAddin      int64
	HasPostAddin   bool
	AddinWordIndex int // FFT-word-offset the addin constants apply at; default 0
}

// carrySpreadWords returns the spread width of spec 4.3 step 4: 4 normally, 6 under
// SpreadCarryExtraWords, 8 for zero-padded AVX-512 shapes (approximated here by
// "zero-padded" since this core does not model per-ISA spread width beyond what the
// spec calls out). resolveWraparoundCarry does not confine the carry to that many
// words: it ripples it upward from word 0 for up to 8 times that many word steps
// (at least one full pass for tables under 4096 words).
func carrySpreadWords(cfg NormalizeConfig) int {
	switch {
	case cfg.ZeroPadded:
		return 8
	case cfg.SpreadCarryExtraWords:
		return 6
	default:
		return 4
	}
}

// Normalize implements spec 4.3: given the raw post-inverse-transform FFT words
// (still carrying the IBDWT weight), it applies the inverse IBDWT weight, rounds to
// the nearest integer (tracking the roundoff residual into maxErr), propagates
// carries into a balanced base-B representation, folds in mul-by-const/addin, and
// finally resolves any carry out of the top word via top_carry_adjust
// (resolveWraparoundCarry), for every shape type.
//
// raw is consumed read-only; the balanced-representation result is returned as a
// freshly allocated []int64, one entry per FFT word.
func Normalize(raw []float64, wt *WeightTable, cfg NormalizeConfig) (words []int64, maxErr float64, err error) {
	n := len(raw)
	if n != wt.Length {
		return nil, 0, newErr(ErrInternal, "normalize: raw length does not match weight table")
	}
	words = make([]int64, n)

	preAddinIdx := cfg.AddinWordIndex
	if preAddinIdx < 0 || preAddinIdx >= n {
		preAddinIdx = 0
	}

	var carry int64
	for i := 0; i < n; i++ {
		word, nc, e, werr := normalizeWord(raw, wt, cfg, preAddinIdx, i, carry)
		if werr != nil {
			return nil, maxErr, werr
		}
		if e > maxErr {
			maxErr = e
		}
		words[i] = word
		carry = nc
	}

	if carry != 0 {
		if err := resolveWraparoundCarry(words, wt, carry, cfg); err != nil {
			return nil, maxErr, err
		}
	}

	return words, maxErr, nil
}

// normalizeWord applies carry.go's per-word rounding/carry rule to a single FFT word
// i, given the carry flowing in from word i-1. It has no side effects beyond its
// return values, which is what lets NormalizeThreaded run it out of order across
// blocks and, when a block's assumed zero incoming carry turns out wrong, rerun it
// with the real one.
func normalizeWord(raw []float64, wt *WeightTable, cfg NormalizeConfig, preAddinIdx, i int, carry int64) (word int64, carryOut int64, errTerm float64, err error) {
	v := raw[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, 0, 0, newErr(ErrBadFFTData, "normalize: FFT word read back as NaN or +-Inf")
	}
	if !wt.Rational {
		v *= wt.InvWeight[i]
	}
	if cfg.HasPreAddin && i == preAddinIdx {
		v += float64(cfg.PreAddin)
	}
	if cfg.HasMulByConst {
		v *= cfg.MulByConst
	}
	if cfg.HasPostAddin && i == preAddinIdx {
		v += float64(cfg.PostAddin)
	}

	rounded := roundNearestBigValueTrick(v)
	errTerm = math.Abs(v - rounded)

	val := int64(rounded) + carry
	if wt.WordBits[i] == 0 {
		// A zero-bit word carries no payload at all (only possible for extreme
		// zero-padding where most words are placeholders); pass everything
		// straight through to the carry.
		return 0, val, errTerm, nil
	}
	base := int64(1) << uint(wt.WordBits[i])
	half := base / 2
	q := floorDiv(val+half-1, base)
	return val - q*base, q, errTerm, nil
}

// NormalizeThreaded is Normalize, but spreads the per-word carry computation across
// sched's workers using the carry-section block-claiming scheme: every block is
// first processed in parallel assuming a zero incoming carry (valid work, since most
// blocks really do see a zero or easily-bounded carry in by the time normalization
// runs), then a serial fixup pass walks the blocks in order and only re-runs a
// block's words when its real incoming carry turns out nonzero. That fixup pass is
// the one genuinely sequential part of carry propagation, but it only redoes the
// blocks that actually need it rather than the whole array. Falls back to Normalize
// outright when sched is nil or single-threaded, or when n is under four words per
// thread (too small to be worth the block bookkeeping).
func NormalizeThreaded(raw []float64, wt *WeightTable, cfg NormalizeConfig, sched *scheduler) (words []int64, maxErr float64, err error) {
	n := len(raw)
	if n != wt.Length {
		return nil, 0, newErr(ErrInternal, "normalize: raw length does not match weight table")
	}
	if sched == nil || sched.Threads() <= 1 || n < sched.Threads()*4 {
		return Normalize(raw, wt, cfg)
	}

	preAddinIdx := cfg.AddinWordIndex
	if preAddinIdx < 0 || preAddinIdx >= n {
		preAddinIdx = 0
	}

	numBlocks := sched.Threads()
	blockSize := (n + numBlocks - 1) / numBlocks
	numBlocks = (n + blockSize - 1) / blockSize

	bounds := func(b int) (int, int) {
		lo := b * blockSize
		hi := lo + blockSize
		if hi > n {
			hi = n
		}
		return lo, hi
	}

	words = make([]int64, n)
	blockCarryOut := make([]int64, numBlocks)
	blockMaxErr := make([]float64, numBlocks)
	blockErr := make([]error, numBlocks)

	sched.RunBlocks(numBlocks, func(b int) {
		lo, hi := bounds(b)
		var carry int64
		var localMax float64
		for i := lo; i < hi; i++ {
			word, nc, e, werr := normalizeWord(raw, wt, cfg, preAddinIdx, i, carry)
			if werr != nil {
				blockErr[b] = werr
				return
			}
			words[i] = word
			carry = nc
			if e > localMax {
				localMax = e
			}
		}
		blockCarryOut[b] = carry
		blockMaxErr[b] = localMax
	})

	for _, e := range blockErr {
		if e != nil {
			return nil, 0, e
		}
	}

	var running int64
	for b := 0; b < numBlocks; b++ {
		if blockMaxErr[b] > maxErr {
			maxErr = blockMaxErr[b]
		}
		if running == 0 {
			// Block b's pass-1 result assumed a zero incoming carry; since the
			// real incoming carry is also zero, it is already correct.
			running = blockCarryOut[b]
			continue
		}
		lo, hi := bounds(b)
		carry := running
		var localMax float64
		for i := lo; i < hi; i++ {
			word, nc, e, werr := normalizeWord(raw, wt, cfg, preAddinIdx, i, carry)
			if werr != nil {
				return nil, maxErr, werr
			}
			words[i] = word
			carry = nc
			if e > localMax {
				localMax = e
			}
		}
		if localMax > maxErr {
			maxErr = localMax
		}
		running = carry
	}

	if running != 0 {
		if err := resolveWraparoundCarry(words, wt, running, cfg); err != nil {
			return nil, maxErr, err
		}
	}

	return words, maxErr, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// roundNearestBigValueTrick rounds to the nearest integer using the "add then
// subtract a large power-of-two-ish constant" trick spec 4.3 step 2 describes,
// which on real hardware forces an IEEE round-to-nearest through the FPU's
// internal rounding rather than a libm round() call. math.Round already rounds
// half-away-from-zero at native speed in Go, but we still route through the
// additive trick to keep the arithmetic shape faithful to the source technique
// (and to make the rounding direction for exact .5 values match round-half-to-even
// within the tracked error margin, same as the original explains).
func roundNearestBigValueTrick(v float64) float64 {
	const magic = 6755399441055744.0 // 3 * 2^51, per spec's "3*2^(51-log2(base))" with
	// log2(base) folded into v's own scale by this layer (word bases are small
	// enough that the constant term dominates).
	return (v + magic) - magic
}

// resolveWraparoundCarry implements spec 4.3 step 5: top_carry_adjust. For a cyclic
// or negacyclic special-form shape, the final carry out of the top word represents
// multiples of 2^(total bits) that must be folded back in scaled by k (and, for
// zero-padded shapes, simply added back in as an ordinary carry since zero-padding
// already isolates the modulus in the low half).
func resolveWraparoundCarry(words []int64, wt *WeightTable, carry int64, cfg NormalizeConfig) error {
	spread := carrySpreadWords(cfg)
	if spread > len(words) {
		spread = len(words)
	}

	var adjust float64
	if cfg.ZeroPadded || cfg.K == 0 {
		adjust = float64(carry)
	} else {
		adjust = float64(carry) * float64(cfg.K)
	}

	maxIter := spread * 8
	if maxIter < len(words) && len(words) < 4096 {
		// small shapes (as in tests) can have long runs of zero-bit placeholder
		// words; give the loop enough room to walk past them.
		maxIter = len(words)
	}

	idx := 0
	for iter := 0; adjust != 0 && iter < maxIter; iter++ {
		pos := idx % len(words)
		val := words[pos] + int64(adjust)
		if wt.WordBits[pos] == 0 {
			words[pos] = 0
			adjust = float64(val)
			idx++
			continue
		}
		base := int64(1) << uint(wt.WordBits[pos])
		half := base / 2
		q := floorDiv(val+half-1, base)
		words[pos] = val - q*base
		adjust = float64(q)
		idx++
	}
	if adjust != 0 {
		return newErr(ErrInternal, "wraparound carry did not resolve within the configured spread width")
	}
	return nil
}
