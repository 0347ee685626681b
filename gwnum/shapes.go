package gwnum

import (
	"math"
)

// TransformType identifies the convolution kind a chosen FFT shape performs, per
// spec section 4.1 / GLOSSARY.
type TransformType int

const (
	// TransformCyclic convolves mod x^N-1; used when c < 0 for special-form moduli.
	TransformCyclic TransformType = iota
	// TransformNegacyclic convolves mod x^N+1; used when c > 0 for special-form moduli.
	TransformNegacyclic
	// TransformZeroPadded doubles the logical length with the upper half zero,
	// emulating any modulus at the cost of 2x length but relaxed distribution
	// constraints.
	TransformZeroPadded
	// TransformGeneralMod is used by the Barrett and MMGW reducers, which do not
	// rely on the IBDWT weighting being modulus-native.
	TransformGeneralMod
)

func (t TransformType) String() string {
	switch t {
	case TransformCyclic:
		return "cyclic"
	case TransformNegacyclic:
		return "negacyclic"
	case TransformZeroPadded:
		return "zero-padded"
	case TransformGeneralMod:
		return "general-mod"
	default:
		return "unknown"
	}
}

// ImplID names a registered kernel implementation within the dispatch table built in
// kernel.go. The zero value ImplGeneric is always registered.
type ImplID int

const (
	ImplGeneric ImplID = iota
	ImplSSE2
	ImplAVX2
	ImplAVX512
	ImplNEON
)

func (i ImplID) String() string {
	switch i {
	case ImplGeneric:
		return "generic"
	case ImplSSE2:
		return "sse2"
	case ImplAVX2:
		return "avx2"
	case ImplAVX512:
		return "avx512"
	case ImplNEON:
		return "neon"
	default:
		return "unknown"
	}
}

// fftShapeEntry is one row of the constants table: the jump-table of FFT shapes from
// spec section 2, expressed as a Go slice literal rather than a preprocessor-expanded
// table (REDESIGN FLAGS: "best built by a compile-time macro... generate a constant
// table from a compact descriptor grammar" — here the grammar is just the struct
// literal below).
type fftShapeEntry struct {
	Length int
	// baseBitsPerWord is the safe payload-bits-per-word ceiling this length
	// supports before safety margin and pathological-distribution penalties are
	// applied. It decreases slowly with length because accumulated roundoff grows
	// with the number of butterfly stages (log2(Length)).
	baseBitsPerWord float64
	// impls lists which implementation classes this length has a kernel
	// registered for. bestLength skips an entry whose impls lacks ImplGeneric;
	// buildShapeTable gives every entry all implementation classes.
	impls map[ImplID]bool
}

// shapeTable is the constants table. Lengths are FFT-friendly highly composite sizes;
// a real build's table runs into the hundreds of thousands of entries (spec section
// 2's "jump-table ... indexed by CPU class and cyclic/negacyclic bit"), this is a
// representative subset sized for the range of exponents this module is exercised
// against in tests and by cmd/gwbench.
var shapeTable = buildShapeTable()

func buildShapeTable() []fftShapeEntry {
	lengths := []int{
		512, 768, 1024, 1536, 2048, 3072, 4096, 6144, 8192, 12288,
		16384, 24576, 32768, 49152, 65536, 98304, 131072, 196608,
		262144, 393216, 524288, 786432, 1048576, 2097152, 4194304, 8388608,
	}
	all := map[ImplID]bool{ImplGeneric: true, ImplSSE2: true, ImplAVX2: true, ImplAVX512: true, ImplNEON: true}
	table := make([]fftShapeEntry, 0, len(lengths))
	for _, l := range lengths {
		base := 20.5 - 0.55*math.Log2(float64(l)/512.0)
		if base < 14.0 {
			base = 14.0
		}
		table = append(table, fftShapeEntry{Length: l, baseBitsPerWord: base, impls: all})
	}
	return table
}

// pathologicalFractions holds every fraction num/den (0 < num < den) for the
// rational-approximation denominators 2 through 7 that spec section 4.1 calls out
// for near-rational distributions of big versus little words.
var pathologicalFractions = buildPathologicalFractions()

func buildPathologicalFractions() []float64 {
	var fr []float64
	for _, den := range []int{2, 3, 4, 5, 6, 7} {
		for num := 1; num < den; num++ {
			fr = append(fr, float64(num)/float64(den))
		}
	}
	return fr
}

// isPathologicalDistribution reports whether the fractional part of bitsPerWord sits
// suspiciously close to a low-denominator rational, which biases the big/little word
// distribution and costs extra roundoff bits per spec section 4.1.
func isPathologicalDistribution(bitsPerWord float64) bool {
	const eps = 0.01
	frac := bitsPerWord - math.Floor(bitsPerWord)
	for _, f := range pathologicalFractions {
		if math.Abs(frac-f) < eps {
			return true
		}
	}
	return false
}

// weightedBitsPerOutputWord folds in the pathological-distribution penalty and the
// base-2-vs-base-b correction (b==2 needs no extra correction; other bases pay a
// small additional margin because the big/little split no longer aligns with a power
// of two) described in spec section 4.1.
func weightedBitsPerOutputWord(b uint64, bitsPerWord float64) float64 {
	w := bitsPerWord
	if isPathologicalDistribution(bitsPerWord) {
		w += 0.6
	}
	if b != 2 {
		w += 0.2
	}
	return w
}

// ShapeParams are the inputs to SelectShape, corresponding to spec section 4.1's
// "(k, b, n, c), CPU capability set, safety-margin adjustment, minimum-FFT override,
// larger-FFT counter".
type ShapeParams struct {
	K float64
	B uint64
	N uint64
	C int64

	Caps           CPUCaps
	SafetyMargin   float64 // additional bits of reserve subtracted from the ceiling
	MinFFTLen      int     // 0 means no override
	LargerFFTCount int     // deliberately step up N entries in the table
}

// Shape is the outcome of shape selection: an FFT length, transform type, and chosen
// kernel implementation.
type Shape struct {
	Length int
	Type   TransformType
	Impl   ImplID

	// Headroom is how many bits of the chosen length's roundoff-error ceiling are
	// left unused after this exponent's actual bits-per-word requirement and any
	// configured SafetyMargin are subtracted. (*Handle).Mul3 compares the
	// outstanding safetyTracker.extraBits() against this before running a
	// transform, per spec's pre-multiply guard.
	Headroom float64
}

// SelectShape implements spec section 4.1's algorithm: gwinfo.
func SelectShape(p ShapeParams) (Shape, error) {
	if p.K < 1 {
		return Shape{}, newErr(ErrKTooSmall, "k must be >= 1")
	}
	if p.K > (1<<53)-1 {
		return Shape{}, newErr(ErrKTooLarge, "k must be <= 2^53-1")
	}
	if p.B < 2 {
		return Shape{}, newErr(ErrKTooSmall, "b must be >= 2")
	}
	if p.N == 0 {
		// degenerate case: k*b^0+c = k+c must exceed 1 to be a useful modulus.
		if p.K+float64(p.C) <= 1 {
			return Shape{}, newErr(ErrTooSmall, "degenerate modulus k*b^n <= 1-c at n=0")
		}
	}

	n := float64(p.N)
	zpLen, zpOK := bestLength(n, p, true)
	directLen, directOK := bestLength(n, p, false)

	var shape Shape
	switch {
	case zpOK && directOK:
		if zpLen <= directLen {
			shape = Shape{Length: zpLen, Type: TransformZeroPadded}
		} else {
			shape = Shape{Length: directLen, Type: directType(p.C)}
		}
	case zpOK:
		shape = Shape{Length: zpLen, Type: TransformZeroPadded}
	case directOK:
		shape = Shape{Length: directLen, Type: directType(p.C)}
	default:
		return Shape{}, newErr(ErrTooLarge, "no FFT length fits this exponent within the safety margin")
	}

	idx := indexOfLength(shape.Length)
	if p.LargerFFTCount > 0 {
		idx += p.LargerFFTCount
		if idx >= len(shapeTable) {
			idx = len(shapeTable) - 1
		}
		shape.Length = shapeTable[idx].Length
	}

	shape.Impl = bestImpl(shapeTable[idx], p.Caps)
	shape.Headroom = shapeHeadroom(n, p, shapeTable[idx], shape.Type == TransformZeroPadded)
	return shape, nil
}

// shapeHeadroom recomputes, for the length ultimately chosen, how much of the
// entry's roundoff-error ceiling (after SafetyMargin) exceeds what this exponent
// actually needs. bestLength already performed this same comparison during search;
// this just keeps the margin around on the returned Shape for Mul3's pre-multiply
// guard to consult later instead of re-deriving ShapeParams at call time.
func shapeHeadroom(n float64, p ShapeParams, entry fftShapeEntry, zeroPad bool) float64 {
	maxBits := entry.baseBitsPerWord - p.SafetyMargin
	var bitsPerWord float64
	if zeroPad {
		bitsPerWord = (2 * n) / float64(entry.Length)
		maxBits += 0.3
	} else {
		bitsPerWord = n / float64(entry.Length)
	}
	weighted := weightedBitsPerOutputWord(p.B, bitsPerWord)
	return maxBits - weighted
}

func directType(c int64) TransformType {
	if c > 0 {
		return TransformNegacyclic
	}
	return TransformCyclic
}

// bestLength walks the shape table in increasing length order and accepts the first
// (smallest) length whose weighted output bits fit, per spec 4.1 steps 1-2. zeroPad
// controls whether the 2n/length payload formula and the +0.3 zero-pad roundoff
// bonus apply.
func bestLength(n float64, p ShapeParams, zeroPad bool) (int, bool) {
	for _, entry := range shapeTable {
		if p.MinFFTLen > 0 && entry.Length < p.MinFFTLen {
			continue
		}
		if !entry.impls[ImplGeneric] {
			continue
		}
		var bitsPerWord float64
		maxBits := entry.baseBitsPerWord - p.SafetyMargin
		if zeroPad {
			bitsPerWord = (2 * n) / float64(entry.Length)
			maxBits += 0.3
		} else {
			bitsPerWord = n / float64(entry.Length)
		}
		weighted := weightedBitsPerOutputWord(p.B, bitsPerWord)
		if weighted > maxBits {
			continue
		}
		if !kFitsTopWords(p.K, bitsPerWord) {
			continue
		}
		return entry.Length, true
	}
	return 0, false
}

// kFitsTopWords checks that k can be folded into the top few words for the
// wraparound carry adjustment (spec 4.1's "whose k fits in the top words for carry
// adjust"): conservatively, the top 3 words must have enough bits to hold k.
func kFitsTopWords(k float64, bitsPerWord float64) bool {
	if k <= 1 {
		return true
	}
	return 3*bitsPerWord >= math.Log2(k)+1
}

func indexOfLength(length int) int {
	for i, e := range shapeTable {
		if e.Length == length {
			return i
		}
	}
	return 0
}

// bestImpl implements the architecture-to-BIF map of spec 4.1 step 6: degrade
// gracefully from the richest available instruction set to the generic fallback,
// the same cascade reedsolomon/options.go applies when building defaultOptions.
func bestImpl(entry fftShapeEntry, caps CPUCaps) ImplID {
	switch {
	case caps.HasAVX512 && entry.impls[ImplAVX512]:
		return ImplAVX512
	case caps.HasAVX2 && entry.impls[ImplAVX2]:
		return ImplAVX2
	case caps.HasNEON && entry.impls[ImplNEON]:
		return ImplNEON
	case caps.HasSSE2 && entry.impls[ImplSSE2]:
		return ImplSSE2
	default:
		return ImplGeneric
	}
}
