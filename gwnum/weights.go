package gwnum

import (
	"fmt"
	"math"
	"sync"
)

// WeightTable holds the per-word IBDWT weights and the big/little word map for one
// FFT shape, per spec section 4.2. Rational FFTs (every weight == 1) set Rational
// and skip the weight arrays entirely, matching spec's "an entire code path is
// bypassed" note.
type WeightTable struct {
	Length int
	B      uint64

	Rational bool

	// Weight[i] / InvWeight[i] are the (extended-precision, here float64) forward
	// and inverse IBDWT weights for FFT word i. Column/group factoring (one-pass
	// vs two-pass r4dwpn) is not distinguished at this layer: callers that need
	// the group/column split derive it from WordBits, which is already per-word.
	Weight    []float64
	InvWeight []float64

	// WordBits[i] is the number of bits word i carries before rebalancing: either
	// BigWordBits or BigWordBits-1 (spec GLOSSARY: "big word / little word").
	WordBits []int
	// IsBig[i] marks word i as a "big" word (ceil(bitsPerWord) bits).
	IsBig []bool

	BigWordBits   int
	AvgBitsPerWord float64

	refs   int32
	refMu  sync.Mutex
}

// NewWeightTable builds the weight table for a shape; length is the chosen FFT
// length, b and n are the modulus's base and exponent. The modulus's c plays no
// part in the table (zero-padded handling lives in carry.go, not here).
func NewWeightTable(length int, b uint64, n uint64) *WeightTable {
	avg := float64(n) / float64(length)
	big := int(math.Ceil(avg))

	wt := &WeightTable{
		Length:         length,
		B:              b,
		BigWordBits:    big,
		AvgBitsPerWord: avg,
	}

	// Rational FFT: num_b_per_small_word == avg_num_b_per_word exactly, i.e. n is
	// evenly divisible by length. Every weight is 1 and the weight arrays are
	// left nil; carry.go checks Rational before indexing them.
	if float64(big) == avg {
		wt.Rational = true
		wt.WordBits = make([]int, length)
		wt.IsBig = make([]bool, length)
		for i := range wt.WordBits {
			wt.WordBits[i] = big
			wt.IsBig[i] = true
		}
		return wt
	}

	wt.Weight = make([]float64, length)
	wt.InvWeight = make([]float64, length)
	wt.WordBits = make([]int, length)
	wt.IsBig = make([]bool, length)

	// Distribute "big" words as evenly as possible across the length using the
	// standard IBDWT layout: word i starts at bit ceil(i*avg), so it is big iff
	// ceil((i+1)*avg) - ceil(i*avg) == ceil(avg). This determines both WordBits and
	// the weight, w_i = b^(ceil(i*avg) - i*avg). The word boundaries are computed
	// in integer arithmetic so they cannot drift with float rounding.
	for i := 0; i < length; i++ {
		lo := (uint64(i)*n + uint64(length) - 1) / uint64(length)
		hi := (uint64(i+1)*n + uint64(length) - 1) / uint64(length)
		bits := int(hi - lo)
		isBig := bits == big
		wt.IsBig[i] = isBig
		if isBig {
			wt.WordBits[i] = big
		} else {
			wt.WordBits[i] = big - 1
		}

		frac := float64(lo) - float64(i)*avg
		w := math.Pow(float64(b), frac)
		wt.Weight[i] = w
		wt.InvWeight[i] = 1.0 / w
	}
	return wt
}

// weightTableKey identifies an interned table for process-wide sharing, mirroring
// spec 5's "process-wide sin/cos intern pool... keyed by exact byte-equality" (here
// keyed by the parameters that fully determine the table's contents, which is
// equivalent and cheaper than hashing the generated arrays).
type weightTableKey struct {
	Length int
	B      uint64
	N      uint64
}

// weightPool is the process-wide intern pool for weight tables, guarded by
// weightPoolMu (spec 5's shareable_lock). Grounded on kcp-go/v5/bufferpool.go's
// lazily-initialized package-level pool pattern, generalized from a sync.Pool (which
// discards entries under memory pressure, wrong for something callers hold a
// reference-counted pointer into) to an explicit map + refcount.
var (
	weightPoolMu sync.Mutex
	weightPool   = map[weightTableKey]*WeightTable{}
)

// InternWeightTable returns a process-wide shared WeightTable for the given shape,
// building it on first use. Callers must call ReleaseWeightTable when the handle
// that acquired it is freed; the table is only actually freed when its reference
// count drops to zero, matching spec 3's "Clones share immutable tables... only the
// parent may free shared tables".
func InternWeightTable(length int, b uint64, n uint64) *WeightTable {
	key := weightTableKey{Length: length, B: b, N: n}

	weightPoolMu.Lock()
	defer weightPoolMu.Unlock()

	if wt, ok := weightPool[key]; ok {
		wt.refMu.Lock()
		wt.refs++
		wt.refMu.Unlock()
		return wt
	}

	wt := NewWeightTable(length, b, n)
	wt.refs = 1
	weightPool[key] = wt
	return wt
}

// ReleaseWeightTable decrements the reference count and evicts the table from the
// intern pool once nothing references it.
func ReleaseWeightTable(wt *WeightTable) {
	wt.refMu.Lock()
	wt.refs--
	remaining := wt.refs
	wt.refMu.Unlock()

	if remaining > 0 {
		return
	}

	key := weightTableKey{Length: wt.Length, B: wt.B, N: uint64(math.Round(wt.AvgBitsPerWord * float64(wt.Length)))}
	weightPoolMu.Lock()
	if cur, ok := weightPool[key]; ok && cur == wt {
		delete(weightPool, key)
	}
	weightPoolMu.Unlock()
}

func (wt *WeightTable) String() string {
	if wt.Rational {
		return fmt.Sprintf("weights(len=%d rational bigbits=%d)", wt.Length, wt.BigWordBits)
	}
	return fmt.Sprintf("weights(len=%d avgbits=%.4f bigbits=%d)", wt.Length, wt.AvgBitsPerWord, wt.BigWordBits)
}
