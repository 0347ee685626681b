package gwnum

import "math/big"

// Giant is the arbitrary-precision integer type Values convert to and from, spec
// section 4.9's giant<->gwnum codec. Production gwnum pairs its FFT core with a
// bespoke "giants" bignum library; here math/big.Int fills that role, since the
// giants library is described in the spec purely as an opaque collaborator (convert
// in, convert out) rather than something this module's transform logic touches
// directly — math/big is the idiomatic Go stand-in rather than a hand-rolled bignum
// type duplicating what the standard library already does well.
type Giant struct {
	v *big.Int
}

// NewGiant wraps a big.Int. The Giant takes ownership of a copy, not x itself.
func NewGiant(x *big.Int) *Giant {
	return &Giant{v: new(big.Int).Set(x)}
}

// GiantFromInt64 is a convenience constructor for small test fixtures and CLI flags.
func GiantFromInt64(x int64) *Giant {
	return &Giant{v: big.NewInt(x)}
}

// GiantFromString parses a decimal (or 0x-prefixed hex) string into a Giant.
func GiantFromString(s string) (*Giant, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, newErr(ErrInternal, "giant: could not parse \""+s+"\" as an integer")
	}
	return &Giant{v: v}, nil
}

// BigInt returns a copy of the Giant's value as a *big.Int.
func (g *Giant) BigInt() *big.Int {
	return new(big.Int).Set(g.v)
}

// BitLen returns the minimal number of bits to represent the Giant (sign ignored).
func (g *Giant) BitLen() int { return g.v.BitLen() }

func (g *Giant) String() string { return g.v.String() }

// toBalancedWords decomposes g into length words of wt's per-word bit widths, for
// feeding into a Kernel's Forward step. Each word holds |g|'s plain digit in
// [0, 2^bits), negated when g is negative; the words are not rebalanced into
// [-base/2, base/2) here (Normalize produces that form after a multiply). The top
// word also keeps every bit of |g| above the table's width, so the words always sum
// back to g exactly.
func toBalancedWords(g *Giant, wt *WeightTable) []int64 {
	words := make([]int64, wt.Length)
	n := new(big.Int).Set(g.v)
	neg := n.Sign() < 0
	if neg {
		n.Neg(n)
	}

	mask := new(big.Int)
	for i := 0; i < wt.Length; i++ {
		bits := uint(wt.WordBits[i])
		mask.Lsh(big.NewInt(1), bits)
		mask.Sub(mask, big.NewInt(1))
		rem := new(big.Int).And(n, mask)
		if i == wt.Length-1 {
			rem.Set(n)
		}
		n.Rsh(n, bits)
		v := rem.Int64()
		if neg {
			v = -v
		}
		words[i] = v
	}
	return words
}

// fromBalancedWords is the inverse of toBalancedWords: it reassembles a balanced
// per-word representation into a single Giant, resolving negative words by
// borrowing from the next word up (spec's "balanced base" representation collapses
// back to ordinary base-B digits this way before the final carry ripple completes).
func fromBalancedWords(words []int64, wt *WeightTable) *Giant {
	total := new(big.Int)
	shift := uint(0)
	for i, w := range words {
		term := new(big.Int).Lsh(big.NewInt(w), shift)
		total.Add(total, term)
		shift += uint(wt.WordBits[i])
	}
	return &Giant{v: total}
}

// Mod reduces g modulo m in place and returns g for chaining.
func (g *Giant) Mod(m *Giant) *Giant {
	g.v.Mod(g.v, m.v)
	return g
}
