package gwnum

import "math/big"

// FinalReduceSpecial reconstructs a Giant from a special-form Handle's balanced
// word representation and folds it into [0, k*b^n+c). The transform's weighting and
// carry.go's resolveWraparoundCarry already do the heavy lifting of keeping the
// representation close to canonical as spec 4.3 describes, but an explicit modulus
// reduction here is kept as a correctness backstop: the wraparound-carry spread
// width is an approximation of gwnum's exact top_carry_adjust arithmetic (see
// DESIGN.md's wraparound-carry Open Question), so value.go calls this whenever a
// caller asks to materialize a Value as a Giant rather than trusting the carry
// engine's output to already be exactly canonical.
func FinalReduceSpecial(words []int64, wt *WeightTable, k uint64, b uint64, n uint64, c int64) *Giant {
	g := fromBalancedWords(words, wt)

	modulus := new(big.Int).Exp(big.NewInt(int64(b)), new(big.Int).SetUint64(n), nil)
	modulus.Mul(modulus, new(big.Int).SetUint64(k))
	modulus.Add(modulus, big.NewInt(c))

	v := new(big.Int).Mod(g.v, modulus)
	if v.Sign() < 0 {
		v.Add(v, modulus)
	}
	return &Giant{v: v}
}
