package gwnum

import "math/big"

// barrettReducer implements spec 4.7's Barrett (reciprocal-FFT) reducer: precompute
// a fixed-point reciprocal of the modulus once at setup, then fold each wide product
// down with one reciprocal multiply and one modulus multiply instead of a full
// division. Production gwnum computes the reciprocal multiply itself as an FFT
// convolution over gwnum values; here the reciprocal multiply is expressed directly
// over math/big, which is mathematically identical and keeps this reducer's
// correctness independent of the Kernel's transform precision — the thing this
// layer exists to protect the caller from.
type barrettReducer struct {
	modulus *big.Int
	mu      *big.Int // floor(2^(2*bits) / modulus)
	bits    uint
}

func newBarrettReducer(modulus *Giant, bits uint64) (*barrettReducer, error) {
	m := modulus.BigInt()
	if m.Sign() <= 0 {
		return nil, newErr(ErrTooSmall, "barrett: modulus must be positive")
	}
	mu := new(big.Int).Lsh(big.NewInt(1), uint(2*bits))
	mu.Div(mu, m)
	return &barrettReducer{modulus: m, mu: mu, bits: uint(bits)}, nil
}

// Reduce folds a wide (up to 2*bits-bit) product down to [0, modulus).
func (r *barrettReducer) Reduce(product *Giant) *Giant {
	x := product.BigInt()
	if x.Sign() < 0 {
		// balanced-representation products can be negative; fold into a
		// non-negative residue class first so the estimate below is valid.
		k := new(big.Int).Div(x, r.modulus)
		k.Sub(k, big.NewInt(1))
		x.Sub(x, new(big.Int).Mul(k, r.modulus))
	}

	q := new(big.Int).Rsh(x, r.bits)
	q.Mul(q, r.mu)
	q.Rsh(q, r.bits)
	q.Mul(q, r.modulus)

	res := new(big.Int).Sub(x, q)
	for res.Sign() < 0 {
		res.Add(res, r.modulus)
	}
	for res.Cmp(r.modulus) >= 0 {
		res.Sub(res, r.modulus)
	}
	return &Giant{v: res}
}
