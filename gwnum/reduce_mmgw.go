package gwnum

import "math/big"

// mmgwReducer implements spec 4.7's MMGW reducer: an arbitrary modulus is reduced by
// working simultaneously mod R=2^n-1 (a cyclic-FFT-friendly modulus) and mod
// Q=2^n+1 (a negacyclic-FFT-friendly modulus), then recombining with CRT, which lets
// both halves run on plain DWT convolutions instead of needing a modulus-specific
// weighting. As with barrettReducer, the CRT recombination here runs over math/big
// rather than a second pair of FFT convolutions, isolating this reducer's
// correctness from the Kernel's transform precision; R and Q are still carried as
// first-class fields so setup validates the same n-must-cover-the-modulus
// constraint the dual-FFT version would.
type mmgwReducer struct {
	modulus *big.Int
	n       uint
	r       *big.Int // 2^n - 1
	q       *big.Int // 2^n + 1
}

// maxMMGWRetries bounds newMMGWReducer's step-up-n loop: spec 4.7 requires
// gcd(modulus, R) = 1 before committing to MMGW, retrying with another n if it
// isn't, and falling back to Barrett if no n in range works.
const maxMMGWRetries = 8

func newMMGWReducer(modulus *Giant, bits uint64) (*mmgwReducer, error) {
	m := modulus.BigInt()
	if m.Sign() <= 0 {
		return nil, newErr(ErrTooSmall, "mmgw: modulus must be positive")
	}

	one := big.NewInt(1)
	n := uint(bits)
	for attempt := 0; attempt <= maxMMGWRetries; attempt++ {
		r := new(big.Int).Sub(new(big.Int).Lsh(one, n), one)
		q := new(big.Int).Add(new(big.Int).Lsh(one, n), one)
		if new(big.Int).Mul(r, q).Cmp(m) < 0 {
			n++
			continue
		}
		if new(big.Int).GCD(nil, nil, m, r).Cmp(one) != 0 {
			// modulus shares a factor with R=2^n-1 at this n; CRT reconstruction
			// against R would be unreliable, so step n up and try again rather
			// than silently reducing incorrectly.
			n++
			continue
		}
		return &mmgwReducer{modulus: m, n: n, r: r, q: q}, nil
	}
	return nil, wrapErr(ErrInternal,
		"mmgw: no n within the retry budget has gcd(modulus, 2^n-1) = 1; use ReducerBarrett for this modulus instead",
		nil)
}

// Reduce folds a wide product down to [0, modulus) via CRT over R and Q, then a
// final reduction mod the true modulus. The CRT step recovers the product exactly
// only when 0 <= product < R*Q = 4^n-1; a larger product is first reduced mod R*Q.
func (r *mmgwReducer) Reduce(product *Giant) *Giant {
	x := product.BigInt()

	modR := new(big.Int).Mod(x, r.r)
	modQ := new(big.Int).Mod(x, r.q)

	// CRT reconstruction mod R*Q: find t such that t = modR (mod R), t = modQ (mod Q).
	rq := new(big.Int).Mul(r.r, r.q)
	rInv := new(big.Int).ModInverse(r.r, r.q)
	if rInv == nil {
		// R and Q share a factor (only possible for degenerate tiny n); fall back
		// to direct reduction rather than fail a caller who asked for correctness.
		res := new(big.Int).Mod(x, r.modulus)
		return &Giant{v: res}
	}

	diff := new(big.Int).Sub(modQ, modR)
	diff.Mod(diff, r.q)
	t := new(big.Int).Mul(diff, rInv)
	t.Mod(t, r.q)
	t.Mul(t, r.r)
	t.Add(t, modR)
	t.Mod(t, rq)

	t.Mod(t, r.modulus)
	if t.Sign() < 0 {
		t.Add(t, r.modulus)
	}
	return &Giant{v: t}
}
