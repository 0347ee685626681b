package gwnum

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
)

// carefulState caches the fixed random perturbation a Handle's "careful" multiply
// uses, generated once and reused for the Handle's lifetime. Grounded on
// kcp-go/v5/entropy.go's nonceAES128, which likewise seeds once from crypto/rand and
// then reuses/iterates that seed rather than drawing fresh entropy per call — the
// same "seed once, cache, reuse" shape, adapted here from a per-packet nonce to a
// per-Handle arithmetic constant.
type carefulState struct {
	once sync.Once
	r    int64
}

// available reports whether MulCareful can be used as a safety-budget fallback; it
// is pure software (crypto/rand plus SmallAdd/SmallMul) with no setup dependency, so
// it is always available once a Handle exists.
func (c *carefulState) available() bool { return true }

func (h *Handle) carefulR() int64 {
	h.careful.once.Do(func() {
		var buf [8]byte
		_, _ = rand.Read(buf[:])
		v := int64(binary.LittleEndian.Uint64(buf[:]) & 0x7fffffff)
		if v == 0 {
			v = 1
		}
		h.careful.r = v
	})
	return h.careful.r
}

// MulCareful computes a*b using the identity (a+r)(b-r) + r(a+r-b) = a*b for a fixed
// per-Handle random r, per spec 4.6's "careful" multiply option. Evaluating the
// product through this algebraically equivalent but numerically different path
// means a roundoff bug that happens to cancel out for the direct a*b path will
// usually not cancel out identically here too, so comparing MulCareful's result
// against Mul3's catches error patterns ordinary MaxErr tracking can miss.
func (h *Handle) MulCareful(a, b *Value, o Options) (*Value, error) {
	if err := h.checkOwned(a, b); err != nil {
		return nil, err
	}
	r := h.carefulR()

	ar, err := h.SmallAdd(a.Clone(), r)
	if err != nil {
		return nil, err
	}
	br, err := h.SmallAdd(b.Clone(), -r)
	if err != nil {
		return nil, err
	}
	inner, err := h.Sub3(ar, b, 0)
	if err != nil {
		return nil, err
	}
	// r is up to 31 bits, wider than a small modulus's words can carry through the
	// transform, so the two multiply operands are brought back to the form Giant()
	// returns (the canonical residue, for a special-form Handle) first.
	for _, v := range []*Value{ar, br} {
		g, err := v.Giant()
		if err != nil {
			return nil, err
		}
		if err := v.SetGiant(g); err != nil {
			return nil, err
		}
	}

	term1, err := h.Mul3(ar, br, o&^(OptPreserveS1|OptPreserveS2))
	if err != nil {
		return nil, err
	}
	term2, err := h.SmallMul(inner, r)
	if err != nil {
		return nil, err
	}
	return h.Add3(term1, term2, o)
}
