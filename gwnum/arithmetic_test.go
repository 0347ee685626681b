package gwnum

import (
	"math/big"
	"testing"
)

func newMersenneHandle(t *testing.T, n uint64) *Handle {
	t.Helper()
	h := New()
	if err := h.SetupSpecial(1, 2, n, -1); err != nil {
		t.Fatalf("SetupSpecial(1,2,%d,-1): %v", n, err)
	}
	return h
}

func valueOf(t *testing.T, h *Handle, x int64) *Value {
	t.Helper()
	v, err := h.NewValue()
	if err != nil {
		t.Fatalf("NewValue: %v", err)
	}
	if err := v.SetInt64(x); err != nil {
		t.Fatalf("SetInt64(%d): %v", x, err)
	}
	return v
}

func giantInt64(t *testing.T, g *Giant) int64 {
	t.Helper()
	return g.BigInt().Int64()
}

func TestMul3AgainstMersenneModulus(t *testing.T) {
	h := newMersenneHandle(t, 7) // modulus 127
	defer h.Done()

	a := valueOf(t, h, 5)
	b := valueOf(t, h, 9)

	out, err := h.Mul3(a, b, 0)
	if err != nil {
		t.Fatalf("Mul3: %v", err)
	}
	g, err := out.Giant()
	if err != nil {
		t.Fatalf("Giant: %v", err)
	}
	if got := giantInt64(t, g); got != 45 {
		t.Errorf("5*9 mod 127 = %d, want 45", got)
	}
}

func TestMul3Commutative(t *testing.T) {
	h := newMersenneHandle(t, 13) // modulus 8191
	defer h.Done()

	a := valueOf(t, h, 123)
	b := valueOf(t, h, 456)

	ab, err := h.Mul3(a, b, 0)
	if err != nil {
		t.Fatalf("Mul3(a,b): %v", err)
	}
	ba, err := h.Mul3(b, a, 0)
	if err != nil {
		t.Fatalf("Mul3(b,a): %v", err)
	}
	ga, _ := ab.Giant()
	gb, _ := ba.Giant()
	if ga.BigInt().Cmp(gb.BigInt()) != 0 {
		t.Errorf("multiplication is not commutative: %s vs %s", ga, gb)
	}
}

func TestSquareMatchesSelfMultiply(t *testing.T) {
	h := newMersenneHandle(t, 13)
	defer h.Done()

	a := valueOf(t, h, 789)
	sq, err := h.Mul3(a, a, 0)
	if err != nil {
		t.Fatalf("Mul3(a,a): %v", err)
	}
	b := valueOf(t, h, 789)
	mul, err := h.Mul3(a, b, 0)
	if err != nil {
		t.Fatalf("Mul3(a,b): %v", err)
	}
	gs, _ := sq.Giant()
	gm, _ := mul.Giant()
	if gs.BigInt().Cmp(gm.BigInt()) != 0 {
		t.Errorf("squaring path disagrees with general multiply path: %s vs %s", gs, gm)
	}
}

func TestMulAddMatchesBigIntReference(t *testing.T) {
	h := newMersenneHandle(t, 17) // modulus 131071
	defer h.Done()

	a := valueOf(t, h, 1234)
	b := valueOf(t, h, 5678)
	c := valueOf(t, h, 91011)

	out, err := h.MulAdd4(a, b, c, 0)
	if err != nil {
		t.Fatalf("MulAdd4: %v", err)
	}
	g, _ := out.Giant()

	modulus := big.NewInt((1 << 17) - 1)
	want := new(big.Int).Mul(big.NewInt(1234), big.NewInt(5678))
	want.Add(want, big.NewInt(91011))
	want.Mod(want, modulus)

	if g.BigInt().Cmp(want) != 0 {
		t.Errorf("MulAdd4 = %s, want %s", g, want)
	}
}

func TestAddSubRoundTrip(t *testing.T) {
	h := newMersenneHandle(t, 13)
	defer h.Done()

	a := valueOf(t, h, 4000)
	b := valueOf(t, h, 3000)

	sum, diff, err := h.AddSub4(a, b, 0)
	if err != nil {
		t.Fatalf("AddSub4: %v", err)
	}
	gs, _ := sum.Giant()
	gd, _ := diff.Giant()
	if giantInt64(t, gs) != 7000 {
		t.Errorf("sum = %d, want 7000", giantInt64(t, gs))
	}
	if giantInt64(t, gd) != 1000 {
		t.Errorf("diff = %d, want 1000", giantInt64(t, gd))
	}
}

func TestSmallAddSmallMul(t *testing.T) {
	h := newMersenneHandle(t, 13)
	defer h.Done()

	v := valueOf(t, h, 10)
	if _, err := h.SmallMul(v, 4); err != nil {
		t.Fatalf("SmallMul: %v", err)
	}
	if _, err := h.SmallAdd(v, 5); err != nil {
		t.Fatalf("SmallAdd: %v", err)
	}
	g, _ := v.Giant()
	if got := giantInt64(t, g); got != 45 {
		t.Errorf("10*4+5 = %d, want 45", got)
	}
}

func TestMulCarefulMatchesMul3(t *testing.T) {
	h := newMersenneHandle(t, 17)
	defer h.Done()

	a := valueOf(t, h, 999)
	b := valueOf(t, h, 888)

	direct, err := h.Mul3(a, b, 0)
	if err != nil {
		t.Fatalf("Mul3: %v", err)
	}
	careful, err := h.MulCareful(a, b, 0)
	if err != nil {
		t.Fatalf("MulCareful: %v", err)
	}
	gd, _ := direct.Giant()
	gc, _ := careful.Giant()
	if gd.BigInt().Cmp(gc.BigInt()) != 0 {
		t.Errorf("MulCareful disagrees with Mul3: %s vs %s", gc, gd)
	}
}

func TestUnfftIdempotent(t *testing.T) {
	h := newMersenneHandle(t, 13)
	defer h.Done()

	a := valueOf(t, h, 42)
	_ = a.forward(h.Shape.Type) // populate the cache

	v1, err := h.Unfft(a)
	if err != nil {
		t.Fatalf("Unfft: %v", err)
	}
	v2, err := h.Unfft(v1)
	if err != nil {
		t.Fatalf("Unfft (second call, no cache): %v", err)
	}
	g1, _ := v1.Giant()
	g2, _ := v2.Giant()
	if g1.BigInt().Cmp(g2.BigInt()) != 0 {
		t.Errorf("Unfft is not idempotent: %s vs %s", g1, g2)
	}
}

func TestGeneralModBarrett(t *testing.T) {
	h := New()
	modulus := NewGiant(big.NewInt(1000003)) // prime
	if err := h.SetupGeneralMod(modulus, ReducerBarrett, 20); err != nil {
		t.Fatalf("SetupGeneralMod: %v", err)
	}
	defer h.Done()

	a := valueOf(t, h, 123456)
	b := valueOf(t, h, 654321)
	out, err := h.Mul3(a, b, 0)
	if err != nil {
		t.Fatalf("Mul3: %v", err)
	}
	g, _ := out.Giant()

	want := new(big.Int).Mul(big.NewInt(123456), big.NewInt(654321))
	want.Mod(want, big.NewInt(1000003))
	if g.BigInt().Cmp(want) != 0 {
		t.Errorf("general-mod Barrett Mul3 = %s, want %s", g, want)
	}
}

func TestGeneralModMMGW(t *testing.T) {
	h := New()
	modulus := NewGiant(big.NewInt(1000003))
	if err := h.SetupGeneralMod(modulus, ReducerMMGW, 20); err != nil {
		t.Fatalf("SetupGeneralMod: %v", err)
	}
	defer h.Done()

	a := valueOf(t, h, 777)
	b := valueOf(t, h, 888)
	out, err := h.Mul3(a, b, 0)
	if err != nil {
		t.Fatalf("Mul3: %v", err)
	}
	g, _ := out.Giant()

	want := new(big.Int).Mul(big.NewInt(777), big.NewInt(888))
	want.Mod(want, big.NewInt(1000003))
	if g.BigInt().Cmp(want) != 0 {
		t.Errorf("general-mod MMGW Mul3 = %s, want %s", g, want)
	}
}

func TestSetupWithoutModExactProduct(t *testing.T) {
	h := New()
	if err := h.SetupWithoutMod(64); err != nil {
		t.Fatalf("SetupWithoutMod: %v", err)
	}
	defer h.Done()

	a := valueOf(t, h, 123456789)
	b := valueOf(t, h, 987654321)
	out, err := h.Mul3(a, b, 0)
	if err != nil {
		t.Fatalf("Mul3: %v", err)
	}
	g, _ := out.Giant()

	want := new(big.Int).Mul(big.NewInt(123456789), big.NewInt(987654321))
	if g.BigInt().Cmp(want) != 0 {
		t.Errorf("unreduced product = %s, want %s", g, want)
	}
}

func TestMulAddFusedPathMatchesPlainPath(t *testing.T) {
	h := newMersenneHandle(t, 17) // modulus 131071
	defer h.Done()

	a := valueOf(t, h, 1234)
	b := valueOf(t, h, 5678)
	c := valueOf(t, h, 91011)

	plain, err := h.MulAdd4(a, b, c, 0)
	if err != nil {
		t.Fatalf("MulAdd4 (plain): %v", err)
	}

	c2 := valueOf(t, h, 91011) // fresh Value: forwardForFMA mutates state
	fused, err := h.MulAdd4(a, b, c2, OptFFTS3)
	if err != nil {
		t.Fatalf("MulAdd4 (OptFFTS3 fused): %v", err)
	}

	gp, _ := plain.Giant()
	gf, _ := fused.Giant()
	if gp.BigInt().Cmp(gf.BigInt()) != 0 {
		t.Errorf("fused MulAdd4 disagrees with plain path: %s vs %s", gf, gp)
	}
}

func TestMulSubFusedPathMatchesPlainPath(t *testing.T) {
	h := newMersenneHandle(t, 17)
	defer h.Done()

	a := valueOf(t, h, 1234)
	b := valueOf(t, h, 5678)
	c := valueOf(t, h, 91011)

	plain, err := h.MulSub4(a, b, c, 0)
	if err != nil {
		t.Fatalf("MulSub4 (plain): %v", err)
	}

	c2 := valueOf(t, h, 91011)
	fused, err := h.MulSub4(a, b, c2, OptFFTS3)
	if err != nil {
		t.Fatalf("MulSub4 (OptFFTS3 fused): %v", err)
	}

	gp, _ := plain.Giant()
	gf, _ := fused.Giant()
	if gp.BigInt().Cmp(gf.BigInt()) != 0 {
		t.Errorf("fused MulSub4 disagrees with plain path: %s vs %s", gf, gp)
	}
}

func TestMul3RoutesToCarefulOverSafetyBudget(t *testing.T) {
	h := newMersenneHandle(t, 13)
	defer h.Done()

	// Directly push the tracker past this shape's headroom rather than issuing
	// an unrealistic number of real OptPreserve adds.
	h.safety.unnormalizedAdds = uint64(1) << 40

	a := valueOf(t, h, 5)
	b := valueOf(t, h, 9)
	out, err := h.Mul3(a, b, 0)
	if err != nil {
		t.Fatalf("Mul3 over safety budget: %v", err)
	}
	g, _ := out.Giant()
	if giantInt64(t, g) != 45 {
		t.Errorf("Mul3 over safety budget = %d, want 45 (careful-mode fallback must still be correct)", giantInt64(t, g))
	}
	if h.safety.unnormalizedAdds != 0 {
		t.Errorf("Mul3 should reset the safety tracker once it routes around the budget, got %d", h.safety.unnormalizedAdds)
	}
}

func TestMul3UnderSafetyBudgetResetsTracker(t *testing.T) {
	h := newMersenneHandle(t, 13)
	defer h.Done()

	h.safety.unnormalizedAdds = 3
	a := valueOf(t, h, 5)
	b := valueOf(t, h, 9)
	if _, err := h.Mul3(a, b, 0); err != nil {
		t.Fatalf("Mul3: %v", err)
	}
	if h.safety.unnormalizedAdds != 0 {
		t.Errorf("Mul3 should reset the safety tracker after a within-budget multiply, got %d", h.safety.unnormalizedAdds)
	}
}

func TestCloneSharesWeightTableAndIsIndependent(t *testing.T) {
	h := newMersenneHandle(t, 13)
	defer h.Done()

	clone, err := h.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	defer clone.Done()

	if clone.wt != h.wt {
		t.Errorf("Clone should share the parent's weight table pointer")
	}

	a := valueOf(t, clone, 11)
	b := valueOf(t, clone, 12)
	out, err := clone.Mul3(a, b, 0)
	if err != nil {
		t.Fatalf("Mul3 on clone: %v", err)
	}
	g, _ := out.Giant()
	if giantInt64(t, g) != 132 {
		t.Errorf("clone Mul3 = %d, want 132", giantInt64(t, g))
	}
}
