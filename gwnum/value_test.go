package gwnum

import "testing"

func TestValueCloneIsIndependent(t *testing.T) {
	h := newMersenneHandle(t, 7)
	defer h.Done()

	a := valueOf(t, h, 42)
	b := a.Clone()
	if err := b.SetInt64(99); err != nil {
		t.Fatalf("SetInt64: %v", err)
	}

	ga, _ := a.Giant()
	gb, _ := b.Giant()
	if ga.BigInt().Int64() != 42 {
		t.Errorf("mutating the clone should not affect the original: got %d", ga.BigInt().Int64())
	}
	if gb.BigInt().Int64() != 99 {
		t.Errorf("clone value = %d, want 99", gb.BigInt().Int64())
	}
}

func TestValueIsZero(t *testing.T) {
	h := newMersenneHandle(t, 7)
	defer h.Done()

	zero := valueOf(t, h, 0)
	if !zero.IsZero() {
		t.Errorf("a Value set to 0 should report IsZero")
	}
	nonzero := valueOf(t, h, 1)
	if nonzero.IsZero() {
		t.Errorf("a Value set to 1 should not report IsZero")
	}
}

func TestValueFreeThenReuseIsSafe(t *testing.T) {
	h := newMersenneHandle(t, 7)
	defer h.Done()

	v := valueOf(t, h, 5)
	v.Free()
	v.Free() // must not panic

	if err := v.SetInt64(10); err != nil {
		t.Fatalf("SetInt64 after Free: %v", err)
	}
	g, _ := v.Giant()
	if g.BigInt().Int64() != 10 {
		t.Errorf("value after Free+SetInt64 = %d, want 10", g.BigInt().Int64())
	}
}

func TestNewValueBeforeSetupFails(t *testing.T) {
	h := New()
	if _, err := h.NewValue(); err == nil {
		t.Errorf("NewValue before Setup* should fail")
	}
}
