package gwnum

import "testing"

func TestNewMMGWReducerStepsNUpOnGCDFailure(t *testing.T) {
	// At bits=4, R=2^4-1=15=3*5, which shares a factor with modulus=3: the first
	// attempt must be rejected and n stepped up rather than silently returning a
	// reducer that would CRT-reconstruct incorrectly.
	r, err := newMMGWReducer(GiantFromInt64(3), 4)
	if err != nil {
		t.Fatalf("newMMGWReducer: %v", err)
	}
	if r.n <= 4 {
		t.Errorf("newMMGWReducer kept n=%d despite gcd(3, 2^4-1)=3 != 1", r.n)
	}

	product := GiantFromInt64(3 * 5)
	got := r.Reduce(product)
	if got.BigInt().Int64() != 0 {
		t.Errorf("Reduce(15) mod 3 = %v, want 0", got)
	}
}

func TestNewMMGWReducerFailsWithinBudgetWhenGCDNeverClears(t *testing.T) {
	// 3*7*31*47: a product of primes whose multiplicative orders of 2 (2, 3, 5,
	// 23) cover every n from 20 through 28 (each such n is a multiple of at least
	// one of them), and R*Q = 4^n-1 already exceeds the modulus at n=20, so
	// gcd(modulus, 2^n-1) stays above 1 across the entire retry window and the
	// bounded retry must give up and report ErrInternal rather than loop forever
	// or return an unsound reducer.
	modulus := GiantFromInt64(3 * 7 * 31 * 47)
	_, err := newMMGWReducer(modulus, 20)
	if err == nil {
		t.Fatalf("expected newMMGWReducer to fail when gcd never clears within budget")
	}
	ge, ok := err.(*GwError)
	if !ok || ge.Kind != ErrInternal {
		t.Errorf("newMMGWReducer error = %v, want ErrInternal", err)
	}
}

func TestNewMMGWReducerSucceedsImmediatelyWhenCoprime(t *testing.T) {
	r, err := newMMGWReducer(GiantFromInt64(1000003), 20)
	if err != nil {
		t.Fatalf("newMMGWReducer: %v", err)
	}
	if r.n != 20 {
		t.Errorf("newMMGWReducer(1000003, 20).n = %d, want 20 (first attempt should already be coprime)", r.n)
	}
}
