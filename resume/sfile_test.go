package resume

import (
	"math/big"
	"path/filepath"
	"testing"
)

// buildBatchS constructs a product of every prime power <= b1, the same
// quantity write_s_in_file persists, for use as a round-trip fixture.
func buildBatchS(t *testing.T, b1 int64) *big.Int {
	t.Helper()
	s := big.NewInt(1)
	n := big.NewInt(2)
	for n.Int64() <= b1 {
		if n.ProbablyPrime(20) {
			pk := new(big.Int).Set(n)
			for new(big.Int).Mul(pk, n).Int64() <= b1 {
				pk.Mul(pk, n)
			}
			s.Mul(s, pk)
		}
		n.Add(n, big.NewInt(1))
	}
	return s
}

func TestBatchSRoundTrip(t *testing.T) {
	s := buildBatchS(t, 1000)
	path := filepath.Join(t.TempDir(), "batch.s")

	if err := WriteBatchS(path, s); err != nil {
		t.Fatalf("WriteBatchS: %v", err)
	}
	got, err := ReadBatchS(path, 1000)
	if err != nil {
		t.Fatalf("ReadBatchS: %v", err)
	}
	if got.Cmp(s) != 0 {
		t.Errorf("round trip mismatch: got %s, want %s", got, s)
	}
}

func TestBatchSRejectsWrongB1(t *testing.T) {
	s := buildBatchS(t, 1000)
	path := filepath.Join(t.TempDir(), "batch.s")
	if err := WriteBatchS(path, s); err != nil {
		t.Fatalf("WriteBatchS: %v", err)
	}
	if _, err := ReadBatchS(path, 100); err == nil {
		t.Errorf("expected ReadBatchS to reject a batch product built for a different B1")
	}
}

func TestValidateBatchSDirectly(t *testing.T) {
	s := buildBatchS(t, 500)
	if err := validateBatchS(s, 500); err != nil {
		t.Errorf("validateBatchS(correct b1) = %v, want nil", err)
	}
	if err := validateBatchS(s, 50000); err == nil {
		t.Errorf("validateBatchS(wrong b1) should fail")
	}
}

func TestTrailingZeroBits(t *testing.T) {
	cases := []struct {
		x    int64
		want int
	}{
		{1, 0},
		{2, 1},
		{8, 3},
		{12, 2},
	}
	for _, c := range cases {
		got := trailingZeroBits(big.NewInt(c.x))
		if got != c.want {
			t.Errorf("trailingZeroBits(%d) = %d, want %d", c.x, got, c.want)
		}
	}
}

func TestNextPrime(t *testing.T) {
	cases := []struct{ from, want int64 }{
		{1, 2},
		{2, 3},
		{10, 11},
		{14, 17},
	}
	for _, c := range cases {
		got := nextPrime(big.NewInt(c.from))
		if got.Int64() != c.want {
			t.Errorf("nextPrime(%d) = %d, want %d", c.from, got.Int64(), c.want)
		}
	}
}
