package resume

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"os"

	"github.com/pkg/errors"
)

// WriteBatchS writes the batch-mode stage-1 exponent s (the product of every
// prime power up to B1, spec 4.8's "batch-s binary file") to path as a
// length-prefixed magnitude, the Go equivalent of gmp-ecm-resume.c's
// write_s_in_file/mpz_out_raw.
func WriteBatchS(path string, s *big.Int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create batch-s file %s", path)
	}
	defer f.Close()

	mag := s.Bytes()
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(mag)))
	if _, err := f.Write(hdr[:]); err != nil {
		return errors.Wrapf(err, "write batch-s header %s", path)
	}
	_, err = f.Write(mag)
	return errors.Wrapf(err, "write batch-s body %s", path)
}

// ReadBatchS reads a batch-s file and validates it against b1, performing the
// same three sanity checks read_s_from_file runs before trusting a cached batch
// product: the 2-adic valuation of s brackets B1, the next prime above B1 does
// not divide s, and the next prime above sqrt(B1) divides s exactly once.
func ReadBatchS(path string, b1 float64) (*big.Int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open batch-s file %s", path)
	}
	defer f.Close()

	var hdr [4]byte
	if _, err := f.Read(hdr[:]); err != nil {
		return nil, errors.Wrapf(err, "read batch-s header %s", path)
	}
	n := binary.BigEndian.Uint32(hdr[:])
	mag := make([]byte, n)
	if _, err := f.Read(mag); err != nil {
		return nil, errors.Wrapf(err, "read batch-s body %s", path)
	}
	s := new(big.Int).SetBytes(mag)
	if s.Sign() == 0 {
		return nil, fmt.Errorf("resume: %s: 0 bytes read", path)
	}

	if err := validateBatchS(s, b1); err != nil {
		return nil, err
	}
	return s, nil
}

func validateBatchS(s *big.Int, b1 float64) error {
	val2 := trailingZeroBits(s)
	lo := new(big.Int).Lsh(big.NewInt(1), uint(val2))
	hi := new(big.Int).Lsh(big.NewInt(1), uint(val2+1))
	loF, _ := new(big.Float).SetInt(lo).Float64()
	hiF, _ := new(big.Float).SetInt(hi).Float64()
	if loF > b1 || hiF <= b1 {
		return fmt.Errorf("resume: batch product does not correspond to B1=%.0f (2-adic valuation check)", b1)
	}

	npB1 := nextPrime(big.NewInt(int64(b1)))
	if new(big.Int).Mod(s, npB1).Sign() == 0 {
		return fmt.Errorf("resume: batch product does not correspond to B1=%.0f (next_prime(B1) divides s)", b1)
	}

	sqrtB1 := big.NewInt(int64(math.Sqrt(b1)))
	npSqrt := nextPrime(sqrtB1)
	rem := new(big.Int).Mod(s, npSqrt)
	sq := new(big.Int).Mul(npSqrt, npSqrt)
	remSq := new(big.Int).Mod(s, sq)
	if rem.Sign() != 0 || remSq.Sign() == 0 {
		return fmt.Errorf("resume: batch product does not correspond to B1=%.0f (next_prime(sqrt(B1)) valuation check)", b1)
	}

	return nil
}

func trailingZeroBits(x *big.Int) int {
	if x.Sign() == 0 {
		return 0
	}
	n := 0
	t := new(big.Int).Set(x)
	for t.Bit(0) == 0 {
		t.Rsh(t, 1)
		n++
	}
	return n
}

func nextPrime(from *big.Int) *big.Int {
	n := new(big.Int).Set(from)
	n.Add(n, big.NewInt(1))
	if n.Cmp(big.NewInt(2)) <= 0 {
		return big.NewInt(2)
	}
	if n.Bit(0) == 0 {
		n.Add(n, big.NewInt(1))
	}
	for !n.ProbablyPrime(20) {
		n.Add(n, big.NewInt(2))
	}
	return n
}
