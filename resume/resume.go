// Package resume implements the tag=value checkpoint file format spec section
// 4.8 describes: the same line grammar and checksum scheme GMP-ECM's
// gmp-ecm-resume.c read_resumefile_line/write_resumefile_line use, so that a
// checkpoint written by this package can be resumed by (and a checkpoint
// written by) tools that speak the original format.
package resume

import "math/big"

// Method identifies which factoring method produced a Record.
type Method int

const (
	MethodECM Method = iota
	MethodPMinus1
	MethodPPlus1
)

func (m Method) String() string {
	switch m {
	case MethodECM:
		return "ECM"
	case MethodPMinus1:
		return "P-1"
	case MethodPPlus1:
		return "P+1"
	default:
		return "UNKNOWN"
	}
}

// ChecksumMod is the modulus (the largest prime below 2^32) the save-file
// checksum is computed under, matching gmp-ecm-resume.c's CHKSUMMOD.
const ChecksumMod uint32 = 4294967291

// Record is one checkpoint line: the residue, curve/modulus parameters, and the
// bookkeeping fields (program/who/time/comment) gmp-ecm-resume.c's
// write_resumefile_line emits alongside it.
type Record struct {
	Method Method

	X *big.Int
	Y *big.Int // nil if this method/residue has no second coordinate
	Z *big.Int // nil unless the residue is still in projective (un-normalized) form

	N *big.Int // the cofactor candidate being tested

	Sigma    *big.Int // ECM parametrization parameter (sigma form)
	A        *big.Int // ECM parametrization parameter (A form), mutually exclusive with Sigma
	SigmaIsA bool

	Param int // ECM_PARAM_*; -1 (ECM_PARAM_DEFAULT) if unset
	Etype int // elliptic curve form, only meaningful when SigmaIsA

	B1 float64 // stage 1 bound already completed

	Program string
	Who     string
	Time    string
	Comment string

	X0, Y0 *big.Int // original starting point, if batch/GPU mode shifted X/Y
}

// modResidue reduces x into [0, ChecksumMod) the way mpz_fdiv_ui does.
func modResidue(x *big.Int) uint64 {
	if x == nil {
		return 0
	}
	m := new(big.Int).Mod(x, big.NewInt(int64(ChecksumMod)))
	return m.Uint64()
}

// Checksum computes the save-file checksum for r, matching gmp-ecm-resume.c's
// formula: the product of B1, SIGMA (or A), N, X (and Z if present), and
// (PARAM+1), each reduced mod ChecksumMod.
func (r *Record) Checksum() uint32 {
	sum := uint64(r.B1) % uint64(ChecksumMod)
	if r.Sigma != nil {
		sum = (sum * modResidue(r.Sigma)) % uint64(ChecksumMod)
	}
	if r.A != nil {
		sum = (sum * modResidue(r.A)) % uint64(ChecksumMod)
	}
	sum = (sum * modResidue(r.N)) % uint64(ChecksumMod)
	sum = (sum * modResidue(r.X)) % uint64(ChecksumMod)
	if r.Z != nil {
		sum = (sum * modResidue(r.Z)) % uint64(ChecksumMod)
	}
	paramTerm := uint64(((r.Param + 1) % int(ChecksumMod)) + int(ChecksumMod))
	paramTerm %= uint64(ChecksumMod)
	sum = (sum * paramTerm) % uint64(ChecksumMod)
	return uint32(sum)
}
