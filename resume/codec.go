package resume

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ReadLine reads and parses the next save-file line from r, skipping blank lines
// and '#'-prefixed comment lines, following gmp-ecm-resume.c's
// read_resumefile_line. It returns io.EOF once no further assignment line remains.
//
// A line with a bad checksum is not an error: it is skipped, matching the
// original's "continue" behavior, and the next line is tried. Callers that must
// know a line was rejected should use ReadLineStrict.
func ReadLine(r *bufio.Reader) (*Record, error) {
	for {
		rec, ok, err := readOneLine(r)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		return rec, nil
	}
}

// ReadLineStrict behaves like ReadLine but returns an error instead of silently
// skipping a line whose checksum does not match.
func ReadLineStrict(r *bufio.Reader) (*Record, error) {
	rec, ok, err := readOneLine(r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newBadChecksumErr()
	}
	return rec, nil
}

func newBadChecksumErr() error { return fmt.Errorf("resume: save file line has a bad checksum") }

func readOneLine(r *bufio.Reader) (rec *Record, ok bool, err error) {
	for {
		line, err := r.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			if err != nil {
				return nil, false, io.EOF
			}
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(trimmed), "#") {
			if err != nil {
				return nil, false, io.EOF
			}
			continue
		}

		rec, matched, perr := parseLine(trimmed)
		if perr != nil {
			// malformed line: skip it and try the next one, mirroring the
			// original's goto-error-then-continue control flow.
			if err != nil {
				return nil, false, io.EOF
			}
			continue
		}
		return rec, matched, nil
	}
}

// parseLine parses one semicolon-delimited "TAG=value" line into a Record, and
// reports whether the checksum (if present) matched.
func parseLine(line string) (*Record, bool, error) {
	rec := &Record{Param: -1}
	haveMethod, haveX, haveN, haveB1, haveSigma, haveA, haveChecksum, haveQX := false, false, false, false, false, false, false, false
	var savedChecksum uint32

	fields := splitFields(line)
	for _, f := range fields {
		eq := strings.IndexByte(f, '=')
		if eq < 0 {
			continue
		}
		tag := strings.TrimSpace(f[:eq])
		val := strings.TrimSpace(f[eq+1:])

		switch tag {
		case "METHOD":
			switch val {
			case "ECM":
				rec.Method = MethodECM
			case "P-1":
				rec.Method = MethodPMinus1
			case "P+1":
				rec.Method = MethodPPlus1
			default:
				return nil, false, fmt.Errorf("resume: unknown METHOD %q", val)
			}
			haveMethod = true
		case "X":
			rec.X = parseBig(val)
			haveX = true
		case "QX":
			rec.X = parseBig(val)
			haveQX = true
		case "Y":
			rec.Y = parseBig(val)
		case "Z":
			rec.Z = parseBig(val)
		case "X0":
			rec.X0 = parseBig(val)
		case "Y0":
			rec.Y0 = parseBig(val)
		case "N":
			rec.N = parseBig(val)
			haveN = true
		case "SIGMA":
			rec.Sigma = parseBig(val)
			haveSigma = true
		case "A":
			rec.A = parseBig(val)
			rec.SigmaIsA = true
			haveA = true
		case "PARAM":
			n, _ := strconv.Atoi(val)
			rec.Param = n
		case "ETYPE":
			n, _ := strconv.Atoi(val)
			rec.Etype = n
		case "B1":
			n, _ := strconv.ParseFloat(val, 64)
			rec.B1 = n
			haveB1 = true
		case "CHECKSUM":
			n, _ := strconv.ParseUint(val, 10, 32)
			savedChecksum = uint32(n)
			haveChecksum = true
		case "PROGRAM":
			rec.Program = val
		case "WHO":
			rec.Who = val
		case "TIME":
			rec.Time = val
		case "COMMENT":
			rec.Comment = val
		}
	}

	// Prime95 v22 compatibility: QX=/SIGMA=/N= with no METHOD= means an ECM line.
	if haveQX {
		if !haveN || !haveSigma {
			return nil, false, fmt.Errorf("resume: QX line missing N or SIGMA")
		}
		rec.Method = MethodECM
		rec.Program = "Prime95"
		rec.X.Mod(rec.X, rec.N)
		return rec, true, nil
	}

	if !haveMethod || !haveX || !haveN || !haveB1 || (rec.Method == MethodECM && !haveSigma && !haveA) {
		return nil, false, fmt.Errorf("resume: save file line lacks required fields")
	}

	if haveChecksum {
		if rec.Checksum() != savedChecksum {
			return rec, false, nil
		}
	}

	rec.X.Mod(rec.X, rec.N)
	if rec.Y != nil {
		rec.Y.Mod(rec.Y, rec.N)
	}
	if rec.Z != nil {
		zinv := new(big.Int).ModInverse(rec.Z, rec.N)
		if zinv != nil {
			rec.X.Mul(rec.X, zinv)
			rec.X.Mod(rec.X, rec.N)
		}
	}

	return rec, true, nil
}

func parseBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return new(big.Int)
	}
	return v
}

// splitFields splits a line on ';' the way the tag loop in
// read_resumefile_line implicitly does, tolerating a missing trailing
// semicolon on the final field (legacy Prime95 lines omit it after SIGMA).
func splitFields(line string) []string {
	parts := strings.Split(line, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WriteLine appends rec to w as one save-file line, in the field order
// write_resumefile_line uses: METHOD, [PARAM], SIGMA or ETYPE/A, B1, N, X,
// CHECKSUM, PROGRAM, then the optional Y/X0/Y0/WHO/COMMENT fields and TIME, which is
// always written (stamped with the current time when rec.Time is empty).
func WriteLine(w io.Writer, rec *Record) error {
	var b strings.Builder

	fmt.Fprintf(&b, "METHOD=%s", rec.Method)
	if rec.Method == MethodECM {
		if rec.SigmaIsA {
			fmt.Fprintf(&b, "; ETYPE=%d; A=%s", rec.Etype, bigStr(rec.A))
		} else {
			if rec.Param != -1 {
				fmt.Fprintf(&b, "; PARAM=%d", rec.Param)
			}
			fmt.Fprintf(&b, "; SIGMA=%s", bigStr(rec.Sigma))
		}
	}
	fmt.Fprintf(&b, "; B1=%.0f; N=%s", rec.B1, bigStr(rec.N))
	fmt.Fprintf(&b, "; X=0x%s", hexStr(rec.X))
	fmt.Fprintf(&b, "; CHECKSUM=%d; PROGRAM=%s;", rec.Checksum(), rec.Program)

	if rec.Y != nil {
		fmt.Fprintf(&b, " Y=0x%s;", hexStr(rec.Y))
	}
	if rec.X0 != nil {
		fmt.Fprintf(&b, " X0=0x%s;", hexStr(rec.X0))
	}
	if rec.Y0 != nil {
		fmt.Fprintf(&b, " Y0=0x%s;", hexStr(rec.Y0))
	}
	if rec.Who != "" {
		fmt.Fprintf(&b, " WHO=%s;", rec.Who)
	}
	if rec.Comment != "" {
		fmt.Fprintf(&b, " COMMENT=%s;", rec.Comment)
	}

	stamp := rec.Time
	if stamp == "" {
		stamp = time.Now().Format(time.ANSIC)
	}
	fmt.Fprintf(&b, " TIME=%s;\n", stamp)

	_, err := io.WriteString(w, b.String())
	return err
}

func bigStr(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.String()
}

func hexStr(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.Text(16)
}

// AppendRecord opens path for append (creating it if necessary), takes an
// advisory exclusive lock so concurrent worker processes can append safely
// (spec 4.8's "advisory locking for concurrent append", see lock_unix.go /
// lock_windows.go), writes rec as one line, and releases the lock.
func AppendRecord(path string, rec *Record) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open save file for append")
	}
	defer f.Close()

	if err := lockExclusive(f); err != nil {
		return errors.Wrap(err, "lock save file")
	}
	defer unlockFile(f)

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return errors.Wrap(err, "seek to end of save file")
	}
	return errors.Wrap(WriteLine(f, rec), "write save file line")
}
