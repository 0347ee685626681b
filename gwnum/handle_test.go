package gwnum

import (
	"fmt"
	"strings"
	"testing"
)

func TestSetThreadsRejectsNonPositive(t *testing.T) {
	h := New()
	err := h.SetThreads(0)
	if ge, ok := err.(*GwError); !ok || ge.Kind != ErrZeroThreads {
		t.Fatalf("SetThreads(0) = %v, want ErrZeroThreads", err)
	}
	if err := h.SetThreads(-1); err == nil {
		t.Errorf("SetThreads(-1) should fail")
	}
}

func TestSetThreadsRejectedAfterSetup(t *testing.T) {
	h := newMersenneHandle(t, 7)
	defer h.Done()
	if err := h.SetThreads(2); err == nil {
		t.Errorf("SetThreads after Setup* should fail")
	}
}

func TestSetupSpecialRejectsDoubleInit(t *testing.T) {
	h := newMersenneHandle(t, 7)
	defer h.Done()
	if err := h.SetupSpecial(1, 2, 7, -1); err == nil {
		t.Errorf("second SetupSpecial call should fail")
	}
}

func TestCloneBeforeInitFails(t *testing.T) {
	h := New()
	if _, err := h.Clone(); err == nil {
		t.Errorf("Clone before Setup* should fail")
	} else if ge, ok := err.(*GwError); !ok || ge.Kind != ErrNoInit {
		t.Errorf("Clone before Setup* = %v, want ErrNoInit", err)
	}
}

func TestMul3RejectsForeignValue(t *testing.T) {
	h1 := newMersenneHandle(t, 7)
	defer h1.Done()
	h2 := newMersenneHandle(t, 13)
	defer h2.Done()

	a := valueOf(t, h1, 3)
	b := valueOf(t, h2, 4)
	if _, err := h1.Mul3(a, b, 0); err == nil {
		t.Errorf("Mul3 across unrelated Handles should fail")
	}
}

func TestDoneIsIdempotent(t *testing.T) {
	h := newMersenneHandle(t, 7)
	h.Done()
	h.Done() // must not panic
}

func TestNewWithVersionRejectsMismatch(t *testing.T) {
	if _, err := NewWithVersion("0.0.1-nonexistent"); err == nil {
		t.Errorf("NewWithVersion with a mismatched version should fail")
	} else if ge, ok := err.(*GwError); !ok || ge.Kind != ErrVersionMismatch {
		t.Errorf("NewWithVersion mismatch = %v, want ErrVersionMismatch", err)
	}
	if _, err := NewWithVersion(Version); err != nil {
		t.Errorf("NewWithVersion(Version) should succeed, got %v", err)
	}
	if _, err := NewWithVersion(""); err != nil {
		t.Errorf("NewWithVersion(\"\") should skip the check, got %v", err)
	}
}

func TestHandleStringContainsShape(t *testing.T) {
	h := newMersenneHandle(t, 7)
	defer h.Done()
	s := h.String()
	if s == "" {
		t.Errorf("Handle.String() should not be empty")
	}
	if want := fmt.Sprintf("shape=%d/%s", h.Shape.Length, h.Shape.Type); !strings.Contains(s, want) {
		t.Errorf("Handle.String() = %q, want it to contain %q", s, want)
	}
}
