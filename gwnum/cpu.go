package gwnum

import (
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// CPUCaps is the capability mask the shape selector and kernel dispatch table use to
// pick a transform shape and implementation. It is detected once at package init from
// cpuid.CPU, the same way reedsolomon's defaultOptions populates useAVX2/useSSE2/...
// from cpuid.CPU.Supports at package init.
type CPUCaps struct {
	HasAVX512 bool
	HasAVX2   bool
	HasFMA    bool
	HasSSE2   bool
	HasNEON   bool

	// CacheLineBytes and L2Bytes record the detected cache geometry. Nothing in
	// this package reads them: weight tables are plain per-word slices with no
	// padding stride or cache-line interleaving.
	CacheLineBytes int
	L2Bytes        int
}

var detectedCaps = detectCPU()

func detectCPU() CPUCaps {
	c := CPUCaps{
		HasAVX512: cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ, cpuid.AVX512VL),
		HasAVX2:   cpuid.CPU.Supports(cpuid.AVX2),
		HasFMA:    cpuid.CPU.Supports(cpuid.FMA3),
		HasSSE2:   cpuid.CPU.Supports(cpuid.SSE2),
		HasNEON:   cpuid.CPU.Supports(cpuid.ASIMD),

		CacheLineBytes: 64,
		L2Bytes:        cpuid.CPU.Cache.L2,
	}
	if c.CacheLineBytes <= 0 {
		c.CacheLineBytes = 64
	}
	if c.L2Bytes <= 0 {
		c.L2Bytes = 256 * 1024
	}
	return c
}

// DetectCPU returns the process-wide detected CPU capability mask.
func DetectCPU() CPUCaps { return detectedCaps }

// WithCPUCaps overrides the process-wide capability mask for the duration of test
// setup, mirroring reedsolomon's WithAVX2/WithSSE2/... functional options that force
// a feature on or off regardless of what cpuid reports (used on CI runners that lack
// the instruction, or to exercise a narrower code path deterministically).
func WithCPUCaps(c CPUCaps) { detectedCaps = c }

// String renders the enabled feature set in the order SSE2, AVX2, FMA, AVX512, NEON,
// e.g. "SSE2,AVX2,FMA", or "pure Go" when nothing beyond the scalar fallback is
// available.
func (c CPUCaps) String() string {
	var res []string
	if c.HasSSE2 {
		res = append(res, "SSE2")
	}
	if c.HasAVX2 {
		res = append(res, "AVX2")
	}
	if c.HasFMA {
		res = append(res, "FMA")
	}
	if c.HasAVX512 {
		res = append(res, "AVX512")
	}
	if c.HasNEON {
		res = append(res, "NEON")
	}
	if len(res) == 0 {
		return "pure Go"
	}
	return strings.Join(res, ",")
}
