//go:build arm64

package gwnum

// On arm64, register the NEON ImplID against the same portable math genericKernel
// implements, for the same reason kernel_amd64.go aliases SSE2/AVX2/AVX512: the
// capability cascade in shapes.go's bestImpl should still pick a non-generic ImplID
// on NEON-capable hardware even though hand-tuned NEON butterflies are out of scope
// for this module.
func init() {
	registerKernel(simdAliasKernel{id: ImplNEON})
}
