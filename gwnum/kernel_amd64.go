//go:build amd64

package gwnum

// On amd64, register the SSE2/AVX2/AVX512 ImplIDs against the same portable math
// genericKernel already implements. This keeps SelectShape's capability cascade
// (shapes.go's bestImpl) meaningful today — it picks the richest ImplID the CPU
// advertises — while leaving the actual hand-tuned butterfly/carry kernels as
// follow-up work scoped to specific instruction sets, same as spec section 1
// excludes hand-written SIMD assembly from this module's Non-goals.
func init() {
	registerKernel(simdAliasKernel{id: ImplSSE2})
	registerKernel(simdAliasKernel{id: ImplAVX2})
	registerKernel(simdAliasKernel{id: ImplAVX512})
}
