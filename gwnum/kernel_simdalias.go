package gwnum

// simdAliasKernel reports a non-generic ImplID so the dispatch table and shape
// selector exercise the full capability cascade on architectures that advertise
// SIMD features, while deferring every actual transform call to genericKernel.
// Registered for specific ImplIDs from kernel_amd64.go / kernel_arm64.go.
type simdAliasKernel struct{ id ImplID }

func (k simdAliasKernel) Impl() ImplID { return k.id }

func (k simdAliasKernel) Forward(words []int64, wt *WeightTable, tt TransformType) []complex128 {
	return genericKernel{}.Forward(words, wt, tt)
}

func (k simdAliasKernel) Inverse(freq []complex128, tt TransformType) []float64 {
	return genericKernel{}.Inverse(freq, tt)
}

func (k simdAliasKernel) PointwiseMul(a, b []complex128) []complex128 {
	return genericKernel{}.PointwiseMul(a, b)
}

func (k simdAliasKernel) PointwiseSquare(a []complex128) []complex128 {
	return genericKernel{}.PointwiseSquare(a)
}
