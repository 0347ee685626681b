// Package gwnum implements a floating-point Discrete Weighted Transform (DWT/IBDWT)
// multiplication engine for numbers of the form k*b^n+c (special form) and arbitrary
// large integers (general form).
//
// A Handle coordinates one modulus: it picks an FFT length and transform shape, builds
// weight and normalization tables, starts a worker pool, and exposes an arithmetic
// facade (Mul3, Add3, MulAdd4, ...) operating on Value, a transform-domain vector.
package gwnum
