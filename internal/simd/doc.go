// Package simd provides the float32/byte vector kernels the distance
// package builds on: dot product, squared L2, Hamming distance, square
// root, and in-place scaling.
//
// The wider vecgo SIMD kernel set (AVX-512/NEON assembly dispatch,
// quantized PQ/SQ8/INT4 kernels, batch variants, bitmap/filter helpers)
// has no caller in this module and was trimmed; see DESIGN.md. What
// remains is the generic Go fallback, unconditionally.
package simd
