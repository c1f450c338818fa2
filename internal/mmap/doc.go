// Package mmap provides read-only memory-mapped access to cached score and
// prediction matrices.
//
// # Overview
//
// A calibration run over a large N x L score matrix can produce cache blocks
// in the hundreds of megabytes. Mapping the cache file instead of copying it
// into a []byte buffer on every replay (a tune-split scan, an eval-split
// replay) avoids doubling that memory per hit.
//
// # Usage
//
//	m, err := mmap.Open("conann-cache/sift1m_100_k10_scores")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//
//	region, _ := m.Region(offset, size)
//
//	m.Advise(mmap.AccessSequential)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (madvise is a no-op)
//
// # Thread Safety
//
// Mapping and Region are safe for concurrent read access. Close is
// idempotent and protected by atomic operations. Callers must ensure no
// goroutines access Bytes() after Close() returns.
package mmap
