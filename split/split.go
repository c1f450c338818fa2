// Package split partitions a query set into calibration, tuning, and
// test slices by deterministic index ranges, the way CalibrationDriver
// needs it before ThresholdOptimizer and RegLambdaSelector ever run.
package split

import "fmt"

// Split holds the three disjoint, index-contiguous query ranges a
// CalibrationDriver run operates on. Calib comes first, then Tune, then
// whatever remains is Test — matching the source's sequential
// calib/tune/test layout rather than a shuffled partition, so repeated
// runs over the same queries are reproducible without needing to track
// an RNG seed.
type Split struct {
	CalibIdx []int
	TuneIdx  []int
	TestIdx  []int
}

// GroundTruth reports how many queries there are (Len) and whether query
// q's ground-truth ID set is empty (IsEmpty). An implementation backed by
// a fixed-k or variable-k ground-truth table satisfies this directly.
type GroundTruth interface {
	Len() int
	IsEmpty(q int) bool
}

// Build partitions nq query indices into calib/tune/test by fraction,
// in index order, then drops any query whose ground truth is empty
// from whichever split it landed in. calibFrac+tuneFrac must be in
// (0, 1); the remainder becomes the test split.
func Build(nq int, calibFrac, tuneFrac float64, gt GroundTruth) (Split, error) {
	if nq < 3 {
		return Split{}, fmt.Errorf("split: need at least 3 queries, got %d", nq)
	}
	if !(calibFrac+tuneFrac > 0 && calibFrac+tuneFrac < 1) {
		return Split{}, fmt.Errorf("split: calib_frac+tune_frac must be in (0,1), got %f", calibFrac+tuneFrac)
	}

	calibN := int(calibFrac * float64(nq))
	tuneN := int(tuneFrac * float64(nq))

	s := Split{}
	for i := 0; i < calibN; i++ {
		if !gt.IsEmpty(i) {
			s.CalibIdx = append(s.CalibIdx, i)
		}
	}
	for i := calibN; i < calibN+tuneN; i++ {
		if !gt.IsEmpty(i) {
			s.TuneIdx = append(s.TuneIdx, i)
		}
	}
	for i := calibN + tuneN; i < nq; i++ {
		if !gt.IsEmpty(i) {
			s.TestIdx = append(s.TestIdx, i)
		}
	}
	return s, nil
}
