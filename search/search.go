// Package search implements the steady-state, calibrated query path:
// probe lists in coarse-quantizer rank order, stop as soon as the
// regularized cost of the current probe would exceed a calibrated
// threshold, and return the top-k admitted at the last probe that
// stayed under it.
package search

import (
	"fmt"

	"github.com/soniahorchidan/conann/ivf"
)

// Params is the subset of a calibration result AdaptiveSearch needs at
// query time. It mirrors conann.CalibrationResult without importing the
// root package, so search has no dependency on the orchestration layer
// that produces these numbers.
type Params struct {
	Lamhat    float64
	KReg      int
	LambdaReg float64
}

// Searcher runs AdaptiveSearch against one quantizer/scanner pair.
type Searcher struct {
	Quantizer ivf.Quantizer
	Scanner   ivf.ListScanner
	NumLists  int
	K         int
	// MaxDistance must match the value scorematrix.Builder used to
	// produce the scores the Params were calibrated against; otherwise
	// the calibration guarantee does not hold at query time.
	MaxDistance float32
}

// Result is the outcome of one AdaptiveSearch call.
type Result struct {
	// IDs and Distances are parallel, ascending-distance ordered. Both
	// are nil if the very first probe already exceeded the threshold.
	IDs       []int64
	Distances []float32
	// ProbesUsed is how many lists were probed before stopping.
	ProbesUsed int
}

// Search runs the adaptive, threshold-gated scan described by spec
// section 4.7: probe lists in rank order, and as soon as a probe's
// regularized cost exceeds params.Lamhat, roll the heap back to its
// state after the previous probe and stop.
func (s Searcher) Search(query []float32, params Params) (Result, error) {
	ranked, err := s.Quantizer.RankAllLists(query)
	if err != nil {
		return Result{}, err
	}
	if len(ranked) != s.NumLists {
		return Result{}, fmt.Errorf("search: quantizer ranked %d lists, want %d", len(ranked), s.NumLists)
	}

	kReg := params.KReg
	if kReg <= 0 {
		kReg = 1
	}
	m := (1 + float32(params.LambdaReg)*float32(s.NumLists-kReg)) + 10
	lamhat := float32(params.Lamhat)

	heap := ivf.NewTopKHeap(s.K)
	var snapshot ivf.Heap
	probesUsed := 0

	for r, rl := range ranked {
		if err := s.Scanner.ScanList(rl.ListID, query, heap); err != nil {
			return Result{}, err
		}

		rawS := float32(0)
		if s.MaxDistance > 0 {
			rawS = heap.TopDistance() / s.MaxDistance
			if rawS > 1 {
				rawS = 1
			}
		}
		penalty := float32(0)
		if gap := float32(r + 1 - kReg); gap > 0 {
			penalty = float32(params.LambdaReg) * gap
		}
		eCurrent := ((1 - rawS) + penalty) / m

		if eCurrent > lamhat {
			if snapshot == nil {
				return Result{}, nil
			}
			return resultFromHeap(snapshot, probesUsed), nil
		}

		probesUsed = r + 1
		snapshot = heap.Clone()
	}

	return resultFromHeap(snapshot, probesUsed), nil
}

func resultFromHeap(h ivf.Heap, probesUsed int) Result {
	if h == nil {
		return Result{ProbesUsed: probesUsed}
	}
	sorted := h.Sorted()
	ids := make([]int64, len(sorted))
	dists := make([]float32, len(sorted))
	for i, sc := range sorted {
		ids[i] = sc.ID
		dists[i] = sc.Distance
	}
	return Result{IDs: ids, Distances: dists, ProbesUsed: probesUsed}
}
