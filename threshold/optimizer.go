package threshold

// Prediction is the admitted ID set for one query at whichever list's
// regularized cost the threshold lambda allowed, plus how many lists
// were probed to get there. ClustersSearched is -1 when no list's cost
// fell under lambda, matching the original's "empty prediction"
// sentinel.
type Prediction struct {
	IDs              []int64
	ClustersSearched int
}

// ComputePredictions admits, for every query, every list whose
// regularized cost is <= lambda, then returns the snapshot from preds
// at the admitted list with the largest (closest-to-lambda) cost — the
// deepest probe the budget affords. scores and preds are indexed by
// list id (see scorematrix.Matrix), not probe rank, so ClustersSearched
// is computed as the admitted count rather than an index: it equals the
// winning list's probe rank + 1 only because the regularized
// construction guarantees cost is non-decreasing in probe rank. scores
// and preds must have one row per query.
func ComputePredictions(lambda float32, scores [][]float32, preds [][][]int64) []Prediction {
	out := make([]Prediction, len(scores))
	for qi, row := range scores {
		bestList := -1
		bestVal := float32(-1)
		admitted := 0
		for listID, v := range row {
			if v <= lambda {
				admitted++
				if bestList < 0 || v > bestVal {
					bestVal = v
					bestList = listID
				}
			}
		}
		if bestList >= 0 {
			out[qi] = Prediction{IDs: preds[qi][bestList], ClustersSearched: admitted}
		} else {
			out[qi] = Prediction{IDs: nil, ClustersSearched: -1}
		}
	}
	return out
}

// MissRatePerQuery returns 1 - |predicted ∩ groundTruth| / |groundTruth|
// for each query. A query with an empty ground truth set contributes 0.
func MissRatePerQuery(predictions []Prediction, groundTruth [][]int64) []float64 {
	out := make([]float64, len(predictions))
	for i, p := range predictions {
		gt := groundTruth[i]
		if len(gt) == 0 {
			continue
		}
		gtSet := make(map[int64]struct{}, len(gt))
		for _, id := range gt {
			gtSet[id] = struct{}{}
		}
		hits := 0
		for _, id := range p.IDs {
			if _, ok := gtSet[id]; ok {
				hits++
			}
		}
		out[i] = 1 - float64(hits)/float64(len(gt))
	}
	return out
}

// MeanMissRate averages MissRatePerQuery.
func MeanMissRate(predictions []Prediction, groundTruth [][]int64) float64 {
	rates := MissRatePerQuery(predictions, groundTruth)
	if len(rates) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rates {
		sum += r
	}
	return sum / float64(len(rates))
}

// ConformalTarget is the finite-sample-corrected miss-rate target
// alpha' = (n+1)/n*alpha - 1/(n+1), n the calibration split size.
func ConformalTarget(alpha float64, n int) float64 {
	fn := float64(n)
	return (fn+1)/fn*alpha - 1/(fn+1)
}

// Optimizer solves for lamhat such that MeanMissRate(lamhat) equals a
// conformal target miss-rate on a fixed (scores, preds, groundTruth)
// triple.
type Optimizer struct {
	Scores      [][]float32
	Preds       [][][]int64
	GroundTruth [][]int64
	// MaxIter bounds Brent's method's iteration budget. <= 0 uses the
	// package default.
	MaxIter int
}

// Solve runs Brent's method on [0, 1] against the miss-rate target
// function. A DidNotConverge error still carries a usable lamhat.
func (o Optimizer) Solve(targetMissRate float64) (float64, error) {
	f := func(lambda float64) float64 {
		preds := ComputePredictions(float32(lambda), o.Scores, o.Preds)
		return MeanMissRate(preds, o.GroundTruth) - targetMissRate
	}
	lamhat, err := BrentN(f, 0, 1, o.MaxIter)
	return lamhat, err
}
