// Package eval replays calibration offline against cached test-split
// scores and predictions, without touching the live index: given a
// calibrated threshold, it re-regularizes the cached raw scores and
// reports per-query miss-rate and clusters-probed.
package eval

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/soniahorchidan/conann/regularize"
	"github.com/soniahorchidan/conann/threshold"
)

// Evaluator re-regularizes cached test-split scores with a fixed
// (k_reg, lambda_reg) pair before evaluating a calibrated threshold.
type Evaluator struct {
	KReg      int
	LambdaReg float64
}

// QueryResult is one test query's outcome under a calibrated threshold.
type QueryResult struct {
	MissRate       float64
	ClustersProbed int
	// Admitted holds the list ids ℓ with E_q[ℓ] <= lamhat, i.e. pi_q(lamhat).
	Admitted *roaring.Bitmap
}

// Result aggregates per-query outcomes over the test split.
type Result struct {
	PerQuery           []QueryResult
	MeanMissRate       float64
	MeanClustersProbed float64
}

// EvaluateTest re-regularizes rawScores with (e.KReg, e.LambdaReg), then
// for every test query resolves the admitted set pi_q(lamhat) and its
// maximum-cost list's preds snapshot as the predicted neighbors,
// reporting miss-rate and clusters-probed per query.
func (e Evaluator) EvaluateTest(rawScores [][]float32, preds [][][]int64, groundTruth [][]int64, numLists int, lamhat float64) Result {
	reg := regularize.New(e.KReg)
	regularized := reg.Regularize(rawScores, numLists, float32(e.LambdaReg))

	predictions := threshold.ComputePredictions(float32(lamhat), regularized, preds)
	missRates := threshold.MissRatePerQuery(predictions, groundTruth)

	perQuery := make([]QueryResult, len(regularized))
	sumMiss, sumProbes := 0.0, 0.0
	for qi, row := range regularized {
		perQuery[qi] = QueryResult{
			MissRate:       missRates[qi],
			ClustersProbed: predictions[qi].ClustersSearched,
			Admitted:       admittedSet(row, float32(lamhat)),
		}
		sumMiss += missRates[qi]
		sumProbes += float64(predictions[qi].ClustersSearched)
	}

	n := float64(len(perQuery))
	result := Result{PerQuery: perQuery}
	if n > 0 {
		result.MeanMissRate = sumMiss / n
		result.MeanClustersProbed = sumProbes / n
	}
	return result
}

func admittedSet(regularizedRow []float32, lamhat float32) *roaring.Bitmap {
	bm := roaring.New()
	for listID, cost := range regularizedRow {
		if cost <= lamhat {
			bm.Add(uint32(listID))
		}
	}
	return bm
}
