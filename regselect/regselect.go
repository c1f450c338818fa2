// Package regselect picks a regularization strength lambda_reg by grid
// search on the tuning split: for each candidate, calibrate a threshold
// against the conformal target on that split, then keep whichever
// candidate gives the lowest mean clusters-probed while still meeting
// the (unadjusted) target miss-rate alpha.
package regselect

import (
	"errors"

	"github.com/soniahorchidan/conann/regularize"
	"github.com/soniahorchidan/conann/threshold"
)

// Grid is the regularization strengths tried, in the order the original
// implementation tries them.
var Grid = []float64{0, 1e-3, 1e-2, 1e-1}

// ErrDegenerateCalibration is returned when no grid candidate keeps the
// tuning-split mean miss-rate at or below alpha. Callers should fall
// back to lambda_reg = 0 and proceed; the calibration guarantee becomes
// best-effort rather than failing the run outright.
type ErrDegenerateCalibration struct {
	Alpha float64
}

func (e *ErrDegenerateCalibration) Error() string {
	return "regselect: no candidate lambda_reg met the alpha constraint on the tune split"
}

// Result is the chosen regularization strength plus the threshold that
// was calibrated against it, so a caller doesn't need to re-run
// threshold.Optimizer for the winning candidate.
type Result struct {
	LambdaReg float64
	Lamhat    float64
}

// Select grid-searches Grid on the tune split's raw scores/preds,
// regularizing with kReg for each candidate, calibrating a threshold
// against the conformal target, then keeping the candidate with the
// lowest mean clusters-probed among those whose mean miss-rate (at the
// raw alpha, not the conformal target) is <= alpha. Falls back to
// lambda_reg = 0 with ErrDegenerateCalibration if none qualify.
func Select(alpha float64, kReg, numLists int, tuneRawScores [][]float32, tunePreds [][][]int64, tuneGroundTruth [][]int64) (Result, error) {
	return SelectGrid(Grid, alpha, kReg, numLists, tuneRawScores, tunePreds, tuneGroundTruth)
}

// SelectGrid is Select with a caller-supplied candidate grid in place
// of the package default Grid.
func SelectGrid(grid []float64, alpha float64, kReg, numLists int, tuneRawScores [][]float32, tunePreds [][][]int64, tuneGroundTruth [][]int64) (Result, error) {
	reg := regularize.New(kReg)
	target := threshold.ConformalTarget(alpha, len(tuneRawScores))

	bestProbes := float64(numLists) + 1
	best := Result{}
	found := false

	for _, lambdaReg := range grid {
		regularized := reg.Regularize(tuneRawScores, numLists, float32(lambdaReg))

		opt := threshold.Optimizer{Scores: regularized, Preds: tunePreds, GroundTruth: tuneGroundTruth}
		lamhat, err := opt.Solve(target)
		if err != nil && !isDidNotConverge(err) {
			continue
		}

		preds := threshold.ComputePredictions(float32(lamhat), regularized, tunePreds)
		missRate := threshold.MeanMissRate(preds, tuneGroundTruth)
		avgProbes := meanClustersSearched(preds)

		if missRate <= alpha && avgProbes < bestProbes {
			bestProbes = avgProbes
			best = Result{LambdaReg: lambdaReg, Lamhat: lamhat}
			found = true
		}
	}

	if !found {
		return Result{LambdaReg: 0, Lamhat: 0}, &ErrDegenerateCalibration{Alpha: alpha}
	}
	return best, nil
}

func isDidNotConverge(err error) bool {
	var convErr *threshold.ErrDidNotConverge
	return errors.As(err, &convErr)
}

func meanClustersSearched(preds []threshold.Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range preds {
		sum += float64(p.ClustersSearched)
	}
	return sum / float64(len(preds))
}
