// Package conann provides conformal calibration for adaptive nearest-neighbor
// search over an inverted-file (IVF) index. See doc.go for an overview.
package conann

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soniahorchidan/conann/cache"
	"github.com/soniahorchidan/conann/eval"
	"github.com/soniahorchidan/conann/ivf"
	"github.com/soniahorchidan/conann/kspec"
	"github.com/soniahorchidan/conann/regselect"
	"github.com/soniahorchidan/conann/regularize"
	"github.com/soniahorchidan/conann/scorematrix"
	"github.com/soniahorchidan/conann/search"
	"github.com/soniahorchidan/conann/split"
	"github.com/soniahorchidan/conann/threshold"
	"github.com/soniahorchidan/conann/timereport"
)

// KSpec names either a single k shared by every query or a variable-k
// range each query draws its own k from.
type KSpec = kspec.Spec

// FixedK returns a KSpec with the same k for every query.
func FixedK(k int) KSpec { return kspec.Fixed(k) }

// VariableK returns a KSpec drawing each query's k from [min, max];
// CalibrateParams.GroundTruth rows must already carry that per-query k
// as their length (see dataset.BuildVariableK).
func VariableK(min, max int) KSpec { return kspec.Variable(min, max) }

// Driver orchestrates a full calibration run: build (or load from
// cache) the score matrix, split queries into calib/tune/test, pick a
// regularization strength on the tune split, optimize a threshold on
// the calib split, and return the CalibrationResult AdaptiveSearch and
// Evaluator need. One Driver is built per (quantizer, scanner, numLists)
// triple and can run any number of Calibrate/Search/EvaluateTest calls
// against it.
type Driver struct {
	quantizer ivf.Quantizer
	scanner   ivf.ListScanner
	numLists  int
	opts      options
}

// New builds a Driver against the given index capability interfaces.
// numLists must equal the number of lists quantizer.RankAllLists
// returns for every query.
func New(quantizer ivf.Quantizer, scanner ivf.ListScanner, numLists int, optFns ...Option) *Driver {
	opts := applyOptions(optFns)
	if opts.rateLimitBytes > 0 {
		if disk, ok := opts.cacheBackend.(*cache.DiskStore); ok {
			disk.SetWriteRateLimit(opts.rateLimitBytes)
		}
	}
	return &Driver{
		quantizer: quantizer,
		scanner:   scanner,
		numLists:  numLists,
		opts:      opts,
	}
}

// CalibrateParams bundles Calibrate's inputs. GroundTruth[q] is the set
// of true nearest-neighbor IDs for Queries[q]; for a VariableK KSpec,
// len(GroundTruth[q]) is also query q's k.
type CalibrateParams struct {
	Alpha       float64
	KSpec       KSpec
	CalibFrac   float64
	TuneFrac    float64
	Queries     [][]float32
	GroundTruth [][]int64
	MaxDistance float32
	Dataset     string
}

type groundTruthAdapter struct{ labels [][]int64 }

func (g groundTruthAdapter) Len() int          { return len(g.labels) }
func (g groundTruthAdapter) IsEmpty(q int) bool { return len(g.labels[q]) == 0 }

// Calibrate runs a full calibration pass and returns the resulting
// CalibrationResult along with a TimeReport recording how long each
// phase took.
func (d *Driver) Calibrate(ctx context.Context, p CalibrateParams) (CalibrationResult, *timereport.TimeReport, error) {
	report := timereport.New()
	stopTotal := report.Phase(&report.ConfigureTotal)
	defer stopTotal()

	logger := d.opts.logger.WithRunID(report.RunID)
	start := time.Now()

	result, err := d.calibrate(ctx, p, report, logger)
	d.opts.metrics.RecordCalibration(time.Since(start), err)
	if err != nil {
		logger.LogCalibration(ctx, p.Alpha, 0, 0, d.opts.kReg, err)
		return CalibrationResult{}, report, err
	}
	logger.LogCalibration(ctx, p.Alpha, result.Lamhat, result.RegLambda, result.KReg, nil)
	return result, report, nil
}

func (d *Driver) calibrate(ctx context.Context, p CalibrateParams, report *timereport.TimeReport, logger *Logger) (CalibrationResult, error) {
	if p.Alpha <= 0 || p.Alpha >= 1 {
		return CalibrationResult{}, ErrInvalidAlpha
	}
	if !(p.CalibFrac+p.TuneFrac > 0 && p.CalibFrac+p.TuneFrac < 1) {
		return CalibrationResult{}, ErrInvalidSplitFractions
	}
	if len(p.Queries) < 3 {
		return CalibrationResult{}, ErrTooFewQueries
	}
	if len(p.Queries) != len(p.GroundTruth) {
		return CalibrationResult{}, fmt.Errorf("conann: %d queries but %d ground-truth rows", len(p.Queries), len(p.GroundTruth))
	}

	gt := groundTruthAdapter{labels: p.GroundTruth}
	sp, err := split.Build(len(p.Queries), p.CalibFrac, p.TuneFrac, gt)
	if err != nil {
		return CalibrationResult{}, err
	}

	k, ks := ksFromSpec(p.KSpec, p.GroundTruth)

	scores, preds, err := d.computeOrLoadScores(ctx, p, k, ks, report, logger)
	if err != nil {
		return CalibrationResult{}, err
	}

	tuneScores, tunePreds, tuneGT := subsetRows(scores, preds, p.GroundTruth, sp.TuneIdx)
	calibScores, calibPreds, calibGT := subsetRows(scores, preds, p.GroundTruth, sp.CalibIdx)

	stopPick := report.Phase(&report.PickRegLambda)
	regResult, err := d.selectRegLambda(p.Alpha, tuneScores, tunePreds, tuneGT)
	stopPick()
	if err != nil {
		var degErr *regselect.ErrDegenerateCalibration
		if !errors.As(err, &degErr) {
			return CalibrationResult{}, err
		}
		logger.LogDegenerateCalibration(ctx, err.Error())
	}

	reg := regularize.New(d.opts.kReg)
	stopRegularize := report.Phase(&report.RegularizeScores)
	regularizedCalib := reg.Regularize(calibScores, d.numLists, float32(regResult.LambdaReg))
	stopRegularize()

	target := threshold.ConformalTarget(p.Alpha, len(regularizedCalib))
	opt := threshold.Optimizer{Scores: regularizedCalib, Preds: calibPreds, GroundTruth: calibGT, MaxIter: d.opts.maxOptimizerIters}

	stopOptimize := report.Phase(&report.Optimize)
	lamhat, err := opt.Solve(target)
	stopOptimize()
	if err != nil {
		// Brent always returns a usable lamhat alongside its error,
		// whether it ran out of iterations (ErrDidNotConverge) or
		// never found a sign change on [0, 1] (an empty or otherwise
		// degenerate calib split drives the miss-rate curve to the
		// same side at both endpoints). Neither aborts calibration;
		// both degrade to the Brent-returned lamhat.
		var convErr *threshold.ErrDidNotConverge
		if errors.As(err, &convErr) {
			logger.LogOptimizerWarning(ctx, err.Error())
		} else {
			logger.LogDegenerateCalibration(ctx, err.Error())
		}
	}

	return CalibrationResult{Lamhat: lamhat, KReg: d.opts.kReg, RegLambda: regResult.LambdaReg}, nil
}

// selectRegLambda runs RegLambdaSelector against regselect.Grid, or the
// Driver's own candidate grid when one was supplied via
// WithRegLambdaGrid.
func (d *Driver) selectRegLambda(alpha float64, tuneScores [][]float32, tunePreds [][][]int64, tuneGT [][]int64) (regselect.Result, error) {
	if len(d.opts.regLambdaGrid) == 0 {
		return regselect.Select(alpha, d.opts.kReg, d.numLists, tuneScores, tunePreds, tuneGT)
	}
	return regselect.SelectGrid(d.opts.regLambdaGrid, alpha, d.opts.kReg, d.numLists, tuneScores, tunePreds, tuneGT)
}

func ksFromSpec(spec KSpec, groundTruth [][]int64) (k int, ks []int) {
	if !spec.IsVariable() {
		return spec.K(), nil
	}
	ks = make([]int, len(groundTruth))
	for i, row := range groundTruth {
		ks[i] = len(row)
	}
	return 0, ks
}

func subsetRows(scores scorematrix.Matrix, preds scorematrix.Preds, groundTruth [][]int64, idx []int) ([][]float32, [][][]int64, [][]int64) {
	outScores := make([][]float32, len(idx))
	outPreds := make([][][]int64, len(idx))
	outGT := make([][]int64, len(idx))
	for i, qi := range idx {
		outScores[i] = scores[qi]
		outPreds[i] = preds[qi]
		outGT[i] = groundTruth[qi]
	}
	return outScores, outPreds, outGT
}

// computeOrLoadScores consults the configured cache backend before
// running ScoreMatrixBuilder, and writes the freshly-built tensors back
// to it on a cache miss.
func (d *Driver) computeOrLoadScores(ctx context.Context, p CalibrateParams, k int, ks []int, report *timereport.TimeReport, logger *Logger) (scorematrix.Matrix, scorematrix.Preds, error) {
	kspecVal := p.KSpec
	if d.opts.cacheBackend != nil {
		scoresKey := cache.Key(p.Dataset, d.numLists, kspecVal, cache.FieldScores)
		predsKey := cache.Key(p.Dataset, d.numLists, kspecVal, cache.FieldPreds)
		if d.opts.cacheBackend.Exists(scoresKey) && d.opts.cacheBackend.Exists(predsKey) {
			scores, err := d.opts.cacheBackend.ReadScores(scoresKey)
			if err == nil {
				preds, err := d.opts.cacheBackend.ReadPreds(predsKey)
				if err == nil {
					d.opts.metrics.RecordCacheHit()
					logger.LogCacheHit(ctx, scoresKey)
					return scores, preds, nil
				}
				d.opts.metrics.RecordCacheMiss()
				logger.LogCacheMiss(ctx, predsKey, err)
			} else {
				d.opts.metrics.RecordCacheMiss()
				logger.LogCacheMiss(ctx, scoresKey, err)
			}
		}
	}

	builder := scorematrix.Builder{
		Quantizer:      d.quantizer,
		Scanner:        d.scanner,
		NumLists:       d.numLists,
		K:              k,
		Ks:             ks,
		MaxDistance:    p.MaxDistance,
		MaxConcurrency: d.opts.numWorkers,
	}

	start := time.Now()
	stop := report.Phase(&report.ComputeScores)
	scores, preds, err := builder.Build(ctx, p.Queries)
	stop()
	d.opts.metrics.RecordScoreMatrixBuild(len(p.Queries), time.Since(start), err)
	logger.LogScoreMatrixBuild(ctx, "full", len(p.Queries), d.numLists, time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}

	if d.opts.cacheBackend != nil {
		scoresKey := cache.Key(p.Dataset, d.numLists, kspecVal, cache.FieldScores)
		predsKey := cache.Key(p.Dataset, d.numLists, kspecVal, cache.FieldPreds)
		if err := d.opts.cacheBackend.WriteScores(scoresKey, scores); err != nil {
			logger.LogCacheMiss(ctx, scoresKey, err)
		}
		if err := d.opts.cacheBackend.WritePreds(predsKey, preds); err != nil {
			logger.LogCacheMiss(ctx, predsKey, err)
		}
	}

	return scores, preds, nil
}

// ComputeScores exposes the cache-backed score matrix build Calibrate
// runs internally, for callers that need the raw (scores, preds) tensors
// directly — e.g. a harness replaying EvaluateTest against the test
// split, which Calibrate itself does not retain past its own call. When
// a cache backend is configured, a repeated call with the same
// (Dataset, NumLists, KSpec) hits the same cache entry Calibrate
// populated; without one, every call rebuilds the matrices.
func (d *Driver) ComputeScores(ctx context.Context, p CalibrateParams) (scorematrix.Matrix, scorematrix.Preds, error) {
	report := timereport.New()
	logger := d.opts.logger.WithRunID(report.RunID)
	k, ks := ksFromSpec(p.KSpec, p.GroundTruth)
	return d.computeOrLoadScores(ctx, p, k, ks, report, logger)
}

// Split exposes the calib/tune/test query-index partition Calibrate
// computes internally, so a caller can subset ComputeScores's output
// into the same test split EvaluateTest expects.
func (d *Driver) Split(p CalibrateParams) (split.Split, error) {
	gt := groundTruthAdapter{labels: p.GroundTruth}
	return split.Build(len(p.Queries), p.CalibFrac, p.TuneFrac, gt)
}

// Search runs the calibrated, threshold-gated adaptive scan for one
// query against the Driver's index, using the threshold and
// regularization parameters from a prior Calibrate call.
func (d *Driver) Search(ctx context.Context, query []float32, k int, maxDistance float32, result CalibrationResult) (search.Result, error) {
	start := time.Now()
	s := search.Searcher{
		Quantizer:   d.quantizer,
		Scanner:     d.scanner,
		NumLists:    d.numLists,
		K:           k,
		MaxDistance: maxDistance,
	}
	res, err := s.Search(query, search.Params{
		Lamhat:    result.Lamhat,
		KReg:      result.KReg,
		LambdaReg: result.RegLambda,
	})
	if err == nil && res.ProbesUsed == 0 {
		err = ErrNoAdmittedList
	}
	d.opts.metrics.RecordSearch(res.ProbesUsed, time.Since(start), err)
	d.opts.logger.LogSearch(ctx, res.ProbesUsed, len(res.IDs), err)
	return res, err
}

// EvaluateTest replays a calibration offline against cached test-split
// scores/preds, without touching the live index.
func (d *Driver) EvaluateTest(rawScores [][]float32, preds [][][]int64, groundTruth [][]int64, result CalibrationResult) eval.Result {
	e := eval.Evaluator{KReg: result.KReg, LambdaReg: result.RegLambda}
	return e.EvaluateTest(rawScores, preds, groundTruth, d.numLists, result.Lamhat)
}
