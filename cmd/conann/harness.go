package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/soniahorchidan/conann/distance"
	"github.com/soniahorchidan/conann/ivf"
	"github.com/soniahorchidan/conann/timereport"
)

// kmeansMaxIter bounds Lloyd's algorithm when training the reference
// flat index's coarse quantizer; the original harness left this
// implicit in FAISS's default clustering parameters.
const kmeansMaxIter = 25

func flatten(rows [][]float32, dim int) []float32 {
	out := make([]float32, 0, len(rows)*dim)
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

func sequentialIDs(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i)
	}
	return ids
}

// buildIndex trains and populates a FlatIndex over every row in rows.
// The original harness trained its coarse quantizer on half the
// database as a FAISS-specific training-set-size optimization;
// ivf.FlatIndex's reference Lloyd's-algorithm quantizer trains and
// assigns in one pass, so it is trained on the same set it indexes.
func buildIndex(ctx context.Context, rows [][]float32, dim, numLists int) (*ivf.FlatIndex, error) {
	ids := sequentialIDs(len(rows))
	flat := flatten(rows, dim)

	idx, err := ivf.BuildFlatIndex(ctx, flat, ids, dim, numLists, distance.MetricL2, kmeansMaxIter)
	if err != nil {
		return nil, fmt.Errorf("conann: training quantizer: %w", err)
	}
	return idx, nil
}

// writeFloatLines writes one float per line, matching the original
// harness's write_to_file<float>.
func writeFloatLines(path string, values []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, v := range values {
		if _, err := fmt.Fprintf(w, "%g\n", v); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeIntLines writes one int per line, matching the original
// harness's write_to_file<int> for clusters-searched.
func writeIntLines(path string, values []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, v := range values {
		if _, err := fmt.Fprintf(w, "%d\n", v); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeTimeReportCSV writes one "Field,Nanoseconds" row per TimeReport
// phase, mirroring write_time_report_csv's field order.
func writeTimeReportCSV(path string, report *timereport.TimeReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	rows := [][2]string{
		{"ComputeScores", strconv.FormatInt(report.ComputeScores.Nanoseconds(), 10)},
		{"ComputeScoresCalib", strconv.FormatInt(report.ComputeScoresCalib.Nanoseconds(), 10)},
		{"ComputeScoresTune", strconv.FormatInt(report.ComputeScoresTune.Nanoseconds(), 10)},
		{"MemoryCopyPostCompute", strconv.FormatInt(report.MemoryCopyPostCompute.Nanoseconds(), 10)},
		{"PickRegLambda", strconv.FormatInt(report.PickRegLambda.Nanoseconds(), 10)},
		{"RegularizeScores", strconv.FormatInt(report.RegularizeScores.Nanoseconds(), 10)},
		{"Optimize", strconv.FormatInt(report.Optimize.Nanoseconds(), 10)},
		{"ConfigureTotal", strconv.FormatInt(report.ConfigureTotal.Nanoseconds(), 10)},
	}
	for _, row := range rows {
		if err := w.Write(row[:]); err != nil {
			return err
		}
	}
	return w.Error()
}

// subsetTestSplit pulls the rows at idx out of scores/preds/groundTruth,
// for replaying EvaluateTest against the test split Calibrate itself
// does not retain.
func subsetTestSplit(scores [][]float32, preds [][][]int64, groundTruth [][]int64, idx []int) ([][]float32, [][][]int64, [][]int64) {
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
