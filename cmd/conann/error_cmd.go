package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/soniahorchidan/conann"
	"github.com/soniahorchidan/conann/dataset"
	"github.com/spf13/cobra"
)

var errorCmd = &cobra.Command{
	Use:   "error <dataset> <calib_frac> <tune_frac> <alpha> <L> <k>",
	Short: "Calibrate a fixed-k threshold and report test-split miss-rate and probe count",
	Args:  cobra.ExactArgs(6),
	RunE:  runError,
}

func runError(cmd *cobra.Command, args []string) error {
	name := args[0]
	calibFrac, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("conann: calib_frac: %w", err)
	}
	tuneFrac, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("conann: tune_frac: %w", err)
	}
	alpha, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("conann: alpha: %w", err)
	}
	numLists, err := strconv.Atoi(args[4])
	if err != nil {
		return fmt.Errorf("conann: L: %w", err)
	}
	k, err := strconv.Atoi(args[5])
	if err != nil {
		return fmt.Errorf("conann: k: %w", err)
	}

	spec, err := lookupDataset(name)
	if err != nil {
		return err
	}

	ctx := context.Background()

	dbRows, dim, err := dataset.ReadFvecs(spec.dbPath)
	if err != nil {
		return fmt.Errorf("conann: loading database: %w", err)
	}
	queries, qDim, err := dataset.ReadFvecs(spec.queryPath)
	if err != nil {
		return fmt.Errorf("conann: loading queries: %w", err)
	}
	if qDim != dim {
		return fmt.Errorf("conann: query dimension %d does not match database dimension %d", qDim, dim)
	}

	gt, _, err := dataset.LoadFixedK(fmt.Sprintf(spec.gtIndexPath, k))
	if err != nil {
		return fmt.Errorf("conann: loading ground truth: %w", err)
	}

	idx, err := buildIndex(ctx, dbRows, dim, numLists)
	if err != nil {
		return err
	}

	driver := conann.New(idx, idx, numLists)
	params := conann.CalibrateParams{
		Alpha:       alpha,
		KSpec:       conann.FixedK(k),
		CalibFrac:   calibFrac,
		TuneFrac:    tuneFrac,
		Queries:     queries,
		GroundTruth: gt.Labels,
		MaxDistance: spec.maxDistance,
		Dataset:     name,
	}

	result, report, err := driver.Calibrate(ctx, params)
	if err != nil {
		return fmt.Errorf("conann: calibration: %w", err)
	}
	fmt.Printf("Found lamhat=%f\n", result.Lamhat)

	scores, preds, err := driver.ComputeScores(ctx, params)
	if err != nil {
		return fmt.Errorf("conann: computing test-split scores: %w", err)
	}
	sp, err := driver.Split(params)
	if err != nil {
		return err
	}
	testScores, testPreds, testGT := subsetTestSplit(scores, preds, gt.Labels, sp.TestIdx)

	evalResult := driver.EvaluateTest(testScores, testPreds, testGT, result)
	fmt.Printf("alpha=%g, test fnr=%f, avg cls searched=%f\n", alpha, evalResult.MeanMissRate, evalResult.MeanClustersProbed)

	tag := fmt.Sprintf("%s-%d-%d-%g-%g-%g", name, numLists, k, alpha, calibFrac, tuneFrac)

	missRates := make([]float64, len(evalResult.PerQuery))
	clustersProbed := make([]int, len(evalResult.PerQuery))
	for i, q := range evalResult.PerQuery {
		missRates[i] = q.MissRate
		clustersProbed[i] = q.ClustersProbed
	}

	if err := writeFloatLines("ConANN-error-"+tag+".log", missRates); err != nil {
		return err
	}
	if err := writeIntLines("ConANN-efficiency-"+tag+".log", clustersProbed); err != nil {
		return err
	}
	if err := writeTimeReportCSV("ConANN-timing-"+tag+".csv", report); err != nil {
		return err
	}
	return nil
}
