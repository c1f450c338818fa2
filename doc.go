// Package conann provides conformal calibration for adaptive nearest-neighbor
// search over an inverted-file (IVF) index.
//
// Given a user-supplied miss-rate tolerance α, conann calibrates a per-query
// stopping threshold λ̂ so that, over the distribution of future queries, the
// expected fraction of true top-k neighbors missed is at most α — while
// probing as few inverted lists as possible. Easy queries stop early, hard
// queries probe more lists.
//
// # Quick Start
//
//	diskCache, err := cache.NewDiskStore("./conann-cache")
//
//	driver := conann.New(quantizer, scanner, numLists,
//		conann.WithLogger(conann.NewTextLogger(slog.LevelInfo)),
//		conann.WithCacheBackend(diskCache),
//	)
//
//	result, report, err := driver.Calibrate(ctx, conann.CalibrateParams{
//		Alpha:       0.1,
//		KSpec:       conann.FixedK(10),
//		CalibFrac:   0.4,
//		TuneFrac:    0.2,
//		Queries:     queries,
//		GroundTruth: groundTruth,
//		MaxDistance: 1.0,
//		Dataset:     "sift1m",
//	})
//
//	res, err := driver.Search(ctx, query, 10, 1.0, result)
//
//	evalResult := driver.EvaluateTest(testScores, testPreds, testGroundTruth, result)
//
// # What conann Does Not Do
//
// conann does not train the coarse quantizer, does not build or persist the
// IVF index, and does not serve queries over the network. It consumes a
// three-method capability interface (ivf.Quantizer, ivf.ListScanner,
// ivf.Heap) from whatever index implementation surrounds it; a reference
// in-memory implementation is provided in the ivf package for experiments
// and tests.
//
// # Guarantee
//
// The miss-rate guarantee is marginal over the calibration distribution, not
// per-query: conann does not promise any individual query misses at most α
// of its true neighbors, only that the average over future queries drawn
// from the same distribution as the calibration split does.
package conann
