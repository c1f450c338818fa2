package main

import "fmt"

// datasetSpec names the on-disk layout and calibration constant for one
// supported dataset, following the original harness's hardcoded
// dataset-name-to-path-and-max-distance table.
type datasetSpec struct {
	dbPath      string
	queryPath   string
	gtIndexPath string // fixed-k ground truth ids, "%d" substituted with k
	gtDistPath  string // fixed-k ground truth distances, "%d" substituted with k
	maxDistance float32
}

var datasetTable = map[string]datasetSpec{
	"bert":     {"data/bert/db.fvecs", "data/bert/queries.fvecs", "data/bert/indices-%d.fvecs", "data/bert/distances-%d.fvecs", 20},
	"gist30k":  {"data/gist30k/gist30k_base.fvecs", "data/gist30k/queries.fvecs", "data/gist30k/indices-%d.fvecs", "data/gist30k/distances-%d.fvecs", 200},
	"glove30k": {"data/glove30k/glove30k_db.fvecs", "data/glove30k/queries.fvecs", "data/glove30k/indices-%d.fvecs", "data/glove30k/distances-%d.fvecs", 100},
	"synth":    {"data/synthetic10/db.fvecs", "data/synthetic10/queries.fvecs", "data/synthetic10/indices-%d.fvecs", "data/synthetic10/distances-%d.fvecs", 1000000},
	"sift1M":   {"data/sift1M/sift_base.fvecs", "data/sift1M/queries.fvecs", "data/sift1M/indices-%d.fvecs", "data/sift1M/distances-%d.fvecs", 1000000},
	"deep10M":  {"data/deep/deep10M.fvecs", "data/deep/queries.fvecs", "data/deep/indices-%d.fvecs", "data/deep/distances-%d.fvecs", 100},
	"gist":     {"data/gist/gist_base.fvecs", "data/gist/queries.fvecs", "data/gist/indices-%d.fvecs", "data/gist/distances-%d.fvecs", 200},
	"glove":    {"data/glove/db.fvecs", "data/glove/queries.fvecs", "data/glove/indices-%d.fvecs", "data/glove/distances-%d.fvecs", 100},
	"fasttext": {"data/fasttext/db.fvecs", "data/fasttext/queries.fvecs", "data/fasttext/indices-%d.fvecs", "data/fasttext/distances-%d.fvecs", 1000},
	"gauss5":   {"data/gauss5/db.fvecs", "data/gauss5/queries.fvecs", "data/gauss5/indices-%d.fvecs", "data/gauss5/distances-%d.fvecs", 1000000},
	"gauss10":  {"data/gauss10/db.fvecs", "data/gauss10/queries.fvecs", "data/gauss10/indices-%d.fvecs", "data/gauss10/distances-%d.fvecs", 1000000},
}

func lookupDataset(name string) (datasetSpec, error) {
	spec, ok := datasetTable[name]
	if !ok {
		return datasetSpec{}, fmt.Errorf("conann: unrecognized dataset %q", name)
	}
	return spec, nil
}
