package dataset

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/soniahorchidan/conann/distance"
	"github.com/soniahorchidan/conann/ivf"
)

// GroundTruth holds the per-query nearest-neighbor label sets split.Build
// and threshold.MissRatePerQuery need. Rows may have different lengths
// under variable-k ground truth; fixed-k ground truth just has rows all
// the same length.
type GroundTruth struct {
	Labels [][]int64
}

// Len implements split.GroundTruth.
func (g *GroundTruth) Len() int { return len(g.Labels) }

// IsEmpty implements split.GroundTruth.
func (g *GroundTruth) IsEmpty(q int) bool { return len(g.Labels[q]) == 0 }

// LoadFixedK reads a .ivecs ground-truth file where every query has the
// same number of labels.
func LoadFixedK(path string) (*GroundTruth, int, error) {
	labels, k, err := ReadIvecs(path)
	if err != nil {
		return nil, 0, err
	}
	return &GroundTruth{Labels: labels}, k, nil
}

// GenerateKs draws one k per query, uniform over [lowerK, upperK]
// inclusive, from a seeded generator so a run's k assignment is
// reproducible on the same machine.
func GenerateKs(nq, lowerK, upperK int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	ks := make([]int, nq)
	span := upperK - lowerK + 1
	for i := range ks {
		ks[i] = lowerK + rng.Intn(span)
	}
	return ks
}

// BuildVariableK computes brute-force exact nearest neighbors for each
// query at its own k, by running a single-list (numLists=1) FlatIndex,
// which degenerates into an exhaustive scan. ids defaults to sequential
// row indices (0..n-1) when nil.
func BuildVariableK(ctx context.Context, dbVectors [][]float32, ids []int64, queries [][]float32, dim int, metric distance.Metric, ks []int) (*GroundTruth, error) {
	if len(queries) != len(ks) {
		return nil, fmt.Errorf("dataset: %d queries but %d k values", len(queries), len(ks))
	}
	if ids == nil {
		ids = make([]int64, len(dbVectors))
		for i := range ids {
			ids[i] = int64(i)
		}
	}

	flat := make([]float32, 0, len(dbVectors)*dim)
	for _, v := range dbVectors {
		flat = append(flat, v...)
	}

	idx, err := ivf.BuildFlatIndex(ctx, flat, ids, dim, 1, metric, 1)
	if err != nil {
		return nil, err
	}

	labels := make([][]int64, len(queries))
	for qi, q := range queries {
		heap := ivf.NewTopKHeap(ks[qi])
		if err := idx.ScanList(0, q, heap); err != nil {
			return nil, fmt.Errorf("dataset: query %d: %w", qi, err)
		}
		sorted := heap.Sorted()
		row := make([]int64, len(sorted))
		for i, sc := range sorted {
			row[i] = sc.ID
		}
		labels[qi] = row
	}
	return &GroundTruth{Labels: labels}, nil
}

// WriteVariableKLabels caches a variable-k ground truth computation to a
// text file: one query per line, space-separated ids, matching the
// original implementation's cache format so external tooling built
// against it still works.
func WriteVariableKLabels(path string, gt *GroundTruth) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, row := range gt.Labels {
		strs := make([]string, len(row))
		for i, id := range row {
			strs[i] = strconv.FormatInt(id, 10)
		}
		if _, err := fmt.Fprintln(w, strings.Join(strs, " ")); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ReadVariableKLabels reads a cache written by WriteVariableKLabels. A
// missing file is not an error: it returns (nil, nil) so callers can
// treat it as a cache miss.
func ReadVariableKLabels(path string) (*GroundTruth, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var labels [][]int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			labels = append(labels, nil)
			continue
		}
		fields := strings.Fields(line)
		row := make([]int64, len(fields))
		for i, field := range fields {
			id, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: parsing variable-k cache %s: %w", path, err)
			}
			row[i] = id
		}
		labels = append(labels, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &GroundTruth{Labels: labels}, nil
}
