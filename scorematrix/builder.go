// Package scorematrix builds the per-query non-conformity score matrix
// and prediction tensor that calibration and evaluation both replay
// from cache instead of re-querying the index every time.
package scorematrix

import (
	"context"
	"fmt"

	"github.com/soniahorchidan/conann/ivf"
	"golang.org/x/sync/errgroup"
)

// Matrix is the per-query, per-list-id raw score: Matrix[q][listID] is
// the score recorded at the probe where the coarse quantizer's rank
// order reached listID, not at that probe's rank. Indexing by list id
// rather than rank lets adaptive search (which already knows a list's
// id from the quantizer) look a score up directly instead of tracking
// a separate rank-to-id mapping.
type Matrix = [][]float32

// Preds is the per-query, per-list-id admitted ID snapshot: Preds[q][listID]
// is the top-k IDs held by the heap at the probe where listID was scanned.
type Preds = [][][]int64

// Builder computes (Matrix, Preds) for a batch of queries against one
// quantizer/scanner pair, scoring every list in rank order so later
// stages can pick any probe depth without re-querying the index.
type Builder struct {
	Quantizer ivf.Quantizer
	Scanner   ivf.ListScanner
	NumLists  int
	// K is the heap size used for every query when Ks is nil.
	K int
	// Ks, when non-nil, gives a per-query heap size (variable-k ground
	// truth: one row of queries, each with its own k drawn at load time).
	// len(Ks) must equal the number of queries passed to Build. K is
	// ignored when Ks is set.
	Ks []int
	// MaxDistance normalizes the heap's top-k distance into a [0, 1] raw
	// score. Left for the caller to choose (e.g. the 99th percentile
	// query-to-centroid distance over a sample) rather than derived here.
	MaxDistance float32
	// MaxConcurrency bounds how many queries are scored at once.
	// Defaults to 16 if <= 0.
	MaxConcurrency int
}

// Build scores every query in queries (row-major, dim floats each)
// against every list in rank order, returning one row of Matrix/Preds
// per query. Each query runs in its own goroutine (at most
// MaxConcurrency at a time) and writes only its own row. The first
// error cancels the queries not yet started and is returned once the
// in-flight ones finish; no partial matrix is returned.
func (b Builder) Build(ctx context.Context, queries [][]float32) (Matrix, Preds, error) {
	nq := len(queries)
	if b.Ks != nil && len(b.Ks) != nq {
		return nil, nil, fmt.Errorf("scorematrix: %d queries but %d k values", nq, len(b.Ks))
	}
	scores := make(Matrix, nq)
	preds := make(Preds, nq)

	limit := b.MaxConcurrency
	if limit <= 0 {
		limit = 16
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for qi := range queries {
		qi := qi
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			k := b.K
			if b.Ks != nil {
				k = b.Ks[qi]
			}
			rowScores, rowPreds, err := b.scoreOne(queries[qi], k)
			if err != nil {
				return fmt.Errorf("scorematrix: query %d: %w", qi, err)
			}
			scores[qi] = rowScores
			preds[qi] = rowPreds
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return scores, preds, nil
}

// scoreOne ranks every list for query, then scans them one at a time in
// rank order, recording the non-conformity score and the admitted top-k
// snapshot after each additional list is probed. Both are written at
// the probed list's own id, not its rank in the scan order.
func (b Builder) scoreOne(query []float32, k int) ([]float32, [][]int64, error) {
	ranked, err := b.Quantizer.RankAllLists(query)
	if err != nil {
		return nil, nil, err
	}
	if len(ranked) != b.NumLists {
		return nil, nil, fmt.Errorf("scorematrix: quantizer ranked %d lists, want %d", len(ranked), b.NumLists)
	}

	rowScores := make([]float32, b.NumLists)
	rowPreds := make([][]int64, b.NumLists)
	heap := ivf.NewTopKHeap(k)

	for _, rl := range ranked {
		if err := b.Scanner.ScanList(rl.ListID, query, heap); err != nil {
			return nil, nil, err
		}
		rowScores[rl.ListID] = b.rawScore(heap)
		rowPreds[rl.ListID] = heap.SnapshotIDs()
	}
	return rowScores, rowPreds, nil
}

// rawScore is the raw, pre-regularization score
// min(heap.TopDistance()/MaxDistance, 1.0): the heap's current k-th
// nearest distance normalized into [0, 1]. It is non-increasing along
// the quantizer's rank order (the heap only improves as more lists are
// probed), which is what lets regularize.Regularize recover rank purely
// by re-sorting on score. Regularization (the (1-s) base cost and the
// rank penalty) is applied later, so the cache stores these raw scores
// once and the lambda_reg grid search re-derives as many regularized
// variants from them as it needs.
func (b Builder) rawScore(heap ivf.Heap) float32 {
	if b.MaxDistance <= 0 {
		return 0
	}
	rawS := heap.TopDistance() / b.MaxDistance
	if rawS > 1 {
		rawS = 1
	}
	return rawS
}
