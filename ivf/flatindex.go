package ivf

import (
	"context"
	"sort"

	"github.com/soniahorchidan/conann/distance"
	"github.com/soniahorchidan/conann/internal/kmeans"
)

// FlatIndex is a reference in-memory IVF index: a coarse quantizer trained
// with k-means and per-list brute-force scans. It exists so the
// calibration core is runnable end to end without an external FAISS
// binding; it lives outside the calibration core's API surface and the
// core never type-asserts against it.
type FlatIndex struct {
	dim       int
	metric    distance.Metric
	centroids []float32 // L * dim, flattened
	numLists  int
	lists     [][]int64     // listID -> vector IDs assigned to it
	vectors   map[int64][]float32
}

// BuildFlatIndex trains numLists centroids over vectors (flattened, n*dim)
// using Lloyd's algorithm and assigns every vector to its nearest centroid.
func BuildFlatIndex(ctx context.Context, vectors []float32, ids []int64, dim, numLists int, metric distance.Metric, maxIter int) (*FlatIndex, error) {
	centroids, err := kmeans.TrainKMeans(ctx, vectors, dim, numLists, metric, maxIter)
	if err != nil {
		return nil, err
	}

	idx := &FlatIndex{
		dim:       dim,
		metric:    metric,
		centroids: centroids,
		numLists:  numLists,
		lists:     make([][]int64, numLists),
		vectors:   make(map[int64][]float32, len(ids)),
	}

	n := len(vectors) / dim
	for i := 0; i < n; i++ {
		vec := vectors[i*dim : (i+1)*dim]
		id := ids[i]
		idx.vectors[id] = vec

		list, err := kmeans.AssignPartition(vec, centroids, dim, metric)
		if err != nil {
			return nil, err
		}
		idx.lists[list] = append(idx.lists[list], id)
	}

	return idx, nil
}

// RankAllLists implements Quantizer.
func (idx *FlatIndex) RankAllLists(query []float32) ([]RankedList, error) {
	distFunc, err := distance.Provider(idx.metric)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedList, idx.numLists)
	for l := 0; l < idx.numLists; l++ {
		center := idx.centroids[l*idx.dim : (l+1)*idx.dim]
		ranked[l] = RankedList{ListID: l, Distance: distFunc(query, center)}
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Distance < ranked[j].Distance })
	return ranked, nil
}

// ScanList implements ListScanner.
func (idx *FlatIndex) ScanList(listID int, query []float32, heap Heap) error {
	if listID < 0 || listID >= idx.numLists {
		return &ErrShortList{Expected: idx.numLists, Got: listID + 1}
	}

	distFunc, err := distance.Provider(idx.metric)
	if err != nil {
		return err
	}

	for _, id := range idx.lists[listID] {
		vec := idx.vectors[id]
		heap.Offer(id, distFunc(query, vec))
	}
	return nil
}

// NumLists returns L, the number of inverted lists.
func (idx *FlatIndex) NumLists() int { return idx.numLists }
