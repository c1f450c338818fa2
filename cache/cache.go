// Package cache persists and reloads the score matrix and prediction
// tensor produced by scorematrix.Builder, so recomputing the expensive
// all-probes-per-query pass on repeated experiments is avoided.
package cache

import (
	"fmt"

	"github.com/soniahorchidan/conann/kspec"
)

// Field names one of the two cached tensors for a given key.
type Field string

const (
	FieldScores Field = "scores"
	FieldPreds  Field = "preds"
)

// Key builds the cache key convention from spec: "<dataset>_<L>_<k-spec>_<field>".
func Key(dataset string, l int, k kspec.Spec, field Field) string {
	return fmt.Sprintf("%s_%d_%s_%s", dataset, l, k, field)
}

// Cache is a filesystem- or object-store-backed serializer for the two
// tensors ScoreMatrixBuilder produces. Write/Read are inverses for any
// supported value; Exists reports whether a key has a cached entry without
// paying the cost of a full read.
//
// A cache file is trusted iff the full expected byte count is read back;
// a short read is an error rather than silently returned truncated data.
// DiskStore reports it as ErrShortRead; the s3store and miniostore
// backends return the codec's decode error. Callers treat any read error
// exactly like a cache miss.
type Cache interface {
	WriteScores(key string, data [][]float32) error
	ReadScores(key string) ([][]float32, error)
	WritePreds(key string, data [][][]int64) error
	ReadPreds(key string) ([][][]int64, error)
	Exists(key string) bool
}

// ErrShortRead indicates a cache entry did not contain the expected number
// of bytes. Treated as a cache miss; recomputation proceeds.
type ErrShortRead struct {
	Key   string
	cause error
}

func (e *ErrShortRead) Error() string {
	return fmt.Sprintf("cache: key %q: short read: %v", e.Key, e.cause)
}

func (e *ErrShortRead) Unwrap() error { return e.cause }
