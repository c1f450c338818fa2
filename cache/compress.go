package cache

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec DiskStore applies to a serialized
// tensor before it is written to disk; the object-storage backends store
// the codec output uncompressed. Score and prediction matrices are large
// and repeated experiment runs tend to share mostly similar data, so
// compressing them is worth the CPU cost for all but the smallest
// datasets.
type Compression int

const (
	// NoCompression writes the codec output as-is.
	NoCompression Compression = iota
	// Zstd trades CPU for ratio; the default for DiskStore.
	Zstd
	// LZ4 trades ratio for speed, useful when CPU is the bottleneck.
	LZ4
)

func wrapWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case NoCompression:
		return nopWriteCloser{w}, nil
	case Zstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("cache: zstd writer: %w", err)
		}
		return enc, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("cache: unknown compression %d", c)
	}
}

func wrapReader(r io.Reader, c Compression) (io.Reader, func() error, error) {
	switch c {
	case NoCompression:
		return r, func() error { return nil }, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("cache: zstd reader: %w", err)
		}
		return dec, func() error { dec.Close(); return nil }, nil
	case LZ4:
		return lz4.NewReader(r), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("cache: unknown compression %d", c)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
