package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/soniahorchidan/conann/internal/mmap"
	"golang.org/x/time/rate"
)

// DiskStore implements Cache against the local filesystem. Writes go
// through a temp-file-then-rename so a reader never observes a partial
// file; reads go through a memory-mapped, read-only file so large score
// matrices are decoded without a separate full-file copy.
type DiskStore struct {
	root        string
	compression Compression
	limiter     *rate.Limiter
}

// DiskOption configures a DiskStore.
type DiskOption func(*DiskStore)

// WithDiskCompression overrides the default Zstd compression.
func WithDiskCompression(c Compression) DiskOption {
	return func(s *DiskStore) { s.compression = c }
}

// WithWriteRateLimit throttles writes to bytesPerSec, useful when the
// cache root is a network filesystem shared with other jobs.
func WithWriteRateLimit(bytesPerSec int) DiskOption {
	return func(s *DiskStore) {
		s.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
	}
}

// NewDiskStore creates a cache rooted at dir, creating it if necessary.
func NewDiskStore(dir string, opts ...DiskOption) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: disk store root: %w", err)
	}
	s := &DiskStore{root: dir, compression: Zstd}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetWriteRateLimit changes the write rate limit on an already-built
// DiskStore, letting a caller configure it from a single top-level
// option rather than threading DiskOption through construction.
func (s *DiskStore) SetWriteRateLimit(bytesPerSec int) {
	s.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.root, key+".blk")
}

// Exists reports whether key has a cached entry, without reading it.
func (s *DiskStore) Exists(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

func (s *DiskStore) WriteScores(key string, data [][]float32) error {
	return s.writeAtomic(key, func(w io.Writer) error { return writeScores(w, data) })
}

func (s *DiskStore) WritePreds(key string, data [][][]int64) error {
	return s.writeAtomic(key, func(w io.Writer) error { return writePreds(w, data) })
}

func (s *DiskStore) ReadScores(key string) ([][]float32, error) {
	var out [][]float32
	err := s.readMapped(key, func(r io.Reader) (readErr error) {
		out, readErr = readScores(r)
		return readErr
	})
	return out, err
}

func (s *DiskStore) ReadPreds(key string) ([][][]int64, error) {
	var out [][][]int64
	err := s.readMapped(key, func(r io.Reader) (readErr error) {
		out, readErr = readPreds(r)
		return readErr
	})
	return out, err
}

// writeAtomic encodes through the configured compression and an optional
// rate limiter into a temp file in root, then renames it into place.
func (s *DiskStore) writeAtomic(key string, encode func(io.Writer) error) error {
	tmp, err := os.CreateTemp(s.root, "tmp-"+key+"-*")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	var dst io.Writer = tmp
	if s.limiter != nil {
		dst = &rateLimitedWriter{ctx: context.Background(), w: tmp, limiter: s.limiter}
	}

	enc, err := wrapWriter(dst, s.compression)
	if err != nil {
		_ = tmp.Close()
		return err
	}
	if err := encode(enc); err != nil {
		_ = enc.Close()
		_ = tmp.Close()
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}
	if err := enc.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: close encoder for %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: sync %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: close temp file for %q: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return fmt.Errorf("cache: rename into place %q: %w", key, err)
	}
	return nil
}

// readMapped decodes a cache entry through a read-only mmap, so the page
// cache backs the bytes instead of a heap-allocated full-file copy.
func (s *DiskStore) readMapped(key string, decode func(io.Reader) error) error {
	m, err := mmap.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return &ErrShortRead{Key: key, cause: err}
	}
	defer m.Close()

	r, closeReader, err := wrapReader(bytes.NewReader(m.Bytes()), s.compression)
	if err != nil {
		return &ErrShortRead{Key: key, cause: err}
	}
	defer closeReader() //nolint:errcheck // best effort: decoder close error doesn't change outcome

	if err := decode(r); err != nil {
		return &ErrShortRead{Key: key, cause: err}
	}
	return nil
}

// rateLimitChunk bounds a single Write call so it never exceeds the
// limiter's burst, which rate.Limiter rejects outright for a single
// WaitN call larger than its burst size.
const rateLimitChunk = 64 * 1024

type rateLimitedWriter struct {
	ctx     context.Context
	w       io.Writer
	limiter *rate.Limiter
}

func (rw *rateLimitedWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > rateLimitChunk {
			chunk = chunk[:rateLimitChunk]
		}
		if err := rw.limiter.WaitN(rw.ctx, len(chunk)); err != nil {
			return written, fmt.Errorf("cache: rate limit wait: %w", err)
		}
		n, err := rw.w.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}
		p = p[len(chunk):]
	}
	return written, nil
}
