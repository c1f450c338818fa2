// Package miniostore implements cache.Cache against a MinIO or other
// S3-compatible bucket, for self-hosted clusters that don't use AWS S3.
package miniostore

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

// apiClient is the subset of *minio.Client this package calls.
type apiClient interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (*minio.Object, error)
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// Store implements cache.Cache against bucket/prefix on a MinIO server.
type Store struct {
	client apiClient
	bucket string
	prefix string
}

// NewStore creates a MinIO-backed cache store.
func NewStore(client apiClient, bucket, rootPrefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: rootPrefix}
}

func (s *Store) objectKey(key string) string {
	return path.Join(s.prefix, key+".blk")
}

func (s *Store) Exists(key string) bool {
	_, err := s.client.StatObject(context.Background(), s.bucket, s.objectKey(key), minio.StatObjectOptions{})
	return err == nil
}

func (s *Store) WriteScores(key string, data [][]float32) error {
	return s.putObject(key, func(w io.Writer) error { return writeScores(w, data) })
}

func (s *Store) WritePreds(key string, data [][][]int64) error {
	return s.putObject(key, func(w io.Writer) error { return writePreds(w, data) })
}

func (s *Store) ReadScores(key string) ([][]float32, error) {
	var out [][]float32
	err := s.getObject(key, func(r io.Reader) (readErr error) {
		out, readErr = readScores(r)
		return readErr
	})
	return out, err
}

func (s *Store) ReadPreds(key string) ([][][]int64, error) {
	var out [][][]int64
	err := s.getObject(key, func(r io.Reader) (readErr error) {
		out, readErr = readPreds(r)
		return readErr
	})
	return out, err
}

func (s *Store) putObject(key string, encode func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		return err
	}
	_, err := s.client.PutObject(context.Background(), s.bucket, s.objectKey(key),
		bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{})
	return err
}

func (s *Store) getObject(key string, decode func(io.Reader) error) error {
	obj, err := s.client.GetObject(context.Background(), s.bucket, s.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()
	return decode(obj)
}

// Wire format matches cache.writeScores/writePreds exactly; duplicated
// for the same reason as cache/s3store (keep cache's codec unexported).

func writeSize(w io.Writer, n int) error {
	return binary.Write(w, binary.LittleEndian, uint64(n))
}

func readSize(r io.Reader) (int, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func writeFloat32Leaf(w io.Writer, data []float32) error {
	if err := writeSize(w, len(data)); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func readFloat32Leaf(r io.Reader) ([]float32, error) {
	n, err := readSize(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []float32{}, nil
	}
	out := make([]float32, n)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeInt64Leaf(w io.Writer, data []int64) error {
	if err := writeSize(w, len(data)); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func readInt64Leaf(r io.Reader) ([]int64, error) {
	n, err := readSize(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []int64{}, nil
	}
	out := make([]int64, n)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeScores(w io.Writer, data [][]float32) error {
	if err := writeSize(w, len(data)); err != nil {
		return err
	}
	for _, row := range data {
		if err := writeFloat32Leaf(w, row); err != nil {
			return err
		}
	}
	return nil
}

func readScores(r io.Reader) ([][]float32, error) {
	n, err := readSize(r)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, n)
	for i := range out {
		row, err := readFloat32Leaf(r)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

func writePreds(w io.Writer, data [][][]int64) error {
	if err := writeSize(w, len(data)); err != nil {
		return err
	}
	for _, perQuery := range data {
		if err := writeSize(w, len(perQuery)); err != nil {
			return err
		}
		for _, snapshot := range perQuery {
			if err := writeInt64Leaf(w, snapshot); err != nil {
				return err
			}
		}
	}
	return nil
}

func readPreds(r io.Reader) ([][][]int64, error) {
	n, err := readSize(r)
	if err != nil {
		return nil, err
	}
	out := make([][][]int64, n)
	for i := range out {
		m, err := readSize(r)
		if err != nil {
			return nil, err
		}
		perQuery := make([][]int64, m)
		for j := range perQuery {
			snapshot, err := readInt64Leaf(r)
			if err != nil {
				return nil, err
			}
			perQuery[j] = snapshot
		}
		out[i] = perQuery
	}
	return out, nil
}
