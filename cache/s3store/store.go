// Package s3store implements cache.Cache against an S3 bucket, for
// sharing score/prediction tensors across machines in a cluster run.
package s3store

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// apiClient is the subset of *s3.Client this package calls, narrowed so
// tests can substitute a mock instead of talking to real S3.
type apiClient interface {
	manager.UploadAPIClient
	manager.DownloadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Store implements cache.Cache against a bucket/prefix in S3. Each cache
// key becomes one object; object bodies are the uncompressed cache codec
// output. They match cache.DiskStore's files byte-for-byte only when the
// DiskStore uses cache.NoCompression; its default Zstd files differ.
type Store struct {
	client     apiClient
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	prefix     string
}

// NewStore creates an S3-backed cache store over bucket at rootPrefix.
func NewStore(client apiClient, bucket, rootPrefix string) *Store {
	return &Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
		prefix:     rootPrefix,
	}
}

func (s *Store) objectKey(key string) string {
	return path.Join(s.prefix, key+".blk")
}

func (s *Store) Exists(key string) bool {
	_, err := s.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
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
		return fmt.Errorf("s3store: encode %q: %w", key, err)
	}
	_, err := s.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("s3store: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) getObject(key string, decode func(io.Reader) error) error {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(context.Background(), buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return err
		}
		return fmt.Errorf("s3store: get %q: %w", key, err)
	}
	if err := decode(bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("s3store: decode %q: %w", key, err)
	}
	return nil
}

// Wire format matches cache.writeScores/writePreds exactly. Duplicated
// here (rather than exported from cache) to keep cache's codec
// unexported and this package's only dependency on cache the Cache
// interface it's built to satisfy.

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
