// Package dataset reads .fvecs/.ivecs vector files and builds the
// ground-truth structures ScoreMatrixBuilder and split.Build consume.
package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// ErrMalformedFile reports a .fvecs/.ivecs file whose rows don't agree
// on dimension, mirroring the original reader's "weird file size"
// assertion.
type ErrMalformedFile struct {
	Path   string
	Reason string
}

func (e *ErrMalformedFile) Error() string {
	return fmt.Sprintf("dataset: malformed file %s: %s", e.Path, e.Reason)
}

// ReadFvecs reads a .fvecs file: a sequence of (int32 dim, dim*float32)
// rows, every row sharing the same dim. Returns the rows and the shared
// dimension.
func ReadFvecs(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var rows [][]float32
	dim := -1
	for {
		var d int32
		if err := binary.Read(f, binary.LittleEndian, &d); err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, fmt.Errorf("dataset: reading fvecs header in %s: %w", path, err)
		}
		if d <= 0 {
			return nil, 0, &ErrMalformedFile{Path: path, Reason: fmt.Sprintf("unreasonable dimension %d", d)}
		}
		if dim == -1 {
			dim = int(d)
		} else if int(d) != dim {
			return nil, 0, &ErrMalformedFile{Path: path, Reason: fmt.Sprintf("row dimension %d does not match first row's %d", d, dim)}
		}

		row := make([]float32, d)
		if err := binary.Read(f, binary.LittleEndian, row); err != nil {
			return nil, 0, fmt.Errorf("dataset: reading fvecs row in %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, dim, nil
}

// ReadIvecs reads a .ivecs file: the same (int32 dim, dim*int32) layout
// as .fvecs, with int32 rather than float32 payload. Rows are widened to
// int64 to match the rest of the package's ID type.
func ReadIvecs(path string) ([][]int64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var rows [][]int64
	dim := -1
	for {
		var d int32
		if err := binary.Read(f, binary.LittleEndian, &d); err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, fmt.Errorf("dataset: reading ivecs header in %s: %w", path, err)
		}
		if d <= 0 {
			return nil, 0, &ErrMalformedFile{Path: path, Reason: fmt.Sprintf("unreasonable dimension %d", d)}
		}
		if dim == -1 {
			dim = int(d)
		} else if int(d) != dim {
			return nil, 0, &ErrMalformedFile{Path: path, Reason: fmt.Sprintf("row dimension %d does not match first row's %d", d, dim)}
		}

		raw := make([]int32, d)
		if err := binary.Read(f, binary.LittleEndian, raw); err != nil {
			return nil, 0, fmt.Errorf("dataset: reading ivecs row in %s: %w", path, err)
		}
		row := make([]int64, d)
		for i, v := range raw {
			row[i] = int64(v)
		}
		rows = append(rows, row)
	}
	return rows, dim, nil
}
