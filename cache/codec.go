package cache

import (
	"encoding/binary"
	"io"
)

// The wire format mirrors the original conann cache exactly: a little-endian
// uint64 length prefix at every nesting level, recursing until the innermost
// level, which is written as raw IEEE-754 float32s or two's-complement
// int64s. There is no version header — this is an experiment cache, not a
// durable format.

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

// writeScores writes a ScoreMatrix (N x L floats): outer size prefix, then
// one float32 leaf per row.
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

// writePreds writes a PredictionTensor (N x L x k_i int64 IDs): outer size
// prefix, then one nested int64-leaf-vector per query, one per list.
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
