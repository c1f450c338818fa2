package simd

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Positive values (size 3)", []float32{1, 2, 3}, []float32{4, 5, 6}, 32.0},
		{"Negative values (size 3)", []float32{-1, -2, -3}, []float32{-4, -5, -6}, 32.0},
		{"More than 4 (size 6)", []float32{1, 2, 3, 1, 2, 3}, []float32{4, 5, 6, 4, 5, 6}, 64.0},
		{"Mixed values (size 3)", []float32{1, -2, 3}, []float32{-4, 5, -6}, -32.0},
		{"Zero values (size 3)", []float32{0, 0, 0}, []float32{0, 0, 0}, 0.0},
		{"Positive values (size 9)", []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, 285.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Dot(tc.a, tc.b)
			assert.Equal(t, tc.expected, result)
		})
	}
}

// BenchmarkDot-10    	    7623	    157954 ns/op	       0 B/op	       0 allocs/op
func BenchmarkDot(b *testing.B) {
	const size = 1000000
	va := randomFloats(size)
	vb := randomFloats(size)

	b.ResetTimer()
	for b.Loop() {
		_ = Dot(va, vb)
	}
}

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Positive values", []float32{1, 2, 3}, []float32{4, 5, 6}, 27.0},
		{"Negative values", []float32{-1, -2, -3}, []float32{-4, -5, -6}, 27.0},
		{"1 Remainder", []float32{1, 2, 3, 1, 2, 3}, []float32{4, 5, 6, 4, 5, 6}, 54.0},
		{"Mixed values", []float32{1, -2, 3}, []float32{-4, 5, -6}, 155.0},
		{"Zero values", []float32{0, 0, 0}, []float32{0, 0, 0}, 0.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := SquaredL2(tc.a, tc.b)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func randomFloats(n int) []float32 {
	res := make([]float32, n)
	for i := range res {
		res[i] = rand.Float32()
	}
	return res
}

func TestScaleInPlace(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		scalar   float32
		expected []float32
	}{
		{"Scale by 2", []float32{1, 2, 3}, 2.0, []float32{2, 4, 6}},
		{"Scale by 0", []float32{1, 2, 3}, 0.0, []float32{0, 0, 0}},
		{"Scale by -1", []float32{1, -2, 3}, -1.0, []float32{-1, 2, -3}},
		{"Empty", []float32{}, 2.0, []float32{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			arr := make([]float32, len(tc.input))
			copy(arr, tc.input)

			ScaleInPlace(arr, tc.scalar)
			assert.Equal(t, tc.expected, arr)
		})
	}
}

func TestSqrt(t *testing.T) {
	assert.InDelta(t, float32(2.0), Sqrt(4.0), 1e-6)
	assert.InDelta(t, float32(3.0), Sqrt(9.0), 1e-6)
	assert.Equal(t, float32(0.0), Sqrt(0.0))
}

func TestHamming(t *testing.T) {
	tests := []struct {
		name string
		a, b []byte
		want int64
	}{
		{"Empty", []byte{}, []byte{}, 0},
		{"Identical", []byte{0xFF, 0xAA}, []byte{0xFF, 0xAA}, 0},
		{"Complement", []byte{0x00, 0xFF}, []byte{0xFF, 0x00}, 16},
		{"Mixed", []byte{0x0F}, []byte{0xF0}, 8},
		{"8 bytes", []byte{1, 0, 0, 0, 0, 0, 0, 0}, []byte{0, 0, 0, 0, 0, 0, 0, 0}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Hamming(tc.a, tc.b)
			assert.Equal(t, tc.want, got)
		})
	}
}
