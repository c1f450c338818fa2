package cache

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoresCodecRoundTrip(t *testing.T) {
	want := [][]float32{{1.0, 2.0, 3.0}, {4.0, 5.0, 6.0}}

	var buf bytes.Buffer
	require.NoError(t, writeScores(&buf, want))

	got, err := readScores(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestScoresCodecEmptyRows(t *testing.T) {
	want := [][]float32{{}, {1.0}}

	var buf bytes.Buffer
	require.NoError(t, writeScores(&buf, want))

	got, err := readScores(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPredsCodecRoundTrip(t *testing.T) {
	want := [][][]int64{
		{{1, 2, 3}, {1, 2}, {1}},
		{{9}},
	}

	var buf bytes.Buffer
	require.NoError(t, writePreds(&buf, want))

	got, err := readPreds(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadScoresShortReadErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSize(&buf, 2)) // claims 2 rows, writes none
	_, err := readScores(&buf)
	assert.Error(t, err)
}
