package threshold

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrent_FindsRootOfLinearFunction(t *testing.T) {
	f := func(x float64) float64 { return x - 0.5 }
	root, err := Brent(f, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, root, 1e-5)
}

func TestBrent_FindsRootOfNonlinearFunction(t *testing.T) {
	f := func(x float64) float64 { return x*x - 0.25 }
	root, err := Brent(f, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, root, 1e-5)
}

func TestBrent_RejectsNoSignChange(t *testing.T) {
	f := func(x float64) float64 { return x + 1 }
	_, err := Brent(f, 0, 1)
	assert.Error(t, err)
}

func TestBrent_RootAtEndpoints(t *testing.T) {
	f := func(x float64) float64 { return x }
	root, err := Brent(f, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0, root, 1e-5)
}

func TestBrent_ReturnsBestRootOnNonConvergence(t *testing.T) {
	// A one-iteration budget stops Brent before the bracket shrinks
	// below tolerance: the first step bisects [0, 1] onto 0.5, then the
	// loop ends and that best root comes back with ErrDidNotConverge.
	f := func(x float64) float64 { return x - 0.5 }
	root, err := BrentN(f, 0, 1, 1)
	require.Error(t, err)

	var convErr *ErrDidNotConverge
	assert.True(t, errors.As(err, &convErr))
	assert.InDelta(t, 0.5, root, 1e-5)
}
