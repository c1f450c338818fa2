package kspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedString(t *testing.T) {
	assert.Equal(t, "k10", Fixed(10).String())
	assert.False(t, Fixed(10).IsVariable())
}

func TestVariableString(t *testing.T) {
	s := Variable(10, 100)
	assert.Equal(t, "variable_k_10_100", s.String())
	assert.True(t, s.IsVariable())
	min, max := s.Range()
	assert.Equal(t, 10, min)
	assert.Equal(t, 100, max)
}
