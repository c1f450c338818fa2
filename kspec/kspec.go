// Package kspec represents the "k-spec" half of a cache key: either a
// single fixed k shared by every query, or a variable-k range from which
// each query's k is drawn.
package kspec

import "fmt"

// Spec is either a fixed k or a variable_k_<min>_<max> range.
type Spec struct {
	variable bool
	fixed    int
	min, max int
}

// Fixed returns a Spec with the same k for every query.
func Fixed(k int) Spec {
	return Spec{fixed: k}
}

// Variable returns a Spec drawing each query's k uniformly from [min, max].
func Variable(min, max int) Spec {
	return Spec{variable: true, min: min, max: max}
}

// IsVariable reports whether this is a variable_k range.
func (s Spec) IsVariable() bool { return s.variable }

// K returns the fixed k. Only meaningful when !IsVariable().
func (s Spec) K() int { return s.fixed }

// Range returns the [min, max] bounds. Only meaningful when IsVariable().
func (s Spec) Range() (int, int) { return s.min, s.max }

// String renders the cache-key form: "k<int>" or "variable_k_<min>_<max>".
func (s Spec) String() string {
	if s.variable {
		return fmt.Sprintf("variable_k_%d_%d", s.min, s.max)
	}
	return fmt.Sprintf("k%d", s.fixed)
}
