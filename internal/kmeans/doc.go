// Package kmeans implements k-means clustering for coarse-quantizer
// training.
//
// Used by ivf.FlatIndex to learn centroids (inverted lists) over a
// reference dataset when no external IVF index implementation is wired.
package kmeans
