// Package embedding turns skill lists into fixed-length vectors and compares
// them. Implementations must be deterministic for identical input and safe
// for concurrent use.
package embedding

import (
	"context"
	"fmt"
	"math"
)

// DefaultDimension matches the sentence encoder the service was calibrated on.
const DefaultDimension = 384

// Embedder embeds an ordered token list into one vector: the mean of the
// per-token vectors, or all zeros for an empty list.
type Embedder interface {
	Embed(ctx context.Context, tokens []string) ([]float64, error)
	Dimension() int
}

// Cosine returns the cosine similarity of a and b. A zero-norm vector has
// similarity 0 with anything.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Mean averages vectors of equal length into a new vector of dim entries.
func Mean(vectors [][]float64, dim int) ([]float64, error) {
	out := make([]float64, dim)
	if len(vectors) == 0 {
		return out, nil
	}
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: got %d want %d", ErrDimensionMismatch, len(v), dim)
		}
		for i, x := range v {
			out[i] += x
		}
	}
	n := float64(len(vectors))
	for i := range out {
		out[i] /= n
	}
	return out, nil
}
