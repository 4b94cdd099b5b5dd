package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// HashEmbedder derives a pseudo-random unit vector from each lower-cased
// token's FNV-1a hash. Equal tokens always map to equal vectors, so identical
// skill lists have cosine similarity 1. It needs no model and is the default
// backend.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a HashEmbedder of the given dimension
// (DefaultDimension when dim <= 0).
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &HashEmbedder{dim: dim}
}

// Dimension implements Embedder.
func (h *HashEmbedder) Dimension() int { return h.dim }

// Embed implements Embedder.
func (h *HashEmbedder) Embed(ctx context.Context, tokens []string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float64, 0, len(tokens))
	for _, t := range tokens {
		vectors = append(vectors, h.tokenVector(t))
	}
	return Mean(vectors, h.dim)
}

func (h *HashEmbedder) tokenVector(token string) []float64 {
	f := fnv.New64a()
	_, _ = f.Write([]byte(strings.ToLower(strings.TrimSpace(token))))
	state := f.Sum64()

	v := make([]float64, h.dim)
	var norm float64
	for i := range v {
		state = splitmix64(state)
		// map to [-1, 1)
		x := float64(state>>11)/float64(1<<53)*2 - 1
		v[i] = x
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	z := x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
