package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/placement/pkg/metrics"
)

// Guarded bounds every backend call by a timeout and turns backend panics
// into ErrEmbedPanic.
type Guarded struct {
	next    Embedder
	timeout time.Duration
}

// NewGuarded wraps next. A non-positive timeout disables the deadline but
// still recovers panics.
func NewGuarded(next Embedder, timeout time.Duration) *Guarded {
	return &Guarded{next: next, timeout: timeout}
}

// Dimension implements Embedder.
func (g *Guarded) Dimension() int { return g.next.Dimension() }

type embedResult struct {
	vec []float64
	err error
}

// Embed implements Embedder.
func (g *Guarded) Embed(ctx context.Context, tokens []string) ([]float64, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan embedResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- embedResult{err: fmt.Errorf("%w: %v", ErrEmbedPanic, r)}
			}
		}()
		vec, err := g.next.Embed(ctx, tokens)
		done <- embedResult{vec: vec, err: err}
	}()

	select {
	case res := <-done:
		metrics.RecordEmbedLatency(float64(time.Since(start).Milliseconds()))
		if res.err == nil && len(res.vec) != g.next.Dimension() {
			return nil, fmt.Errorf("%w: got %d want %d", ErrDimensionMismatch, len(res.vec), g.next.Dimension())
		}
		return res.vec, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w after %s: %w", ErrEmbedTimeout, g.timeout, ctx.Err())
		}
		return nil, ctx.Err()
	}
}
