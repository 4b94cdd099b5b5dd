package embedding_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/placement/internal/domain/embedding"
	. "github.com/smartystreets/goconvey/convey"
)

type countingEmbedder struct {
	inner embedding.Embedder
	calls atomic.Int64
	delay time.Duration
}

func (c *countingEmbedder) Dimension() int { return c.inner.Dimension() }

func (c *countingEmbedder) Embed(ctx context.Context, tokens []string) ([]float64, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.inner.Embed(ctx, tokens)
}

// gatedEmbedder blocks every call until release is closed.
type gatedEmbedder struct {
	inner   embedding.Embedder
	release chan struct{}
	calls   atomic.Int64
}

func (g *gatedEmbedder) Dimension() int { return g.inner.Dimension() }

func (g *gatedEmbedder) Embed(ctx context.Context, tokens []string) ([]float64, error) {
	g.calls.Add(1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.release:
	}
	return g.inner.Embed(ctx, tokens)
}

type slowEmbedder struct{}

func (slowEmbedder) Dimension() int { return 8 }

func (slowEmbedder) Embed(ctx context.Context, _ []string) ([]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type panickingEmbedder struct{}

func (panickingEmbedder) Dimension() int { return 8 }

func (panickingEmbedder) Embed(context.Context, []string) ([]float64, error) {
	panic("model not loaded")
}

type shortEmbedder struct{}

func (shortEmbedder) Dimension() int { return 8 }

func (shortEmbedder) Embed(context.Context, []string) ([]float64, error) {
	return []float64{1, 2}, nil
}

func TestHashEmbedder(t *testing.T) {
	Convey("Given a hash embedder", t, func() {
		ctx := context.Background()
		h := embedding.NewHashEmbedder(64)

		Convey("Then an empty token list yields an all-zero vector", func() {
			v, err := h.Embed(ctx, nil)
			So(err, ShouldBeNil)
			So(len(v), ShouldEqual, 64)
			for _, x := range v {
				So(x, ShouldEqual, 0)
			}
		})

		Convey("Then embedding is deterministic and case-insensitive", func() {
			a, _ := h.Embed(ctx, []string{"Python", "SQL"})
			b, _ := h.Embed(ctx, []string{"python", "sql"})
			So(a, ShouldResemble, b)
			sim, err := embedding.Cosine(a, b)
			So(err, ShouldBeNil)
			So(sim, ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("Then different skills are less similar than identical ones", func() {
			a, _ := h.Embed(ctx, []string{"python"})
			b, _ := h.Embed(ctx, []string{"welding"})
			sim, _ := embedding.Cosine(a, b)
			So(sim, ShouldBeLessThan, 0.9)
		})

		Convey("Then the default dimension is used for non-positive input", func() {
			So(embedding.NewHashEmbedder(0).Dimension(), ShouldEqual, embedding.DefaultDimension)
		})

		Convey("Then a cancelled context is honored", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := h.Embed(cctx, []string{"go"})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestCosineAndMean(t *testing.T) {
	Convey("Given vector helpers", t, func() {
		Convey("Cosine of a zero vector is zero", func() {
			sim, err := embedding.Cosine([]float64{0, 0}, []float64{1, 0})
			So(err, ShouldBeNil)
			So(sim, ShouldEqual, 0)
		})

		Convey("Cosine rejects mismatched dimensions", func() {
			_, err := embedding.Cosine([]float64{1}, []float64{1, 0})
			So(errors.Is(err, embedding.ErrDimensionMismatch), ShouldBeTrue)
		})

		Convey("Cosine of orthogonal vectors is zero", func() {
			sim, _ := embedding.Cosine([]float64{1, 0}, []float64{0, 1})
			So(math.Abs(sim), ShouldBeLessThan, 1e-12)
		})

		Convey("Mean averages element-wise", func() {
			m, err := embedding.Mean([][]float64{{1, 3}, {3, 5}}, 2)
			So(err, ShouldBeNil)
			So(m, ShouldResemble, []float64{2, 4})
		})
	})
}

func TestCachedEmbedder(t *testing.T) {
	Convey("Given a cached embedder", t, func() {
		ctx := context.Background()
		backend := &countingEmbedder{inner: embedding.NewHashEmbedder(16)}

		Convey("When the same list is embedded twice", func() {
			c := embedding.NewCachedEmbedder(backend)
			a, err := c.Embed(ctx, []string{"go", "sql"})
			So(err, ShouldBeNil)
			b, err := c.Embed(ctx, []string{"go", "sql"})
			So(err, ShouldBeNil)

			Convey("Then the backend is called once and results match", func() {
				So(backend.calls.Load(), ShouldEqual, 1)
				So(a, ShouldResemble, b)
				So(c.Len(), ShouldEqual, 1)
			})

			Convey("Then callers cannot corrupt the cache", func() {
				a[0] = 42
				again, _ := c.Embed(ctx, []string{"go", "sql"})
				So(again[0], ShouldNotEqual, 42)
			})
		})

		Convey("When the cache is bounded", func() {
			c := embedding.NewCachedEmbedder(backend, embedding.WithMaxEntries(2))
			_, _ = c.Embed(ctx, []string{"a"})
			_, _ = c.Embed(ctx, []string{"b"})
			_, _ = c.Embed(ctx, []string{"c"})

			Convey("Then the oldest entry is evicted", func() {
				So(c.Len(), ShouldEqual, 2)
				calls := backend.calls.Load()
				_, _ = c.Embed(ctx, []string{"a"})
				So(backend.calls.Load(), ShouldEqual, calls+1)
				_, _ = c.Embed(ctx, []string{"c"})
				So(backend.calls.Load(), ShouldEqual, calls+1)
			})
		})

		Convey("When many goroutines request the same list concurrently", func() {
			slow := &countingEmbedder{inner: embedding.NewHashEmbedder(16), delay: 20 * time.Millisecond}
			c := embedding.NewCachedEmbedder(slow)
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = c.Embed(ctx, []string{"kafka"})
				}()
			}
			wg.Wait()

			Convey("Then the backend call is shared", func() {
				So(slow.calls.Load(), ShouldBeLessThanOrEqualTo, 2)
			})
		})

		Convey("When the caller that started a shared call is cancelled", func() {
			gate := &gatedEmbedder{inner: embedding.NewHashEmbedder(16), release: make(chan struct{})}
			c := embedding.NewCachedEmbedder(gate)

			firstCtx, cancelFirst := context.WithCancel(ctx)
			firstErr := make(chan error, 1)
			go func() {
				_, err := c.Embed(firstCtx, []string{"python"})
				firstErr <- err
			}()
			for gate.calls.Load() == 0 {
				time.Sleep(time.Millisecond)
			}

			type result struct {
				vec []float64
				err error
			}
			second := make(chan result, 1)
			go func() {
				vec, err := c.Embed(ctx, []string{"python"})
				second <- result{vec, err}
			}()
			time.Sleep(10 * time.Millisecond)

			cancelFirst()
			err := <-firstErr
			close(gate.release)
			got := <-second

			Convey("Then only that caller sees the cancellation", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(got.err, ShouldBeNil)
				So(len(got.vec), ShouldEqual, 16)
				So(gate.calls.Load(), ShouldEqual, 1)
			})
		})
	})
}

func TestGuardedEmbedder(t *testing.T) {
	Convey("Given a guarded embedder", t, func() {
		ctx := context.Background()

		Convey("When the backend hangs past the timeout", func() {
			g := embedding.NewGuarded(slowEmbedder{}, 10*time.Millisecond)
			_, err := g.Embed(ctx, []string{"go"})
			So(errors.Is(err, embedding.ErrEmbedTimeout), ShouldBeTrue)
		})

		Convey("When the backend panics", func() {
			g := embedding.NewGuarded(panickingEmbedder{}, time.Second)
			_, err := g.Embed(ctx, []string{"go"})
			So(errors.Is(err, embedding.ErrEmbedPanic), ShouldBeTrue)
		})

		Convey("When the backend returns the wrong dimension", func() {
			g := embedding.NewGuarded(shortEmbedder{}, time.Second)
			_, err := g.Embed(ctx, []string{"go"})
			So(errors.Is(err, embedding.ErrDimensionMismatch), ShouldBeTrue)
		})

		Convey("When the backend is healthy", func() {
			g := embedding.NewGuarded(embedding.NewHashEmbedder(8), time.Second)
			v, err := g.Embed(ctx, []string{"go"})
			So(err, ShouldBeNil)
			So(len(v), ShouldEqual, 8)
		})
	})
}
