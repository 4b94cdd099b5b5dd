package matching

import (
	"runtime"

	"github.com/okian/placement/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds how many pairs are scored concurrently per candidate.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func defaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}
