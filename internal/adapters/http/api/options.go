package api

import (
	"golang.org/x/time/rate"

	"github.com/okian/placement/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithAPIKey requires key in the X-API-Key header of /v1 requests. An empty
// key disables the check.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithRateLimit applies a shared token bucket to /v1 requests. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
