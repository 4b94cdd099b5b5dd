package service

import (
	"github.com/okian/placement/internal/adapters/repository"
	"github.com/okian/placement/internal/domain/embedding"
	"github.com/okian/placement/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEmbedder replaces the configured embedding backend. The timeout guard
// and the cache are still applied on top of it.
func WithEmbedder(e embedding.Embedder) Option {
	return func(s *Service) {
		if e != nil {
			s.backend = e
		}
	}
}

// WithJobStore replaces the configured job store. The caller keeps
// ownership: Stop leaves it open so the service can be started again.
func WithJobStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.jobs = store
		}
	}
}

// WithIDGenerator overrides how allocation job ids are minted.
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}
