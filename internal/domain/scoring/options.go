package scoring

import "github.com/okian/placement/pkg/logger"

// Option configures a CompositeScorer.
type Option func(*CompositeScorer)

// WithWeights sets the factor weights. New rejects weights that fail
// Weights.Validate.
func WithWeights(w Weights) Option {
	return func(s *CompositeScorer) {
		s.weights = w
	}
}

// WithPolicy sets the tier ranks and equity priority sets.
func WithPolicy(p Policy) Option {
	return func(s *CompositeScorer) {
		if len(p.QualificationRanks) > 0 {
			s.policy = p.clone()
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *CompositeScorer) {
		if l != nil {
			s.log = l
		}
	}
}
