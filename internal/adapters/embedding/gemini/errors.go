package gemini

import "errors"

// Sentinel error kinds for this package.
var (
	ErrMissingAPIKey = errors.New("gemini api key is required")
	ErrEmptyResponse = errors.New("gemini returned no embeddings")
)
