// Package gemini embeds skill lists with the Gemini embedding API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/okian/placement/internal/domain/embedding"
)

const (
	defaultModel     = "text-embedding-004"
	defaultDimension = 768
)

// embedAPI is the subset of genai.Models used here.
type embedAPI interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder implements embedding.Embedder on top of Gemini. Each token is
// embedded as a separate content and the vectors are averaged.
type Embedder struct {
	api       embedAPI
	model     string
	dimension int
}

var _ embedding.Embedder = (*Embedder)(nil)

// New creates an Embedder for the Gemini API backend. Empty model and
// non-positive dimension select the defaults.
func New(ctx context.Context, apiKey, model string, dimension int) (*Embedder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newWithAPI(client.Models, model, dimension), nil
}

func newWithAPI(api embedAPI, model string, dimension int) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if dimension <= 0 {
		dimension = defaultDimension
	}
	return &Embedder{api: api, model: model, dimension: dimension}
}

// Dimension returns the configured output dimensionality.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns the mean embedding of tokens. An empty list yields a zero
// vector without calling the API.
func (e *Embedder) Embed(ctx context.Context, tokens []string) ([]float64, error) {
	if len(tokens) == 0 {
		return make([]float64, e.dimension), nil
	}

	contents := make([]*genai.Content, 0, len(tokens))
	for _, t := range tokens {
		contents = append(contents, genai.NewContentFromText(strings.ToLower(strings.TrimSpace(t)), genai.RoleUser))
	}

	dim := int32(e.dimension) //nolint:gosec // bounded by config validation
	resp, err := e.api.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             "SEMANTIC_SIMILARITY",
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 {
		return nil, ErrEmptyResponse
	}

	vectors := make([][]float64, 0, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) != e.dimension {
			got := 0
			if emb != nil {
				got = len(emb.Values)
			}
			return nil, fmt.Errorf("%w: embedding %d has %d values, want %d", embedding.ErrDimensionMismatch, i, got, e.dimension)
		}
		v := make([]float64, len(emb.Values))
		for j, x := range emb.Values {
			v[j] = float64(x)
		}
		vectors = append(vectors, v)
	}
	return embedding.Mean(vectors, e.dimension)
}
