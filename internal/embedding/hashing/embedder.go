// Package hashing is a deterministic local embedder based on signed feature
// hashing of word unigrams and bigrams. It needs no network and produces
// identical vectors across runs and machines.
package hashing

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/riskdex/internal/domain"
)

// Provider and Model identify the embedding space in version strings.
const (
	Provider = "hashing"
	Model    = "xxhash-bigram"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:[.'][\p{L}\p{N}]+)*`)

// Embedder hashes tokens into a fixed number of buckets.
type Embedder struct {
	dims    int
	version string
}

// New creates a hashing embedder with the given dimensionality.
func New(dims int) (*Embedder, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("hashing embedder: dimensions must be positive, got %d", dims)
	}
	return &Embedder{dims: dims, version: domain.EmbeddingVersion(Provider, Model, dims)}, nil
}

// Version implements domain.Embedder.
func (e *Embedder) Version() string { return e.version }

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int { return e.dims }

// Embed implements domain.Embedder. Empty text embeds to the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("hashing embed: %w", err)
	}
	vec, n := e.vector(text)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: n, TotalTokens: n}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("hashing batch embed: %w", err)
		}
		vec, n := e.vector(t)
		out.Embeddings[i] = vec
		out.PromptTokens += n
		out.TotalTokens += n
	}
	return out, nil
}

// HealthCheck implements domain.HealthChecker.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) vector(text string) ([]float32, int) {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	acc := make([]float64, e.dims)
	for i, tok := range tokens {
		e.add(acc, "u:"+tok)
		if i > 0 {
			e.add(acc, "b:"+tokens[i-1]+" "+tok)
		}
	}

	var norm float64
	for i, v := range acc {
		if v != 0 {
			// sublinear term frequency keeps repeated labels from dominating
			acc[i] = math.Copysign(1+math.Log(math.Abs(v)), v)
		}
		norm += acc[i] * acc[i]
	}
	out := make([]float32, e.dims)
	if norm == 0 {
		return out, len(tokens)
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out, len(tokens)
}

func (e *Embedder) add(acc []float64, feature string) {
	h := xxhash.Sum64String(feature)
	idx := int(h % uint64(e.dims))
	if h>>63 == 1 {
		acc[idx]--
	} else {
		acc[idx]++
	}
}
