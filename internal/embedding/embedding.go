// Package embedding defines oxdb's embedding provider contract, which
// maps text to a fixed-length float64 vector, plus a dependency-free
// default implementation so the repository runs without a network
// model.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

// Provider generates fixed-length float64 embeddings for text.
type Provider interface {
	// Encode embeds one or more texts into equal-length float64 vectors,
	// in input order.
	Encode(ctx context.Context, texts []string) ([][]float64, error)
	// Dimensions reports the fixed vector length this provider produces.
	Dimensions() int
	// Name identifies the model, stored as Document's vec_model entry.
	Name() string
}

// StaticDimensions is the vector length produced by StaticProvider.
const StaticDimensions = 256

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// StaticProvider generates deterministic hash-projection embeddings with
// no external model or network dependency: tokens and character n-grams
// are hashed into buckets of a fixed-length vector, then the vector is
// L2-normalized. Semantic quality is far below a trained model, but it
// makes the whole Document engine runnable standalone.
type StaticProvider struct{}

// NewStaticProvider returns a StaticProvider.
func NewStaticProvider() *StaticProvider { return &StaticProvider{} }

// Encode implements Provider.
func (p *StaticProvider) Encode(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = p.embedOne(t)
	}
	return out, nil
}

func (p *StaticProvider) embedOne(text string) []float64 {
	vec := make([]float64, StaticDimensions)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return vec
	}

	for _, tok := range tokenize(trimmed) {
		vec[hashToIndex(tok, StaticDimensions)] += tokenWeight
	}
	normalized := normalizeForNgrams(trimmed)
	for _, gram := range extractNgrams(normalized, ngramSize) {
		vec[hashToIndex(gram, StaticDimensions)] += ngramWeight
	}
	return normalizeVector(vec)
}

// Dimensions implements Provider.
func (p *StaticProvider) Dimensions() int { return StaticDimensions }

// Name implements Provider.
func (p *StaticProvider) Name() string { return "static" }

func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		lower := strings.ToLower(word)
		if lower != "" {
			tokens = append(tokens, lower)
		}
	}
	return tokens
}

func normalizeForNgrams(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	grams := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		grams = append(grams, text[i:i+n])
	}
	return grams
}

func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

func normalizeVector(v []float64) []float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	mag := math.Sqrt(sumSq)
	if mag == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / mag
	}
	return out
}

// Validate checks that every vector in vecs has the provider's expected
// dimensionality, surfacing a BadArgument rather than letting a
// mismatched vector corrupt similarity search downstream.
func Validate(p Provider, vecs [][]float64) error {
	want := p.Dimensions()
	for i, v := range vecs {
		if len(v) != want {
			return ouxerr.BadArgumentf("embedding %d has length %d, want %d", i, len(v), want)
		}
	}
	return nil
}
