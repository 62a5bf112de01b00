package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProviderIsDeterministic(t *testing.T) {
	p := NewStaticProvider()
	a, err := p.Encode(context.Background(), []string{"hello world"})
	require.NoError(t, err)
	b, err := p.Encode(context.Background(), []string{"hello world"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStaticProviderOutputIsUnitLength(t *testing.T) {
	p := NewStaticProvider()
	vecs, err := p.Encode(context.Background(), []string{"some text to embed"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	require.Len(t, vecs[0], StaticDimensions)

	var sumSq float64
	for _, x := range vecs[0] {
		sumSq += x * x
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-9)
}

func TestStaticProviderEmptyTextIsZeroVector(t *testing.T) {
	p := NewStaticProvider()
	vecs, err := p.Encode(context.Background(), []string{"   "})
	require.NoError(t, err)
	for _, x := range vecs[0] {
		assert.Equal(t, 0.0, x)
	}
}

// countingProvider records how many texts reached the inner encoder.
type countingProvider struct {
	inner Provider
	calls int
}

func (c *countingProvider) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	c.calls += len(texts)
	return c.inner.Encode(ctx, texts)
}
func (c *countingProvider) Dimensions() int { return c.inner.Dimensions() }
func (c *countingProvider) Name() string    { return c.inner.Name() }

func TestCachedProviderOnlyEmbedsMisses(t *testing.T) {
	counter := &countingProvider{inner: NewStaticProvider()}
	p := NewCachedProvider(counter, 10)

	first, err := p.Encode(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, 2, counter.calls)

	second, err := p.Encode(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 3, counter.calls, "only the miss should reach the inner provider")
	assert.Equal(t, first[0], second[0])
	assert.Equal(t, first[1], second[1])
}

func TestValidateRejectsWrongDimensions(t *testing.T) {
	p := NewStaticProvider()
	err := Validate(p, [][]float64{make([]float64, StaticDimensions-1)})
	assert.Error(t, err)
}
