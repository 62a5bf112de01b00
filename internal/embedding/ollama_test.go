package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProviderEncodeRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		inputs, ok := req.Input.([]any)
		require.True(t, ok)

		resp := ollamaEmbedResponse{Embeddings: make([][]float64, len(inputs))}
		for i := range inputs {
			resp.Embeddings[i] = []float64{1, 0, 0}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model", 3)
	vecs, err := p.Encode(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float64{1, 0, 0}, vecs[0])
	assert.Equal(t, "ollama:test-model", p.Name())
	assert.Equal(t, 3, p.Dimensions())
}

func TestOllamaProviderEncodeEmptyInput(t *testing.T) {
	p := NewOllamaProvider("http://unused.invalid", "m", 3)
	vecs, err := p.Encode(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestOllamaProviderEncodeRejectsMismatchedDimensions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ollamaEmbedResponse{Embeddings: [][]float64{{1, 2}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "m", 3)
	_, err := p.Encode(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestOllamaProviderEncodeRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "m", 3)
	_, err := p.Encode(context.Background(), []string{"a"})
	assert.Error(t, err)
}
