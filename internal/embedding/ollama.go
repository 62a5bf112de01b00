package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

// DefaultOllamaHost is the Ollama daemon address used when none is given.
const DefaultOllamaHost = "http://localhost:11434"

// DefaultOllamaTimeout bounds a single /api/embed round trip.
const DefaultOllamaTimeout = 30 * time.Second

// OllamaProvider embeds text through a local Ollama daemon's /api/embed
// endpoint. Unlike StaticProvider it depends on a running external
// process; callers typically wrap it in CachedProvider to avoid paying
// the network cost for repeated pushes of the same text.
type OllamaProvider struct {
	client *http.Client
	host   string
	model  string
	dims   int
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

var _ Provider = (*OllamaProvider)(nil)

// NewOllamaProvider returns a provider targeting host (DefaultOllamaHost
// if empty) using model, expecting dims-length vectors back.
func NewOllamaProvider(host, model string, dims int) *OllamaProvider {
	if host == "" {
		host = DefaultOllamaHost
	}
	return &OllamaProvider{
		client: &http.Client{Timeout: DefaultOllamaTimeout},
		host:   host,
		model:  model,
		dims:   dims,
	}
}

// Encode implements Provider.
func (p *OllamaProvider) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: p.model, Input: texts})
	if err != nil {
		return nil, ouxerr.Internalf("marshaling ollama request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, ouxerr.Internalf("building ollama request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, ouxerr.EmbeddingErr("calling ollama", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, ouxerr.EmbeddingErr("ollama request", fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, ouxerr.EmbeddingErr("decoding ollama response", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, ouxerr.EmbeddingErr("ollama response", fmt.Errorf("got %d embeddings for %d inputs", len(parsed.Embeddings), len(texts)))
	}
	if err := Validate(p, parsed.Embeddings); err != nil {
		return nil, err
	}
	return parsed.Embeddings, nil
}

// Dimensions implements Provider.
func (p *OllamaProvider) Dimensions() int { return p.dims }

// Name implements Provider.
func (p *OllamaProvider) Name() string { return "ollama:" + p.model }
