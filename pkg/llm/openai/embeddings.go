package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/openai/openai-go"
)

// DefaultEmbeddingModel is the embedding model used when none is configured.
const DefaultEmbeddingModel = "text-embedding-ada-002"

// Embedder implements llm.Embedder against the embeddings endpoint.
type Embedder struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// EmbedderOption is a function that configures an Embedder.
type EmbedderOption func(*Embedder)

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) EmbedderOption {
	return func(e *Embedder) {
		if model != "" {
			e.model = model
		}
	}
}

// WithEmbeddingBaseURL sets a custom base URL.
func WithEmbeddingBaseURL(baseURL string) EmbedderOption {
	return func(e *Embedder) {
		if baseURL != "" {
			e.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithEmbeddingHTTPClient replaces the HTTP client.
func WithEmbeddingHTTPClient(client *http.Client) EmbedderOption {
	return func(e *Embedder) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// NewEmbedder creates an embedder. Key and base URL fall back to the same
// environment variables as NewProvider. A missing key is only reported by
// Embed, so commands that never embed do not need one.
func NewEmbedder(apiKey string, opts ...EmbedderOption) *Embedder {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	e := &Embedder{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultEmbeddingModel,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.baseURL == DefaultBaseURL {
		if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
			e.baseURL = strings.TrimRight(envBaseURL, "/")
		}
	}
	return e
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	return e.model
}

// Embed returns one vector per input, in input order.
func (e *Embedder) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if e.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: openai.EmbeddingModel(e.model),
	}
	bodyBytes, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := e.baseURL + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	openaiLog.Debugf("POST %s model=%s inputs=%d", url, e.model, len(inputs))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, readErrorResponse(resp)
	}
	defer resp.Body.Close()

	var out openai.CreateEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embeddings response: %w", err)
	}
	if len(out.Data) != len(inputs) {
		return nil, fmt.Errorf("embeddings response has %d vectors for %d inputs", len(out.Data), len(inputs))
	}

	sort.Slice(out.Data, func(i, j int) bool { return out.Data[i].Index < out.Data[j].Index })
	vectors := make([][]float64, len(out.Data))
	for i, d := range out.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
