// Package semantic scores the topical similarity of transcript text around
// candidate boundaries using a remote embedding service.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Static errors for oracle operations.
var (
	// ErrEndpointRequired is returned when the embedding endpoint is not provided.
	ErrEndpointRequired = errors.New("semantic: embedding endpoint is required")
	// ErrServerError is returned when the embedding service returns a 5xx status code.
	ErrServerError = errors.New("semantic: server error")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("semantic: request failed")
	// ErrBadResponse is returned when the embedding response is malformed.
	ErrBadResponse = errors.New("semantic: bad embedding response")
)

// Oracle scores the similarity of two texts. Available reports whether the
// oracle can actually serve scores; callers treat an unavailable or failing
// oracle as inconclusive and keep their candidate boundaries.
type Oracle interface {
	// Available reports whether Score can be called.
	Available() bool

	// Score returns the semantic similarity of a and b in [-1, 1].
	Score(ctx context.Context, a, b string) (float64, error)
}

// NoopOracle is the Oracle used when no embedding service is configured.
type NoopOracle struct{}

// Available implements Oracle.Available; always false.
func (NoopOracle) Available() bool { return false }

// Score implements Oracle.Score; never called by well-behaved callers.
func (NoopOracle) Score(context.Context, string, string) (float64, error) {
	return 0, errors.New("semantic: no-op oracle cannot score")
}

// HTTPOracle calls a remote embedding service and computes cosine
// similarity locally over the returned vectors.
type HTTPOracle struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// OracleOption is a function that configures an HTTPOracle.
type OracleOption func(*HTTPOracle)

// WithAPIKey sets the bearer token sent to the embedding service.
func WithAPIKey(key string) OracleOption {
	return func(o *HTTPOracle) {
		o.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) OracleOption {
	return func(o *HTTPOracle) {
		o.httpClient = c
	}
}

// NewHTTPOracle creates an oracle that embeds text via the service at
// endpoint. The endpoint must be provided.
func NewHTTPOracle(endpoint string, opts ...OracleOption) (*HTTPOracle, error) {
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}

	o := &HTTPOracle{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Available implements Oracle.Available.
func (o *HTTPOracle) Available() bool { return true }

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Score embeds both texts in a single request and returns their cosine
// similarity.
func (o *HTTPOracle) Score(ctx context.Context, a, b string) (float64, error) {
	bodyBytes, err := json.Marshal(embedRequest{Texts: []string{a, b}})
	if err != nil {
		return 0, fmt.Errorf("semantic: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, fmt.Errorf("semantic: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("semantic: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("semantic: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 {
			return 0, fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))
		}
		return 0, fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, fmt.Errorf("semantic: unmarshal response: %w", err)
	}
	if parsed.Error != "" {
		return 0, fmt.Errorf("%w: %s", ErrBadResponse, parsed.Error)
	}
	if len(parsed.Embeddings) != 2 || len(parsed.Embeddings[0]) == 0 ||
		len(parsed.Embeddings[0]) != len(parsed.Embeddings[1]) {
		return 0, ErrBadResponse
	}

	return Cosine(parsed.Embeddings[0], parsed.Embeddings[1]), nil
}

// Cosine returns the cosine similarity of two equal-length vectors. A zero
// vector yields 0.
func Cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Verify interface implementations at compile time.
var (
	_ Oracle = (*HTTPOracle)(nil)
	_ Oracle = NoopOracle{}
)
