// README: Data provider adapters; turn trip parameters into search objectives and normalize the answers into Results.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wondura/internal/config"
)

var (
	// ErrSearchUnavailable means no search credential is configured.
	ErrSearchUnavailable = errors.New("search: not configured")
	// ErrSearchTimeout is returned when the search call outlives its context.
	ErrSearchTimeout = errors.New("search: timeout")
)

// Processor selects the search depth.
type Processor string

const (
	ProcessorPro  Processor = "pro"
	ProcessorFast Processor = "fast"
)

const betaHeader = "search-extract-2025-10-10"

// SearchRequest is one objective submitted to the search/extraction service.
type SearchRequest struct {
	Objective         string    `json:"objective"`
	Processor         Processor `json:"processor"`
	MaxResults        int       `json:"max_results"`
	MaxCharsPerResult int       `json:"max_chars_per_result"`
}

// SearchResult is a single extracted page.
type SearchResult struct {
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	Excerpts []string `json:"excerpts,omitempty"`
	Text     string   `json:"text,omitempty"`
}

// Content returns all extracted text of the result.
func (r SearchResult) Content() string {
	parts := make([]string, 0, len(r.Excerpts)+2)
	if r.Title != "" {
		parts = append(parts, r.Title)
	}
	parts = append(parts, r.Excerpts...)
	if r.Text != "" {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, "\n")
}

// SearchResponse is the service answer.
type SearchResponse struct {
	SearchID string         `json:"search_id,omitempty"`
	Results  []SearchResult `json:"results"`
}

// Texts returns Content() for every result.
func (r *SearchResponse) Texts() []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Content())
	}
	return out
}

// URLs returns the source URLs in result order.
func (r *SearchResponse) URLs() []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.URL != "" {
			out = append(out, res.URL)
		}
	}
	return out
}

// Searcher is the shared search capability every adapter submits to. Implementations must be goroutine-safe.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// ParallelClient calls the Parallel search API.
type ParallelClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewParallelClient returns ErrSearchUnavailable when cfg has no usable key.
func NewParallelClient(cfg config.SearchConfig) (*ParallelClient, error) {
	if !cfg.Enabled() {
		return nil, ErrSearchUnavailable
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.parallel.ai"
	}
	return &ParallelClient{
		baseURL: base,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		// Per-call deadlines come from the caller's context; this only guards against a stuck connection.
		client: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func (c *ParallelClient) Search(ctx context.Context, sr SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("search: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1beta/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("parallel-beta", betaHeader)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrSearchTimeout
		}
		return nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	if out.Results == nil {
		out.Results = []SearchResult{}
	}
	return &out, nil
}
