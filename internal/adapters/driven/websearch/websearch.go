// Package websearch implements grounding web search backends.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

// Provider names a web search backend
type Provider string

const (
	ProviderSearXNG Provider = "searxng"
	ProviderBrave   Provider = "brave"
	ProviderNone    Provider = ""
)

// ErrUnsupportedProvider is returned for unknown provider names
var ErrUnsupportedProvider = errors.New("unsupported web search provider")

// Config selects and configures a backend
type Config struct {
	Provider Provider
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// New builds the configured searcher. ProviderNone returns nil, nil and the
// knowledge path answers ungrounded.
func New(cfg Config) (driven.WebSearcher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case ProviderNone:
		return nil, nil
	case ProviderSearXNG:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("searxng requires a base URL")
		}
		return &SearXNG{baseURL: strings.TrimRight(cfg.BaseURL, "/"), client: client}, nil
	case ProviderBrave:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("brave requires an API key")
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultBraveURL
		}
		return &Brave{baseURL: strings.TrimRight(baseURL, "/"), apiKey: cfg.APIKey, client: client}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}

// getJSON performs a GET and decodes a 200 response into out
func getJSON(ctx context.Context, client *http.Client, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("search returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// respond truncates results to max and marks the response successful when non-empty
func respond(source string, results []domain.WebSearchResult, max int) *domain.WebSearchResponse {
	if max > 0 && len(results) > max {
		results = results[:max]
	}
	return &domain.WebSearchResponse{
		Success: len(results) > 0,
		Results: results,
		Source:  source,
	}
}
