package websearch

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

var _ driven.WebSearcher = (*SearXNG)(nil)

// SearXNG queries a self-hosted SearXNG instance through its JSON format
type SearXNG struct {
	baseURL string
	client  *http.Client
}

type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs query in category ("general" when empty)
func (s *SearXNG) Search(ctx context.Context, query string, maxResults int, category string) (*domain.WebSearchResponse, error) {
	if category == "" {
		category = "general"
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("categories", category)

	var raw searxngResponse
	if err := getJSON(ctx, s.client, s.baseURL+"/search?"+params.Encode(), nil, &raw); err != nil {
		return nil, err
	}

	results := make([]domain.WebSearchResult, 0, len(raw.Results))
	for _, r := range raw.Results {
		if r.URL == "" || strings.TrimSpace(r.Content) == "" {
			continue
		}
		results = append(results, domain.WebSearchResult{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return respond(string(ProviderSearXNG), results, maxResults), nil
}
