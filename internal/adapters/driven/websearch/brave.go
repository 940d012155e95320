package websearch

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

var _ driven.WebSearcher = (*Brave)(nil)

const defaultBraveURL = "https://api.search.brave.com/res/v1"

// Brave queries the Brave Search API
type Brave struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
	News struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"news"`
}

// Search runs query. The "news" category also returns news results.
func (b *Brave) Search(ctx context.Context, query string, maxResults int, category string) (*domain.WebSearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	if maxResults > 0 {
		params.Set("count", strconv.Itoa(maxResults))
	}
	if category == "news" {
		params.Set("result_filter", "web,news")
	}
	header := http.Header{}
	header.Set("X-Subscription-Token", b.apiKey)

	var raw braveResponse
	if err := getJSON(ctx, b.client, b.baseURL+"/web/search?"+params.Encode(), header, &raw); err != nil {
		return nil, err
	}

	results := make([]domain.WebSearchResult, 0, len(raw.Web.Results)+len(raw.News.Results))
	for _, r := range raw.Web.Results {
		results = append(results, domain.WebSearchResult{Title: r.Title, URL: r.URL, Content: r.Description})
	}
	for _, r := range raw.News.Results {
		results = append(results, domain.WebSearchResult{Title: r.Title, URL: r.URL, Content: r.Description})
	}
	return respond(string(ProviderBrave), results, maxResults), nil
}
