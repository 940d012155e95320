package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// wordCounter counts whitespace separated words as tokens
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func TestCharCounter(t *testing.T) {
	c := charCounter{}
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("abcd"))
	assert.Equal(t, 2, c.Count("abcde"))
	assert.Equal(t, 1, c.Count("Ωμέγ"), "counts runes, not bytes")
}

func TestContextBuilder_Defaults(t *testing.T) {
	b := NewContextBuilder(nil, 0)
	assert.Equal(t, 3000, b.Budget())
}

func TestContextBuilder_BuildSites(t *testing.T) {
	sites := []*domain.Site{
		{
			ID: "ara", Name: "Ara Pacis", SiteType: "altar", Country: "Italy",
			PeriodName: "Roman", PeriodStart: domain.IntPtr(-13), PeriodEnd: domain.IntPtr(9),
			Lat: 41.9062, Lon: 12.4755, Source: "pleiades", Description: "Altar of Augustan Peace.",
		},
		{ID: "etna-villa", Name: "Villa", Lat: 37.7, Lon: 15.0, NearFeature: "Etna", FeatureType: "volcano"},
	}

	block := NewContextBuilder(nil, 0).BuildSites(sites)
	assert.Equal(t, 2, block.Included)
	assert.Positive(t, block.Tokens)
	assert.Contains(t, block.Text, "[1] Ara Pacis (altar), Italy\n")
	assert.Contains(t, block.Text, "Period: Roman, 13 BC to AD 9\n")
	assert.Contains(t, block.Text, "Location: 41.9062, 12.4755\n")
	assert.Contains(t, block.Text, "Source: pleiades\n")
	assert.Contains(t, block.Text, "Altar of Augustan Peace.")
	assert.Contains(t, block.Text, "[2] Villa\n")
	assert.Contains(t, block.Text, "Near: Etna (volcano)")
	assert.NotContains(t, block.Text, contextTruncatedFooter)
}

func TestContextBuilder_RespectsBudget(t *testing.T) {
	var sites []*domain.Site
	for i := 0; i < 10; i++ {
		sites = append(sites, &domain.Site{Name: "Site", Description: strings.Repeat("word ", 20)})
	}

	b := NewContextBuilder(wordCounter{}, 100)
	block := b.BuildSites(sites)
	assert.Less(t, block.Included, len(sites))
	assert.Positive(t, block.Included)
	assert.LessOrEqual(t, block.Tokens, 100)
	assert.True(t, strings.HasSuffix(block.Text, contextTruncatedFooter+"\n"))
	assert.Equal(t, block.Included, strings.Count(block.Text, "Location:"))
}

func TestContextBuilder_FirstEntryTooLarge(t *testing.T) {
	sites := []*domain.Site{{Name: "Huge", Description: strings.Repeat("word ", 500)}}
	block := NewContextBuilder(wordCounter{}, 50).BuildSites(sites)
	assert.Zero(t, block.Included)
	assert.Empty(t, block.Text)
}

func TestContextBuilder_BuildSnippets(t *testing.T) {
	results := []domain.WebSearchResult{
		{Title: "Stonehenge", URL: "https://example.org/stonehenge", Content: "A prehistoric monument."},
		{Title: "Avebury", URL: "https://example.org/avebury", Content: strings.Repeat("x", 2000)},
	}
	block := NewContextBuilder(nil, 0).BuildSnippets(results)
	assert.Equal(t, 2, block.Included)
	assert.Contains(t, block.Text, "[1] Stonehenge\nA prehistoric monument.\nURL: https://example.org/stonehenge")
	assert.Contains(t, block.Text, strings.Repeat("x", maxSnippetRunes)+"...")
	assert.NotContains(t, block.Text, strings.Repeat("x", maxSnippetRunes+1))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("  short ", 10))
	assert.Equal(t, "abc...", truncateRunes("abcdef", 3))
	assert.Equal(t, "αβγδ...", truncateRunes("αβγδεζ", 4))
}
