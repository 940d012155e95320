package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

const (
	defaultContextBudget   = 3000
	maxDescriptionRunes    = 400
	maxSnippetRunes        = 600
	contextTruncatedFooter = "(further matching sites omitted)"
)

// charCounter approximates tokens as four characters each
type charCounter struct{}

func (charCounter) Count(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// ContextBlock is the serialized prompt context and how much of the input it holds
type ContextBlock struct {
	Text     string
	Included int
	Tokens   int
}

// ContextBuilder serializes ranked records into a token-bounded text block
type ContextBuilder struct {
	counter driven.TokenCounter
	budget  int
}

// NewContextBuilder creates a builder. A nil counter falls back to a
// character estimate; a non-positive budget uses 3000 tokens.
func NewContextBuilder(counter driven.TokenCounter, budget int) *ContextBuilder {
	if counter == nil {
		counter = charCounter{}
	}
	if budget <= 0 {
		budget = defaultContextBudget
	}
	return &ContextBuilder{counter: counter, budget: budget}
}

// Budget returns the token budget
func (b *ContextBuilder) Budget() int {
	return b.budget
}

// BuildSites renders sites in rank order until the budget is spent.
// Entries are never cut in half; the first entry that does not fit ends the block.
func (b *ContextBuilder) BuildSites(sites []*domain.Site) ContextBlock {
	var sb strings.Builder
	used := 0
	included := 0
	for i, s := range sites {
		entry := formatSite(i+1, s)
		cost := b.counter.Count(entry)
		if used+cost > b.budget {
			break
		}
		sb.WriteString(entry)
		used += cost
		included++
	}
	if included < len(sites) && included > 0 {
		sb.WriteString(contextTruncatedFooter)
		sb.WriteString("\n")
	}
	return ContextBlock{Text: sb.String(), Included: included, Tokens: used}
}

// BuildSnippets renders web search results for grounded answers
func (b *ContextBuilder) BuildSnippets(results []domain.WebSearchResult) ContextBlock {
	var sb strings.Builder
	used := 0
	included := 0
	for i, r := range results {
		entry := fmt.Sprintf("[%d] %s\n%s\nURL: %s\n\n", i+1, r.Title, truncateRunes(r.Content, maxSnippetRunes), r.URL)
		cost := b.counter.Count(entry)
		if used+cost > b.budget {
			break
		}
		sb.WriteString(entry)
		used += cost
		included++
	}
	return ContextBlock{Text: sb.String(), Included: included, Tokens: used}
}

func formatSite(n int, s *domain.Site) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d] %s", n, s.Name)
	if s.SiteType != "" {
		fmt.Fprintf(&sb, " (%s)", s.SiteType)
	}
	if s.Country != "" {
		fmt.Fprintf(&sb, ", %s", s.Country)
	}
	sb.WriteString("\n")

	period := s.PeriodName
	if dr := s.DateRange(); dr != "" {
		if period != "" {
			period += ", " + dr
		} else {
			period = dr
		}
	}
	if period != "" {
		fmt.Fprintf(&sb, "Period: %s\n", period)
	}
	fmt.Fprintf(&sb, "Location: %.4f, %.4f\n", s.Lat, s.Lon)
	if s.NearFeature != "" {
		fmt.Fprintf(&sb, "Near: %s (%s)\n", s.NearFeature, strings.ReplaceAll(s.FeatureType, "_", " "))
	}
	if s.Source != "" {
		fmt.Fprintf(&sb, "Source: %s\n", s.Source)
	}
	if s.Description != "" {
		fmt.Fprintf(&sb, "%s\n", truncateRunes(s.Description, maxDescriptionRunes))
	}
	sb.WriteString("\n")
	return sb.String()
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "..."
}
