package services

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

const (
	resolverMaxWords  = 8
	resolverMaxTokens = 30
	noReference       = "NO_REFERENCE"
)

var acknowledgementRe = regexp.MustCompile(`^(hi|hello|hey|thanks|thank you|thx|ok|okay|cool|great|nice|awesome|yes|no|sure|bye|goodbye)( (there|you|so much|very much))?[\s!.?]*$`)

// ReferenceResolver names the site a follow-up question points back to
type ReferenceResolver struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewReferenceResolver creates a resolver whose generation call is bounded by timeout
func NewReferenceResolver(timeout time.Duration, logger *slog.Logger) *ReferenceResolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferenceResolver{timeout: timeout, logger: logger}
}

// NeedsResolution reports whether a query is worth a resolution call
func NeedsResolution(query, lastAnswer string) bool {
	if strings.TrimSpace(lastAnswer) == "" {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(query))
	if lower == "" || len(strings.Fields(lower)) > resolverMaxWords {
		return false
	}
	if acknowledgementRe.MatchString(lower) {
		return false
	}
	for _, m := range tables.siteTypes {
		if m.in(lower) {
			return false
		}
	}
	return true
}

// Resolve returns the referenced site name, or "" when there is none or the
// backend fails. It never returns an error.
func (r *ReferenceResolver) Resolve(ctx context.Context, llm driven.LLMService, query, lastAnswer string) string {
	if llm == nil || !NeedsResolution(query, lastAnswer) {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := llm.Generate(ctx, domain.GenerateRequest{
		Prompt:       resolverPrompt(query, lastAnswer),
		SystemPrompt: resolverSystemPrompt,
		MaxTokens:    resolverMaxTokens,
		Temperature:  0,
	})
	if err != nil {
		r.logger.Warn("reference resolution failed", "error", err)
		return ""
	}
	return cleanReference(reply, query)
}

// cleanReference reduces a reply to a bare site name
func cleanReference(reply, query string) string {
	name := strings.TrimSpace(reply)
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.Trim(name, "\"'`*.!? ")
	if name == "" || strings.Contains(strings.ToUpper(name), noReference) {
		return ""
	}
	if len(strings.Fields(name)) > resolverMaxWords {
		return ""
	}
	if strings.Contains(strings.ToLower(query), strings.ToLower(name)) {
		return ""
	}
	return name
}
