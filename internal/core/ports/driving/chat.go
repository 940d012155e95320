package driving

import (
	"context"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// ChatService answers a question as a stream of events.
// The emit callback is invoked sequentially; the stream always ends with a
// done event unless the context is cancelled first.
type ChatService interface {
	Stream(ctx context.Context, req domain.ChatRequest, emit func(domain.StreamEvent) error) error
}

// QueryAnalyzer exposes classification and parsing without running a search
type QueryAnalyzer interface {
	Analyze(query string) domain.QueryAnalysis
}
