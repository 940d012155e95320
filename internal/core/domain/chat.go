package domain

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is one prior conversation turn supplied by the client
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is one streamed question
type ChatRequest struct {
	Token     string        `json:"-"`
	Query     string        `json:"query"`
	Sources   []string      `json:"sources,omitempty"`
	History   []ChatMessage `json:"history,omitempty"`
	Model     string        `json:"model,omitempty"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// LastAssistantTurn returns the most recent assistant message, or ""
func (r *ChatRequest) LastAssistantTurn() string {
	for i := len(r.History) - 1; i >= 0; i-- {
		if r.History[i].Role == RoleAssistant {
			return r.History[i].Content
		}
	}
	return ""
}

// GenerateRequest is a single generation call
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  float64
}

// WebSearchResult is one grounding snippet
type WebSearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// WebSearchResponse is the web-search backend contract
type WebSearchResponse struct {
	Success bool              `json:"success"`
	Results []WebSearchResult `json:"results"`
	Source  string            `json:"source"`
}
