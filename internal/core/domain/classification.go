package domain

// Intent is the routing decision for a user query
type Intent string

const (
	IntentKnowledge Intent = "knowledge" // answer directly, optionally web-grounded
	IntentDatabase  Intent = "database"  // retrieve sites from the catalog
)

// ClassificationResult is produced once per query and never mutated.
type ClassificationResult struct {
	Intent        Intent  `json:"intent"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
	SearchHint    string  `json:"search_hint,omitempty"`
	IsSuperlative bool    `json:"is_superlative"`
}

// Highlight limits applied when emitting sites.
const (
	SuperlativeHighlightLimit = 3
	DefaultHighlightLimit     = 20
)

// HighlightLimit returns how many sites should be highlighted for this classification.
func (c ClassificationResult) HighlightLimit() int {
	if c.IsSuperlative {
		return SuperlativeHighlightLimit
	}
	return DefaultHighlightLimit
}
