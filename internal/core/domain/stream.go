package domain

// EventType tags a StreamEvent
type EventType string

const (
	EventStatus EventType = "status"
	EventToken  EventType = "token"
	EventSites  EventType = "sites"
	EventDone   EventType = "done"
)

// StreamEvent is one element of an answer stream.
// Exactly one of the payload fields is set, matching Type.
type StreamEvent struct {
	Type   EventType     `json:"type"`
	Status string        `json:"status,omitempty"`
	Token  string        `json:"token,omitempty"`
	Sites  []SiteMarker  `json:"sites,omitempty"`
	Done   *DoneMetadata `json:"done,omitempty"`
}

// DoneMetadata summarises how an answer was produced
type DoneMetadata struct {
	Intent            Intent   `json:"intent"`
	Confidence        float64  `json:"confidence"`
	Reason            string   `json:"reason"`
	SearchHint        string   `json:"search_hint,omitempty"`
	IsSuperlative     bool     `json:"is_superlative"`
	ResolvedReference string   `json:"resolved_reference,omitempty"`
	Sources           []string `json:"sources,omitempty"`
	ResultCount       int      `json:"result_count"`
	HighlightCount    int      `json:"highlight_count"`
	Model             string   `json:"model,omitempty"`
	Grounded          bool     `json:"grounded"`
	Fallback          bool     `json:"fallback"`
	ElapsedMillis     int64    `json:"elapsed_ms"`
}

// StatusEvent builds a status event
func StatusEvent(msg string) StreamEvent {
	return StreamEvent{Type: EventStatus, Status: msg}
}

// TokenEvent builds a token event
func TokenEvent(text string) StreamEvent {
	return StreamEvent{Type: EventToken, Token: text}
}

// SitesEvent builds a sites event
func SitesEvent(sites []SiteMarker) StreamEvent {
	return StreamEvent{Type: EventSites, Sites: sites}
}

// DoneEvent builds the terminal event
func DoneEvent(meta DoneMetadata) StreamEvent {
	return StreamEvent{Type: EventDone, Done: &meta}
}
