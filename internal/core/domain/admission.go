package domain

import "time"

// Session is a connected client holding an access code.
// At most one live session exists per access code.
type Session struct {
	Token        string    `json:"token"`
	AccessCode   string    `json:"-"`
	ConnectedAt  time.Time `json:"connected_at"`
	LastActivity time.Time `json:"last_activity"`
}

// IsStale reports whether the session has been idle longer than timeout.
func (s *Session) IsStale(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(s.LastActivity) > timeout
}

// ConnectResult is the outcome of presenting an access code.
// Rejections are reported through Err rather than a separate error return
// because they are expected control flow for the HTTP layer.
type ConnectResult struct {
	Connected   bool   `json:"connected"`
	Reconnected bool   `json:"reconnected,omitempty"`
	TookOver    bool   `json:"took_over,omitempty"`
	Evicted     string `json:"-"`
	Err         error  `json:"-"`
}

// Queue positions returned by PositionOf.
const (
	PositionIdle       = -1
	PositionProcessing = 0
)

// QueueStatus is a point-in-time view of a token's place in the inference queue.
type QueueStatus struct {
	Connected  bool `json:"connected"`
	Position   int  `json:"position"`
	QueueDepth int  `json:"queue_depth"`
	Busy       bool `json:"busy"`
}

// Processing reports whether the token currently holds the inference turn.
func (q QueueStatus) Processing() bool {
	return q.Position == PositionProcessing
}

// AdmissionStats summarises admission state for health and metrics.
type AdmissionStats struct {
	Sessions   int  `json:"sessions"`
	QueueDepth int  `json:"queue_depth"`
	Busy       bool `json:"busy"`
}
