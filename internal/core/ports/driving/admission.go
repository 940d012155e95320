package driving

import (
	"context"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// AdmissionService arbitrates client sessions and the single inference slot
type AdmissionService interface {
	// TryConnect claims accessCode for token, taking over any other holder
	TryConnect(token, accessCode string) domain.ConnectResult

	// Disconnect ends the session and releases its code and queue place
	Disconnect(token string) bool

	// TouchActivity refreshes the session's idle timer
	TouchActivity(token string) bool

	// RequestTurn joins the inference queue; 0 means the caller may run now
	RequestTurn(token string) (int, error)

	// FinishTurn releases the slot and returns the promoted waiter, if any
	FinishTurn(token string) (string, bool)

	// LeaveQueue removes a waiting token without ending its session
	LeaveQueue(token string) bool

	// PositionOf returns -1 idle, 0 processing or a 1-based queue position
	PositionOf(token string) int

	// Status returns the token's queue view
	Status(token string) domain.QueueStatus

	// Stats summarises admission state
	Stats() domain.AdmissionStats

	// Changed returns a channel closed on the next queue mutation
	Changed() <-chan struct{}
}

// SessionService issues and validates session credentials
type SessionService interface {
	// Connect validates the access code and returns a signed credential
	Connect(ctx context.Context, req domain.ConnectRequest) (*domain.ConnectResponse, error)

	// ValidateToken verifies a credential and refreshes session activity
	ValidateToken(ctx context.Context, credential string) (*domain.AuthContext, error)

	// Disconnect ends the session behind a verified token
	Disconnect(ctx context.Context, sessionToken string) error
}
