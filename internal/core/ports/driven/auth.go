package driven

import "github.com/custodia-labs/atlas-core/internal/core/domain"

// AuthAdapter handles credential cryptography.
// It does not know about sessions; the admission controller owns those.
type AuthAdapter interface {
	// Access code hashing
	HashAccessCode(code string) (string, error)

	// Token operations
	GenerateToken(claims *domain.SessionClaims) (string, error)
	ParseToken(token string) (*domain.SessionClaims, error)
}

// AccessCodeVerifier decides whether an access code may connect
type AccessCodeVerifier interface {
	// Verify reports whether code is one of the issued access codes
	Verify(code string) bool
}
