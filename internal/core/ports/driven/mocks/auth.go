package mocks

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

// Ensure MockAuthAdapter implements AuthAdapter
var _ driven.AuthAdapter = (*MockAuthAdapter)(nil)

// MockAuthAdapter is a mock implementation of AuthAdapter for testing.
// It returns access codes as-is and uses base64-encoded JSON for tokens.
// NOT secure - only for testing.
type MockAuthAdapter struct{}

// NewMockAuthAdapter creates a new MockAuthAdapter
func NewMockAuthAdapter() *MockAuthAdapter {
	return &MockAuthAdapter{}
}

// HashAccessCode returns the code as-is (for testing only)
func (m *MockAuthAdapter) HashAccessCode(code string) (string, error) {
	return code, nil
}

// GenerateToken creates a base64-encoded JSON token from claims
func (m *MockAuthAdapter) GenerateToken(claims *domain.SessionClaims) (string, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ParseToken decodes a base64-encoded JSON token and returns claims
func (m *MockAuthAdapter) ParseToken(token string) (*domain.SessionClaims, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	var claims domain.SessionClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, domain.ErrTokenInvalid
	}

	return &claims, nil
}

var _ driven.AccessCodeVerifier = StaticAccessCodes{}

// StaticAccessCodes accepts a fixed set of plain codes
type StaticAccessCodes map[string]bool

// NewStaticAccessCodes creates a verifier for codes
func NewStaticAccessCodes(codes ...string) StaticAccessCodes {
	s := make(StaticAccessCodes, len(codes))
	for _, c := range codes {
		s[c] = true
	}
	return s
}

func (s StaticAccessCodes) Verify(code string) bool {
	return s[code]
}
