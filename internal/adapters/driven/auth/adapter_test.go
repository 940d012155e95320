package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

func sessionClaims(token string, exp time.Time) *domain.SessionClaims {
	return &domain.SessionClaims{
		SessionToken: token,
		IssuedAt:     exp.Add(-24 * time.Hour).Unix(),
		ExpiresAt:    exp.Unix(),
	}
}

func TestNewAdapter(t *testing.T) {
	adapter := NewAdapter("test-secret")
	if string(adapter.jwtSecret) != "test-secret" {
		t.Error("expected jwt secret to be set")
	}
	if adapter.issuer != "atlas-core" {
		t.Errorf("expected issuer atlas-core, got %s", adapter.issuer)
	}
}

func TestHashAccessCode(t *testing.T) {
	adapter := NewAdapterWithCost("secret", 4) // Low cost for faster tests

	hash1, err := adapter.HashAccessCode("museum-2024")
	if err != nil {
		t.Fatalf("failed to hash code: %v", err)
	}
	hash2, _ := adapter.HashAccessCode("museum-2024")

	if !isBcryptHash(hash1) {
		t.Errorf("expected bcrypt hash, got %q", hash1)
	}
	if hash1 == hash2 {
		t.Error("expected different hashes for same code (due to salt)")
	}

	codes := NewAccessCodes([]string{hash1})
	if !codes.Verify("museum-2024") {
		t.Error("expected hashed code to verify")
	}
}

func TestGenerateToken(t *testing.T) {
	adapter := NewAdapter("test-jwt-secret")

	token, err := adapter.GenerateToken(sessionClaims("sess-1", time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	// JWT tokens have 3 parts separated by dots
	if strings.Count(token, ".") != 2 {
		t.Errorf("expected JWT with 3 parts, got %q", token)
	}
}

func TestParseToken_RoundTrip(t *testing.T) {
	adapter := NewAdapter("test-jwt-secret")
	exp := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	original := sessionClaims("3f0c6a2e-session", exp)

	token, _ := adapter.GenerateToken(original)
	parsed, err := adapter.ParseToken(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}

	if parsed.SessionToken != original.SessionToken {
		t.Errorf("expected session token %s, got %s", original.SessionToken, parsed.SessionToken)
	}
	if parsed.ExpiresAt != original.ExpiresAt {
		t.Errorf("expected expiry %d, got %d", original.ExpiresAt, parsed.ExpiresAt)
	}
	if parsed.IssuedAt != original.IssuedAt {
		t.Errorf("expected issued-at %d, got %d", original.IssuedAt, parsed.IssuedAt)
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	adapter := NewAdapter("test-jwt-secret")

	token, _ := adapter.GenerateToken(sessionClaims("sess-1", time.Now().Add(-2*time.Hour)))

	_, err := adapter.ParseToken(token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _ := NewAdapter("secret-1").GenerateToken(sessionClaims("sess-1", time.Now().Add(time.Hour)))

	_, err := NewAdapter("secret-2").ParseToken(token)
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_MissingSession(t *testing.T) {
	adapter := NewAdapter("secret")
	token, _ := adapter.GenerateToken(sessionClaims("", time.Now().Add(time.Hour)))

	_, err := adapter.ParseToken(token)
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_MalformedToken(t *testing.T) {
	adapter := NewAdapter("test-secret")

	testCases := []string{
		"",
		"not-a-jwt",
		"invalid.token.here",
		"header.payload", // missing signature
	}

	for _, tc := range testCases {
		_, err := adapter.ParseToken(tc)
		if !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("expected ErrTokenInvalid for %q, got %v", tc, err)
		}
	}
}

func BenchmarkParseToken(b *testing.B) {
	adapter := NewAdapter("benchmark-secret")
	token, _ := adapter.GenerateToken(sessionClaims("sess", time.Now().Add(time.Hour)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = adapter.ParseToken(token)
	}
}
