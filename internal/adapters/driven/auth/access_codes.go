package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

// Ensure AccessCodes implements AccessCodeVerifier
var _ driven.AccessCodeVerifier = (*AccessCodes)(nil)

// AccessCodes verifies codes against a configured list. Entries with a
// bcrypt prefix are compared as hashes, all others in constant time.
type AccessCodes struct {
	plain  [][]byte
	hashed [][]byte
}

// NewAccessCodes builds a verifier from configured entries. Blank entries are ignored.
func NewAccessCodes(entries []string) *AccessCodes {
	ac := &AccessCodes{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if isBcryptHash(e) {
			ac.hashed = append(ac.hashed, []byte(e))
		} else {
			ac.plain = append(ac.plain, []byte(e))
		}
	}
	return ac
}

// Len returns the number of configured codes
func (a *AccessCodes) Len() int {
	return len(a.plain) + len(a.hashed)
}

// Verify reports whether code matches any configured entry
func (a *AccessCodes) Verify(code string) bool {
	if code == "" {
		return false
	}
	candidate := []byte(code)

	match := false
	for _, p := range a.plain {
		// No early exit so timing does not reveal which entry matched
		if subtle.ConstantTimeCompare(p, candidate) == 1 {
			match = true
		}
	}
	if match {
		return true
	}
	for _, h := range a.hashed {
		if bcrypt.CompareHashAndPassword(h, candidate) == nil {
			return true
		}
	}
	return false
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
