package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAccessCodes_Verify(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-code"), 4)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	codes := NewAccessCodes([]string{"alpha", " beta ", "", string(hash)})

	if codes.Len() != 3 {
		t.Errorf("expected 3 codes, got %d", codes.Len())
	}

	testCases := []struct {
		code string
		want bool
	}{
		{"alpha", true},
		{"beta", true},
		{"hashed-code", true},
		{"ALPHA", false},
		{"gamma", false},
		{"", false},
		{string(hash), false},
	}

	for _, tc := range testCases {
		if got := codes.Verify(tc.code); got != tc.want {
			t.Errorf("Verify(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestAccessCodes_Empty(t *testing.T) {
	codes := NewAccessCodes(nil)
	if codes.Verify("anything") {
		t.Error("empty verifier must reject every code")
	}
}
