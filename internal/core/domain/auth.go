package domain

// SessionClaims is the signed credential handed to a connected client.
// SessionToken is the opaque admission token; the JWT only carries it.
type SessionClaims struct {
	SessionToken string `json:"sid"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
}

// AuthContext is attached to the request context once a credential is verified
type AuthContext struct {
	SessionToken string `json:"session_token"`
}

// ConnectRequest is the body of a connect call
type ConnectRequest struct {
	AccessCode string `json:"access_code"`
	Token      string `json:"token,omitempty"` // reuse to reconnect
}

// ConnectResponse is returned after a successful connect
type ConnectResponse struct {
	Token       string `json:"token"`
	Credential  string `json:"credential"`
	ExpiresAt   int64  `json:"expires_at"`
	Reconnected bool   `json:"reconnected"`
	TookOver    bool   `json:"took_over"`
}
