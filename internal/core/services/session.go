package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driving"
)

// Ensure sessionService implements SessionService
var _ driving.SessionService = (*sessionService)(nil)

// sessionService issues signed credentials for admitted sessions
type sessionService struct {
	admission   driving.AdmissionService
	authAdapter driven.AuthAdapter
	tokenTTL    time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(
	admission driving.AdmissionService,
	authAdapter driven.AuthAdapter,
	tokenTTL time.Duration,
	logger *slog.Logger,
) driving.SessionService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionService{
		admission:   admission,
		authAdapter: authAdapter,
		tokenTTL:    tokenTTL,
		logger:      logger.With("component", "session"),
		now:         time.Now,
	}
}

// Connect admits the access code and signs a credential for the session
func (s *sessionService) Connect(ctx context.Context, req domain.ConnectRequest) (*domain.ConnectResponse, error) {
	code := strings.TrimSpace(req.AccessCode)
	if code == "" {
		return nil, domain.ErrInvalidInput
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = uuid.NewString()
	}

	result := s.admission.TryConnect(token, code)
	if result.Err != nil {
		return nil, result.Err
	}

	now := s.now()
	claims := &domain.SessionClaims{
		SessionToken: token,
		IssuedAt:     now.Unix(),
		ExpiresAt:    now.Add(s.tokenTTL).Unix(),
	}
	credential, err := s.authAdapter.GenerateToken(claims)
	if err != nil {
		// Do not leave an admitted session nobody can use
		s.admission.Disconnect(token)
		return nil, err
	}

	return &domain.ConnectResponse{
		Token:       token,
		Credential:  credential,
		ExpiresAt:   claims.ExpiresAt,
		Reconnected: result.Reconnected,
		TookOver:    result.TookOver,
	}, nil
}

// ValidateToken verifies a credential and refreshes the session's activity
func (s *sessionService) ValidateToken(ctx context.Context, credential string) (*domain.AuthContext, error) {
	if credential == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(credential)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	// Check expiration
	if s.now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	// The session may have been taken over or swept
	if !s.admission.TouchActivity(claims.SessionToken) {
		return nil, domain.ErrNotConnected
	}

	return &domain.AuthContext{SessionToken: claims.SessionToken}, nil
}

// Disconnect ends the session
func (s *sessionService) Disconnect(ctx context.Context, sessionToken string) error {
	if !s.admission.Disconnect(sessionToken) {
		return domain.ErrNotConnected
	}
	return nil
}
