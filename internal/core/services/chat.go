package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driving"
)

const evictedMessage = "Your session ended while you were waiting in the queue. Please reconnect to ask again."

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// chatService waits for the inference turn, then hands the request to the
// answer pipeline. The turn is always released when the answer ends.
type chatService struct {
	admission    driving.AdmissionService
	answerer     driving.ChatService
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewChatService creates a new ChatService.
// pollInterval is how often a waiting client's session is kept alive.
func NewChatService(admission driving.AdmissionService, answerer driving.ChatService, pollInterval time.Duration, logger *slog.Logger) driving.ChatService {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &chatService{
		admission:    admission,
		answerer:     answerer,
		pollInterval: pollInterval,
		logger:       logger.With("component", "chat"),
	}
}

// Stream queues the request, reports the queue position while waiting and
// runs the answer once the turn is granted.
func (s *chatService) Stream(ctx context.Context, req domain.ChatRequest, emit func(domain.StreamEvent) error) error {
	if req.Token == "" {
		return domain.ErrUnauthorized
	}

	position, err := s.admission.RequestTurn(req.Token)
	if err != nil {
		return err
	}
	if position > 0 {
		waited, err := s.wait(ctx, req.Token, emit)
		if err != nil {
			if waited && errors.Is(err, domain.ErrNotConnected) {
				return s.endEvicted(req.Token, emit)
			}
			return err
		}
	}
	defer func() {
		if next, ok := s.admission.FinishTurn(req.Token); ok {
			s.logger.Debug("turn handed over", "next", shortToken(next))
		}
	}()

	s.admission.TouchActivity(req.Token)
	err = s.answerer.Stream(ctx, req, emit)
	s.admission.TouchActivity(req.Token)
	return err
}

// endEvicted closes a stream whose session ended while it was queued.
// Status events already went out, so the stream still finishes with done.
func (s *chatService) endEvicted(token string, emit func(domain.StreamEvent) error) error {
	s.logger.Info("session ended while waiting", "token", shortToken(token))
	if err := emit(domain.TokenEvent(evictedMessage)); err != nil {
		return err
	}
	return emit(domain.DoneEvent(domain.DoneMetadata{Fallback: true}))
}

// wait blocks until token holds the turn. It leaves the queue when the
// client goes away and fails when the session ends while waiting.
// waited reports whether any status event was emitted.
func (s *chatService) wait(ctx context.Context, token string, emit func(domain.StreamEvent) error) (waited bool, err error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	last := 0
	for {
		// Take the channel before reading the position so no change is missed
		changed := s.admission.Changed()
		position := s.admission.PositionOf(token)
		switch {
		case position == domain.PositionProcessing:
			return waited, nil
		case position == domain.PositionIdle:
			return waited, domain.ErrNotConnected
		}

		if position != last {
			last = position
			if err := emit(domain.StatusEvent(fmt.Sprintf("Waiting in queue (position %d)", position))); err != nil {
				s.abandon(token)
				return waited, err
			}
			waited = true
		}

		select {
		case <-changed:
		case <-ticker.C:
			s.admission.TouchActivity(token)
		case <-ctx.Done():
			s.abandon(token)
			return waited, ctx.Err()
		}
	}
}

// abandon gives up a queue place, or the turn if it was granted meanwhile
func (s *chatService) abandon(token string) {
	if s.admission.LeaveQueue(token) {
		return
	}
	if s.admission.PositionOf(token) == domain.PositionProcessing {
		s.admission.FinishTurn(token)
	}
}
