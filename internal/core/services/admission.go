package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driving"
)

// Ensure AdmissionController implements AdmissionService
var _ driving.AdmissionService = (*AdmissionController)(nil)

// AdmissionConfig holds configuration for the admission controller.
type AdmissionConfig struct {
	Codes       driven.AccessCodeVerifier
	IdleTimeout time.Duration // Sessions idle longer than this are swept
	Metrics     driven.MetricsRecorder
	Logger      *slog.Logger
	Now         func() time.Time // Clock override for tests
}

// AdmissionController is the session registry and the inference queue.
// Both live under one mutex because promotion on disconnect must clear the
// holder and pop the queue atomically. Nothing performs I/O while mu is held;
// logging and metrics happen after unlock.
type AdmissionController struct {
	codes   driven.AccessCodeVerifier
	timeout time.Duration
	metrics driven.MetricsRecorder
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*domain.Session // by token
	byCode   map[string]string          // access code -> token
	holder   string
	waiting  []string
	changed  chan struct{}
}

// NewAdmissionController creates an empty controller.
func NewAdmissionController(cfg AdmissionConfig) *AdmissionController {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	timeout := cfg.IdleTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &AdmissionController{
		codes:    cfg.Codes,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger.With("component", "admission"),
		now:      now,
		sessions: make(map[string]*domain.Session),
		byCode:   make(map[string]string),
		changed:  make(chan struct{}),
	}
}

// TryConnect claims accessCode for token.
// The same token and code refreshes the session. A different token holding
// the code is evicted with the same cleanup as Disconnect.
func (c *AdmissionController) TryConnect(token, accessCode string) domain.ConnectResult {
	if token == "" || accessCode == "" {
		return domain.ConnectResult{Err: domain.ErrInvalidInput}
	}
	if c.codes == nil || !c.codes.Verify(accessCode) {
		c.logger.Warn("connect rejected", "reason", "invalid access code")
		return domain.ConnectResult{Err: domain.ErrInvalidAccessCode}
	}

	c.mu.Lock()
	now := c.now()
	swept := c.sweepLocked(now)
	res := c.connectLocked(token, accessCode, now)
	stats := c.statsLocked()
	c.mu.Unlock()

	c.report(stats, swept)
	switch {
	case res.TookOver:
		c.metrics.IncTakeover()
		c.logger.Info("access code taken over", "token", shortToken(token), "evicted", shortToken(res.Evicted))
	case res.Reconnected:
		c.logger.Debug("session reconnected", "token", shortToken(token))
	default:
		c.logger.Info("session connected", "token", shortToken(token))
	}
	return res
}

func (c *AdmissionController) connectLocked(token, accessCode string, now time.Time) domain.ConnectResult {
	if s, ok := c.sessions[token]; ok {
		if s.AccessCode == accessCode {
			s.LastActivity = now
			return domain.ConnectResult{Connected: true, Reconnected: true}
		}
		// Token is switching codes; release the old one.
		if c.byCode[s.AccessCode] == token {
			delete(c.byCode, s.AccessCode)
		}
		s.AccessCode = accessCode
		s.LastActivity = now
	}

	res := domain.ConnectResult{Connected: true}
	if prior, ok := c.byCode[accessCode]; ok && prior != token {
		c.removeLocked(prior)
		res.TookOver = true
		res.Evicted = prior
	}

	if _, ok := c.sessions[token]; !ok {
		c.sessions[token] = &domain.Session{
			Token:        token,
			AccessCode:   accessCode,
			ConnectedAt:  now,
			LastActivity: now,
		}
	}
	c.byCode[accessCode] = token
	return res
}

// Disconnect ends the session, freeing its access code and queue place.
// A disconnecting holder promotes the next waiter.
func (c *AdmissionController) Disconnect(token string) bool {
	c.mu.Lock()
	swept := c.sweepLocked(c.now())
	_, ok := c.sessions[token]
	var promoted string
	if ok {
		promoted = c.removeLocked(token)
	}
	stats := c.statsLocked()
	c.mu.Unlock()

	c.report(stats, swept)
	if !ok {
		return false
	}
	c.logger.Info("session disconnected", "token", shortToken(token))
	if promoted != "" {
		c.logger.Info("turn promoted", "token", shortToken(promoted), "reason", "holder disconnected")
	}
	return true
}

// TouchActivity refreshes the idle timer. Unknown tokens are a no-op.
func (c *AdmissionController) TouchActivity(token string) bool {
	c.mu.Lock()
	now := c.now()
	swept := c.sweepLocked(now)
	s, ok := c.sessions[token]
	if ok {
		s.LastActivity = now
	}
	stats := c.statsLocked()
	c.mu.Unlock()

	c.report(stats, swept)
	return ok
}

// SweepStale removes every session idle longer than the configured timeout
// and returns how many were removed.
func (c *AdmissionController) SweepStale(now time.Time) int {
	c.mu.Lock()
	swept := c.sweepLocked(now)
	stats := c.statsLocked()
	c.mu.Unlock()

	c.report(stats, swept)
	return len(swept)
}

// sweepLocked must be called with mu held
func (c *AdmissionController) sweepLocked(now time.Time) []string {
	var swept []string
	for token, s := range c.sessions {
		if s.IsStale(now, c.timeout) {
			swept = append(swept, token)
		}
	}
	for _, token := range swept {
		c.removeLocked(token)
	}
	return swept
}

// removeLocked drops a session with full cascade and returns the promoted
// holder, if any. Must be called with mu held.
func (c *AdmissionController) removeLocked(token string) string {
	s, ok := c.sessions[token]
	if ok {
		if c.byCode[s.AccessCode] == token {
			delete(c.byCode, s.AccessCode)
		}
		delete(c.sessions, token)
	}

	changed := c.dequeueLocked(token)
	var promoted string
	if c.holder == token {
		c.holder = ""
		promoted = c.promoteLocked()
		changed = true
	}
	if changed {
		c.notifyLocked()
	}
	return promoted
}

// RequestTurn asks for the inference slot.
// Returns 0 when the caller holds the slot, otherwise its 1-based position.
// Repeated calls never duplicate the caller in the queue.
func (c *AdmissionController) RequestTurn(token string) (int, error) {
	c.mu.Lock()
	now := c.now()
	swept := c.sweepLocked(now)
	s, ok := c.sessions[token]
	if !ok {
		stats := c.statsLocked()
		c.mu.Unlock()
		c.report(stats, swept)
		return domain.PositionIdle, domain.ErrNotConnected
	}
	s.LastActivity = now

	pos := c.positionLocked(token)
	if pos == domain.PositionIdle {
		if c.holder == "" && len(c.waiting) == 0 {
			c.holder = token
			pos = domain.PositionProcessing
		} else {
			c.waiting = append(c.waiting, token)
			pos = len(c.waiting)
		}
		c.notifyLocked()
	}
	stats := c.statsLocked()
	c.mu.Unlock()

	c.report(stats, swept)
	return pos, nil
}

// FinishTurn releases the slot. It is only effective for the current holder.
// The head of the queue becomes the new holder and is returned.
func (c *AdmissionController) FinishTurn(token string) (string, bool) {
	c.mu.Lock()
	swept := c.sweepLocked(c.now())
	if token == "" || c.holder != token {
		stats := c.statsLocked()
		c.mu.Unlock()
		c.report(stats, swept)
		return "", false
	}
	c.holder = ""
	next := c.promoteLocked()
	c.notifyLocked()
	stats := c.statsLocked()
	c.mu.Unlock()

	c.report(stats, swept)
	if next != "" {
		c.logger.Debug("turn promoted", "token", shortToken(next))
	}
	return next, next != ""
}

// promoteLocked pops the queue head into the empty holder slot.
// Must be called with mu held.
func (c *AdmissionController) promoteLocked() string {
	if c.holder != "" || len(c.waiting) == 0 {
		return ""
	}
	c.holder = c.waiting[0]
	c.waiting = c.waiting[1:]
	return c.holder
}

// LeaveQueue removes a waiting token without ending its session.
func (c *AdmissionController) LeaveQueue(token string) bool {
	c.mu.Lock()
	swept := c.sweepLocked(c.now())
	removed := c.dequeueLocked(token)
	if removed {
		c.notifyLocked()
	}
	stats := c.statsLocked()
	c.mu.Unlock()

	c.report(stats, swept)
	return removed
}

// dequeueLocked removes token from the waiting list keeping the order of
// the rest. Must be called with mu held.
func (c *AdmissionController) dequeueLocked(token string) bool {
	for i, t := range c.waiting {
		if t == token {
			c.waiting = append(c.waiting[:i:i], c.waiting[i+1:]...)
			return true
		}
	}
	return false
}

// PositionOf returns -1 when idle, 0 when processing, otherwise the 1-based
// queue position.
func (c *AdmissionController) PositionOf(token string) int {
	c.mu.Lock()
	swept := c.sweepLocked(c.now())
	pos := c.positionLocked(token)
	stats := c.statsLocked()
	c.mu.Unlock()

	c.report(stats, swept)
	return pos
}

func (c *AdmissionController) positionLocked(token string) int {
	if token != "" && c.holder == token {
		return domain.PositionProcessing
	}
	for i, t := range c.waiting {
		if t == token {
			return i + 1
		}
	}
	return domain.PositionIdle
}

// Status returns the token's view of the queue.
func (c *AdmissionController) Status(token string) domain.QueueStatus {
	c.mu.Lock()
	swept := c.sweepLocked(c.now())
	_, connected := c.sessions[token]
	status := domain.QueueStatus{
		Connected:  connected,
		Position:   c.positionLocked(token),
		QueueDepth: len(c.waiting),
		Busy:       c.holder != "",
	}
	stats := c.statsLocked()
	c.mu.Unlock()

	c.report(stats, swept)
	return status
}

// Stats summarises admission state.
func (c *AdmissionController) Stats() domain.AdmissionStats {
	c.mu.Lock()
	swept := c.sweepLocked(c.now())
	stats := c.statsLocked()
	c.mu.Unlock()

	c.report(stats, swept)
	return stats
}

func (c *AdmissionController) statsLocked() domain.AdmissionStats {
	return domain.AdmissionStats{
		Sessions:   len(c.sessions),
		QueueDepth: len(c.waiting),
		Busy:       c.holder != "",
	}
}

// Changed returns a channel that is closed on the next queue mutation.
// Callers must fetch it before re-checking their position.
func (c *AdmissionController) Changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

func (c *AdmissionController) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// TokenFor returns the token holding accessCode
func (c *AdmissionController) TokenFor(accessCode string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.byCode[accessCode]
	return t, ok
}

// Holder returns the token currently holding the inference slot
func (c *AdmissionController) Holder() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holder
}

// Waiting returns a copy of the wait queue in order
func (c *AdmissionController) Waiting() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.waiting...)
}

func (c *AdmissionController) report(stats domain.AdmissionStats, swept []string) {
	c.metrics.SetAdmission(stats.Sessions, stats.QueueDepth, stats.Busy)
	for _, token := range swept {
		c.logger.Info("stale session swept", "token", shortToken(token))
	}
}

// shortToken keeps tokens out of logs
func shortToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}
