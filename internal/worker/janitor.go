package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper removes idle sessions
type Sweeper interface {
	SweepStale(now time.Time) int
}

// Prober refreshes backend readiness flags
type Prober interface {
	Probe(ctx context.Context, logger *slog.Logger)
}

// Janitor periodically sweeps stale sessions and re-probes backends.
// Lazy sweeping on connect stays authoritative; the janitor only keeps
// the session count and readiness fresh while the service is quiet.
type Janitor struct {
	sweeper Sweeper
	prober  Prober
	logger  *slog.Logger

	// Configuration
	interval     time.Duration
	probeTimeout time.Duration
	now          func() time.Time

	// Internal state
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// JanitorConfig holds configuration for the janitor.
type JanitorConfig struct {
	Sweeper      Sweeper
	Prober       Prober // optional
	Logger       *slog.Logger
	Interval     time.Duration // default 30s
	ProbeTimeout time.Duration // default 10s
	Now          func() time.Time
}

// NewJanitor creates a new janitor.
func NewJanitor(cfg JanitorConfig) *Janitor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 10 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Janitor{
		sweeper:      cfg.Sweeper,
		prober:       cfg.Prober,
		logger:       logger.With("component", "janitor"),
		interval:     interval,
		probeTimeout: probeTimeout,
		now:          now,
	}
}

// Start begins the janitor loop.
// It runs until Stop is called or context is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	j.logger.Info("janitor starting", "interval", j.interval)

	go j.loop(ctx)
}

// Stop halts the loop and waits for the current tick to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopCh)
	done := j.doneCh
	j.mu.Unlock()

	<-done

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()

	j.logger.Info("janitor stopped")
}

func (j *Janitor) loop(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.Tick(ctx)
		}
	}
}

// Tick runs one sweep and probe
func (j *Janitor) Tick(ctx context.Context) {
	if j.sweeper != nil {
		if n := j.sweeper.SweepStale(j.now()); n > 0 {
			j.logger.Info("swept stale sessions", "count", n)
		}
	}
	if j.prober != nil {
		probeCtx, cancel := context.WithTimeout(ctx, j.probeTimeout)
		j.prober.Probe(probeCtx, j.logger)
		cancel()
	}
}
