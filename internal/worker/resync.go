package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"financeflow/internal/log"
)

// ResyncConfig holds configuration for the periodic full mirror.
type ResyncConfig struct {
	// Interval is how often to mirror regardless of messages (default: 10m).
	Interval time.Duration

	// MaxRetries bounds the attempts per tick (default: 3).
	MaxRetries int

	// RetryDelay is the pause before the first retry; it doubles after each
	// failure (default: 2s).
	RetryDelay time.Duration
}

func DefaultResyncConfig() ResyncConfig {
	return ResyncConfig{
		Interval:   10 * time.Minute,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// Resyncer mirrors on a timer, covering messages lost while the worker or
// the broker was down.
type Resyncer struct {
	worker *MirrorWorker
	config ResyncConfig
	logger *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewResyncer(worker *MirrorWorker, config ResyncConfig, logger *log.Logger) *Resyncer {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	return &Resyncer{
		worker: worker,
		config: config,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the loop. Returns an error if already running.
func (r *Resyncer) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("resyncer is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	r.logger.InfoContext(ctx, "Resyncer started", "interval", r.config.Interval)
	return nil
}

// Stop signals the loop and waits for it to finish or ctx to expire.
func (r *Resyncer) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stopCh)
	done := r.doneCh
	r.mu.Unlock()

	select {
	case <-done:
		r.logger.InfoContext(ctx, "Resyncer stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Resyncer stop timed out")
		return ctx.Err()
	}
}

func (r *Resyncer) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Resyncer) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	// Mirror immediately on startup.
	r.resync(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.resync(ctx)
		}
	}
}

func (r *Resyncer) resync(ctx context.Context) {
	delay := r.config.RetryDelay
	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		err := r.worker.MirrorNow(ctx)
		if err == nil {
			return
		}
		r.logger.WarnContext(ctx, "Resync failed",
			log.FieldError, err, "attempt", attempt, "max_retries", r.config.MaxRetries)
		if attempt == r.config.MaxRetries {
			break
		}
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
	}
	r.logger.ErrorContext(ctx, "Resync gave up until next tick", "next_in", r.config.Interval)
}
