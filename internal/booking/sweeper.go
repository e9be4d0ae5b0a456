package booking

import (
	"context"
	"time"

	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// Sweeper periodically removes expired booking sessions.
type Sweeper struct {
	service  *Service
	logger   *logging.Logger
	interval time.Duration
	maxAge   time.Duration
}

// NewSweeper creates a sweeper with a 15 minute interval and a 24 hour max age.
func NewSweeper(service *Service, logger *logging.Logger) *Sweeper {
	if service == nil {
		panic("booking: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		service:  service,
		logger:   logger,
		interval: 15 * time.Minute,
		maxAge:   24 * time.Hour,
	}
}

// WithInterval sets how often the sweep runs.
func (w *Sweeper) WithInterval(interval time.Duration) *Sweeper {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// WithMaxAge sets the session age limit.
func (w *Sweeper) WithMaxAge(maxAge time.Duration) *Sweeper {
	if maxAge > 0 {
		w.maxAge = maxAge
	}
	return w
}

// Start runs the sweeper. Blocks until ctx is cancelled.
func (w *Sweeper) Start(ctx context.Context) {
	w.logger.Info("starting booking session sweeper",
		"interval", w.interval.String(),
		"max_age", w.maxAge.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("booking session sweeper shutting down")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns the number of removed sessions.
func (w *Sweeper) RunOnce(ctx context.Context) int {
	n, err := w.service.SweepExpired(ctx, w.maxAge)
	if err != nil {
		w.logger.Error("booking session sweep failed", "error", err, "removed", n)
		return n
	}
	if n > 0 {
		w.logger.Info("expired booking sessions removed", "count", n)
	}
	return n
}
