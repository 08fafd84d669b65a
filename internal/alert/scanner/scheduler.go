package scanner

import (
	"context"
	"time"

	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

// Scheduler runs the scanner on a fixed interval
type Scheduler struct {
	scanner  *Scanner
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a new scheduler
func NewScheduler(scanner *Scanner, interval time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		scanner:  scanner,
		interval: interval,
		logger:   log,
	}
}

// Start runs a scan immediately and then on every tick until Stop
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info().Dur("interval", s.interval).Msg("scan scheduler started")

		s.runCycle(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("scan scheduler stopped")
				return
			case <-ticker.C:
				s.runCycle(ctx)
			}
		}
	}()
}

// Stop stops the scheduler and waits for a running cycle to finish
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()
	if err := s.scanner.ScanAll(ctx); err != nil {
		s.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("scan cycle completed with errors")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("scan cycle completed")
}
