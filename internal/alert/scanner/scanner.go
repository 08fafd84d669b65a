// Package scanner runs the periodic housekeeping jobs: flagging shifts left
// pending too long and purging expired sessions and invitations.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/fuelshift/fuelshift-backend/internal/alert/domain"
	shift "github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

// StaleShiftSource lists shifts still pending review
type StaleShiftSource interface {
	ListStalePending(ctx context.Context, cutoff time.Time) ([]*shift.Shift, error)
}

// AlertCreator stores and publishes alerts
type AlertCreator interface {
	Create(ctx context.Context, n domain.NewAlert) ([]*domain.Alert, error)
}

// SessionPurger deletes sessions past their lifetime
type SessionPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// InvitePurger deletes invitations that were never accepted in time
type InvitePurger interface {
	PurgeExpiredInvites(ctx context.Context, now time.Time) (int64, error)
}

// Scanner runs each housekeeping job once per call to ScanAll
type Scanner struct {
	shifts     StaleShiftSource
	alerts     AlertCreator
	sessions   SessionPurger
	invites    InvitePurger
	staleAfter time.Duration
	now        func() time.Time
	logger     *logger.Logger
}

// NewScanner creates a new scanner. Shifts pending longer than staleAfter
// are flagged to supervisors.
func NewScanner(
	shifts StaleShiftSource,
	alerts AlertCreator,
	sessions SessionPurger,
	invites InvitePurger,
	staleAfter time.Duration,
	log *logger.Logger,
) *Scanner {
	return &Scanner{
		shifts:     shifts,
		alerts:     alerts,
		sessions:   sessions,
		invites:    invites,
		staleAfter: staleAfter,
		now:        time.Now,
		logger:     log,
	}
}

// SetClock overrides the scanner's clock
func (s *Scanner) SetClock(now func() time.Time) {
	s.now = now
}

// ScanAll runs all jobs. Errors are logged and the remaining jobs still run;
// the last error is returned.
func (s *Scanner) ScanAll(ctx context.Context) error {
	jobs := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"stale_shifts", s.scanStaleShifts},
		{"expired_sessions", s.purgeSessions},
		{"expired_invites", s.purgeInvites},
	}

	var lastErr error
	for _, job := range jobs {
		if err := job.fn(ctx); err != nil {
			s.logger.Error().Err(err).Str("job", job.name).Msg("scan job failed")
			lastErr = err
		}
	}
	return lastErr
}

// scanStaleShifts raises one warning per stale shift. Repeat scans are
// absorbed by the alerts table's uniqueness on (shift, recipient).
func (s *Scanner) scanStaleShifts(ctx context.Context) error {
	now := s.now()
	pending, err := s.shifts.ListStalePending(ctx, now.Add(-s.staleAfter))
	if err != nil {
		return fmt.Errorf("list stale shifts: %w", err)
	}

	raised := 0
	for _, sh := range pending {
		waiting := now.Sub(sh.SubmittedAt).Truncate(time.Minute)
		msg := fmt.Sprintf("The %s %s shift on %s by %s has been waiting for review for %s",
			sh.ShiftDate, sh.ShiftType, sh.PumpName, sh.AttendantUsername, formatWait(waiting))

		created, err := s.alerts.Create(ctx, domain.ToRole(actor.RoleSupervisor, domain.SeverityWarning, domain.KindShiftStale, msg, &sh.ID))
		if err != nil {
			s.logger.Error().Err(err).Str("shift_id", sh.ID).Msg("failed to raise stale shift alert")
			continue
		}
		raised += len(created)
	}

	if raised > 0 {
		s.logger.Info().Int("pending", len(pending)).Int("alerts", raised).Msg("stale shifts flagged")
	}
	return nil
}

func (s *Scanner) purgeSessions(ctx context.Context) error {
	n, err := s.sessions.PurgeExpired(ctx, s.now())
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Msg("expired sessions purged")
	}
	return nil
}

func (s *Scanner) purgeInvites(ctx context.Context) error {
	n, err := s.invites.PurgeExpiredInvites(ctx, s.now())
	if err != nil {
		return fmt.Errorf("purge invites: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Msg("expired invitations purged")
	}
	return nil
}

func formatWait(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", hours, minutes)
}
