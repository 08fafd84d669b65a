// Package draft keeps an attendant's unsubmitted shift form in Redis so it
// survives reloads and device switches until it is submitted or expires.
package draft

import (
	"context"
	"time"

	"github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/cache"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

const keyPrefix = "fuelshift:draft:"

// MaxOwnUseEntries bounds the own-use lines a draft may hold
const MaxOwnUseEntries = 50

// Draft is the form state as last typed. Values are kept as entered and are
// only validated on submission.
type Draft struct {
	PumpID         string            `json:"pump_id,omitempty"`
	ShiftType      string            `json:"shift_type,omitempty"`
	ShiftDate      string            `json:"shift_date,omitempty"`
	OpeningReading string            `json:"opening_reading,omitempty"`
	ClosingReading string            `json:"closing_reading,omitempty"`
	Payments       map[string]string `json:"payments,omitempty"`
	OwnUse         []OwnUseLine      `json:"own_use,omitempty"`
	SavedAt        time.Time         `json:"saved_at"`
}

// OwnUseLine is an own-use row of the form
type OwnUseLine struct {
	Category string `json:"category,omitempty"`
	FuelType string `json:"fuel_type,omitempty"`
	Volume   string `json:"volume,omitempty"`
}

// Check rejects drafts that could not come from the shift form
func (d *Draft) Check() error {
	details := map[string]string{}
	for channel := range d.Payments {
		if !knownChannel(channel) {
			details["payments."+channel] = "unknown payment channel"
		}
	}
	if len(d.OwnUse) > MaxOwnUseEntries {
		details["own_use"] = "too many entries"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

func knownChannel(name string) bool {
	for _, c := range domain.Channels {
		if string(c) == name {
			return true
		}
	}
	return false
}

// Store saves drafts per user
type Store struct {
	cache  *cache.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewStore creates a draft store whose entries expire after ttl
func NewStore(c *cache.Client, ttl time.Duration, log *logger.Logger) *Store {
	return &Store{cache: c, ttl: ttl, logger: log}
}

func key(userID string) string {
	return keyPrefix + userID
}

// Save replaces the user's draft and restarts its expiry
func (s *Store) Save(ctx context.Context, userID string, d *Draft) error {
	if err := d.Check(); err != nil {
		return err
	}
	d.SavedAt = time.Now().UTC()
	if err := s.cache.SetJSON(ctx, key(userID), d, s.ttl); err != nil {
		return errors.ServiceUnavailable(err)
	}
	return nil
}

// Load returns the user's draft; found is false when there is none
func (s *Store) Load(ctx context.Context, userID string) (*Draft, bool, error) {
	var d Draft
	found, err := s.cache.GetJSON(ctx, key(userID), &d)
	if err != nil {
		return nil, false, errors.ServiceUnavailable(err)
	}
	if !found {
		return nil, false, nil
	}
	return &d, true, nil
}

// Delete discards the user's draft
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.cache.Delete(ctx, key(userID)); err != nil {
		return errors.ServiceUnavailable(err)
	}
	return nil
}

// Discard deletes the draft after a successful submission. A failure only
// leaves a stale draft behind, so it is logged and not returned.
func (s *Store) Discard(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, key(userID)); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to discard shift draft")
	}
}
