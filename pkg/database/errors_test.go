package database

import (
	"database/sql/driver"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelshift/fuelshift-backend/pkg/errors"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
		wantField  string
	}{
		{
			name:       "duplicate shift slot",
			err:        &pq.Error{Code: "23505", Constraint: ConstraintShiftSlot},
			wantCode:   "DUPLICATE_SHIFT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "duplicate username",
			err:        &pq.Error{Code: "23505", Constraint: ConstraintUsername},
			wantCode:   "CONFLICT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "closing below opening",
			err:        &pq.Error{Code: "23514", Constraint: ConstraintShiftReadings},
			wantCode:   "VALIDATION_ERROR",
			wantStatus: http.StatusBadRequest,
			wantField:  "closing_reading",
		},
		{
			name:       "negative channel",
			err:        &pq.Error{Code: "23514", Constraint: "chk_shifts_mobile_money_nonneg"},
			wantCode:   "VALIDATION_ERROR",
			wantStatus: http.StatusBadRequest,
			wantField:  "mobile_money",
		},
		{
			name:       "malformed uuid",
			err:        &pq.Error{Code: "22P02"},
			wantCode:   "BAD_REQUEST",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "numeric overflow",
			err:        fmt.Errorf("insert shift: %w", &pq.Error{Code: "22003"}),
			wantCode:   "BAD_REQUEST",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "numeric overflow on column",
			err:        &pq.Error{Code: "22003", Column: "cash"},
			wantCode:   "VALIDATION_ERROR",
			wantStatus: http.StatusBadRequest,
			wantField:  "cash",
		},
		{
			name:       "wrapped foreign key",
			err:        fmt.Errorf("insert shift: %w", &pq.Error{Code: "23503"}),
			wantCode:   "BAD_REQUEST",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := MapPQError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
			if tt.wantField != "" {
				assert.Contains(t, appErr.Details, tt.wantField)
			}
		})
	}

	assert.Nil(t, MapPQError(fmt.Errorf("plain")))
	assert.Nil(t, MapPQError(&pq.Error{Code: "42P01"}))
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("tx: %w", &pq.Error{Code: "23505", Constraint: ConstraintShiftSlot})
	assert.True(t, IsUniqueViolation(err, ConstraintShiftSlot))
	assert.False(t, IsUniqueViolation(err, ConstraintPumpName))
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"dial refused", &net.OpError{Op: "dial", Net: "tcp", Err: fmt.Errorf("connection refused")}, true},
		{"pq connection failure", &pq.Error{Code: "08006"}, true},
		{"pq admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"other", fmt.Errorf("syntax error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectionError(tt.err))
		})
	}
}

func TestMapError(t *testing.T) {
	assert.NoError(t, MapError(nil))
	assert.True(t, errors.Is(MapError(driver.ErrBadConn), errors.ErrUnavailable))
	assert.True(t, errors.Is(MapError(&pq.Error{Code: "23505", Constraint: ConstraintShiftSlot}), errors.ErrConflict))

	plain := fmt.Errorf("plain")
	assert.Equal(t, plain, MapError(plain))
}
