package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/database"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
)

// ShiftFilter narrows shift queries. Nil fields do not filter.
type ShiftFilter struct {
	StartDate   *string // YYYY-MM-DD, inclusive
	EndDate     *string // YYYY-MM-DD, inclusive
	AttendantID *string
	PumpID      *string
	ShiftType   *domain.ShiftType
	Status      *domain.Status
	Label       *domain.Label
}

// ShiftListParams holds parameters for listing shifts
type ShiftListParams struct {
	ShiftFilter
	Page    int
	PerPage int
}

// ShiftRepository handles shift and own-use persistence
type ShiftRepository struct {
	db *database.DB
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db *database.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

const shiftSelect = `
	SELECT s.id, s.attendant_id, s.pump_id, s.shift_type,
	       to_char(s.shift_date, 'YYYY-MM-DD') AS shift_date,
	       s.opening_reading, s.closing_reading, s.fuel_price,
	       s.cash, s.mobile_money, s.card, s.bank_transfer, s.credit, s.voucher, s.fleet_card,
	       s.is_approved, s.supervisor_id, s.fix_reason, s.resubmission_count,
	       s.submitted_at, s.reviewed_at, s.created_at, s.updated_at,
	       u.username AS attendant_username, u.full_name AS attendant_name,
	       p.name AS pump_name, p.fuel_type AS pump_fuel_type,
	       sv.full_name AS supervisor_name
	FROM shifts s
	JOIN users u ON u.id = s.attendant_id
	JOIN pumps p ON p.id = s.pump_id
	LEFT JOIN users sv ON sv.id = s.supervisor_id`

// Collected and expected revenue in SQL, rounded the same way as domain.Reconcile
const (
	collectedExpr = `(s.cash + s.mobile_money + s.card + s.bank_transfer + s.credit + s.voucher + s.fleet_card
		+ COALESCE((SELECT SUM(o.amount) FROM own_use o WHERE o.shift_id = s.id), 0))`
	expectedExpr = `ROUND((s.closing_reading - s.opening_reading) * s.fuel_price, 2)`
)

// ============================================================================
// WRITES
// ============================================================================

// Create inserts a shift and its own-use entries in one transaction. A taken
// (pump, date, shift type) slot returns errors.DuplicateShift.
func (r *ShiftRepository) Create(ctx context.Context, shift *domain.Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.New().String()
	}

	err := r.db.WithTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO shifts (
				id, attendant_id, pump_id, shift_type, shift_date,
				opening_reading, closing_reading, fuel_price,
				cash, mobile_money, card, bank_transfer, credit, voucher, fleet_card
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING submitted_at, created_at, updated_at
		`
		err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
			shift.ID, shift.AttendantID, shift.PumpID, shift.ShiftType, shift.ShiftDate,
			shift.OpeningReading, shift.ClosingReading, shift.FuelPrice,
			shift.Cash, shift.MobileMoney, shift.Card, shift.BankTransfer,
			shift.Credit, shift.Voucher, shift.FleetCard,
		).Scan(&shift.SubmittedAt, &shift.CreatedAt, &shift.UpdatedAt)
		if err != nil {
			return err
		}

		return r.insertOwnUse(ctx, shift.ID, shift.OwnUse)
	})
	return database.MapError(err)
}

func (r *ShiftRepository) insertOwnUse(ctx context.Context, shiftID string, entries []domain.OwnUse) error {
	query := `
		INSERT INTO own_use (id, shift_id, category, fuel_type, volume, unit_price, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	for i := range entries {
		e := &entries[i]
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		e.ShiftID = shiftID
		err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
			e.ID, shiftID, e.Category, e.FuelType, e.Volume, e.UnitPrice, e.Amount,
		).Scan(&e.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// Review moves a pending shift to approved (fixReason nil) or fix_requested.
// It returns false when the shift was no longer pending.
func (r *ShiftRepository) Review(ctx context.Context, id, supervisorID string, fixReason *string) (bool, error) {
	query := `
		UPDATE shifts SET
			is_approved = $3, fix_reason = $4, supervisor_id = $2, reviewed_at = NOW()
		WHERE id = $1 AND is_approved = false AND fix_reason IS NULL
	`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, id, supervisorID, fixReason == nil, fixReason)
	if err != nil {
		return false, database.MapError(err)
	}

	affected, _ := result.RowsAffected()
	return affected == 1, nil
}

// Resubmit replaces the readings, payments and own use of a shift in
// fix_requested owned by shift.AttendantID, returning it to pending. The fuel
// price snapshot and reviewing supervisor are kept. It returns false when the
// shift is not awaiting a fix by that attendant.
func (r *ShiftRepository) Resubmit(ctx context.Context, shift *domain.Shift) (bool, error) {
	applied := false

	err := r.db.WithTx(ctx, func(ctx context.Context) error {
		query := `
			UPDATE shifts SET
				opening_reading = $3, closing_reading = $4,
				cash = $5, mobile_money = $6, card = $7, bank_transfer = $8,
				credit = $9, voucher = $10, fleet_card = $11,
				fix_reason = NULL, is_approved = false, reviewed_at = NULL,
				resubmission_count = resubmission_count + 1, submitted_at = NOW()
			WHERE id = $1 AND attendant_id = $2 AND is_approved = false AND fix_reason IS NOT NULL
			RETURNING resubmission_count, submitted_at, updated_at
		`
		err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
			shift.ID, shift.AttendantID,
			shift.OpeningReading, shift.ClosingReading,
			shift.Cash, shift.MobileMoney, shift.Card, shift.BankTransfer,
			shift.Credit, shift.Voucher, shift.FleetCard,
		).Scan(&shift.ResubmissionCount, &shift.SubmittedAt, &shift.UpdatedAt)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		applied = true
		shift.FixReason = nil
		shift.IsApproved = false
		shift.ReviewedAt = nil

		if _, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM own_use WHERE shift_id = $1`, shift.ID); err != nil {
			return err
		}
		return r.insertOwnUse(ctx, shift.ID, shift.OwnUse)
	})
	if err != nil {
		return false, database.MapError(err)
	}
	return applied, nil
}

// ============================================================================
// READS
// ============================================================================

// SlotTaken reports whether a shift exists for the pump, date and shift type
func (r *ShiftRepository) SlotTaken(ctx context.Context, pumpID, shiftDate string, shiftType domain.ShiftType) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM shifts WHERE pump_id = $1 AND shift_date = $2 AND shift_type = $3)`
	if err := r.db.Conn(ctx).GetContext(ctx, &exists, query, pumpID, shiftDate, shiftType); err != nil {
		return false, database.MapError(err)
	}
	return exists, nil
}

// GetByID gets a shift with its own-use entries
func (r *ShiftRepository) GetByID(ctx context.Context, id string) (*domain.Shift, error) {
	var shift domain.Shift
	err := r.db.Conn(ctx).GetContext(ctx, &shift, shiftSelect+` WHERE s.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("shift")
	}
	if err != nil {
		return nil, database.MapError(err)
	}

	if err := r.loadOwnUse(ctx, []*domain.Shift{&shift}); err != nil {
		return nil, err
	}
	return &shift, nil
}

// List returns one page of shifts, newest first, and the total count
func (r *ShiftRepository) List(ctx context.Context, params ShiftListParams) ([]*domain.Shift, int64, error) {
	if params.PerPage <= 0 {
		params.PerPage = 50
	}
	if params.Page <= 0 {
		params.Page = 1
	}

	whereClause, args := params.where()

	var total int64
	countQuery := `SELECT COUNT(*) FROM shifts s` + whereClause
	if err := r.db.Conn(ctx).GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, database.MapError(err)
	}

	argNum := len(args) + 1
	query := shiftSelect + whereClause +
		` ORDER BY s.shift_date DESC, s.submitted_at DESC` +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, argNum, argNum+1)
	args = append(args, params.PerPage, (params.Page-1)*params.PerPage)

	shifts := []*domain.Shift{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, 0, database.MapError(err)
	}
	if err := r.loadOwnUse(ctx, shifts); err != nil {
		return nil, 0, err
	}

	return shifts, total, nil
}

// ListAll returns every shift matching the filter, oldest date first, for
// review screens and reports
func (r *ShiftRepository) ListAll(ctx context.Context, filter ShiftFilter) ([]*domain.Shift, error) {
	whereClause, args := filter.where()
	query := shiftSelect + whereClause + ` ORDER BY s.shift_date, s.shift_type, p.name`

	shifts := []*domain.Shift{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, database.MapError(err)
	}
	if err := r.loadOwnUse(ctx, shifts); err != nil {
		return nil, err
	}
	return shifts, nil
}

// CountAll returns the number of shifts matching the filter
func (r *ShiftRepository) CountAll(ctx context.Context, filter ShiftFilter) (int64, error) {
	whereClause, args := filter.where()

	var total int64
	if err := r.db.Conn(ctx).GetContext(ctx, &total, `SELECT COUNT(*) FROM shifts s`+whereClause, args...); err != nil {
		return 0, database.MapError(err)
	}
	return total, nil
}

// ListStalePending returns pending shifts submitted before cutoff
func (r *ShiftRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]*domain.Shift, error) {
	query := shiftSelect + `
		WHERE s.is_approved = false AND s.fix_reason IS NULL AND s.submitted_at < $1
		ORDER BY s.submitted_at`

	shifts := []*domain.Shift{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &shifts, query, cutoff); err != nil {
		return nil, database.MapError(err)
	}
	return shifts, nil
}

func (r *ShiftRepository) loadOwnUse(ctx context.Context, shifts []*domain.Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	ids := make([]string, len(shifts))
	byID := make(map[string]*domain.Shift, len(shifts))
	for i, s := range shifts {
		ids[i] = s.ID
		s.OwnUse = []domain.OwnUse{}
		byID[s.ID] = s
	}

	var entries []domain.OwnUse
	query := `
		SELECT id, shift_id, category, fuel_type, volume, unit_price, amount, created_at
		FROM own_use WHERE shift_id = ANY($1)
		ORDER BY created_at, id
	`
	if err := r.db.Conn(ctx).SelectContext(ctx, &entries, query, pq.Array(ids)); err != nil {
		return database.MapError(err)
	}

	for _, e := range entries {
		if s, ok := byID[e.ShiftID]; ok {
			s.OwnUse = append(s.OwnUse, e)
		}
	}
	return nil
}

// where builds the WHERE clause for f, numbering arguments from $1
func (f ShiftFilter) where() (string, []interface{}) {
	whereClause := " WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if f.StartDate != nil {
		whereClause += fmt.Sprintf(" AND s.shift_date >= $%d", argNum)
		args = append(args, *f.StartDate)
		argNum++
	}
	if f.EndDate != nil {
		whereClause += fmt.Sprintf(" AND s.shift_date <= $%d", argNum)
		args = append(args, *f.EndDate)
		argNum++
	}
	if f.AttendantID != nil {
		whereClause += fmt.Sprintf(" AND s.attendant_id = $%d", argNum)
		args = append(args, *f.AttendantID)
		argNum++
	}
	if f.PumpID != nil {
		whereClause += fmt.Sprintf(" AND s.pump_id = $%d", argNum)
		args = append(args, *f.PumpID)
		argNum++
	}
	if f.ShiftType != nil {
		whereClause += fmt.Sprintf(" AND s.shift_type = $%d", argNum)
		args = append(args, *f.ShiftType)
		argNum++
	}
	if f.Status != nil {
		switch *f.Status {
		case domain.StatusApproved:
			whereClause += " AND s.is_approved = true"
		case domain.StatusFixRequested:
			whereClause += " AND s.is_approved = false AND s.fix_reason IS NOT NULL"
		case domain.StatusPending:
			whereClause += " AND s.is_approved = false AND s.fix_reason IS NULL"
		}
	}
	if f.Label != nil {
		sign := 0
		switch *f.Label {
		case domain.LabelShortage:
			sign = -1
		case domain.LabelOverage:
			sign = 1
		}
		whereClause += fmt.Sprintf(" AND sign(%s - %s) = $%d", collectedExpr, expectedExpr, argNum)
		args = append(args, sign)
	}

	return whereClause, args
}
