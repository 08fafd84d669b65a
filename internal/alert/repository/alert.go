package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/fuelshift/fuelshift-backend/internal/alert/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/database"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
)

// AlertRepository handles alert persistence
type AlertRepository struct {
	db *database.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *database.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, recipient_id, recipient_role, severity, kind, message, shift_id, is_read, read_at, created_at`

// ActiveUserIDs returns the IDs of active users holding role
func (r *AlertRepository) ActiveUserIDs(ctx context.Context, role actor.Role) ([]string, error) {
	ids := []string{}
	query := `SELECT id FROM users WHERE role = $1 AND status = 'active' AND deleted_at IS NULL ORDER BY id`
	if err := r.db.Conn(ctx).SelectContext(ctx, &ids, query, role); err != nil {
		return nil, database.MapError(err)
	}
	return ids, nil
}

// Insert stores one alert row. A duplicate stale-shift alert for the same
// recipient is skipped and reported as inserted=false.
func (r *AlertRepository) Insert(ctx context.Context, a *domain.Alert) (inserted bool, err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	query := `
		INSERT INTO alerts (id, recipient_id, recipient_role, severity, kind, message, shift_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
		RETURNING created_at
	`
	rows, err := r.db.Conn(ctx).QueryxContext(ctx, query,
		a.ID, a.RecipientID, a.RecipientRole, a.Severity, a.Kind, a.Message, a.ShiftID)
	if err != nil {
		return false, database.MapError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.Scan(&a.CreatedAt); err != nil {
		return false, err
	}
	return true, nil
}

// ListForRecipient returns a page of the user's alerts, newest first
func (r *AlertRepository) ListForRecipient(ctx context.Context, recipientID string, params domain.ListParams) ([]*domain.Alert, int64, error) {
	if params.PerPage <= 0 {
		params.PerPage = 50
	}
	if params.Page <= 0 {
		params.Page = 1
	}

	whereClause := ` WHERE recipient_id = $1`
	if params.UnreadOnly {
		whereClause += ` AND is_read = false`
	}

	var total int64
	if err := r.db.Conn(ctx).GetContext(ctx, &total, `SELECT COUNT(*) FROM alerts`+whereClause, recipientID); err != nil {
		return nil, 0, database.MapError(err)
	}

	alerts := []*domain.Alert{}
	query := `SELECT ` + alertColumns + ` FROM alerts` + whereClause +
		` ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	err := r.db.Conn(ctx).SelectContext(ctx, &alerts, query,
		recipientID, params.PerPage, (params.Page-1)*params.PerPage)
	if err != nil {
		return nil, 0, database.MapError(err)
	}

	return alerts, total, nil
}

// UnreadCount counts the user's unread alerts
func (r *AlertRepository) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM alerts WHERE recipient_id = $1 AND is_read = false`
	if err := r.db.Conn(ctx).GetContext(ctx, &n, query, recipientID); err != nil {
		return 0, database.MapError(err)
	}
	return n, nil
}

// MarkRead marks one of the user's alerts as read. Marking an already read
// alert is not an error.
func (r *AlertRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	query := `
		UPDATE alerts SET is_read = true, read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND recipient_id = $2
	`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return database.MapError(err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("alert")
	}
	return nil
}

// MarkAllRead marks every unread alert of the user as read
func (r *AlertRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	query := `UPDATE alerts SET is_read = true, read_at = NOW() WHERE recipient_id = $1 AND is_read = false`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, recipientID)
	if err != nil {
		return 0, database.MapError(err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
