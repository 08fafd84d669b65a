package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/fuelshift/fuelshift-backend/internal/station/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/database"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
)

// PumpRepository handles pump persistence
type PumpRepository struct {
	db *database.DB
}

// NewPumpRepository creates a new pump repository
func NewPumpRepository(db *database.DB) *PumpRepository {
	return &PumpRepository{db: db}
}

const pumpColumns = `id, name, fuel_type, is_active, created_at, updated_at`

// List returns pumps ordered by name
func (r *PumpRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Pump, error) {
	query := `SELECT ` + pumpColumns + ` FROM pumps`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`

	pumps := []*domain.Pump{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &pumps, query); err != nil {
		return nil, err
	}
	return pumps, nil
}

// GetByID gets a pump by ID
func (r *PumpRepository) GetByID(ctx context.Context, id string) (*domain.Pump, error) {
	var pump domain.Pump
	query := `SELECT ` + pumpColumns + ` FROM pumps WHERE id = $1`

	err := r.db.Conn(ctx).GetContext(ctx, &pump, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("pump")
	}
	if err != nil {
		return nil, err
	}
	return &pump, nil
}

// Create inserts a pump
func (r *PumpRepository) Create(ctx context.Context, pump *domain.Pump) error {
	if pump.ID == "" {
		pump.ID = uuid.New().String()
	}

	query := `
		INSERT INTO pumps (id, name, fuel_type, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		pump.ID, pump.Name, pump.FuelType, pump.IsActive,
	).Scan(&pump.CreatedAt, &pump.UpdatedAt)
	return database.MapError(err)
}

// Update saves name, fuel type and active flag
func (r *PumpRepository) Update(ctx context.Context, pump *domain.Pump) error {
	query := `
		UPDATE pumps SET name = $2, fuel_type = $3, is_active = $4
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		pump.ID, pump.Name, pump.FuelType, pump.IsActive,
	).Scan(&pump.CreatedAt, &pump.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("pump")
	}
	return database.MapError(err)
}
