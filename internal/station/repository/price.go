package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/fuelshift/fuelshift-backend/internal/station/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/database"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
)

// PriceRepository handles fuel price persistence
type PriceRepository struct {
	db *database.DB
}

// NewPriceRepository creates a new fuel price repository
func NewPriceRepository(db *database.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// List returns the current price of every fuel type
func (r *PriceRepository) List(ctx context.Context) ([]*domain.FuelPrice, error) {
	prices := []*domain.FuelPrice{}
	query := `SELECT fuel_type, price_per_litre, updated_by, updated_at FROM fuel_prices ORDER BY fuel_type`
	if err := r.db.Conn(ctx).SelectContext(ctx, &prices, query); err != nil {
		return nil, err
	}
	return prices, nil
}

// Get returns the current price of a fuel type
func (r *PriceRepository) Get(ctx context.Context, fuelType domain.FuelType) (*domain.FuelPrice, error) {
	var price domain.FuelPrice
	query := `SELECT fuel_type, price_per_litre, updated_by, updated_at FROM fuel_prices WHERE fuel_type = $1`

	err := r.db.Conn(ctx).GetContext(ctx, &price, query, fuelType)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("fuel_price")
	}
	if err != nil {
		return nil, err
	}
	return &price, nil
}

// Set upserts the price of a fuel type and returns the previous price, zero
// when none was set
func (r *PriceRepository) Set(ctx context.Context, fuelType domain.FuelType, price decimal.Decimal, updatedBy string) (old decimal.Decimal, updated *domain.FuelPrice, err error) {
	err = r.db.WithTx(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		err := conn.GetContext(ctx, &old,
			`SELECT price_per_litre FROM fuel_prices WHERE fuel_type = $1 FOR UPDATE`, fuelType)
		if err != nil && err != sql.ErrNoRows {
			return err
		}

		updated = &domain.FuelPrice{}
		return conn.QueryRowxContext(ctx, `
			INSERT INTO fuel_prices (fuel_type, price_per_litre, updated_by, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (fuel_type) DO UPDATE
				SET price_per_litre = EXCLUDED.price_per_litre,
				    updated_by = EXCLUDED.updated_by,
				    updated_at = NOW()
			RETURNING fuel_type, price_per_litre, updated_by, updated_at
		`, fuelType, price, updatedBy).StructScan(updated)
	})
	if err != nil {
		return decimal.Zero, nil, database.MapError(err)
	}
	return old, updated, nil
}
