package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fuelshift/fuelshift-backend/internal/station/domain"
	"github.com/fuelshift/fuelshift-backend/internal/station/events"
	"github.com/fuelshift/fuelshift-backend/internal/station/repository"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/money"
)

// StationService manages pumps and fuel prices
type StationService struct {
	pumpRepo  *repository.PumpRepository
	priceRepo *repository.PriceRepository
	publisher *events.StationEventPublisher
	logger    *logger.Logger
}

// NewStationService creates a new station service
func NewStationService(
	pumpRepo *repository.PumpRepository,
	priceRepo *repository.PriceRepository,
	publisher *events.StationEventPublisher,
	log *logger.Logger,
) *StationService {
	return &StationService{
		pumpRepo:  pumpRepo,
		priceRepo: priceRepo,
		publisher: publisher,
		logger:    log,
	}
}

// PumpRequest is the body of pump create and update
type PumpRequest struct {
	Name     string          `json:"name" validate:"required,max=64"`
	FuelType domain.FuelType `json:"fuel_type" validate:"required,oneof=petrol diesel kerosene"`
	IsActive *bool           `json:"is_active,omitempty"`
}

// SetPriceRequest is the body of a fuel price update
type SetPriceRequest struct {
	PricePerLitre decimal.Decimal `json:"price_per_litre" validate:"gt=0,lte=9999999999.99"`
}

// ============================================================================
// PUMPS
// ============================================================================

// ListPumps lists pumps. Attendants only see active pumps.
func (s *StationService) ListPumps(ctx context.Context, a *actor.Actor, includeInactive bool) ([]*domain.Pump, error) {
	activeOnly := !includeInactive || a.HasRole(actor.RoleAttendant)
	return s.pumpRepo.List(ctx, activeOnly)
}

// GetPump gets a pump by ID
func (s *StationService) GetPump(ctx context.Context, id string) (*domain.Pump, error) {
	return s.pumpRepo.GetByID(ctx, id)
}

// CreatePump creates an active pump
func (s *StationService) CreatePump(ctx context.Context, a *actor.Actor, req *PumpRequest) (*domain.Pump, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	pump := &domain.Pump{
		Name:     strings.TrimSpace(req.Name),
		FuelType: req.FuelType,
		IsActive: true,
	}
	if req.IsActive != nil {
		pump.IsActive = *req.IsActive
	}

	if err := s.pumpRepo.Create(ctx, pump); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("pump_id", pump.ID).
		Str("name", pump.Name).
		Str("fuel_type", string(pump.FuelType)).
		Str("actor", a.String()).
		Msg("pump created")

	return pump, nil
}

// UpdatePump renames, re-grades or (de)activates a pump. Submitted shifts
// keep the price they were recorded with.
func (s *StationService) UpdatePump(ctx context.Context, a *actor.Actor, id string, req *PumpRequest) (*domain.Pump, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	pump, err := s.pumpRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pump.Name = strings.TrimSpace(req.Name)
	pump.FuelType = req.FuelType
	if req.IsActive != nil {
		pump.IsActive = *req.IsActive
	}

	if err := s.pumpRepo.Update(ctx, pump); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("pump_id", pump.ID).
		Bool("is_active", pump.IsActive).
		Str("actor", a.String()).
		Msg("pump updated")

	return pump, nil
}

// ============================================================================
// FUEL PRICES
// ============================================================================

// ListPrices lists the current fuel prices
func (s *StationService) ListPrices(ctx context.Context) ([]*domain.FuelPrice, error) {
	return s.priceRepo.List(ctx)
}

// Prices returns the current prices indexed by fuel type
func (s *StationService) Prices(ctx context.Context) (domain.PriceTable, error) {
	prices, err := s.priceRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewPriceTable(prices), nil
}

// SetPrice sets the price of a fuel type
func (s *StationService) SetPrice(ctx context.Context, a *actor.Actor, fuelType domain.FuelType, req *SetPriceRequest) (*domain.FuelPrice, error) {
	if !fuelType.Valid() {
		return nil, errors.NotFound("fuel_price")
	}
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	price := money.Round2(req.PricePerLitre)
	if !price.IsPositive() {
		return nil, errors.Validation(map[string]string{"price_per_litre": "must be greater than zero"})
	}

	old, updated, err := s.priceRepo.Set(ctx, fuelType, price, a.ID)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishFuelPriceChanged(ctx, fuelType, old, price, a.ID)

	s.logger.Info().
		Str("fuel_type", string(fuelType)).
		Str("old_price", old.StringFixed(2)).
		Str("new_price", price.StringFixed(2)).
		Str("actor", a.String()).
		Msg("fuel price changed")

	return updated, nil
}
