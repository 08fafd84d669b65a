package events

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fuelshift/fuelshift-backend/internal/station/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/messaging"
)

// StationEventPublisher publishes pump and price events
type StationEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewStationEventPublisher wraps a publisher bound to the station exchange
func NewStationEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *StationEventPublisher {
	return &StationEventPublisher{publisher: publisher, logger: log}
}

// PublishFuelPriceChanged publishes a price change. Failures are logged only.
func (p *StationEventPublisher) PublishFuelPriceChanged(ctx context.Context, fuelType domain.FuelType, oldPrice, newPrice decimal.Decimal, changedBy string) {
	data := messaging.FuelPriceChangedEvent{
		FuelType:  string(fuelType),
		NewPrice:  newPrice.StringFixed(2),
		ChangedBy: changedBy,
	}
	if !oldPrice.IsZero() {
		data.OldPrice = oldPrice.StringFixed(2)
	}

	if err := p.publisher.Publish(ctx, messaging.EventFuelPriceChanged, data); err != nil {
		p.logger.Error().Err(err).Str("fuel_type", string(fuelType)).Msg("failed to publish fuel price changed event")
	}
}
