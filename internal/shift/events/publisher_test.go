package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/internal/shift/events"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/messaging"
	"github.com/fuelshift/fuelshift-backend/pkg/testutil"
)

func TestPublishSubmitted(t *testing.T) {
	pub := testutil.NewMockPublisher()
	p := events.NewShiftEventPublisher(pub, logger.Nop())

	s := &domain.Shift{
		ID: "shift-1", AttendantID: "att-1", PumpID: "pump-1",
		ShiftType: domain.ShiftNight, ShiftDate: "2024-03-10",
		OpeningReading: decimal.NewFromInt(0), ClosingReading: decimal.NewFromInt(100),
		FuelPrice: decimal.NewFromInt(10),
		Payments:  domain.Payments{Cash: decimal.NewFromInt(900)},
	}
	p.PublishSubmitted(context.Background(), domain.NewView(s, domain.DefaultCriticalThreshold))

	ev := pub.Find(messaging.EventShiftSubmitted)
	require.NotNil(t, ev)
	data := ev.Payload.(messaging.ShiftSubmittedEvent)
	assert.Equal(t, "1000.00", data.Expected)
	assert.Equal(t, "900.00", data.Collected)
	assert.Equal(t, "-100.00", data.Variance)
	assert.Equal(t, "shortage", data.Label)
	assert.True(t, data.Critical)
	assert.Equal(t, "night", data.ShiftType)
}

func TestPublish_FailureIsSwallowed(t *testing.T) {
	pub := testutil.NewMockPublisher()
	pub.Err = errors.New("broker down")
	p := events.NewShiftEventPublisher(pub, logger.Nop())

	assert.NotPanics(t, func() {
		p.PublishFixRequested(context.Background(), &domain.Shift{ID: "shift-1"}, "sup-1", "recount")
	})
	pub.AssertEventPublished(t, messaging.EventShiftFixRequested)
}
