package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelshift/fuelshift-backend/internal/report/domain"
	shift "github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/testutil"
)

// view builds a shift of 100 litres at 10.00 (expected 1000.00) with the given cash
func view(attendantID, username, cash string, opts ...func(*shift.Shift)) *shift.ShiftView {
	s := &shift.Shift{
		ID:                attendantID + "-" + cash,
		AttendantID:       attendantID,
		AttendantUsername: username,
		ShiftType:         shift.ShiftDay,
		ShiftDate:         "2026-03-01",
		OpeningReading:    decimal.NewFromInt(1000),
		ClosingReading:    decimal.NewFromInt(1100),
		FuelPrice:         decimal.NewFromInt(10),
		Payments:          shift.Payments{Cash: testutil.Dec(cash)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return shift.NewView(s, shift.DefaultCriticalThreshold)
}

func TestSummarize(t *testing.T) {
	views := []*shift.ShiftView{
		view("a1", "amina", "1000"),
		view("a1", "amina", "940", func(s *shift.Shift) { s.IsApproved = true }),
		view("b2", "brian", "1010", func(s *shift.Shift) {
			s.MobileMoney = decimal.NewFromInt(5)
			s.OwnUse = []shift.OwnUse{{Category: shift.OwnUseGenset, Volume: decimal.NewFromInt(2), Amount: decimal.NewFromInt(20)}}
		}),
	}
	// b2 collects 1010 + 5 + 20 = 1035 against 1000

	s := domain.Summarize(views)
	assert.Equal(t, 3, s.ShiftCount)
	assert.True(t, s.Volume.Equal(decimal.NewFromInt(300)))
	assert.True(t, s.Expected.Equal(decimal.NewFromInt(3000)))
	assert.True(t, s.Collected.Equal(decimal.NewFromInt(2975)), s.Collected.String())
	assert.True(t, s.Variance.Equal(decimal.NewFromInt(-25)))
	assert.True(t, s.Shortfall.Equal(decimal.NewFromInt(60)))
	assert.True(t, s.Surplus.Equal(decimal.NewFromInt(35)))
	assert.Equal(t, domain.LabelCounts{Shortage: 1, Overage: 1, Balanced: 1}, s.Labels)
	assert.Equal(t, 1, s.Critical, "only the 6% shortage crosses the 5% threshold")
	assert.Equal(t, 1, s.Statuses.Approved)
	assert.Equal(t, 2, s.Statuses.Pending)
	assert.True(t, s.Channels[shift.ChannelCash].Equal(decimal.NewFromInt(2950)))
	assert.True(t, s.Channels[shift.ChannelMobileMoney].Equal(decimal.NewFromInt(5)))
	assert.True(t, s.OwnUse[shift.OwnUseGenset].Amount.Equal(decimal.NewFromInt(20)))
	assert.True(t, s.OwnUse[shift.OwnUseVehicle].Volume.IsZero())
	assert.Equal(t, "99.17", s.Accuracy.StringFixed(2))
}

func TestSummarize_Empty(t *testing.T) {
	s := domain.Summarize(nil)
	assert.Zero(t, s.ShiftCount)
	assert.True(t, s.VariancePercent.IsZero())
	assert.Equal(t, "100", s.Accuracy.String())
	assert.Len(t, s.Channels, 7)
}

func TestRankAttendants(t *testing.T) {
	views := []*shift.ShiftView{
		// amina: 100% and 98% -> mean 99
		view("a1", "amina", "1000"),
		view("a1", "amina", "980"),
		// brian: 99%, variance -10
		view("b2", "brian", "990"),
		// carol: 99%, variance +10, ties brian on accuracy and |variance|
		view("c3", "carol", "1010"),
		// dan: 100%
		view("d4", "dan", "1000"),
		// eve ties brian and carol; username order settles it
		view("e5", "Eve", "990"),
	}

	ranked := domain.RankAttendants(views)
	require.Len(t, ranked, 5)

	var order []string
	for _, st := range ranked {
		order = append(order, st.Username)
	}
	// amina's mean accuracy equals the others' but her absolute variance is larger
	assert.Equal(t, []string{"dan", "brian", "carol", "Eve", "amina"}, order)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 5, ranked[4].Rank)

	amina := ranked[4]
	assert.Equal(t, 2, amina.Shifts)
	assert.Equal(t, "99.00", amina.MeanAccuracy.StringFixed(2))
	assert.True(t, amina.TotalVariance.Equal(decimal.NewFromInt(-20)))
	assert.Equal(t, 1, amina.Shortages)
}

func TestRankAttendants_VarianceBreaksAccuracyTie(t *testing.T) {
	views := []*shift.ShiftView{
		// both average 99%, but x nets out to zero variance
		view("x", "xavier", "990"),
		view("x", "xavier", "1010"),
		view("y", "yusuf", "990"),
		view("y", "yusuf", "990"),
	}

	ranked := domain.RankAttendants(views)
	require.Len(t, ranked, 2)
	assert.Equal(t, "xavier", ranked[0].Username)
	assert.Equal(t, "yusuf", ranked[1].Username)
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	r := domain.Build([]*shift.ShiftView{view("a1", "amina", "1000")}, "2026-03-01 to 2026-03-07", now)

	assert.Equal(t, now, r.GeneratedAt)
	assert.Equal(t, 1, r.Summary.ShiftCount)
	assert.Len(t, r.Attendants, 1)
	assert.Len(t, r.Shifts, 1)
}
