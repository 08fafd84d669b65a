package service_test

import (
	"bytes"
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelshift/fuelshift-backend/internal/report/export"
	"github.com/fuelshift/fuelshift-backend/internal/report/service"
	shift "github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/internal/shift/repository"
	"github.com/fuelshift/fuelshift-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	ctx := context.Background()

	if !testing.Short() {
		var err error
		suite, err = testutil.NewIntegrationSuite(ctx)
		if err != nil {
			log.Printf("integration tests disabled: %v", err)
		}
	}

	code := m.Run()
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

var march = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func newService() *service.ReportService {
	svc := service.NewReportService(repository.NewShiftRepository(suite.DB), decimal.NewFromInt(5), suite.Logger)
	svc.SetClock(func() time.Time { return time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC) })
	return svc
}

// seed creates two attendants: one balanced, one short by 60.00 on a second shift
func seed(t *testing.T) (balanced, short testutil.UserFixture) {
	f := suite.Fixtures
	balanced = f.User(t, "attendant")
	short = f.User(t, "attendant")
	pump := f.Pump(t, "petrol")

	f.Shift(t, balanced.ID, pump.ID, march)
	f.Shift(t, short.ID, pump.ID, march, func(s *testutil.ShiftFixture) { s.ShiftType = "night" })
	f.Shift(t, short.ID, pump.ID, march.AddDate(0, 0, 1), func(s *testutil.ShiftFixture) {
		s.Cash = decimal.NewFromInt(940)
		s.IsApproved = true
	})
	// outside the filtered range
	f.Shift(t, short.ID, pump.ID, march.AddDate(0, 1, 0))
	return balanced, short
}

func marchFilter() repository.ShiftFilter {
	return repository.ShiftFilter{
		StartDate: testutil.PtrString("2026-03-01"),
		EndDate:   testutil.PtrString("2026-03-31"),
	}
}

func TestSummary(t *testing.T) {
	testutil.RequireSuite(t, suite)
	seed(t)

	s, err := newService().Summary(context.Background(), marchFilter())
	require.NoError(t, err)

	assert.Equal(t, 3, s.ShiftCount)
	assert.True(t, s.Expected.Equal(decimal.NewFromInt(3000)), s.Expected.String())
	assert.True(t, s.Collected.Equal(decimal.NewFromInt(2940)), s.Collected.String())
	assert.True(t, s.Shortfall.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, 1, s.Labels.Shortage)
	assert.Equal(t, 2, s.Labels.Balanced)
	assert.Equal(t, 1, s.Critical)
	assert.Equal(t, 1, s.Statuses.Approved)
	assert.Equal(t, 2, s.Statuses.Pending)
	assert.True(t, s.Channels[shift.ChannelCash].Equal(decimal.NewFromInt(2940)))
}

func TestSummary_FilterByAttendant(t *testing.T) {
	testutil.RequireSuite(t, suite)
	balanced, _ := seed(t)

	filter := marchFilter()
	filter.AttendantID = &balanced.ID
	s, err := newService().Summary(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, s.ShiftCount)
	assert.Equal(t, "100", s.Accuracy.String())
}

func TestAttendantPerformance(t *testing.T) {
	testutil.RequireSuite(t, suite)
	balanced, short := seed(t)

	ranked, err := newService().AttendantPerformance(context.Background(), marchFilter())
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, balanced.ID, ranked[0].AttendantID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, balanced.Username, ranked[0].Username)

	assert.Equal(t, short.ID, ranked[1].AttendantID)
	assert.Equal(t, 2, ranked[1].Shifts)
	assert.Equal(t, 1, ranked[1].Shortages)
	assert.Equal(t, "97", ranked[1].MeanAccuracy.String())
	assert.True(t, ranked[1].TotalVariance.Equal(decimal.NewFromInt(-60)))
}

func TestExportXLSX(t *testing.T) {
	testutil.RequireSuite(t, suite)
	seed(t)

	file, err := newService().ExportXLSX(context.Background(), marchFilter())
	require.NoError(t, err)
	assert.Equal(t, "shift-report-20260401-0930.xlsx", file.Name)
	assert.Equal(t, export.XLSXContentType, file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("PK")), "xlsx is a zip archive")
}

func TestExportPDF_Empty(t *testing.T) {
	testutil.RequireSuite(t, suite)

	file, err := newService().ExportPDF(context.Background(), marchFilter())
	require.NoError(t, err)
	assert.Equal(t, export.PDFContentType, file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestPeriod(t *testing.T) {
	from, to := "2026-03-01", "2026-03-31"
	assert.Equal(t, "2026-03-01 to 2026-03-31", service.Period(repository.ShiftFilter{StartDate: &from, EndDate: &to}))
	assert.Equal(t, "2026-03-01", service.Period(repository.ShiftFilter{StartDate: &from, EndDate: &from}))
	assert.Equal(t, "from 2026-03-01", service.Period(repository.ShiftFilter{StartDate: &from}))
	assert.Equal(t, "until 2026-03-31", service.Period(repository.ShiftFilter{EndDate: &to}))
	assert.Equal(t, "all dates", service.Period(repository.ShiftFilter{}))
}
