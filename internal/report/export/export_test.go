package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fuelshift/fuelshift-backend/internal/report/domain"
	"github.com/fuelshift/fuelshift-backend/internal/report/export"
	shift "github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/testutil"
)

func sampleReport(t *testing.T) *domain.Report {
	t.Helper()
	reason := "recount cash"
	shifts := []*shift.Shift{
		{
			ID: "s1", AttendantID: "a1", AttendantUsername: "amina", AttendantName: "Amina Njeri",
			PumpName: "Pump 1", ShiftType: shift.ShiftDay, ShiftDate: "2026-03-01",
			OpeningReading: testutil.Dec("1000"), ClosingReading: testutil.Dec("1100"),
			FuelPrice: testutil.Dec("10"),
			Payments:  shift.Payments{Cash: testutil.Dec("900"), Card: testutil.Dec("50")},
			FixReason: &reason,
		},
		{
			ID: "s2", AttendantID: "b2", AttendantUsername: "brian", AttendantName: "Brian Müller",
			PumpName: "Pump 2", ShiftType: shift.ShiftNight, ShiftDate: "2026-03-02",
			OpeningReading: testutil.Dec("500"), ClosingReading: testutil.Dec("550"),
			FuelPrice: testutil.Dec("10"), IsApproved: true,
			Payments: shift.Payments{MobileMoney: testutil.Dec("500")},
		},
	}
	views := make([]*shift.ShiftView, len(shifts))
	for i, s := range shifts {
		views[i] = shift.NewView(s, shift.DefaultCriticalThreshold)
	}
	return domain.Build(views, "2026-03-01 to 2026-03-31", time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
}

func TestXLSX(t *testing.T) {
	body, err := export.XLSX(sampleReport(t))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SheetShifts, export.SheetAttendants, export.SheetSummary}, f.GetSheetList())

	header, err := f.GetCellValue(export.SheetShifts, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)

	rows, err := f.GetRows(export.SheetShifts)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2026-03-01", rows[1][0])
	assert.Equal(t, "Amina Njeri", rows[1][3])
	assert.Equal(t, "fix_requested", rows[1][4])
	assert.Equal(t, "shortage", rows[1][22])
	assert.Equal(t, "no", rows[1][23], "a 5% shortage is not above the threshold")
	assert.Equal(t, "recount cash", rows[1][24])
	assert.Equal(t, "approved", rows[2][4])

	ranked, err := f.GetRows(export.SheetAttendants)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "brian", ranked[1][1], "balanced attendant ranks first")
	assert.Equal(t, "amina", ranked[2][1])

	period, err := f.GetCellValue(export.SheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01 to 2026-03-31", period)
}

func TestXLSX_Empty(t *testing.T) {
	r := domain.Build(nil, "all time", time.Now())
	body, err := export.XLSX(r)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetShifts)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPDF(t *testing.T) {
	body, err := export.PDF(sampleReport(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")), "output should be a PDF document")
}

func TestPDF_ManyShiftsPaginate(t *testing.T) {
	views := make([]*shift.ShiftView, 0, 120)
	for i := 0; i < 120; i++ {
		s := &shift.Shift{
			ID: "s", AttendantID: "a1", AttendantUsername: "amina",
			ShiftType: shift.ShiftDay, ShiftDate: "2026-03-01",
			OpeningReading: decimal.NewFromInt(0), ClosingReading: decimal.NewFromInt(10),
			FuelPrice: decimal.NewFromInt(10), Payments: shift.Payments{Cash: decimal.NewFromInt(100)},
		}
		views = append(views, shift.NewView(s, shift.DefaultCriticalThreshold))
	}
	body, err := export.PDF(domain.Build(views, "March", time.Now()))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
	assert.Greater(t, len(body), 4096)
}
