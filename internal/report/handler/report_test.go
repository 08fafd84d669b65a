package handler_test

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelshift/fuelshift-backend/internal/report/domain"
	"github.com/fuelshift/fuelshift-backend/internal/report/handler"
	"github.com/fuelshift/fuelshift-backend/internal/report/service"
	"github.com/fuelshift/fuelshift-backend/internal/shift/repository"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/testutil"
)

const managerID = "c0ffee00-1111-4222-8333-444455556666"

func setup(t *testing.T) (*testutil.MockDB, http.Handler) {
	mockDB := testutil.NewMockDB(t)
	svc := service.NewReportService(repository.NewShiftRepository(mockDB.DB), decimal.NewFromInt(5), logger.Nop())
	svc.SetClock(func() time.Time { return time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC) })
	h := handler.NewReportHandler(svc, logger.Nop())

	r := chi.NewRouter()
	r.Get("/reports/summary", h.Summary)
	r.Get("/reports/attendants", h.Attendants)
	r.Get("/reports/export.xlsx", h.ExportXLSX)
	r.Get("/reports/export.pdf", h.ExportPDF)
	return mockDB, r
}

// expectShifts answers the report query with one short and one balanced shift
func expectShifts(mockDB *testutil.MockDB) {
	rows := testutil.MockRows(
		"id", "attendant_id", "pump_id", "shift_type", "shift_date",
		"opening_reading", "closing_reading", "fuel_price", "cash", "is_approved",
		"attendant_username", "attendant_name", "pump_name",
	).
		AddRow("s1", "a1", "p1", "day", "2026-03-01", "1000", "1100", "10", "900", false, "amina", "Amina N", "Pump 1").
		AddRow("s2", "b2", "p1", "night", "2026-03-01", "1100", "1200", "10", "1000", true, "brian", "Brian O", "Pump 1")
	mockDB.Mock.ExpectQuery(`SELECT COUNT\(\*\) FROM shifts s WHERE 1=1 AND s\.shift_date >= \$1 AND s\.shift_date <= \$2`).
		WithArgs("2026-03-01", "2026-03-31").
		WillReturnRows(testutil.MockRows("count").AddRow(2))
	mockDB.Mock.ExpectQuery(`(?s)FROM shifts s.*WHERE 1=1 AND s\.shift_date >= \$1 AND s\.shift_date <= \$2 ORDER BY`).
		WithArgs("2026-03-01", "2026-03-31").
		WillReturnRows(rows)
	mockDB.Mock.ExpectQuery(`FROM own_use WHERE shift_id = ANY\(\$1\)`).
		WillReturnRows(testutil.MockRows("id", "shift_id", "category", "fuel_type", "volume", "unit_price", "amount", "created_at"))
}

func managerRequest(path string) *http.Request {
	return testutil.WithActor(testutil.NewHTTPRequest(http.MethodGet, path, nil), testutil.Manager(managerID))
}

func TestSummary(t *testing.T) {
	mockDB, router := setup(t)
	expectShifts(mockDB)

	rr := testutil.ExecuteRequest(router, managerRequest("/reports/summary?start_date=2026-03-01&end_date=2026-03-31"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var s domain.Summary
	testutil.ParseData(t, rr, &s)
	assert.Equal(t, 2, s.ShiftCount)
	assert.Equal(t, 1, s.Labels.Shortage)
	assert.Equal(t, 1, s.Critical)
	assert.True(t, s.Shortfall.Equal(decimal.NewFromInt(100)))
	mockDB.ExpectationsWereMet(t)
}

func TestAttendants(t *testing.T) {
	mockDB, router := setup(t)
	expectShifts(mockDB)

	rr := testutil.ExecuteRequest(router, managerRequest("/reports/attendants?start_date=2026-03-01&end_date=2026-03-31"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var ranked []domain.AttendantStats
	testutil.ParseData(t, rr, &ranked)
	require.Len(t, ranked, 2)
	assert.Equal(t, "brian", ranked[0].Username)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "amina", ranked[1].Username)
	mockDB.ExpectationsWereMet(t)
}

func TestExportXLSX(t *testing.T) {
	mockDB, router := setup(t)
	expectShifts(mockDB)

	rr := testutil.ExecuteRequest(router, managerRequest("/reports/export.xlsx?start_date=2026-03-01&end_date=2026-03-31"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename="shift-report-20260401-0930.xlsx"`)
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))
	mockDB.ExpectationsWereMet(t)
}

func TestExportPDF(t *testing.T) {
	mockDB, router := setup(t)
	expectShifts(mockDB)

	rr := testutil.ExecuteRequest(router, managerRequest("/reports/export.pdf?start_date=2026-03-01&end_date=2026-03-31"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")))
	mockDB.ExpectationsWereMet(t)
}

func TestReports_InvalidFilter(t *testing.T) {
	mockDB, router := setup(t)

	for _, path := range []string{
		"/reports/summary?start_date=03/01/2026",
		"/reports/attendants?shift_type=evening",
		"/reports/export.pdf?start_date=2026-03-31&end_date=2026-03-01",
	} {
		rr := testutil.ExecuteRequest(router, managerRequest(path))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorCode(t, rr, "VALIDATION_ERROR")
	}
	mockDB.ExpectationsWereMet(t)
}

func TestReports_TooManyShiftsRefusedBeforeLoading(t *testing.T) {
	for _, path := range []string{
		"/reports/summary?start_date=2026-01-01&end_date=2026-12-31",
		"/reports/attendants?start_date=2026-01-01&end_date=2026-12-31",
		"/reports/export.xlsx?start_date=2026-01-01&end_date=2026-12-31",
		"/reports/export.pdf?start_date=2026-01-01&end_date=2026-12-31",
	} {
		t.Run(path, func(t *testing.T) {
			mockDB, router := setup(t)
			mockDB.Mock.ExpectQuery(`SELECT COUNT\(\*\) FROM shifts s WHERE`).
				WithArgs("2026-01-01", "2026-12-31").
				WillReturnRows(testutil.MockRows("count").AddRow(service.MaxReportShifts + 1))

			rr := testutil.ExecuteRequest(router, managerRequest(path))
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
			testutil.AssertErrorCode(t, rr, "BAD_REQUEST")
			mockDB.ExpectationsWereMet(t)
		})
	}
}
