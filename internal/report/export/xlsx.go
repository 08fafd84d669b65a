// Package export renders reports as spreadsheets and PDF documents.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fuelshift/fuelshift-backend/internal/report/domain"
	shift "github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/money"
)

// Sheet names of the workbook
const (
	SheetShifts     = "Shifts"
	SheetAttendants = "Attendants"
	SheetSummary    = "Summary"
)

// XLSXContentType is the MIME type of the workbook
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var shiftHeaders = []string{
	"Date", "Shift", "Pump", "Attendant", "Status",
	"Opening", "Closing", "Volume (L)", "Price/L", "Expected",
	"Cash", "Mobile money", "Card", "Bank transfer", "Credit", "Voucher", "Fleet card",
	"Own use", "Collected", "Variance", "Variance %", "Accuracy %", "Label", "Critical", "Fix reason",
}

var attendantHeaders = []string{
	"Rank", "Username", "Full name", "Shifts", "Volume (L)", "Expected", "Collected",
	"Total variance", "Mean accuracy %", "Critical shifts", "Shortages",
}

// XLSX renders r as a workbook with one row per shift and the attendant ranking
func XLSX(r *domain.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetShifts); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetAttendants, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0E0E0"}},
	})
	if err != nil {
		return nil, err
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}

	if err := writeShifts(f, r.Shifts, header, amount); err != nil {
		return nil, fmt.Errorf("shifts sheet: %w", err)
	}
	if err := writeAttendants(f, r.Attendants, header, amount); err != nil {
		return nil, fmt.Errorf("attendants sheet: %w", err)
	}
	if err := writeSummary(f, r, header); err != nil {
		return nil, fmt.Errorf("summary sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeShifts(f *excelize.File, views []*shift.ShiftView, header, amount int) error {
	if err := writeHeader(f, SheetShifts, shiftHeaders, header); err != nil {
		return err
	}

	for i, v := range views {
		rec := v.Reconciliation
		fixReason := ""
		if v.FixReason != nil {
			fixReason = *v.FixReason
		}
		row := []interface{}{
			v.ShiftDate, string(v.ShiftType), v.PumpName, attendantLabel(v), string(v.Status),
			money.Float(v.OpeningReading), money.Float(v.ClosingReading), money.Float(rec.Volume),
			money.Float(v.FuelPrice), money.Float(rec.Expected),
			money.Float(v.Cash), money.Float(v.MobileMoney), money.Float(v.Card),
			money.Float(v.BankTransfer), money.Float(v.Credit), money.Float(v.Voucher), money.Float(v.FleetCard),
			money.Float(rec.OwnUseTotal), money.Float(rec.Collected), money.Float(rec.Variance),
			money.Float(rec.VariancePercent), money.Float(rec.Accuracy),
			string(rec.Label), yesNo(rec.Critical), fixReason,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetShifts, cell, &row); err != nil {
			return err
		}
	}

	if len(views) > 0 {
		// Expected through Variance
		from, _ := excelize.CoordinatesToCellName(10, 2)
		to, _ := excelize.CoordinatesToCellName(20, len(views)+1)
		if err := f.SetCellStyle(SheetShifts, from, to, amount); err != nil {
			return err
		}
	}
	return freezeHeader(f, SheetShifts, len(shiftHeaders), len(views))
}

func writeAttendants(f *excelize.File, stats []*domain.AttendantStats, header, amount int) error {
	if err := writeHeader(f, SheetAttendants, attendantHeaders, header); err != nil {
		return err
	}

	for i, st := range stats {
		row := []interface{}{
			st.Rank, st.Username, st.FullName, st.Shifts,
			money.Float(st.Volume), money.Float(st.Expected), money.Float(st.Collected),
			money.Float(st.TotalVariance), money.Float(st.MeanAccuracy), st.Critical, st.Shortages,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetAttendants, cell, &row); err != nil {
			return err
		}
	}

	if len(stats) > 0 {
		from, _ := excelize.CoordinatesToCellName(6, 2)
		to, _ := excelize.CoordinatesToCellName(8, len(stats)+1)
		if err := f.SetCellStyle(SheetAttendants, from, to, amount); err != nil {
			return err
		}
	}
	return freezeHeader(f, SheetAttendants, len(attendantHeaders), len(stats))
}

func writeSummary(f *excelize.File, r *domain.Report, header int) error {
	s := r.Summary
	rows := [][]interface{}{
		{"Period", r.Period},
		{"Generated at", r.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")},
		{"Shifts", s.ShiftCount},
		{"Volume (L)", money.Float(s.Volume)},
		{"Expected", money.Float(s.Expected)},
		{"Collected", money.Float(s.Collected)},
		{"Variance", money.Float(s.Variance)},
		{"Shortfall", money.Float(s.Shortfall)},
		{"Surplus", money.Float(s.Surplus)},
		{"Variance %", money.Float(s.VariancePercent)},
		{"Accuracy %", money.Float(s.Accuracy)},
		{"Shortage shifts", s.Labels.Shortage},
		{"Overage shifts", s.Labels.Overage},
		{"Balanced shifts", s.Labels.Balanced},
		{"Critical shifts", s.Critical},
		{"Pending", s.Statuses.Pending},
		{"Fix requested", s.Statuses.FixRequested},
		{"Approved", s.Statuses.Approved},
	}
	for _, c := range shift.Channels {
		rows = append(rows, []interface{}{"Channel: " + string(c), money.Float(s.Channels[c])})
	}
	for _, c := range shift.OwnUseCategories {
		rows = append(rows, []interface{}{"Own use: " + string(c), money.Float(s.OwnUse[c].Amount)})
	}

	for i, row := range rows {
		row := row
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(1, len(rows))
	if err := f.SetCellStyle(SheetSummary, "A1", last, header); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "A", 24)
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func freezeHeader(f *excelize.File, sheet string, cols, rows int) error {
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(cols, rows+1)
	return f.AutoFilter(sheet, "A1:"+last, nil)
}

func attendantLabel(v *shift.ShiftView) string {
	if v.AttendantName != "" {
		return v.AttendantName
	}
	return v.AttendantUsername
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
