package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/fuelshift/fuelshift-backend/internal/report/domain"
	shift "github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/money"
)

// PDFContentType is the MIME type of the document
const PDFContentType = "application/pdf"

type column struct {
	title string
	width float64
	align string
}

var shiftColumns = []column{
	{"Date", 20, "L"},
	{"Shift", 14, "L"},
	{"Pump", 24, "L"},
	{"Attendant", 38, "L"},
	{"Status", 22, "L"},
	{"Volume", 22, "R"},
	{"Expected", 28, "R"},
	{"Collected", 28, "R"},
	{"Variance", 26, "R"},
	{"Var %", 16, "R"},
	{"Accuracy", 18, "R"},
	{"Label", 20, "L"},
}

var attendantColumns = []column{
	{"#", 10, "R"},
	{"Username", 36, "L"},
	{"Full name", 52, "L"},
	{"Shifts", 16, "R"},
	{"Volume", 26, "R"},
	{"Expected", 30, "R"},
	{"Collected", 30, "R"},
	{"Variance", 28, "R"},
	{"Accuracy", 20, "R"},
	{"Critical", 16, "R"},
}

// PDF renders r as a landscape A4 document: a summary block, the attendant
// ranking and a table of every shift.
func PDF(r *domain.Report) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Shift reconciliation report", true)
	pdf.SetCreator("fuelshift", true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Shift reconciliation report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Period: %s    Generated: %s", r.Period,
		r.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	writeSummaryBlock(pdf, r.Summary)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Attendants", "", 1, "L", false, 0, "")
	table(pdf, attendantColumns, len(r.Attendants), func(i int) []string {
		st := r.Attendants[i]
		return []string{
			fmt.Sprint(st.Rank), tr(st.Username), tr(st.FullName), fmt.Sprint(st.Shifts),
			st.Volume.StringFixed(3), money.Format(st.Expected), money.Format(st.Collected),
			money.Format(st.TotalVariance), st.MeanAccuracy.StringFixed(2) + "%", fmt.Sprint(st.Critical),
		}
	})
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Shifts", "", 1, "L", false, 0, "")
	table(pdf, shiftColumns, len(r.Shifts), func(i int) []string {
		v := r.Shifts[i]
		rec := v.Reconciliation
		return []string{
			v.ShiftDate, string(v.ShiftType), tr(v.PumpName), tr(attendantLabel(v)), statusLabel(v.Status),
			rec.Volume.StringFixed(3), money.Format(rec.Expected), money.Format(rec.Collected),
			money.Format(rec.Variance), rec.VariancePercent.StringFixed(2), rec.Accuracy.StringFixed(2) + "%",
			criticalLabel(rec),
		}
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSummaryBlock(pdf *fpdf.Fpdf, s domain.Summary) {
	pairs := [][2]string{
		{"Shifts", fmt.Sprint(s.ShiftCount)},
		{"Volume (L)", s.Volume.StringFixed(3)},
		{"Expected", money.Format(s.Expected)},
		{"Collected", money.Format(s.Collected)},
		{"Variance", money.Format(s.Variance)},
		{"Shortfall", money.Format(s.Shortfall)},
		{"Surplus", money.Format(s.Surplus)},
		{"Accuracy", s.Accuracy.StringFixed(2) + "%"},
		{"Shortage / overage / balanced", fmt.Sprintf("%d / %d / %d", s.Labels.Shortage, s.Labels.Overage, s.Labels.Balanced)},
		{"Critical", fmt.Sprint(s.Critical)},
		{"Pending / fix requested / approved", fmt.Sprintf("%d / %d / %d", s.Statuses.Pending, s.Statuses.FixRequested, s.Statuses.Approved)},
	}
	for _, c := range shift.Channels {
		pairs = append(pairs, [2]string{"Channel " + string(c), money.Format(s.Channels[c])})
	}

	// two label/value pairs per line
	pdf.SetFont("Helvetica", "", 9)
	for i, p := range pairs {
		ln := 0
		if i%2 == 1 || i == len(pairs)-1 {
			ln = 1
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(60, 5, p[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(60, 5, p[1], "", ln, "L", false, 0, "")
	}
}

func table(pdf *fpdf.Fpdf, cols []column, n int, row func(i int) []string) {
	const lineHeight = 6
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if bottom < 10 {
		bottom = 10
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(224, 224, 224)
		for _, c := range cols {
			pdf.CellFormat(c.width, lineHeight, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}

	header()
	if n == 0 {
		pdf.CellFormat(0, lineHeight, "No rows for this period", "1", 1, "C", false, 0, "")
		return
	}
	for i := 0; i < n; i++ {
		if pdf.GetY()+lineHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		for j, value := range row(i) {
			c := cols[j]
			pdf.CellFormat(c.width, lineHeight, value, "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func statusLabel(s shift.Status) string {
	switch s {
	case shift.StatusFixRequested:
		return "fix requested"
	default:
		return string(s)
	}
}

func criticalLabel(rec shift.Reconciliation) string {
	if rec.Critical {
		return string(rec.Label) + " !"
	}
	return string(rec.Label)
}
