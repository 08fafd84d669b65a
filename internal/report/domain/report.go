// Package domain aggregates reconciled shifts into manager analytics.
package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	shift "github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/money"
)

// LabelCounts counts shifts per variance label
type LabelCounts struct {
	Shortage int `json:"shortage"`
	Overage  int `json:"overage"`
	Balanced int `json:"balanced"`
}

func (c *LabelCounts) add(l shift.Label) {
	switch l {
	case shift.LabelShortage:
		c.Shortage++
	case shift.LabelOverage:
		c.Overage++
	default:
		c.Balanced++
	}
}

// OwnUseTotal is the fuel a category consumed
type OwnUseTotal struct {
	Volume decimal.Decimal `json:"volume"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary aggregates every shift matched by a report filter
type Summary struct {
	ShiftCount      int                                  `json:"shift_count"`
	Volume          decimal.Decimal                      `json:"volume"`
	Expected        decimal.Decimal                      `json:"expected"`
	Collected       decimal.Decimal                      `json:"collected"`
	Variance        decimal.Decimal                      `json:"variance"`
	Shortfall       decimal.Decimal                      `json:"shortfall"`
	Surplus         decimal.Decimal                      `json:"surplus"`
	VariancePercent decimal.Decimal                      `json:"variance_percent"`
	Accuracy        decimal.Decimal                      `json:"accuracy"`
	Labels          LabelCounts                          `json:"labels"`
	Critical        int                                  `json:"critical"`
	Statuses        shift.StatusCounts                   `json:"statuses"`
	Channels        map[shift.Channel]decimal.Decimal    `json:"channels"`
	OwnUse          map[shift.OwnUseCategory]OwnUseTotal `json:"own_use"`
}

// AttendantStats is one attendant's performance over the report period
type AttendantStats struct {
	Rank          int             `json:"rank"`
	AttendantID   string          `json:"attendant_id"`
	Username      string          `json:"username"`
	FullName      string          `json:"full_name"`
	Shifts        int             `json:"shifts"`
	Volume        decimal.Decimal `json:"volume"`
	Expected      decimal.Decimal `json:"expected"`
	Collected     decimal.Decimal `json:"collected"`
	TotalVariance decimal.Decimal `json:"total_variance"`
	MeanAccuracy  decimal.Decimal `json:"mean_accuracy"`
	Critical      int             `json:"critical"`
	Shortages     int             `json:"shortages"`

	accuracySum decimal.Decimal
}

// Report is everything an export contains
type Report struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Period      string             `json:"period"`
	Summary     Summary            `json:"summary"`
	Attendants  []*AttendantStats  `json:"attendants"`
	Shifts      []*shift.ShiftView `json:"shifts"`
}

// Summarize totals the reconciled shifts
func Summarize(views []*shift.ShiftView) Summary {
	s := Summary{
		Volume:    decimal.Zero,
		Expected:  decimal.Zero,
		Collected: decimal.Zero,
		Shortfall: decimal.Zero,
		Surplus:   decimal.Zero,
		Channels:  make(map[shift.Channel]decimal.Decimal, len(shift.Channels)),
		OwnUse:    make(map[shift.OwnUseCategory]OwnUseTotal, len(shift.OwnUseCategories)),
	}
	for _, c := range shift.Channels {
		s.Channels[c] = decimal.Zero
	}
	for _, c := range shift.OwnUseCategories {
		s.OwnUse[c] = OwnUseTotal{Volume: decimal.Zero, Amount: decimal.Zero}
	}

	for _, v := range views {
		rec := v.Reconciliation
		s.ShiftCount++
		s.Volume = s.Volume.Add(rec.Volume)
		s.Expected = s.Expected.Add(rec.Expected)
		s.Collected = s.Collected.Add(rec.Collected)
		if rec.Variance.IsNegative() {
			s.Shortfall = s.Shortfall.Add(rec.Variance.Neg())
		} else {
			s.Surplus = s.Surplus.Add(rec.Variance)
		}
		s.Labels.add(rec.Label)
		if rec.Critical {
			s.Critical++
		}
		s.Statuses.Add(v.Status)

		for c, amount := range v.Payments.ByChannel() {
			s.Channels[c] = s.Channels[c].Add(amount)
		}
		amounts, volumes := shift.OwnUseTotals(v.OwnUse)
		for _, c := range shift.OwnUseCategories {
			t := s.OwnUse[c]
			s.OwnUse[c] = OwnUseTotal{Volume: t.Volume.Add(volumes[c]), Amount: t.Amount.Add(amounts[c])}
		}
	}

	s.Variance = s.Collected.Sub(s.Expected)
	s.VariancePercent = money.Percent(s.Variance, s.Expected)
	s.Accuracy = accuracy(s.VariancePercent)
	return s
}

// RankAttendants groups shifts by attendant and ranks them: best mean
// accuracy first, then the smaller absolute total variance, then username.
func RankAttendants(views []*shift.ShiftView) []*AttendantStats {
	byID := map[string]*AttendantStats{}
	for _, v := range views {
		st, ok := byID[v.AttendantID]
		if !ok {
			st = &AttendantStats{
				AttendantID:   v.AttendantID,
				Username:      v.AttendantUsername,
				FullName:      v.AttendantName,
				Volume:        decimal.Zero,
				Expected:      decimal.Zero,
				Collected:     decimal.Zero,
				TotalVariance: decimal.Zero,
				accuracySum:   decimal.Zero,
			}
			byID[v.AttendantID] = st
		}
		rec := v.Reconciliation
		st.Shifts++
		st.Volume = st.Volume.Add(rec.Volume)
		st.Expected = st.Expected.Add(rec.Expected)
		st.Collected = st.Collected.Add(rec.Collected)
		st.TotalVariance = st.TotalVariance.Add(rec.Variance)
		st.accuracySum = st.accuracySum.Add(rec.Accuracy)
		if rec.Critical {
			st.Critical++
		}
		if rec.Label == shift.LabelShortage {
			st.Shortages++
		}
	}

	out := make([]*AttendantStats, 0, len(byID))
	for _, st := range byID {
		st.MeanAccuracy = money.Round2(st.accuracySum.Div(decimal.NewFromInt(int64(st.Shifts))))
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.MeanAccuracy.Cmp(b.MeanAccuracy); c != 0 {
			return c > 0
		}
		if c := a.TotalVariance.Abs().Cmp(b.TotalVariance.Abs()); c != 0 {
			return c < 0
		}
		return strings.ToLower(a.Username) < strings.ToLower(b.Username)
	})
	for i, st := range out {
		st.Rank = i + 1
	}
	return out
}

// Build assembles a full report
func Build(views []*shift.ShiftView, period string, now time.Time) *Report {
	return &Report{
		GeneratedAt: now,
		Period:      period,
		Summary:     Summarize(views),
		Attendants:  RankAttendants(views),
		Shifts:      views,
	}
}

func accuracy(percent decimal.Decimal) decimal.Decimal {
	a := money.Hundred.Sub(percent.Abs())
	if a.IsNegative() {
		return decimal.Zero
	}
	return a
}
