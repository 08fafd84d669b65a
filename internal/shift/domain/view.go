package domain

import (
	"github.com/shopspring/decimal"
)

// CategorizedShifts groups shifts by approval state for the review screen
type CategorizedShifts struct {
	Pending      []*ShiftView `json:"pending"`
	FixRequested []*ShiftView `json:"fix_requested"`
	Approved     []*ShiftView `json:"approved"`
	Counts       StatusCounts `json:"counts"`
}

// StatusCounts counts shifts per approval state
type StatusCounts struct {
	Pending      int `json:"pending"`
	FixRequested int `json:"fix_requested"`
	Approved     int `json:"approved"`
	Total        int `json:"total"`
}

// Add counts one shift in state s
func (c *StatusCounts) Add(s Status) {
	switch s {
	case StatusPending:
		c.Pending++
	case StatusFixRequested:
		c.FixRequested++
	case StatusApproved:
		c.Approved++
	}
	c.Total++
}

// Categorize splits views by state, keeping their order
func Categorize(views []*ShiftView) CategorizedShifts {
	out := CategorizedShifts{
		Pending:      []*ShiftView{},
		FixRequested: []*ShiftView{},
		Approved:     []*ShiftView{},
	}
	for _, v := range views {
		switch v.Status {
		case StatusApproved:
			out.Approved = append(out.Approved, v)
		case StatusFixRequested:
			out.FixRequested = append(out.FixRequested, v)
		default:
			out.Pending = append(out.Pending, v)
		}
		out.Counts.Add(v.Status)
	}
	return out
}

// ShiftView is a shift with its state and reconciliation, as served to clients
type ShiftView struct {
	*Shift
	Status         Status         `json:"status"`
	Reconciliation Reconciliation `json:"reconciliation"`
}

// NewView reconciles s against its own-use entries
func NewView(s *Shift, threshold decimal.Decimal) *ShiftView {
	return &ShiftView{
		Shift:          s,
		Status:         s.Status(),
		Reconciliation: Reconcile(s, s.OwnUse, threshold),
	}
}
