package domain

import (
	"github.com/shopspring/decimal"

	"github.com/fuelshift/fuelshift-backend/pkg/money"
)

// Label classifies the variance of a shift
type Label string

const (
	LabelShortage Label = "shortage"
	LabelOverage  Label = "overage"
	LabelBalanced Label = "balanced"
)

// DefaultCriticalThreshold is the variance percentage above which a shift is critical
var DefaultCriticalThreshold = decimal.NewFromInt(5)

// Reconciliation is the derived money view of a shift
type Reconciliation struct {
	Volume          decimal.Decimal `json:"volume"`
	Expected        decimal.Decimal `json:"expected"`
	PaymentsTotal   decimal.Decimal `json:"payments_total"`
	OwnUseTotal     decimal.Decimal `json:"own_use_total"`
	Collected       decimal.Decimal `json:"collected"`
	Variance        decimal.Decimal `json:"variance"`
	VariancePercent decimal.Decimal `json:"variance_percent"`
	Accuracy        decimal.Decimal `json:"accuracy"`
	Label           Label           `json:"label"`
	Critical        bool            `json:"critical"`
}

// Reconcile computes expected and collected revenue for a shift.
// Own-use fuel counts as accounted for, so its amount is part of Collected.
// Money is compared at cent precision. A shift whose Expected is zero has a
// VariancePercent of zero and is never critical.
func Reconcile(s *Shift, ownUse []OwnUse, threshold decimal.Decimal) Reconciliation {
	volume := s.Volume()
	expected := money.Round2(volume.Mul(s.FuelPrice))
	payments := money.Round2(s.Payments.Total())

	ownUseTotal := decimal.Zero
	for _, o := range ownUse {
		ownUseTotal = ownUseTotal.Add(o.Amount)
	}
	ownUseTotal = money.Round2(ownUseTotal)

	collected := payments.Add(ownUseTotal)
	variance := collected.Sub(expected)
	percent := money.Percent(variance, expected)

	accuracy := money.Hundred.Sub(percent.Abs())
	if accuracy.IsNegative() {
		accuracy = decimal.Zero
	}

	return Reconciliation{
		Volume:          volume,
		Expected:        expected,
		PaymentsTotal:   payments,
		OwnUseTotal:     ownUseTotal,
		Collected:       collected,
		Variance:        variance,
		VariancePercent: percent,
		Accuracy:        accuracy,
		Label:           LabelFor(variance),
		Critical:        percent.Abs().GreaterThan(threshold),
	}
}

// LabelFor classifies a variance at cent precision
func LabelFor(variance decimal.Decimal) Label {
	switch money.Round2(variance).Sign() {
	case -1:
		return LabelShortage
	case 1:
		return LabelOverage
	default:
		return LabelBalanced
	}
}

// OwnUseAmount prices own-use litres
func OwnUseAmount(volume, pricePerLitre decimal.Decimal) decimal.Decimal {
	return money.Round2(volume.Mul(pricePerLitre))
}
