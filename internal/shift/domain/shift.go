// Package domain holds the shift record, its approval states and the
// reconciliation arithmetic shared by every reader of shift data.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	station "github.com/fuelshift/fuelshift-backend/internal/station/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/money"
)

// ShiftType is the half of the day a shift covers
type ShiftType string

const (
	ShiftDay   ShiftType = "day"
	ShiftNight ShiftType = "night"
)

// Valid reports whether t is a known shift type
func (t ShiftType) Valid() bool {
	return t == ShiftDay || t == ShiftNight
}

// OwnUseCategory is what internally consumed fuel was used for
type OwnUseCategory string

const (
	OwnUseVehicle   OwnUseCategory = "vehicle"
	OwnUseGenset    OwnUseCategory = "genset"
	OwnUseLawnmower OwnUseCategory = "lawnmower"
)

// OwnUseCategories lists every category in display order
var OwnUseCategories = []OwnUseCategory{OwnUseVehicle, OwnUseGenset, OwnUseLawnmower}

// Valid reports whether c is a known category
func (c OwnUseCategory) Valid() bool {
	switch c {
	case OwnUseVehicle, OwnUseGenset, OwnUseLawnmower:
		return true
	}
	return false
}

// Channel names a payment channel
type Channel string

const (
	ChannelCash         Channel = "cash"
	ChannelMobileMoney  Channel = "mobile_money"
	ChannelCard         Channel = "card"
	ChannelBankTransfer Channel = "bank_transfer"
	ChannelCredit       Channel = "credit"
	ChannelVoucher      Channel = "voucher"
	ChannelFleetCard    Channel = "fleet_card"
)

// Channels lists the seven payment channels in display order
var Channels = []Channel{
	ChannelCash, ChannelMobileMoney, ChannelCard, ChannelBankTransfer,
	ChannelCredit, ChannelVoucher, ChannelFleetCard,
}

// Payments are the amounts collected per channel during a shift
type Payments struct {
	Cash         decimal.Decimal `json:"cash" db:"cash" validate:"decimal_nonneg"`
	MobileMoney  decimal.Decimal `json:"mobile_money" db:"mobile_money" validate:"decimal_nonneg"`
	Card         decimal.Decimal `json:"card" db:"card" validate:"decimal_nonneg"`
	BankTransfer decimal.Decimal `json:"bank_transfer" db:"bank_transfer" validate:"decimal_nonneg"`
	Credit       decimal.Decimal `json:"credit" db:"credit" validate:"decimal_nonneg"`
	Voucher      decimal.Decimal `json:"voucher" db:"voucher" validate:"decimal_nonneg"`
	FleetCard    decimal.Decimal `json:"fleet_card" db:"fleet_card" validate:"decimal_nonneg"`
}

// ByChannel returns the amount for each channel
func (p Payments) ByChannel() map[Channel]decimal.Decimal {
	return map[Channel]decimal.Decimal{
		ChannelCash:         p.Cash,
		ChannelMobileMoney:  p.MobileMoney,
		ChannelCard:         p.Card,
		ChannelBankTransfer: p.BankTransfer,
		ChannelCredit:       p.Credit,
		ChannelVoucher:      p.Voucher,
		ChannelFleetCard:    p.FleetCard,
	}
}

// Total sums all channels
func (p Payments) Total() decimal.Decimal {
	return money.Sum(p.Cash, p.MobileMoney, p.Card, p.BankTransfer, p.Credit, p.Voucher, p.FleetCard)
}

// Rounded returns the payments rounded to cents
func (p Payments) Rounded() Payments {
	return Payments{
		Cash:         money.Round2(p.Cash),
		MobileMoney:  money.Round2(p.MobileMoney),
		Card:         money.Round2(p.Card),
		BankTransfer: money.Round2(p.BankTransfer),
		Credit:       money.Round2(p.Credit),
		Voucher:      money.Round2(p.Voucher),
		FleetCard:    money.Round2(p.FleetCard),
	}
}

// Shift is one attendant's reconciliation record for one pump, date and shift type
type Shift struct {
	ID                string          `json:"id" db:"id"`
	AttendantID       string          `json:"attendant_id" db:"attendant_id"`
	PumpID            string          `json:"pump_id" db:"pump_id"`
	ShiftType         ShiftType       `json:"shift_type" db:"shift_type"`
	ShiftDate         string          `json:"shift_date" db:"shift_date"` // YYYY-MM-DD
	OpeningReading    decimal.Decimal `json:"opening_reading" db:"opening_reading"`
	ClosingReading    decimal.Decimal `json:"closing_reading" db:"closing_reading"`
	FuelPrice         decimal.Decimal `json:"fuel_price" db:"fuel_price"`
	Payments          `json:"payments"`
	IsApproved        bool       `json:"is_approved" db:"is_approved"`
	SupervisorID      *string    `json:"supervisor_id,omitempty" db:"supervisor_id"`
	FixReason         *string    `json:"fix_reason,omitempty" db:"fix_reason"`
	ResubmissionCount int        `json:"resubmission_count" db:"resubmission_count"`
	SubmittedAt       time.Time  `json:"submitted_at" db:"submitted_at"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`

	// Joined fields (populated by list and get queries)
	AttendantUsername string           `json:"attendant_username,omitempty" db:"attendant_username"`
	AttendantName     string           `json:"attendant_name,omitempty" db:"attendant_name"`
	PumpName          string           `json:"pump_name,omitempty" db:"pump_name"`
	PumpFuelType      station.FuelType `json:"pump_fuel_type,omitempty" db:"pump_fuel_type"`
	SupervisorName    *string          `json:"supervisor_name,omitempty" db:"supervisor_name"`
	OwnUse            []OwnUse         `json:"own_use" db:"-"`
}

// Volume is the litres dispensed according to the meter
func (s *Shift) Volume() decimal.Decimal {
	return s.ClosingReading.Sub(s.OpeningReading)
}

// Status derives the approval state from the stored flags
func (s *Shift) Status() Status {
	return StatusOf(s.IsApproved, s.FixReason)
}

// OwnUse is fuel consumed by the station itself during a shift
type OwnUse struct {
	ID        string           `json:"id" db:"id"`
	ShiftID   string           `json:"shift_id" db:"shift_id"`
	Category  OwnUseCategory   `json:"category" db:"category"`
	FuelType  station.FuelType `json:"fuel_type" db:"fuel_type"`
	Volume    decimal.Decimal  `json:"volume" db:"volume"`
	UnitPrice decimal.Decimal  `json:"unit_price" db:"unit_price"`
	Amount    decimal.Decimal  `json:"amount" db:"amount"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// OwnUseTotals sums own-use amounts and litres per category
func OwnUseTotals(entries []OwnUse) (amount map[OwnUseCategory]decimal.Decimal, volume map[OwnUseCategory]decimal.Decimal) {
	amount = make(map[OwnUseCategory]decimal.Decimal, len(OwnUseCategories))
	volume = make(map[OwnUseCategory]decimal.Decimal, len(OwnUseCategories))
	for _, c := range OwnUseCategories {
		amount[c] = decimal.Zero
		volume[c] = decimal.Zero
	}
	for _, e := range entries {
		amount[e.Category] = amount[e.Category].Add(e.Amount)
		volume[e.Category] = volume[e.Category].Add(e.Volume)
	}
	return amount, volume
}
