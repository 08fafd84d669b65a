package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FuelType is a grade of fuel sold at the station
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelKerosene FuelType = "kerosene"
)

// FuelTypes lists every fuel type in display order
var FuelTypes = []FuelType{FuelPetrol, FuelDiesel, FuelKerosene}

// Valid reports whether f is a known fuel type
func (f FuelType) Valid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelKerosene:
		return true
	}
	return false
}

// Pump is a metered dispenser. Every shift is recorded against one pump.
type Pump struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	FuelType  FuelType  `json:"fuel_type" db:"fuel_type"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FuelPrice is the current selling price of a fuel type. Shifts copy the
// price at submission time.
type FuelPrice struct {
	FuelType      FuelType        `json:"fuel_type" db:"fuel_type"`
	PricePerLitre decimal.Decimal `json:"price_per_litre" db:"price_per_litre"`
	UpdatedBy     *string         `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// PriceTable maps fuel types to their current price
type PriceTable map[FuelType]decimal.Decimal

// NewPriceTable indexes prices by fuel type
func NewPriceTable(prices []*FuelPrice) PriceTable {
	table := make(PriceTable, len(prices))
	for _, p := range prices {
		table[p.FuelType] = p.PricePerLitre
	}
	return table
}

// Price returns the price of f and whether one is set
func (t PriceTable) Price(f FuelType) (decimal.Decimal, bool) {
	p, ok := t[f]
	return p, ok
}
