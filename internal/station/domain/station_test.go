package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fuelshift/fuelshift-backend/internal/station/domain"
)

func TestFuelType_Valid(t *testing.T) {
	for _, f := range domain.FuelTypes {
		assert.True(t, f.Valid(), f)
	}
	assert.False(t, domain.FuelType("lpg").Valid())
	assert.False(t, domain.FuelType("").Valid())
}

func TestPriceTable(t *testing.T) {
	table := domain.NewPriceTable([]*domain.FuelPrice{
		{FuelType: domain.FuelPetrol, PricePerLitre: decimal.RequireFromString("182.50")},
		{FuelType: domain.FuelDiesel, PricePerLitre: decimal.RequireFromString("170.00")},
	})

	p, ok := table.Price(domain.FuelPetrol)
	assert.True(t, ok)
	assert.Equal(t, "182.5", p.String())

	_, ok = table.Price(domain.FuelKerosene)
	assert.False(t, ok)
}
