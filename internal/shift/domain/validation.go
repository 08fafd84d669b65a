package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	station "github.com/fuelshift/fuelshift-backend/internal/station/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/i18n"
	"github.com/fuelshift/fuelshift-backend/pkg/money"
)

// DateLayout is the calendar date format of ShiftDate
const DateLayout = "2006-01-02"

// MaxFixReasonLength bounds the text a supervisor can attach to a fix request
const MaxFixReasonLength = 500

// Upper bounds matching the NUMERIC precision of the shifts tables
var (
	MaxReading      = decimal.RequireFromString("99999999999.999")
	MaxAmount       = decimal.RequireFromString("999999999999.99")
	MaxOwnUseVolume = decimal.RequireFromString("999999999.999")
)

// OwnUseEntry is an own-use line as entered, before pricing
type OwnUseEntry struct {
	Category OwnUseCategory   `json:"category" validate:"required,oneof=vehicle genset lawnmower"`
	FuelType station.FuelType `json:"fuel_type" validate:"required,oneof=petrol diesel kerosene"`
	Volume   decimal.Decimal  `json:"volume" validate:"gt=0"`
}

// ValidateReadings rejects negative meter readings and a closing reading
// below the opening reading
func ValidateReadings(opening, closing decimal.Decimal) error {
	details := map[string]string{}
	if opening.IsNegative() {
		details["opening_reading"] = i18n.T("validation.negative_amount")
	} else if money.Round3(opening).GreaterThan(MaxReading) {
		details["opening_reading"] = i18n.T("validation.max")
	}
	if closing.IsNegative() {
		details["closing_reading"] = i18n.T("validation.negative_amount")
	} else if money.Round3(closing).GreaterThan(MaxReading) {
		details["closing_reading"] = i18n.T("validation.max")
	} else if closing.LessThan(opening) {
		details["closing_reading"] = i18n.T("validation.closing_below_opening")
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

// ValidatePayments rejects negative or oversized channel amounts
func ValidatePayments(p Payments) error {
	details := map[string]string{}
	for channel, amount := range p.ByChannel() {
		switch {
		case amount.IsNegative():
			details["payments."+string(channel)] = i18n.T("validation.negative_amount")
		case money.Round2(amount).GreaterThan(MaxAmount):
			details["payments."+string(channel)] = i18n.T("validation.max")
		}
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

// ValidateShiftDate parses date and rejects days after today. Today is
// taken in now's location.
func ValidateShiftDate(date string, now time.Time) error {
	d, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return errors.Validation(map[string]string{"shift_date": i18n.T("validation.invalid_date")})
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.After(today) {
		return errors.Validation(map[string]string{"shift_date": i18n.T("validation.date_in_future")})
	}
	return nil
}

// ValidateOwnUse checks each entry's category, fuel type and volume
func ValidateOwnUse(entries []OwnUseEntry) error {
	details := map[string]string{}
	for i, e := range entries {
		prefix := "own_use[" + strconv.Itoa(i) + "]."
		if !e.Category.Valid() {
			details[prefix+"category"] = i18n.T("validation.oneof")
		}
		if !e.FuelType.Valid() {
			details[prefix+"fuel_type"] = i18n.T("validation.oneof")
		}
		// volumes are stored to the millilitre
		switch volume := money.Round3(e.Volume); {
		case !volume.IsPositive():
			details[prefix+"volume"] = i18n.T("validation.min")
		case volume.GreaterThan(MaxOwnUseVolume):
			details[prefix+"volume"] = i18n.T("validation.max")
		}
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

// NormalizeFixReason trims reason and checks it is non-empty and within bounds
func NormalizeFixReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", errors.Validation(map[string]string{"reason": i18n.T("validation.required")})
	}
	if utf8.RuneCountInString(reason) > MaxFixReasonLength {
		return "", errors.Validation(map[string]string{"reason": i18n.T("validation.max")})
	}
	return reason, nil
}
