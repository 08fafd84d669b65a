package handler

import (
	"net/http"
	"time"

	"github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/internal/shift/repository"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/i18n"
)

const maxPerPage = 200

// ParseFilter reads shift filters from the query string:
// start_date, end_date, attendant_id, pump_id, shift_type, status and label.
func ParseFilter(r *http.Request) (repository.ShiftFilter, error) {
	q := r.URL.Query()
	var f repository.ShiftFilter
	details := map[string]string{}

	for _, key := range []string{"start_date", "end_date"} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, v); err != nil {
			details[key] = i18n.T("validation.invalid_date")
			continue
		}
		if key == "start_date" {
			f.StartDate = &v
		} else {
			f.EndDate = &v
		}
	}
	if f.StartDate != nil && f.EndDate != nil && *f.StartDate > *f.EndDate {
		details["end_date"] = "end_date must not be before start_date"
	}

	if v := q.Get("attendant_id"); v != "" {
		f.AttendantID = &v
	}
	if v := q.Get("pump_id"); v != "" {
		f.PumpID = &v
	}
	if v := q.Get("shift_type"); v != "" {
		t := domain.ShiftType(v)
		if !t.Valid() {
			details["shift_type"] = i18n.T("validation.oneof")
		}
		f.ShiftType = &t
	}
	if v := q.Get("status"); v != "" {
		s := domain.Status(v)
		if !s.Valid() {
			details["status"] = i18n.T("validation.oneof")
		}
		f.Status = &s
	}
	if v := q.Get("label"); v != "" {
		l := domain.Label(v)
		if l != domain.LabelShortage && l != domain.LabelOverage && l != domain.LabelBalanced {
			details["label"] = i18n.T("validation.oneof")
		}
		f.Label = &l
	}

	if len(details) > 0 {
		return f, errors.Validation(details)
	}
	return f, nil
}

// Pagination reads page and per_page, capping per_page
func Pagination(r *http.Request) (page, perPage int) {
	page = httputil.QueryInt(r, "page", 1)
	perPage = httputil.QueryInt(r, "per_page", 50)
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}
