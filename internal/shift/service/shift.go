package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	alert "github.com/fuelshift/fuelshift-backend/internal/alert/domain"
	"github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/internal/shift/draft"
	"github.com/fuelshift/fuelshift-backend/internal/shift/events"
	"github.com/fuelshift/fuelshift-backend/internal/shift/repository"
	station "github.com/fuelshift/fuelshift-backend/internal/station/domain"
	stationrepo "github.com/fuelshift/fuelshift-backend/internal/station/repository"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/i18n"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/money"
)

// Notifier raises alerts for workflow changes
type Notifier interface {
	Notify(ctx context.Context, n alert.NewAlert)
}

// SubmitShiftRequest is an attendant's end-of-shift entry
type SubmitShiftRequest struct {
	PumpID         string               `json:"pump_id" validate:"required,uuid"`
	ShiftType      domain.ShiftType     `json:"shift_type" validate:"required,oneof=day night"`
	ShiftDate      string               `json:"shift_date" validate:"required,date"`
	OpeningReading decimal.Decimal      `json:"opening_reading" validate:"decimal_nonneg"`
	ClosingReading decimal.Decimal      `json:"closing_reading" validate:"decimal_nonneg"`
	Payments       domain.Payments      `json:"payments"`
	OwnUse         []domain.OwnUseEntry `json:"own_use" validate:"omitempty,max=50,dive"`
}

// ResubmitShiftRequest is the corrected entry after a fix request. Pump,
// date and shift type cannot change.
type ResubmitShiftRequest struct {
	OpeningReading decimal.Decimal      `json:"opening_reading" validate:"decimal_nonneg"`
	ClosingReading decimal.Decimal      `json:"closing_reading" validate:"decimal_nonneg"`
	Payments       domain.Payments      `json:"payments"`
	OwnUse         []domain.OwnUseEntry `json:"own_use" validate:"omitempty,max=50,dive"`
}

// RequestFixRequest carries the supervisor's reason
type RequestFixRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ShiftService runs the submission and approval workflow
type ShiftService struct {
	shiftRepo *repository.ShiftRepository
	pumpRepo  *stationrepo.PumpRepository
	priceRepo *stationrepo.PriceRepository
	drafts    *draft.Store
	publisher *events.ShiftEventPublisher
	notifier  Notifier
	threshold decimal.Decimal
	now       func() time.Time
	logger    *logger.Logger
}

// NewShiftService creates a new shift service. threshold is the critical
// variance percentage.
func NewShiftService(
	shiftRepo *repository.ShiftRepository,
	pumpRepo *stationrepo.PumpRepository,
	priceRepo *stationrepo.PriceRepository,
	drafts *draft.Store,
	publisher *events.ShiftEventPublisher,
	notifier Notifier,
	threshold decimal.Decimal,
	log *logger.Logger,
) *ShiftService {
	return &ShiftService{
		shiftRepo: shiftRepo,
		pumpRepo:  pumpRepo,
		priceRepo: priceRepo,
		drafts:    drafts,
		publisher: publisher,
		notifier:  notifier,
		threshold: threshold,
		now:       time.Now,
		logger:    log,
	}
}

// SetClock overrides the clock used for date validation
func (s *ShiftService) SetClock(now func() time.Time) {
	s.now = now
}

// Threshold returns the critical variance percentage
func (s *ShiftService) Threshold() decimal.Decimal {
	return s.threshold
}

// ============================================================================
// ATTENDANT
// ============================================================================

// Submit records a new shift for the attendant
func (s *ShiftService) Submit(ctx context.Context, a *actor.Actor, req *SubmitShiftRequest) (*domain.ShiftView, error) {
	if !a.HasRole(actor.RoleAttendant) {
		return nil, errors.Forbidden("only attendants can submit shifts")
	}
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}
	if err := s.validateEntry(req.OpeningReading, req.ClosingReading, req.Payments, req.OwnUse); err != nil {
		return nil, err
	}
	if err := domain.ValidateShiftDate(req.ShiftDate, s.now()); err != nil {
		return nil, err
	}

	pump, err := s.pumpRepo.GetByID(ctx, req.PumpID)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.Validation(map[string]string{"pump_id": i18n.T("errors.not_found", map[string]string{"resource": "pump"})})
	}
	if err != nil {
		return nil, err
	}
	if !pump.IsActive {
		return nil, errors.Validation(map[string]string{"pump_id": "pump is not in service"})
	}

	prices, err := s.prices(ctx)
	if err != nil {
		return nil, err
	}
	fuelPrice, ok := prices.Price(pump.FuelType)
	if !ok {
		return nil, errors.Conflict(fmt.Sprintf("no price is set for %s", pump.FuelType))
	}

	ownUse, err := priceOwnUse(req.OwnUse, pump.FuelType, fuelPrice, prices)
	if err != nil {
		return nil, err
	}

	// Friendly early answer; the unique constraint decides races
	taken, err := s.shiftRepo.SlotTaken(ctx, pump.ID, req.ShiftDate, req.ShiftType)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errors.DuplicateShift()
	}

	shift := &domain.Shift{
		AttendantID:       a.ID,
		PumpID:            pump.ID,
		ShiftType:         req.ShiftType,
		ShiftDate:         req.ShiftDate,
		OpeningReading:    money.Round3(req.OpeningReading),
		ClosingReading:    money.Round3(req.ClosingReading),
		FuelPrice:         fuelPrice,
		Payments:          req.Payments.Rounded(),
		OwnUse:            ownUse,
		AttendantUsername: a.Username,
		AttendantName:     a.FullName,
		PumpName:          pump.Name,
		PumpFuelType:      pump.FuelType,
	}
	if err := s.shiftRepo.Create(ctx, shift); err != nil {
		return nil, err
	}

	s.drafts.Discard(ctx, a.ID)

	view := domain.NewView(shift, s.threshold)
	s.publisher.PublishSubmitted(ctx, view)

	if view.Reconciliation.Critical {
		s.notifier.Notify(ctx, alert.ToRole(actor.RoleManager, alert.SeverityCritical, alert.KindCriticalVariance,
			fmt.Sprintf("Critical %s of %s (%s%%) on %s, %s %s shift, attendant %s",
				view.Reconciliation.Label, money.Format(view.Reconciliation.Variance.Abs()),
				view.Reconciliation.VariancePercent.StringFixed(2),
				pump.Name, shift.ShiftDate, shift.ShiftType, a.Username),
			&shift.ID))
	}

	s.logger.Info().
		Str("shift_id", shift.ID).
		Str("attendant_id", a.ID).
		Str("pump_id", pump.ID).
		Str("shift_date", shift.ShiftDate).
		Str("shift_type", string(shift.ShiftType)).
		Str("variance", view.Reconciliation.Variance.StringFixed(2)).
		Str("label", string(view.Reconciliation.Label)).
		Bool("critical", view.Reconciliation.Critical).
		Msg("shift submitted")

	return view, nil
}

// Resubmit corrects a shift returned for a fix and puts it back in review
func (s *ShiftService) Resubmit(ctx context.Context, a *actor.Actor, id string, req *ResubmitShiftRequest) (*domain.ShiftView, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}
	if err := s.validateEntry(req.OpeningReading, req.ClosingReading, req.Payments, req.OwnUse); err != nil {
		return nil, err
	}

	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.AttendantID != a.ID {
		return nil, errors.Forbidden("only the submitting attendant can resubmit a shift")
	}
	if err := domain.CanTransition(shift.Status(), domain.StatusPending); err != nil {
		return nil, err
	}

	prices, err := s.prices(ctx)
	if err != nil {
		return nil, err
	}
	ownUse, err := priceOwnUse(req.OwnUse, shift.PumpFuelType, shift.FuelPrice, prices)
	if err != nil {
		return nil, err
	}

	shift.OpeningReading = money.Round3(req.OpeningReading)
	shift.ClosingReading = money.Round3(req.ClosingReading)
	shift.Payments = req.Payments.Rounded()
	shift.OwnUse = ownUse

	applied, err := s.shiftRepo.Resubmit(ctx, shift)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, s.lostRace(ctx, id, domain.StatusPending)
	}

	view := domain.NewView(shift, s.threshold)
	s.publisher.PublishResubmitted(ctx, view)

	msg := fmt.Sprintf("%s resubmitted the %s %s shift on %s (resubmission %d)",
		a.Username, shift.ShiftDate, shift.ShiftType, shift.PumpName, shift.ResubmissionCount)
	if shift.SupervisorID != nil {
		s.notifier.Notify(ctx, alert.ToUser(*shift.SupervisorID, alert.SeverityInfo, alert.KindShiftResubmitted, msg, &shift.ID))
	} else {
		s.notifier.Notify(ctx, alert.ToRole(actor.RoleSupervisor, alert.SeverityInfo, alert.KindShiftResubmitted, msg, &shift.ID))
	}

	s.logger.Info().
		Str("shift_id", shift.ID).
		Str("attendant_id", a.ID).
		Int("resubmission_count", shift.ResubmissionCount).
		Str("variance", view.Reconciliation.Variance.StringFixed(2)).
		Msg("shift resubmitted")

	return view, nil
}

// ListMine lists the attendant's own shifts, newest first
func (s *ShiftService) ListMine(ctx context.Context, a *actor.Actor, params repository.ShiftListParams) ([]*domain.ShiftView, int64, error) {
	params.AttendantID = &a.ID
	return s.List(ctx, params)
}

// ============================================================================
// SUPERVISOR
// ============================================================================

// Approve approves a pending shift
func (s *ShiftService) Approve(ctx context.Context, a *actor.Actor, id string) (*domain.ShiftView, error) {
	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.AttendantID == a.ID {
		return nil, errors.Forbidden("you cannot review your own shift")
	}
	if err := domain.CanTransition(shift.Status(), domain.StatusApproved); err != nil {
		return nil, err
	}

	applied, err := s.shiftRepo.Review(ctx, id, a.ID, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, s.lostRace(ctx, id, domain.StatusApproved)
	}

	now := s.now().UTC()
	shift.IsApproved = true
	shift.SupervisorID = &a.ID
	shift.SupervisorName = &a.FullName
	shift.ReviewedAt = &now

	s.publisher.PublishApproved(ctx, shift, a.ID)
	s.notifier.Notify(ctx, alert.ToUser(shift.AttendantID, alert.SeverityInfo, alert.KindShiftApproved,
		fmt.Sprintf("Your %s %s shift on %s was approved by %s", shift.ShiftDate, shift.ShiftType, shift.PumpName, a.Username),
		&shift.ID))

	s.logger.Info().
		Str("shift_id", id).
		Str("supervisor_id", a.ID).
		Msg("shift approved")

	return domain.NewView(shift, s.threshold), nil
}

// RequestFix returns a pending shift to its attendant with a reason
func (s *ShiftService) RequestFix(ctx context.Context, a *actor.Actor, id string, req *RequestFixRequest) (*domain.ShiftView, error) {
	reason, err := domain.NormalizeFixReason(req.Reason)
	if err != nil {
		return nil, err
	}

	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.AttendantID == a.ID {
		return nil, errors.Forbidden("you cannot review your own shift")
	}
	if err := domain.CanTransition(shift.Status(), domain.StatusFixRequested); err != nil {
		return nil, err
	}

	applied, err := s.shiftRepo.Review(ctx, id, a.ID, &reason)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, s.lostRace(ctx, id, domain.StatusFixRequested)
	}

	now := s.now().UTC()
	shift.FixReason = &reason
	shift.SupervisorID = &a.ID
	shift.SupervisorName = &a.FullName
	shift.ReviewedAt = &now

	s.publisher.PublishFixRequested(ctx, shift, a.ID, reason)
	s.notifier.Notify(ctx, alert.ToUser(shift.AttendantID, alert.SeverityWarning, alert.KindFixRequested,
		fmt.Sprintf("Fix requested for your %s %s shift on %s: %s", shift.ShiftDate, shift.ShiftType, shift.PumpName, reason),
		&shift.ID))

	s.logger.Info().
		Str("shift_id", id).
		Str("supervisor_id", a.ID).
		Str("reason", reason).
		Msg("fix requested")

	return domain.NewView(shift, s.threshold), nil
}

// ListForDate returns the shifts of a date grouped by approval state
func (s *ShiftService) ListForDate(ctx context.Context, date string, shiftType *domain.ShiftType) (*domain.CategorizedShifts, error) {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, errors.Validation(map[string]string{"date": i18n.T("validation.invalid_date")})
	}
	if shiftType != nil && !shiftType.Valid() {
		return nil, errors.Validation(map[string]string{"shift_type": i18n.T("validation.oneof")})
	}

	shifts, err := s.shiftRepo.ListAll(ctx, repository.ShiftFilter{
		StartDate: &date,
		EndDate:   &date,
		ShiftType: shiftType,
	})
	if err != nil {
		return nil, err
	}

	categorized := domain.Categorize(s.views(shifts))
	return &categorized, nil
}

// ============================================================================
// SHARED
// ============================================================================

// Get returns one shift. Attendants can only read their own.
func (s *ShiftService) Get(ctx context.Context, a *actor.Actor, id string) (*domain.ShiftView, error) {
	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.HasRole(actor.RoleAttendant) && shift.AttendantID != a.ID {
		return nil, errors.Forbidden("attendants can only view their own shifts")
	}
	return domain.NewView(shift, s.threshold), nil
}

// List lists shifts with filters and pagination
func (s *ShiftService) List(ctx context.Context, params repository.ShiftListParams) ([]*domain.ShiftView, int64, error) {
	shifts, total, err := s.shiftRepo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return s.views(shifts), total, nil
}

func (s *ShiftService) views(shifts []*domain.Shift) []*domain.ShiftView {
	views := make([]*domain.ShiftView, len(shifts))
	for i, shift := range shifts {
		views[i] = domain.NewView(shift, s.threshold)
	}
	return views
}

func (s *ShiftService) validateEntry(opening, closing decimal.Decimal, payments domain.Payments, ownUse []domain.OwnUseEntry) error {
	if err := domain.ValidateReadings(opening, closing); err != nil {
		return err
	}
	if err := domain.ValidatePayments(payments); err != nil {
		return err
	}
	return domain.ValidateOwnUse(ownUse)
}

func (s *ShiftService) prices(ctx context.Context) (station.PriceTable, error) {
	prices, err := s.priceRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return station.NewPriceTable(prices), nil
}

// lostRace explains a guarded update that matched no row: another reviewer
// or a concurrent resubmission got there first
func (s *ShiftService) lostRace(ctx context.Context, id string, to domain.Status) error {
	current, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return errors.InvalidTransition(string(current.Status()), string(to))
}

// priceOwnUse prices own-use lines. Lines of the pump's own fuel use the
// shift's price snapshot, others the current price of their fuel type.
func priceOwnUse(entries []domain.OwnUseEntry, pumpFuel station.FuelType, snapshot decimal.Decimal, prices station.PriceTable) ([]domain.OwnUse, error) {
	out := make([]domain.OwnUse, 0, len(entries))
	for i, e := range entries {
		price := snapshot
		if e.FuelType != pumpFuel {
			p, ok := prices.Price(e.FuelType)
			if !ok {
				return nil, errors.Validation(map[string]string{
					fmt.Sprintf("own_use[%d].fuel_type", i): fmt.Sprintf("no price is set for %s", e.FuelType),
				})
			}
			price = p
		}
		volume := money.Round3(e.Volume)
		out = append(out, domain.OwnUse{
			Category:  e.Category,
			FuelType:  e.FuelType,
			Volume:    volume,
			UnitPrice: price,
			Amount:    domain.OwnUseAmount(volume, price),
		})
	}
	return out, nil
}
