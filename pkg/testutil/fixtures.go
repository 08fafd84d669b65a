package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/fuelshift/fuelshift-backend/pkg/database"
)

// FixturePassword is the plain password of every fixture user
const FixturePassword = "correct-horse-battery"

// UserFixture represents test user data
type UserFixture struct {
	ID       string
	Username string
	FullName string
	Role     string
	Status   string
}

// PumpFixture represents test pump data
type PumpFixture struct {
	ID       string
	Name     string
	FuelType string
	IsActive bool
}

// ShiftFixture represents a submitted shift row
type ShiftFixture struct {
	ID             string
	AttendantID    string
	PumpID         string
	ShiftType      string
	ShiftDate      time.Time
	OpeningReading decimal.Decimal
	ClosingReading decimal.Decimal
	FuelPrice      decimal.Decimal
	Cash           decimal.Decimal
	MobileMoney    decimal.Decimal
	IsApproved     bool
	SupervisorID   *string
	FixReason      *string
	SubmittedAt    time.Time
}

// FixtureFactory inserts rows with sensible defaults into a real database
type FixtureFactory struct {
	db       *database.DB
	sequence int
	hash     string
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory(db *database.DB) *FixtureFactory {
	return &FixtureFactory{db: db}
}

func (f *FixtureFactory) next() int {
	f.sequence++
	return f.sequence
}

func (f *FixtureFactory) passwordHash(t *testing.T) string {
	if f.hash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash fixture password: %v", err)
		}
		f.hash = string(h)
	}
	return f.hash
}

// User inserts an active user with the given role
func (f *FixtureFactory) User(t *testing.T, role string, opts ...func(*UserFixture)) UserFixture {
	t.Helper()
	n := f.next()
	u := UserFixture{
		ID:       uuid.NewString(),
		Username: fmt.Sprintf("%s%d", role, n),
		FullName: fmt.Sprintf("Test %s %d", role, n),
		Role:     role,
		Status:   "active",
	}
	for _, opt := range opts {
		opt(&u)
	}

	_, err := f.db.ExecContext(context.Background(), `
		INSERT INTO users (id, username, password_hash, full_name, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, f.passwordHash(t), u.FullName, u.Role, u.Status)
	if err != nil {
		t.Fatalf("failed to insert user fixture: %v", err)
	}
	return u
}

// Pump inserts an active pump
func (f *FixtureFactory) Pump(t *testing.T, fuelType string) PumpFixture {
	t.Helper()
	p := PumpFixture{
		ID:       uuid.NewString(),
		Name:     fmt.Sprintf("Pump %d", f.next()),
		FuelType: fuelType,
		IsActive: true,
	}
	_, err := f.db.ExecContext(context.Background(),
		`INSERT INTO pumps (id, name, fuel_type, is_active) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.FuelType, p.IsActive)
	if err != nil {
		t.Fatalf("failed to insert pump fixture: %v", err)
	}
	return p
}

// FuelPrice sets the price for a fuel type
func (f *FixtureFactory) FuelPrice(t *testing.T, fuelType, price string) {
	t.Helper()
	_, err := f.db.ExecContext(context.Background(), `
		INSERT INTO fuel_prices (fuel_type, price_per_litre) VALUES ($1, $2)
		ON CONFLICT (fuel_type) DO UPDATE SET price_per_litre = EXCLUDED.price_per_litre, updated_at = NOW()`,
		fuelType, price)
	if err != nil {
		t.Fatalf("failed to set fuel price fixture: %v", err)
	}
}

// Shift inserts a pending shift of 100 litres at 10.00 collected in full as cash
func (f *FixtureFactory) Shift(t *testing.T, attendantID, pumpID string, date time.Time, opts ...func(*ShiftFixture)) ShiftFixture {
	t.Helper()
	s := ShiftFixture{
		ID:             uuid.NewString(),
		AttendantID:    attendantID,
		PumpID:         pumpID,
		ShiftType:      "day",
		ShiftDate:      date,
		OpeningReading: decimal.NewFromInt(1000),
		ClosingReading: decimal.NewFromInt(1100),
		FuelPrice:      decimal.NewFromInt(10),
		Cash:           decimal.NewFromInt(1000),
		MobileMoney:    decimal.Zero,
		SubmittedAt:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	_, err := f.db.ExecContext(context.Background(), `
		INSERT INTO shifts (id, attendant_id, pump_id, shift_type, shift_date,
			opening_reading, closing_reading, fuel_price, cash, mobile_money,
			is_approved, supervisor_id, fix_reason, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.AttendantID, s.PumpID, s.ShiftType, s.ShiftDate.Format("2006-01-02"),
		s.OpeningReading, s.ClosingReading, s.FuelPrice, s.Cash, s.MobileMoney,
		s.IsApproved, s.SupervisorID, s.FixReason, s.SubmittedAt)
	if err != nil {
		t.Fatalf("failed to insert shift fixture: %v", err)
	}
	return s
}
