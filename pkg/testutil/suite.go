package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/fuelshift/fuelshift-backend/pkg/database"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

var (
	// Shared across every integration test in a package run
	globalContainer *PostgresContainer
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite is a migrated PostgreSQL database for repository tests
type IntegrationSuite struct {
	Container *PostgresContainer
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite starts (or reuses) the shared container and applies
// the embedded migrations.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    suite, _ = testutil.NewIntegrationSuite(ctx) // nil when Docker is unavailable
//	    code := m.Run()
//	    testutil.TerminateContainer(ctx)
//	    os.Exit(code)
//	}
//
//	func TestSomething(t *testing.T) {
//	    testutil.RequireSuite(t, suite)
//	    ...
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
	})
	if containerErr != nil {
		return nil, containerErr
	}

	log := logger.Nop()
	db, err := database.NewWithDSN(globalContainer.DSN, log)
	if err != nil {
		return nil, err
	}
	if _, err := db.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	return &IntegrationSuite{
		Container: globalContainer,
		DB:        db,
		Fixtures:  NewFixtureFactory(db),
		Logger:    log,
	}, nil
}

// RequireSuite skips the test in -short mode or when the suite could not start
func RequireSuite(t *testing.T, s *IntegrationSuite) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if s == nil {
		t.Skip("skipping integration test: postgres container unavailable")
	}
	s.Reset(t)
}

// Reset empties every domain table, keeping the schema and seeded prices
func (s *IntegrationSuite) Reset(t *testing.T) {
	t.Helper()
	_, err := s.DB.ExecContext(context.Background(),
		`TRUNCATE alerts, own_use, shifts, sessions, pumps, users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to reset test database: %v", err)
	}
}

// TerminateContainer stops the shared container. Call from TestMain after m.Run.
func TerminateContainer(ctx context.Context) {
	if globalContainer != nil {
		_ = globalContainer.Terminate(ctx)
	}
}
