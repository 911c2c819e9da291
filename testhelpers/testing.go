// Package testhelpers provides fixtures for tests that run against a real
// Postgres database. Tests using it are skipped unless TEST_DATABASE_URL is set.
package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"tripdesk/internal/models"
	"tripdesk/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func()
}

// SetupTestDB connects to TEST_DATABASE_URL and applies the embedded migrations.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := zap.NewNop()
	pool, err := database.NewPool(ctx, connString, log)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	db := &TestDB{Pool: pool, Cleanup: pool.Close}
	t.Cleanup(db.Cleanup)
	return db
}

// Fixture is an organization with an owner, a customer and an active package.
type Fixture struct {
	OrgID      uuid.UUID
	OwnerID    uuid.UUID
	CustomerID uuid.UUID
	PackageID  uuid.UUID
}

// SeedOrganization inserts a fresh fixture. Deleting the organization cascades
// to everything seeded here, which the registered cleanup does.
func SeedOrganization(t *testing.T, db *TestDB) *Fixture {
	t.Helper()
	ctx := context.Background()

	f := &Fixture{
		OrgID:      uuid.New(),
		OwnerID:    uuid.New(),
		CustomerID: uuid.New(),
		PackageID:  uuid.New(),
	}
	email := fmt.Sprintf("owner-%s@example.test", f.OwnerID.String()[:8])

	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO users (id, email) VALUES ($1, $2)`, []any{f.OwnerID, email}},
		{`INSERT INTO organizations (id, name, created_by) VALUES ($1, $2, $3)`,
			[]any{f.OrgID, "Test Agency", f.OwnerID}},
		{`INSERT INTO organization_members (id, org_id, user_id, role) VALUES ($1, $2, $3, $4)`,
			[]any{uuid.New(), f.OrgID, f.OwnerID, models.RoleOwner}},
		{`INSERT INTO customers (id, org_id, name) VALUES ($1, $2, $3)`,
			[]any{f.CustomerID, f.OrgID, "Test Customer"}},
		{`INSERT INTO packages (id, org_id, name, price) VALUES ($1, $2, $3, $4)`,
			[]any{f.PackageID, f.OrgID, "Test Package", decimal.RequireFromString("1500.00")}},
	}
	for _, s := range stmts {
		if _, err := db.Pool.Exec(ctx, s.sql, s.args...); err != nil {
			t.Fatalf("Failed to seed fixture: %v", err)
		}
	}

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = db.Pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, f.OrgID)
		_, _ = db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, f.OwnerID)
	})
	return f
}

// SeedOrder inserts a pending order for the fixture's customer and package.
func SeedOrder(t *testing.T, db *TestDB, f *Fixture, number string, total decimal.Decimal) uuid.UUID {
	t.Helper()

	orderID := uuid.New()
	query := `
		INSERT INTO orders (id, org_id, order_number, customer_id, package_id, total_amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		orderID, f.OrgID, number, f.CustomerID, f.PackageID, total, f.OwnerID)
	if err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}
	return orderID
}
