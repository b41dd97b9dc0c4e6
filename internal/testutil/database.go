package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/database"
)

// IDs of the PF types seeded by the initial migration.
const (
	PFTypeID  = "9f6f8f34-4c0c-4c39-9d59-6a8f0c6f0a01"
	PPFTypeID = "9f6f8f34-4c0c-4c39-9d59-6a8f0c6f0a02"
	VPFTypeID = "9f6f8f34-4c0c-4c39-9d59-6a8f0c6f0a03"
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The schema comes from the embedded migrations, so tests run against the production schema.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	if err := database.ApplyPragmas(db, "PRAGMA journal_mode = MEMORY"); err != nil {
		t.Fatalf("Failed to set pragma: %v", err)
	}

	if _, err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CleanDatabase removes all rows except the seeded PF types.
// Useful when a test needs a clean slate in the middle of execution.
//
// Example usage:
//
//	t.Run("Second test", func(t *testing.T) {
//	    testutil.CleanDatabase(t, db)
//	})
func CleanDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	// Order matters: delete children before parents due to foreign keys
	tables := []string{
		"pf_entry",
		"pf_account",
		"pf_interest",
		"mutual_fund_entry",
		"fund_nav",
		"fund_metadata",
		"gold_entry",
		"gold_price",
		"user",
	}

	for _, table := range tables {
		//nolint:gosec // G202: Table names are from hardcoded slice, no SQL injection risk
		query := "DELETE FROM " + table
		if _, err := db.Exec(query); err != nil {
			t.Fatalf("Failed to clean table %s: %v", table, err)
		}
	}
}

// CountRows returns the number of rows in a table.
//
// Example usage:
//
//	count := testutil.CountRows(t, db, "pf_entry")
//	assert.Equal(t, 12, count)
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	query := "SELECT COUNT(*) FROM " + table
	err := db.QueryRow(query).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}

	return count
}

// AssertRowCount asserts that a table has the expected number of rows.
func AssertRowCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()

	actual := CountRows(t, db, table)
	if actual != expected {
		t.Errorf("Expected %d rows in %s, got %d", expected, table, actual)
	}
}
