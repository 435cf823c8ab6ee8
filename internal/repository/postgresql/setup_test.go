package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dawamy/attendance-bot/internal/domain/employee"
	"github.com/dawamy/attendance-bot/internal/pkg/database"
	"github.com/dawamy/attendance-bot/internal/repository/postgresql"
)

var amman = time.FixedZone("Asia/Amman", 3*60*60)

var (
	setupOnce sync.Once
	setupErr  error
	testDB    *database.DB
)

// testDatabase connects to the database named by TEST_DATABASE_URL, applies
// the migrations once, and truncates all tables. Tests are skipped when the
// variable is not set.
func testDatabase(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	setupOnce.Do(func() {
		if setupErr = database.Migrate(dsn); setupErr != nil {
			return
		}
		testDB, setupErr = database.NewPostgreSQLDB(dsn)
	})
	if setupErr != nil {
		t.Fatalf("failed to set up test database: %v", setupErr)
	}

	truncateAllTables(t, testDB)
	return testDB
}

func truncateAllTables(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()

	tables := []string{
		"warnings",
		"requests",
		"lunch_breaks",
		"smoke_breaks",
		"attendance_days",
		"admins",
		"allowlisted_phones",
		"employees",
	}
	for _, table := range tables {
		_, err := db.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(t, err)
	}
}

func createTestEmployee(t *testing.T, db *database.DB) employee.Employee {
	t.Helper()

	platformID := int64(42)
	emp, err := postgresql.NewEmployeeRepository(db).UpsertByPhone(context.Background(), employee.Employee{
		PlatformUserID: &platformID,
		Phone:          "+962786644106",
		FullName:       "Omar Haddad",
	})
	require.NoError(t, err)
	return emp
}
