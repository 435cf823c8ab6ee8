package attendance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AttendanceRepository defines data access methods for attendance days.
type AttendanceRepository interface {
	// Open creates the day row with check_in set and status present.
	Open(ctx context.Context, employeeID string, date time.Time, checkIn time.Time) (Day, error)

	// GetByEmployeeAndDate returns nil when no row exists for the date.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Day, error)

	// SetCheckIn fills check_in on an existing unlocked row.
	SetCheckIn(ctx context.Context, id string, checkIn time.Time) error

	// Close writes check_out and the derived fields in one update.
	Close(ctx context.Context, id string, checkOut time.Time, lateMinutes, overtimeMinutes int, workHours decimal.Decimal) error

	// ListRange returns days for [from, to] ordered by date descending.
	ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Day, error)

	// UpsertStatus creates the day with the given status if absent; an
	// existing row keeps its data and only the status is written.
	UpsertStatus(ctx context.Context, employeeID string, date time.Time, status Status) error

	// Summarize aggregates one civil date across all employees.
	Summarize(ctx context.Context, date time.Time) (DailySummary, error)
}
