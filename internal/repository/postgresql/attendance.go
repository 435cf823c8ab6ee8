package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dawamy/attendance-bot/internal/domain/attendance"
	"github.com/dawamy/attendance-bot/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

const dayColumns = `id, employee_id, date, check_in, check_out, late_minutes, overtime_minutes, work_hours, status, created_at, updated_at`

func scanDay(row pgx.Row) (attendance.Day, error) {
	var d attendance.Day
	err := row.Scan(
		&d.ID, &d.EmployeeID, &d.Date, &d.CheckIn, &d.CheckOut,
		&d.LateMinutes, &d.OvertimeMinutes, &d.WorkHours, &d.Status,
		&d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

// Open implements attendance.AttendanceRepository.
func (r *attendanceRepository) Open(ctx context.Context, employeeID string, date time.Time, checkIn time.Time) (attendance.Day, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_days (employee_id, date, check_in, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + dayColumns

	day, err := scanDay(q.QueryRow(ctx, query, employeeID, date, checkIn, attendance.StatusPresent))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Day{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Day{}, fmt.Errorf("failed to open attendance day: %w", err)
	}

	return day, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Day, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + dayColumns + ` FROM attendance_days WHERE employee_id = $1 AND date = $2`

	day, err := scanDay(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance day: %w", err)
	}

	return &day, nil
}

// SetCheckIn implements attendance.AttendanceRepository.
func (r *attendanceRepository) SetCheckIn(ctx context.Context, id string, checkIn time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_days
		SET check_in = $1, updated_at = now()
		WHERE id = $2 AND check_in IS NULL
		RETURNING id
	`

	var updatedID string
	if err := q.QueryRow(ctx, query, checkIn, id).Scan(&updatedID); err != nil {
		if err == pgx.ErrNoRows {
			return attendance.ErrAlreadyCheckedIn
		}
		return fmt.Errorf("failed to set check-in: %w", err)
	}

	return nil
}

// Close implements attendance.AttendanceRepository.
func (r *attendanceRepository) Close(ctx context.Context, id string, checkOut time.Time, lateMinutes, overtimeMinutes int, workHours decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_days
		SET check_out = $1, late_minutes = $2, overtime_minutes = $3, work_hours = $4, updated_at = now()
		WHERE id = $5 AND check_out IS NULL
		RETURNING id
	`

	var updatedID string
	if err := q.QueryRow(ctx, query, checkOut, lateMinutes, overtimeMinutes, workHours, id).Scan(&updatedID); err != nil {
		if err == pgx.ErrNoRows {
			return attendance.ErrNoOpenAttendance
		}
		return fmt.Errorf("failed to close attendance day: %w", err)
	}

	return nil
}

// ListRange implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Day, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + dayColumns + `
		FROM attendance_days
		WHERE employee_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date DESC
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance days: %w", err)
	}
	defer rows.Close()

	var days []attendance.Day
	for rows.Next() {
		day, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance day: %w", err)
		}
		days = append(days, day)
	}

	return days, rows.Err()
}

// UpsertStatus implements attendance.AttendanceRepository.
func (r *attendanceRepository) UpsertStatus(ctx context.Context, employeeID string, date time.Time, status attendance.Status) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_days (employee_id, date, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id, date) DO UPDATE
		SET status = EXCLUDED.status, updated_at = now()
	`

	if _, err := q.Exec(ctx, query, employeeID, date, status); err != nil {
		return fmt.Errorf("failed to upsert attendance status: %w", err)
	}

	return nil
}

// Summarize implements attendance.AttendanceRepository.
func (r *attendanceRepository) Summarize(ctx context.Context, date time.Time) (attendance.DailySummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE check_in IS NOT NULL),
			COUNT(*) FILTER (WHERE check_out IS NOT NULL),
			COUNT(*) FILTER (WHERE late_minutes > 0),
			COUNT(*) FILTER (WHERE status = 'on_leave'),
			COUNT(*) FILTER (WHERE status = 'absent')
		FROM attendance_days
		WHERE date = $1
	`

	summary := attendance.DailySummary{Date: date}
	err := q.QueryRow(ctx, query, date).Scan(
		&summary.CheckedIn, &summary.CheckedOut, &summary.Late, &summary.OnLeave, &summary.Absent,
	)
	if err != nil {
		return attendance.DailySummary{}, fmt.Errorf("failed to summarize attendance: %w", err)
	}

	return summary, nil
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
