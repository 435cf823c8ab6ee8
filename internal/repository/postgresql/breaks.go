package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dawamy/attendance-bot/internal/domain/breaks"
	"github.com/dawamy/attendance-bot/internal/pkg/database"
)

type breakRepository struct {
	db *database.DB
}

// CountSmokes implements breaks.BreakRepository. Open breaks count too.
func (r *breakRepository) CountSmokes(ctx context.Context, employeeID string, date time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM smoke_breaks WHERE employee_id = $1 AND date = $2`,
		employeeID, date,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count smoke breaks: %w", err)
	}

	return count, nil
}

// LatestSmokeStart implements breaks.BreakRepository.
func (r *breakRepository) LatestSmokeStart(ctx context.Context, employeeID string, date time.Time) (*time.Time, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT started_at
		FROM smoke_breaks
		WHERE employee_id = $1 AND date = $2
		ORDER BY started_at DESC
		LIMIT 1
	`

	var start time.Time
	if err := q.QueryRow(ctx, query, employeeID, date).Scan(&start); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest smoke start: %w", err)
	}

	return &start, nil
}

// OpenSmoke implements breaks.BreakRepository.
func (r *breakRepository) OpenSmoke(ctx context.Context, b breaks.SmokeBreak) (breaks.SmokeBreak, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO smoke_breaks (employee_id, date, started_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	if err := q.QueryRow(ctx, query, b.EmployeeID, b.Date, b.StartedAt).Scan(&b.ID); err != nil {
		return breaks.SmokeBreak{}, fmt.Errorf("failed to open smoke break: %w", err)
	}

	return b, nil
}

// CloseSmoke implements breaks.BreakRepository.
func (r *breakRepository) CloseSmoke(ctx context.Context, id string, end time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE smoke_breaks SET ended_at = $1 WHERE id = $2 AND ended_at IS NULL`

	if _, err := q.Exec(ctx, query, end, id); err != nil {
		return fmt.Errorf("failed to close smoke break: %w", err)
	}

	return nil
}

// GetLunch implements breaks.BreakRepository.
func (r *breakRepository) GetLunch(ctx context.Context, employeeID string, date time.Time) (*breaks.LunchBreak, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, started_at, ended_at, duration_minutes
		FROM lunch_breaks
		WHERE employee_id = $1 AND date = $2
	`

	var b breaks.LunchBreak
	err := q.QueryRow(ctx, query, employeeID, date).Scan(
		&b.ID, &b.EmployeeID, &b.Date, &b.StartedAt, &b.EndedAt, &b.DurationMinutes,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lunch break: %w", err)
	}

	return &b, nil
}

// OpenLunch implements breaks.BreakRepository.
func (r *breakRepository) OpenLunch(ctx context.Context, b breaks.LunchBreak) (breaks.LunchBreak, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO lunch_breaks (employee_id, date, started_at, duration_minutes)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := q.QueryRow(ctx, query, b.EmployeeID, b.Date, b.StartedAt, b.DurationMinutes).Scan(&b.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return breaks.LunchBreak{}, breaks.ErrLunchAlreadyTaken
		}
		return breaks.LunchBreak{}, fmt.Errorf("failed to open lunch break: %w", err)
	}

	return b, nil
}

// CloseLunch implements breaks.BreakRepository.
func (r *breakRepository) CloseLunch(ctx context.Context, id string, end time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE lunch_breaks SET ended_at = $1 WHERE id = $2 AND ended_at IS NULL`

	if _, err := q.Exec(ctx, query, end, id); err != nil {
		return fmt.Errorf("failed to close lunch break: %w", err)
	}

	return nil
}

// ListOpenByEmployee implements breaks.BreakRepository.
func (r *breakRepository) ListOpenByEmployee(ctx context.Context, employeeID string) ([]breaks.SmokeBreak, []breaks.LunchBreak, error) {
	q := GetQuerier(ctx, r.db)

	smokeRows, err := q.Query(ctx,
		`SELECT id, employee_id, date, started_at, ended_at FROM smoke_breaks WHERE employee_id = $1 AND ended_at IS NULL`,
		employeeID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list open smoke breaks: %w", err)
	}
	smokes, err := collectSmokes(smokeRows)
	if err != nil {
		return nil, nil, err
	}

	lunchRows, err := q.Query(ctx,
		`SELECT id, employee_id, date, started_at, ended_at, duration_minutes FROM lunch_breaks WHERE employee_id = $1 AND ended_at IS NULL`,
		employeeID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list open lunch breaks: %w", err)
	}
	lunches, err := collectLunches(lunchRows)
	if err != nil {
		return nil, nil, err
	}

	return smokes, lunches, nil
}

// ListOpenBefore implements breaks.BreakRepository.
func (r *breakRepository) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]breaks.SmokeBreak, []breaks.LunchBreak, error) {
	q := GetQuerier(ctx, r.db)

	smokeRows, err := q.Query(ctx,
		`SELECT id, employee_id, date, started_at, ended_at FROM smoke_breaks WHERE date < $1 AND ended_at IS NULL`,
		cutoff,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list stale smoke breaks: %w", err)
	}
	smokes, err := collectSmokes(smokeRows)
	if err != nil {
		return nil, nil, err
	}

	lunchRows, err := q.Query(ctx,
		`SELECT id, employee_id, date, started_at, ended_at, duration_minutes FROM lunch_breaks WHERE date < $1 AND ended_at IS NULL`,
		cutoff,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list stale lunch breaks: %w", err)
	}
	lunches, err := collectLunches(lunchRows)
	if err != nil {
		return nil, nil, err
	}

	return smokes, lunches, nil
}

func collectSmokes(rows pgx.Rows) ([]breaks.SmokeBreak, error) {
	defer rows.Close()

	var smokes []breaks.SmokeBreak
	for rows.Next() {
		var b breaks.SmokeBreak
		if err := rows.Scan(&b.ID, &b.EmployeeID, &b.Date, &b.StartedAt, &b.EndedAt); err != nil {
			return nil, fmt.Errorf("failed to scan smoke break: %w", err)
		}
		smokes = append(smokes, b)
	}

	return smokes, rows.Err()
}

func collectLunches(rows pgx.Rows) ([]breaks.LunchBreak, error) {
	defer rows.Close()

	var lunches []breaks.LunchBreak
	for rows.Next() {
		var b breaks.LunchBreak
		if err := rows.Scan(&b.ID, &b.EmployeeID, &b.Date, &b.StartedAt, &b.EndedAt, &b.DurationMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan lunch break: %w", err)
		}
		lunches = append(lunches, b)
	}

	return lunches, rows.Err()
}

func NewBreakRepository(db *database.DB) breaks.BreakRepository {
	return &breakRepository{db: db}
}
