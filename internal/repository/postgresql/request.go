package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dawamy/attendance-bot/internal/domain/request"
	"github.com/dawamy/attendance-bot/internal/pkg/database"
)

type requestRepository struct {
	db *database.DB
}

const requestColumns = `r.id, r.employee_id, r.type, r.reason, r.start_date, r.end_date, r.excused, r.status, r.approver_id, r.decided_at, r.created_at, e.full_name AS employee_name`

func scanRequest(row pgx.Row) (request.Request, error) {
	var req request.Request
	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.Type, &req.Reason,
		&req.StartDate, &req.EndDate, &req.Excused, &req.Status,
		&req.ApproverID, &req.DecidedAt, &req.CreatedAt, &req.EmployeeName,
	)
	return req, err
}

// Create implements request.RequestRepository.
func (r *requestRepository) Create(ctx context.Context, req request.Request) (request.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO requests (employee_id, type, reason, start_date, end_date, excused, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		req.EmployeeID, req.Type, req.Reason, req.StartDate, req.EndDate, req.Excused, req.Status,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return request.Request{}, request.ErrAbsenceExists
		}
		return request.Request{}, fmt.Errorf("failed to create request: %w", err)
	}

	return req, nil
}

// GetByID implements request.RequestRepository.
func (r *requestRepository) GetByID(ctx context.Context, id string) (request.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + requestColumns + `
		FROM requests r
		LEFT JOIN employees e ON e.id = r.employee_id
		WHERE r.id = $1
	`

	req, err := scanRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return request.Request{}, request.ErrRequestNotFound
		}
		return request.Request{}, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// ListPending implements request.RequestRepository.
func (r *requestRepository) ListPending(ctx context.Context) ([]request.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + requestColumns + `
		FROM requests r
		LEFT JOIN employees e ON e.id = r.employee_id
		WHERE r.status = 'pending'
		ORDER BY r.created_at
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	var requests []request.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// Decide implements request.RequestRepository. The status guard in the WHERE
// clause makes the transition atomic; a row that is no longer pending is
// reported as already decided.
func (r *requestRepository) Decide(ctx context.Context, id string, status request.Status, approverID int64, decidedAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE requests
		SET status = $1, approver_id = $2, decided_at = $3
		WHERE id = $4 AND status = 'pending'
		RETURNING id
	`

	var updatedID string
	if err := q.QueryRow(ctx, query, status, approverID, decidedAt, id).Scan(&updatedID); err != nil {
		if err == pgx.ErrNoRows {
			return request.ErrAlreadyDecided
		}
		return fmt.Errorf("failed to decide request: %w", err)
	}

	return nil
}

// CreateWarning implements request.RequestRepository.
func (r *requestRepository) CreateWarning(ctx context.Context, w request.Warning) (request.Warning, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO warnings (employee_id, kind, reason, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query, w.EmployeeID, w.Kind, w.Reason, w.CreatedBy).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return request.Warning{}, fmt.Errorf("failed to create warning: %w", err)
	}

	return w, nil
}

// ListWarnings implements request.RequestRepository.
func (r *requestRepository) ListWarnings(ctx context.Context, employeeID string) ([]request.Warning, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, kind, reason, created_by, created_at
		FROM warnings
		WHERE employee_id = $1
		ORDER BY created_at DESC
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list warnings: %w", err)
	}
	defer rows.Close()

	var warnings []request.Warning
	for rows.Next() {
		var w request.Warning
		if err := rows.Scan(&w.ID, &w.EmployeeID, &w.Kind, &w.Reason, &w.CreatedBy, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		warnings = append(warnings, w)
	}

	return warnings, rows.Err()
}

func NewRequestRepository(db *database.DB) request.RequestRepository {
	return &requestRepository{db: db}
}
