package postgresql

import (
	"context"
	"fmt"

	"github.com/dawamy/attendance-bot/internal/domain/employee"
	"github.com/dawamy/attendance-bot/internal/pkg/database"
)

type allowlistRepository struct {
	db *database.DB
}

// Contains implements employee.AllowlistRepository.
func (r *allowlistRepository) Contains(ctx context.Context, phone string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM allowlisted_phones WHERE phone = $1)`, phone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check allowlist: %w", err)
	}

	return exists, nil
}

// Add implements employee.AllowlistRepository.
func (r *allowlistRepository) Add(ctx context.Context, phone string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `INSERT INTO allowlisted_phones (phone) VALUES ($1) ON CONFLICT DO NOTHING`, phone); err != nil {
		return fmt.Errorf("failed to add phone to allowlist: %w", err)
	}

	return nil
}

// Remove implements employee.AllowlistRepository.
func (r *allowlistRepository) Remove(ctx context.Context, phone string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM allowlisted_phones WHERE phone = $1`, phone); err != nil {
		return fmt.Errorf("failed to remove phone from allowlist: %w", err)
	}

	return nil
}

// List implements employee.AllowlistRepository.
func (r *allowlistRepository) List(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT phone FROM allowlisted_phones ORDER BY phone`)
	if err != nil {
		return nil, fmt.Errorf("failed to list allowlist: %w", err)
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			return nil, fmt.Errorf("failed to scan allowlisted phone: %w", err)
		}
		phones = append(phones, phone)
	}

	return phones, rows.Err()
}

func NewAllowlistRepository(db *database.DB) employee.AllowlistRepository {
	return &allowlistRepository{db: db}
}
