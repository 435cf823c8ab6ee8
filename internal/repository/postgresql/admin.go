package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dawamy/attendance-bot/internal/domain/admin"
	"github.com/dawamy/attendance-bot/internal/pkg/database"
)

type adminRepository struct {
	db *database.DB
}

// GetByPlatformID implements admin.AdminRepository.
func (r *adminRepository) GetByPlatformID(ctx context.Context, platformUserID int64) (admin.Admin, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT platform_user_id, name, can_approve, is_super_admin, added_by, added_at
		FROM admins
		WHERE platform_user_id = $1
	`

	var a admin.Admin
	err := q.QueryRow(ctx, query, platformUserID).Scan(
		&a.PlatformUserID, &a.Name, &a.CanApprove, &a.IsSuperAdmin, &a.AddedBy, &a.AddedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return admin.Admin{}, admin.ErrAdminNotFound
		}
		return admin.Admin{}, fmt.Errorf("failed to get admin: %w", err)
	}

	return a, nil
}

// Upsert implements admin.AdminRepository.
func (r *adminRepository) Upsert(ctx context.Context, a admin.Admin) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO admins (platform_user_id, name, can_approve, is_super_admin, added_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (platform_user_id) DO UPDATE
		SET name = EXCLUDED.name,
		    can_approve = EXCLUDED.can_approve,
		    is_super_admin = EXCLUDED.is_super_admin
	`

	if _, err := q.Exec(ctx, query, a.PlatformUserID, a.Name, a.CanApprove, a.IsSuperAdmin, a.AddedBy); err != nil {
		return fmt.Errorf("failed to upsert admin: %w", err)
	}

	return nil
}

// List implements admin.AdminRepository.
func (r *adminRepository) List(ctx context.Context) ([]admin.Admin, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT platform_user_id, name, can_approve, is_super_admin, added_by, added_at
		FROM admins
		ORDER BY added_at
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []admin.Admin
	for rows.Next() {
		var a admin.Admin
		if err := rows.Scan(&a.PlatformUserID, &a.Name, &a.CanApprove, &a.IsSuperAdmin, &a.AddedBy, &a.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, a)
	}

	return admins, rows.Err()
}

// CountSuperAdmins implements admin.AdminRepository.
func (r *adminRepository) CountSuperAdmins(ctx context.Context) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM admins WHERE is_super_admin`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count super admins: %w", err)
	}

	return count, nil
}

// Delete implements admin.AdminRepository.
func (r *adminRepository) Delete(ctx context.Context, platformUserID int64) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM admins WHERE platform_user_id = $1`, platformUserID)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return admin.ErrAdminNotFound
	}

	return nil
}

func NewAdminRepository(db *database.DB) admin.AdminRepository {
	return &adminRepository{db: db}
}
