package admin

import "context"

type AdminRepository interface {
	GetByPlatformID(ctx context.Context, platformUserID int64) (Admin, error)

	// Upsert inserts the admin or updates its flags when the ID already exists.
	// Used both for admin management and for reconciling the bootstrap
	// super-admin list at startup.
	Upsert(ctx context.Context, a Admin) error

	List(ctx context.Context) ([]Admin, error)
	CountSuperAdmins(ctx context.Context) (int, error)
	Delete(ctx context.Context, platformUserID int64) error
}
