package employee

import (
	"context"
)

// EmployeeRepository defines data access methods for employee records.
type EmployeeRepository interface {
	// UpsertByPhone inserts the employee or, when the phone already exists,
	// rebinds platform_user_id and full_name and refreshes last_active.
	UpsertByPhone(ctx context.Context, emp Employee) (Employee, error)

	GetByID(ctx context.Context, id string) (Employee, error)
	GetByPlatformID(ctx context.Context, platformUserID int64) (Employee, error)
	GetByPhone(ctx context.Context, phone string) (Employee, error)
	List(ctx context.Context) ([]Employee, error)

	// UpdateField updates a single whitelisted column.
	UpdateField(ctx context.Context, id string, field EditableField, value string) error

	Delete(ctx context.Context, id string) error
	TouchLastActive(ctx context.Context, id string) error
}

// AllowlistRepository holds the set of phone numbers approved to register.
type AllowlistRepository interface {
	Contains(ctx context.Context, phone string) (bool, error)
	Add(ctx context.Context, phone string) error
	Remove(ctx context.Context, phone string) error
	List(ctx context.Context) ([]string, error)
}
