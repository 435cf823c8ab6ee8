package request

import (
	"context"
	"time"
)

// RequestRepository defines data access methods for leave, vacation and
// absence requests plus warnings.
type RequestRepository interface {
	Create(ctx context.Context, r Request) (Request, error)
	GetByID(ctx context.Context, id string) (Request, error)
	ListPending(ctx context.Context) ([]Request, error)

	// Decide transitions a pending request to its terminal status. Returns
	// ErrAlreadyDecided when the row is no longer pending.
	Decide(ctx context.Context, id string, status Status, approverID int64, decidedAt time.Time) error

	CreateWarning(ctx context.Context, w Warning) (Warning, error)
	ListWarnings(ctx context.Context, employeeID string) ([]Warning, error)
}
