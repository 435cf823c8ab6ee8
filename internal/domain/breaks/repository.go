package breaks

import (
	"context"
	"time"
)

// BreakRepository defines data access methods for smoke and lunch breaks.
type BreakRepository interface {
	// CountSmokes counts smoke breaks started on the date, open ones included.
	CountSmokes(ctx context.Context, employeeID string, date time.Time) (int, error)

	// LatestSmokeStart returns nil when no smoke break started on the date.
	LatestSmokeStart(ctx context.Context, employeeID string, date time.Time) (*time.Time, error)

	OpenSmoke(ctx context.Context, b SmokeBreak) (SmokeBreak, error)
	CloseSmoke(ctx context.Context, id string, end time.Time) error

	GetLunch(ctx context.Context, employeeID string, date time.Time) (*LunchBreak, error)
	OpenLunch(ctx context.Context, b LunchBreak) (LunchBreak, error)
	CloseLunch(ctx context.Context, id string, end time.Time) error

	// ListOpenByEmployee returns the employee's open breaks of both kinds,
	// used to auto-close them on check-out.
	ListOpenByEmployee(ctx context.Context, employeeID string) ([]SmokeBreak, []LunchBreak, error)

	// ListOpenBefore returns open breaks whose civil date is before cutoff,
	// used by the day-roll auto-close job.
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]SmokeBreak, []LunchBreak, error)
}
