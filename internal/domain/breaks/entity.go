package breaks

import "time"

// SmokeBreak rows are created open and closed when the break ends. Quota and
// spacing are counted against the break's own civil date.
type SmokeBreak struct {
	ID         string
	EmployeeID string
	Date       time.Time
	StartedAt  time.Time
	EndedAt    *time.Time
}

// LunchBreak is unique per (employee, date).
type LunchBreak struct {
	ID              string
	EmployeeID      string
	Date            time.Time
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes int
}
