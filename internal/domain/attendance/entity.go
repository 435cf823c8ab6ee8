package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusOnLeave Status = "on_leave"
)

// Day is the per-employee per-civil-date attendance record. At most one row
// exists per (employee, date); derived fields are written only on check-out.
type Day struct {
	ID              string
	EmployeeID      string
	Date            time.Time
	CheckIn         *time.Time
	CheckOut        *time.Time
	LateMinutes     int
	OvertimeMinutes int
	WorkHours       decimal.Decimal
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Open reports whether the day has a check-in but no check-out yet.
func (d Day) Open() bool {
	return d.CheckIn != nil && d.CheckOut == nil
}

// Locked reports whether check-in must be refused for this day.
func (d Day) Locked() bool {
	return d.Status == StatusAbsent || d.Status == StatusOnLeave
}

// DailySummary aggregates one civil date across all employees.
type DailySummary struct {
	Date       time.Time
	CheckedIn  int
	CheckedOut int
	Late       int
	OnLeave    int
	Absent     int
}
