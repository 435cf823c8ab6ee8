package request

import "time"

type Type string

const (
	TypeLeave    Type = "leave"
	TypeVacation Type = "vacation"
	TypeAbsence  Type = "absence"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Request struct {
	ID         string
	EmployeeID string
	Type       Type
	Reason     string
	StartDate  *time.Time
	EndDate    *time.Time
	Excused    *bool
	Status     Status
	ApproverID *int64
	DecidedAt  *time.Time
	CreatedAt  time.Time

	// Joined for rendering
	EmployeeName *string
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Warning rows are append-only.
type Warning struct {
	ID         string
	EmployeeID string
	Kind       string
	Reason     string
	CreatedBy  int64
	CreatedAt  time.Time
}
