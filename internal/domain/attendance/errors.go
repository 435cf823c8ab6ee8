package attendance

import "errors"

// Attendance domain errors
var (
	ErrAlreadyCheckedIn = errors.New("you have already checked in today")
	ErrDayLocked        = errors.New("this day is locked for check-in")
	ErrNoOpenAttendance = errors.New("no open attendance for today")
	ErrDayNotFound      = errors.New("attendance day not found")
)
