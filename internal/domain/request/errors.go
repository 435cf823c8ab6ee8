package request

import "errors"

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrAlreadyDecided  = errors.New("request has already been approved or rejected")
	ErrBadDateRange    = errors.New("invalid date range")
	ErrAbsenceExists   = errors.New("an absence is already recorded for this date")
)
