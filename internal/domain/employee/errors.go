package employee

import "errors"

// Employee domain errors
var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrNotRegistered    = errors.New("user is not registered as an employee")
	ErrNotAllowlisted   = errors.New("phone number is not allowlisted")
	ErrForeignContact   = errors.New("contact was shared by a different user")
	ErrInvalidPhone     = errors.New("phone number format is invalid")
	ErrInvalidField     = errors.New("field is not editable")
	ErrPhoneConflict    = errors.New("phone number is already registered")
)
