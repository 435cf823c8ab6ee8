package breaks

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotCheckedIn      = errors.New("you must check in before taking a break")
	ErrLunchAlreadyTaken = errors.New("lunch break already taken today")
	ErrBreakNotFound     = errors.New("break not found")
)

// QuotaExceededError carries how many smoke breaks are left today (zero by
// the time it is returned, kept explicit for the reply).
type QuotaExceededError struct {
	Remaining int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("smoke break quota exceeded, %d remaining", e.Remaining)
}

// TooSoonError carries the wait until the next smoke break is allowed.
type TooSoonError struct {
	RetryAfter time.Duration
}

func (e *TooSoonError) Error() string {
	return fmt.Sprintf("too soon since the last smoke break, retry in %s", e.RetryAfter)
}
