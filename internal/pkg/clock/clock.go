package clock

import (
	"time"
)

// ZoneName is the single civil time zone all business logic runs in.
const ZoneName = "Asia/Amman"

// Clock supplies the current instant in the service's civil zone.
// Engines never call time.Now directly so tests can pin the clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// New returns a Clock pinned to Asia/Amman.
func New() (Clock, error) {
	loc, err := time.LoadLocation(ZoneName)
	if err != nil {
		return nil, err
	}
	return &systemClock{loc: loc}, nil
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// CivilDate truncates t to midnight of its own day, keeping the location.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsRestrictedDay reports whether t falls on the reduced-quota weekday.
// Friday is the only restricted day; the mapping lives here and nowhere else.
func IsRestrictedDay(t time.Time) bool {
	return t.Weekday() == time.Friday
}

// At returns the instant on t's civil date at the given wall time.
func At(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}
