package cron

import (
	"context"
	"time"
)

// BreakCloser is the slice of the break engine the day-roll job needs.
type BreakCloser interface {
	AutoCloseStale(ctx context.Context) error
}

// DayRollJobs sweeps up state that should not survive a civil-date rollover:
// breaks left open past their own day are force-closed at that day's
// workday end.
type DayRollJobs struct {
	breaks BreakCloser
}

func NewDayRollJobs(breaks BreakCloser) *DayRollJobs {
	return &DayRollJobs{breaks: breaks}
}

func (j *DayRollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_close_stale_breaks", 30*time.Minute, j.breaks.AutoCloseStale)
}
