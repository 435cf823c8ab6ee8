package breaks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dawamy/attendance-bot/internal/config"
	"github.com/dawamy/attendance-bot/internal/domain/attendance"
	"github.com/dawamy/attendance-bot/internal/domain/breaks"
	"github.com/dawamy/attendance-bot/internal/pkg/clock"
)

const closeTimeout = 10 * time.Second

// Service enforces the smoke-break quota and spacing rules and the
// one-lunch-per-day rule. Breaks are opened immediately and their close is
// scheduled in-process; the day-roll job sweeps up anything that survives a
// restart.
type Service struct {
	clock   clock.Clock
	cfg     config.BreakConfig
	workday config.WorkdayConfig
	attendance.AttendanceRepository
	breaks.BreakRepository

	// schedule is swapped out in tests to avoid real timers.
	schedule func(d time.Duration, fn func())
}

func NewService(
	clk clock.Clock,
	cfg config.BreakConfig,
	workday config.WorkdayConfig,
	attendanceRepo attendance.AttendanceRepository,
	breakRepo breaks.BreakRepository,
) *Service {
	return &Service{
		clock:                clk,
		cfg:                  cfg,
		workday:              workday,
		AttendanceRepository: attendanceRepo,
		BreakRepository:      breakRepo,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// RequestSmoke opens a smoke break when the quota and spacing rules allow it.
// It returns how many breaks remain today after this one.
func (s *Service) RequestSmoke(ctx context.Context, employeeID string) (breaks.SmokeBreak, int, error) {
	now := s.clock.Now()
	today := clock.CivilDate(now)

	if err := s.requireOpenDay(ctx, employeeID, today); err != nil {
		return breaks.SmokeBreak{}, 0, err
	}

	quota := s.cfg.SmokeQuotaWeekday
	if clock.IsRestrictedDay(today) {
		quota = s.cfg.SmokeQuotaFriday
	}

	count, err := s.BreakRepository.CountSmokes(ctx, employeeID, today)
	if err != nil {
		return breaks.SmokeBreak{}, 0, fmt.Errorf("failed to count smoke breaks: %w", err)
	}
	if count >= quota {
		return breaks.SmokeBreak{}, 0, &breaks.QuotaExceededError{Remaining: 0}
	}

	// Spacing is measured start to start, not from the previous break's end.
	lastStart, err := s.BreakRepository.LatestSmokeStart(ctx, employeeID, today)
	if err != nil {
		return breaks.SmokeBreak{}, 0, fmt.Errorf("failed to get latest smoke start: %w", err)
	}
	if lastStart != nil {
		if elapsed := now.Sub(*lastStart); elapsed < s.cfg.SmokeMinInterval {
			return breaks.SmokeBreak{}, 0, &breaks.TooSoonError{RetryAfter: s.cfg.SmokeMinInterval - elapsed}
		}
	}

	opened, err := s.BreakRepository.OpenSmoke(ctx, breaks.SmokeBreak{
		EmployeeID: employeeID,
		Date:       today,
		StartedAt:  now,
	})
	if err != nil {
		return breaks.SmokeBreak{}, 0, err
	}

	end := now.Add(s.cfg.SmokeDuration)
	s.scheduleClose(s.cfg.SmokeDuration, opened.ID, end, s.BreakRepository.CloseSmoke)

	return opened, quota - count - 1, nil
}

// RequestLunch opens the single lunch break of the day.
func (s *Service) RequestLunch(ctx context.Context, employeeID string) (breaks.LunchBreak, error) {
	now := s.clock.Now()
	today := clock.CivilDate(now)

	if err := s.requireOpenDay(ctx, employeeID, today); err != nil {
		return breaks.LunchBreak{}, err
	}

	existing, err := s.BreakRepository.GetLunch(ctx, employeeID, today)
	if err != nil {
		return breaks.LunchBreak{}, fmt.Errorf("failed to get lunch break: %w", err)
	}
	if existing != nil {
		return breaks.LunchBreak{}, breaks.ErrLunchAlreadyTaken
	}

	opened, err := s.BreakRepository.OpenLunch(ctx, breaks.LunchBreak{
		EmployeeID:      employeeID,
		Date:            today,
		StartedAt:       now,
		DurationMinutes: int(s.cfg.LunchDuration.Minutes()),
	})
	if err != nil {
		return breaks.LunchBreak{}, err
	}

	end := now.Add(s.cfg.LunchDuration)
	s.scheduleClose(s.cfg.LunchDuration, opened.ID, end, s.BreakRepository.CloseLunch)

	return opened, nil
}

// AutoCloseStale force-closes breaks still open after their civil date rolled
// over, at the workday end of their own date.
func (s *Service) AutoCloseStale(ctx context.Context) error {
	today := clock.CivilDate(s.clock.Now())

	smokes, lunches, err := s.BreakRepository.ListOpenBefore(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to list stale breaks: %w", err)
	}

	closed := 0
	for _, b := range smokes {
		end := clock.At(b.Date.In(s.clock.Now().Location()), s.workday.EndHour, s.workday.EndMinute)
		if err := s.BreakRepository.CloseSmoke(ctx, b.ID, end); err != nil {
			slog.Error("failed to auto-close smoke break", "break_id", b.ID, "error", err)
			continue
		}
		closed++
	}
	for _, b := range lunches {
		end := clock.At(b.Date.In(s.clock.Now().Location()), s.workday.EndHour, s.workday.EndMinute)
		if err := s.BreakRepository.CloseLunch(ctx, b.ID, end); err != nil {
			slog.Error("failed to auto-close lunch break", "break_id", b.ID, "error", err)
			continue
		}
		closed++
	}

	if closed > 0 {
		slog.Info("auto-closed stale breaks", "count", closed)
	}

	return nil
}

func (s *Service) requireOpenDay(ctx context.Context, employeeID string, today time.Time) error {
	day, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, today)
	if err != nil {
		return fmt.Errorf("failed to load attendance day: %w", err)
	}
	if day == nil || !day.Open() {
		return breaks.ErrNotCheckedIn
	}
	return nil
}

func (s *Service) scheduleClose(after time.Duration, id string, end time.Time, close func(ctx context.Context, id string, end time.Time) error) {
	s.schedule(after, func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := close(ctx, id, end); err != nil {
			slog.Error("failed to close break on schedule", "break_id", id, "error", err)
		}
	})
}
