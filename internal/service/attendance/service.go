package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dawamy/attendance-bot/internal/config"
	"github.com/dawamy/attendance-bot/internal/domain/attendance"
	"github.com/dawamy/attendance-bot/internal/domain/breaks"
	"github.com/dawamy/attendance-bot/internal/pkg/clock"
	"github.com/dawamy/attendance-bot/internal/pkg/database"
)

// Service runs the per-employee per-day attendance state machine:
// None -> Open -> Closed. Lateness and overtime are derived once, on close.
type Service struct {
	tx      database.TxRunner
	clock   clock.Clock
	workday config.WorkdayConfig
	attendance.AttendanceRepository
	breaks.BreakRepository
}

func NewService(
	tx database.TxRunner,
	clk clock.Clock,
	workday config.WorkdayConfig,
	attendanceRepo attendance.AttendanceRepository,
	breakRepo breaks.BreakRepository,
) *Service {
	return &Service{
		tx:                   tx,
		clock:                clk,
		workday:              workday,
		AttendanceRepository: attendanceRepo,
		BreakRepository:      breakRepo,
	}
}

// CheckIn opens today's attendance. Lateness is not computed here; close is
// the single source of truth for derived fields.
func (s *Service) CheckIn(ctx context.Context, employeeID string) (attendance.Day, error) {
	now := s.clock.Now()
	today := clock.CivilDate(now)

	day, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, today)
	if err != nil {
		return attendance.Day{}, fmt.Errorf("failed to load attendance day: %w", err)
	}

	if day == nil {
		opened, err := s.AttendanceRepository.Open(ctx, employeeID, today, now)
		if err != nil {
			return attendance.Day{}, err
		}
		s.localize(&opened)
		return opened, nil
	}

	s.localize(day)

	if day.Locked() {
		return attendance.Day{}, attendance.ErrDayLocked
	}
	if day.CheckIn != nil {
		return attendance.Day{}, attendance.ErrAlreadyCheckedIn
	}

	// Row exists without a check-in (created by a status upsert); fill it.
	if err := s.AttendanceRepository.SetCheckIn(ctx, day.ID, now); err != nil {
		return attendance.Day{}, err
	}
	day.CheckIn = &now

	return *day, nil
}

// CheckOut closes today's attendance, auto-closing any open break first, and
// writes the derived fields in the same transaction.
func (s *Service) CheckOut(ctx context.Context, employeeID string) (attendance.Day, error) {
	now := s.clock.Now()
	today := clock.CivilDate(now)

	day, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, today)
	if err != nil {
		return attendance.Day{}, fmt.Errorf("failed to load attendance day: %w", err)
	}
	if day == nil || !day.Open() {
		return attendance.Day{}, attendance.ErrNoOpenAttendance
	}
	s.localize(day)

	late := s.lateMinutes(*day.CheckIn)
	overtime := s.overtimeMinutes(now)
	workHours := workHours(*day.CheckIn, now)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		smokes, lunches, err := s.BreakRepository.ListOpenByEmployee(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("failed to list open breaks: %w", err)
		}
		for _, b := range smokes {
			if err := s.BreakRepository.CloseSmoke(ctx, b.ID, now); err != nil {
				return err
			}
		}
		for _, b := range lunches {
			if err := s.BreakRepository.CloseLunch(ctx, b.ID, now); err != nil {
				return err
			}
		}

		return s.AttendanceRepository.Close(ctx, day.ID, now, late, overtime, workHours)
	})
	if err != nil {
		return attendance.Day{}, err
	}

	day.CheckOut = &now
	day.LateMinutes = late
	day.OvertimeMinutes = overtime
	day.WorkHours = workHours

	return *day, nil
}

// Report returns the last windowDays civil dates, newest first. The current
// still-open day is included.
func (s *Service) Report(ctx context.Context, employeeID string, windowDays int) ([]attendance.Day, error) {
	today := clock.CivilDate(s.clock.Now())
	from := today.AddDate(0, 0, -(windowDays - 1))

	days, err := database.RetryRead(ctx, func(ctx context.Context) ([]attendance.Day, error) {
		return s.AttendanceRepository.ListRange(ctx, employeeID, from, today)
	})
	if err != nil {
		return nil, err
	}

	for i := range days {
		s.localize(&days[i])
	}

	return days, nil
}

// DailySummary aggregates today's attendance across all employees.
func (s *Service) DailySummary(ctx context.Context) (attendance.DailySummary, error) {
	today := clock.CivilDate(s.clock.Now())

	return database.RetryRead(ctx, func(ctx context.Context) (attendance.DailySummary, error) {
		return s.AttendanceRepository.Summarize(ctx, today)
	})
}

// localize rebases stored instants into the clock zone. The driver hands
// timestamptz values back in the host zone, which must not leak into
// civil-time arithmetic or rendering.
func (s *Service) localize(d *attendance.Day) {
	loc := s.clock.Now().Location()
	if d.CheckIn != nil {
		in := d.CheckIn.In(loc)
		d.CheckIn = &in
	}
	if d.CheckOut != nil {
		out := d.CheckOut.In(loc)
		d.CheckOut = &out
	}
}

func (s *Service) lateMinutes(checkIn time.Time) int {
	start := clock.At(checkIn, s.workday.StartHour, s.workday.StartMinute)
	late := int(checkIn.Sub(start).Minutes()) - int(s.workday.LateTolerance.Minutes())
	if late < 0 {
		return 0
	}
	return late
}

func (s *Service) overtimeMinutes(checkOut time.Time) int {
	end := clock.At(checkOut, s.workday.EndHour, s.workday.EndMinute)
	overtime := int(checkOut.Sub(end).Minutes())
	if overtime < 0 {
		return 0
	}
	return overtime
}

// workHours is the raw check-in to check-out span in decimal hours. Break
// durations are not deducted.
func workHours(checkIn, checkOut time.Time) decimal.Decimal {
	seconds := decimal.NewFromFloat(checkOut.Sub(checkIn).Seconds())
	return seconds.Div(decimal.NewFromInt(3600)).Round(2)
}
