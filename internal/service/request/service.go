package request

import (
	"context"
	"fmt"
	"time"

	"github.com/dawamy/attendance-bot/internal/domain/admin"
	"github.com/dawamy/attendance-bot/internal/domain/attendance"
	"github.com/dawamy/attendance-bot/internal/domain/request"
	"github.com/dawamy/attendance-bot/internal/pkg/clock"
	"github.com/dawamy/attendance-bot/internal/pkg/database"
)

// Service owns leave, vacation and absence requests and their
// pending -> approved/rejected transitions.
type Service struct {
	tx    database.TxRunner
	clock clock.Clock
	request.RequestRepository
	attendance.AttendanceRepository
	admin.AdminRepository
}

func NewService(
	tx database.TxRunner,
	clk clock.Clock,
	requestRepo request.RequestRepository,
	attendanceRepo attendance.AttendanceRepository,
	adminRepo admin.AdminRepository,
) *Service {
	return &Service{
		tx:                   tx,
		clock:                clk,
		RequestRepository:    requestRepo,
		AttendanceRepository: attendanceRepo,
		AdminRepository:      adminRepo,
	}
}

// SubmitLeave files a dateless leave request. An approved leave is recorded
// only; it does not mark any attendance day.
func (s *Service) SubmitLeave(ctx context.Context, employeeID, reason string) (request.Request, error) {
	return s.RequestRepository.Create(ctx, request.Request{
		EmployeeID: employeeID,
		Type:       request.TypeLeave,
		Reason:     reason,
		Status:     request.StatusPending,
	})
}

// SubmitVacation files a vacation request for [startDate, endDate]. Both
// dates must be today or later and the range must be ordered.
func (s *Service) SubmitVacation(ctx context.Context, employeeID, reason string, startDate, endDate time.Time) (request.Request, error) {
	startDate = clock.CivilDate(startDate)
	endDate = clock.CivilDate(endDate)
	today := clock.CivilDate(s.clock.Now())

	if endDate.Before(startDate) || startDate.Before(today) {
		return request.Request{}, request.ErrBadDateRange
	}

	return s.RequestRepository.Create(ctx, request.Request{
		EmployeeID: employeeID,
		Type:       request.TypeVacation,
		Reason:     reason,
		StartDate:  &startDate,
		EndDate:    &endDate,
		Status:     request.StatusPending,
	})
}

// ReportAbsence records an admin-reported absence for one date, unique per
// (employee, date), and locks that attendance day as absent.
func (s *Service) ReportAbsence(ctx context.Context, employeeID string, date time.Time, reason string, excused bool) (request.Request, error) {
	date = clock.CivilDate(date)

	var created request.Request
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.RequestRepository.Create(ctx, request.Request{
			EmployeeID: employeeID,
			Type:       request.TypeAbsence,
			Reason:     reason,
			StartDate:  &date,
			EndDate:    &date,
			Excused:    &excused,
			Status:     request.StatusApproved,
		})
		if err != nil {
			return err
		}

		return s.AttendanceRepository.UpsertStatus(ctx, employeeID, date, attendance.StatusAbsent)
	})
	if err != nil {
		return request.Request{}, err
	}

	return created, nil
}

// Decide moves a pending request to a terminal status. Approving a vacation
// additionally marks every day in its range on_leave, creating missing rows;
// those days are locked against check-in.
func (s *Service) Decide(ctx context.Context, requestID string, approverID int64, decision request.Decision) (request.Request, error) {
	approver, err := s.AdminRepository.GetByPlatformID(ctx, approverID)
	if err != nil {
		return request.Request{}, err
	}
	if !approver.CanApprove {
		return request.Request{}, admin.ErrForbidden
	}

	req, err := s.RequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return request.Request{}, err
	}
	if req.Status.Terminal() {
		return request.Request{}, request.ErrAlreadyDecided
	}

	status := request.StatusRejected
	if decision == request.DecisionApprove {
		status = request.StatusApproved
	}
	decidedAt := s.clock.Now()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.RequestRepository.Decide(ctx, requestID, status, approverID, decidedAt); err != nil {
			return err
		}

		if status == request.StatusApproved && req.Type == request.TypeVacation {
			for d := *req.StartDate; !d.After(*req.EndDate); d = d.AddDate(0, 0, 1) {
				if err := s.AttendanceRepository.UpsertStatus(ctx, req.EmployeeID, d, attendance.StatusOnLeave); err != nil {
					return fmt.Errorf("failed to mark vacation day: %w", err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return request.Request{}, err
	}

	req.Status = status
	req.ApproverID = &approverID
	req.DecidedAt = &decidedAt

	return req, nil
}

// Warn records an append-only warning against an employee.
func (s *Service) Warn(ctx context.Context, adminID int64, employeeID, kind, reason string) (request.Warning, error) {
	if _, err := s.AdminRepository.GetByPlatformID(ctx, adminID); err != nil {
		return request.Warning{}, err
	}

	return s.RequestRepository.CreateWarning(ctx, request.Warning{
		EmployeeID: employeeID,
		Kind:       kind,
		Reason:     reason,
		CreatedBy:  adminID,
	})
}

// Today returns the current civil date.
func (s *Service) Today() time.Time {
	return clock.CivilDate(s.clock.Now())
}

// Pending lists all requests still awaiting a decision.
func (s *Service) Pending(ctx context.Context) ([]request.Request, error) {
	return database.RetryRead(ctx, func(ctx context.Context) ([]request.Request, error) {
		return s.RequestRepository.ListPending(ctx)
	})
}
