package request

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawamy/attendance-bot/internal/domain/admin"
	"github.com/dawamy/attendance-bot/internal/domain/attendance"
	"github.com/dawamy/attendance-bot/internal/domain/request"
	"github.com/dawamy/attendance-bot/internal/pkg/clock"
)

var amman = time.FixedZone("Asia/Amman", 3*60*60)

type fakeTxRunner struct{}

func (fakeTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRequestRepo struct {
	byID     map[string]request.Request
	warnings []request.Warning
	seq      int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{byID: make(map[string]request.Request)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req request.Request) (request.Request, error) {
	if req.Type == request.TypeAbsence {
		for _, existing := range r.byID {
			if existing.Type == request.TypeAbsence &&
				existing.EmployeeID == req.EmployeeID &&
				existing.StartDate.Equal(*req.StartDate) {
				return request.Request{}, request.ErrAbsenceExists
			}
		}
	}
	r.seq++
	req.ID = fmt.Sprintf("req-%d", r.seq)
	r.byID[req.ID] = req
	return req, nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id string) (request.Request, error) {
	req, ok := r.byID[id]
	if !ok {
		return request.Request{}, request.ErrRequestNotFound
	}
	return req, nil
}

func (r *fakeRequestRepo) ListPending(ctx context.Context) ([]request.Request, error) {
	var out []request.Request
	for _, req := range r.byID {
		if req.Status == request.StatusPending {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) Decide(ctx context.Context, id string, status request.Status, approverID int64, decidedAt time.Time) error {
	req, ok := r.byID[id]
	if !ok {
		return request.ErrRequestNotFound
	}
	if req.Status.Terminal() {
		return request.ErrAlreadyDecided
	}
	req.Status = status
	req.ApproverID = &approverID
	req.DecidedAt = &decidedAt
	r.byID[id] = req
	return nil
}

func (r *fakeRequestRepo) CreateWarning(ctx context.Context, w request.Warning) (request.Warning, error) {
	r.seq++
	w.ID = fmt.Sprintf("warn-%d", r.seq)
	r.warnings = append(r.warnings, w)
	return w, nil
}

func (r *fakeRequestRepo) ListWarnings(ctx context.Context, employeeID string) ([]request.Warning, error) {
	var out []request.Warning
	for _, w := range r.warnings {
		if w.EmployeeID == employeeID {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeAttendanceRepo struct {
	statuses map[string]attendance.Status
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{statuses: make(map[string]attendance.Status)}
}

func (r *fakeAttendanceRepo) Open(ctx context.Context, employeeID string, date, checkIn time.Time) (attendance.Day, error) {
	return attendance.Day{}, nil
}

func (r *fakeAttendanceRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Day, error) {
	return nil, nil
}

func (r *fakeAttendanceRepo) SetCheckIn(ctx context.Context, id string, checkIn time.Time) error {
	return nil
}

func (r *fakeAttendanceRepo) Close(ctx context.Context, id string, checkOut time.Time, lateMinutes, overtimeMinutes int, workHours decimal.Decimal) error {
	return nil
}

func (r *fakeAttendanceRepo) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Day, error) {
	return nil, nil
}

func (r *fakeAttendanceRepo) UpsertStatus(ctx context.Context, employeeID string, date time.Time, status attendance.Status) error {
	r.statuses[employeeID+"|"+date.Format("2006-01-02")] = status
	return nil
}

func (r *fakeAttendanceRepo) Summarize(ctx context.Context, date time.Time) (attendance.DailySummary, error) {
	return attendance.DailySummary{}, nil
}

type fakeAdminRepo struct {
	byID map[int64]admin.Admin
}

func (r *fakeAdminRepo) GetByPlatformID(ctx context.Context, platformUserID int64) (admin.Admin, error) {
	a, ok := r.byID[platformUserID]
	if !ok {
		return admin.Admin{}, admin.ErrAdminNotFound
	}
	return a, nil
}

func (r *fakeAdminRepo) Upsert(ctx context.Context, a admin.Admin) error {
	r.byID[a.PlatformUserID] = a
	return nil
}

func (r *fakeAdminRepo) List(ctx context.Context) ([]admin.Admin, error) {
	return nil, nil
}

func (r *fakeAdminRepo) CountSuperAdmins(ctx context.Context) (int, error) {
	return 0, nil
}

func (r *fakeAdminRepo) Delete(ctx context.Context, platformUserID int64) error {
	return nil
}

const (
	approverID    = int64(7)
	powerlessID   = int64(8)
	nonAdminID    = int64(9)
	testEmployee  = "emp-1"
	otherEmployee = "emp-2"
)

func newTestService(now time.Time) (*Service, *fakeRequestRepo, *fakeAttendanceRepo) {
	requestRepo := newFakeRequestRepo()
	attendanceRepo := newFakeAttendanceRepo()
	adminRepo := &fakeAdminRepo{byID: map[int64]admin.Admin{
		approverID:  {PlatformUserID: approverID, CanApprove: true},
		powerlessID: {PlatformUserID: powerlessID, CanApprove: false},
	}}
	svc := NewService(fakeTxRunner{}, clock.NewFake(now), requestRepo, attendanceRepo, adminRepo)
	return svc, requestRepo, attendanceRepo
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, amman)
}

func TestSubmitLeaveIsPendingAndDateless(t *testing.T) {
	svc, _, _ := newTestService(date(2026, 3, 2))

	req, err := svc.SubmitLeave(context.Background(), testEmployee, "dentist")
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, req.Status)
	assert.Nil(t, req.StartDate)
	assert.Nil(t, req.EndDate)
}

func TestSubmitVacationValidatesRange(t *testing.T) {
	svc, _, _ := newTestService(date(2026, 3, 2))
	ctx := context.Background()

	// End before start.
	_, err := svc.SubmitVacation(ctx, testEmployee, "trip", date(2026, 3, 10), date(2026, 3, 5))
	assert.ErrorIs(t, err, request.ErrBadDateRange)

	// Start in the past.
	_, err = svc.SubmitVacation(ctx, testEmployee, "trip", date(2026, 3, 1), date(2026, 3, 5))
	assert.ErrorIs(t, err, request.ErrBadDateRange)

	// Starting today is fine.
	req, err := svc.SubmitVacation(ctx, testEmployee, "trip", date(2026, 3, 2), date(2026, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, req.Status)
}

func TestDecideRequiresApprovalRight(t *testing.T) {
	svc, _, _ := newTestService(date(2026, 3, 2))
	ctx := context.Background()

	req, err := svc.SubmitLeave(ctx, testEmployee, "dentist")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, req.ID, powerlessID, request.DecisionApprove)
	assert.ErrorIs(t, err, admin.ErrForbidden)

	_, err = svc.Decide(ctx, req.ID, nonAdminID, request.DecisionApprove)
	assert.ErrorIs(t, err, admin.ErrAdminNotFound)
}

func TestDecideIsFirstWriterWins(t *testing.T) {
	svc, _, _ := newTestService(date(2026, 3, 2))
	ctx := context.Background()

	req, err := svc.SubmitLeave(ctx, testEmployee, "dentist")
	require.NoError(t, err)

	decided, err := svc.Decide(ctx, req.ID, approverID, request.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, request.StatusRejected, decided.Status)

	_, err = svc.Decide(ctx, req.ID, approverID, request.DecisionApprove)
	assert.ErrorIs(t, err, request.ErrAlreadyDecided)
}

func TestApprovedVacationMarksDaysOnLeave(t *testing.T) {
	svc, _, attendanceRepo := newTestService(date(2026, 3, 2))
	ctx := context.Background()

	req, err := svc.SubmitVacation(ctx, testEmployee, "trip", date(2026, 3, 10), date(2026, 3, 12))
	require.NoError(t, err)

	decided, err := svc.Decide(ctx, req.ID, approverID, request.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, decided.Status)

	for day := 10; day <= 12; day++ {
		key := fmt.Sprintf("%s|2026-03-%02d", testEmployee, day)
		assert.Equal(t, attendance.StatusOnLeave, attendanceRepo.statuses[key])
	}
	assert.Len(t, attendanceRepo.statuses, 3)
}

func TestRejectedVacationLeavesDaysAlone(t *testing.T) {
	svc, _, attendanceRepo := newTestService(date(2026, 3, 2))
	ctx := context.Background()

	req, err := svc.SubmitVacation(ctx, testEmployee, "trip", date(2026, 3, 10), date(2026, 3, 12))
	require.NoError(t, err)

	_, err = svc.Decide(ctx, req.ID, approverID, request.DecisionReject)
	require.NoError(t, err)
	assert.Empty(t, attendanceRepo.statuses)
}

func TestReportAbsenceLocksDay(t *testing.T) {
	svc, _, attendanceRepo := newTestService(date(2026, 3, 2))
	ctx := context.Background()

	req, err := svc.ReportAbsence(ctx, testEmployee, date(2026, 3, 2), "no show", false)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, req.Status)
	assert.Equal(t, attendance.StatusAbsent, attendanceRepo.statuses[testEmployee+"|2026-03-02"])

	// One absence per employee per date.
	_, err = svc.ReportAbsence(ctx, testEmployee, date(2026, 3, 2), "again", false)
	assert.ErrorIs(t, err, request.ErrAbsenceExists)

	// Another employee on the same date is fine.
	_, err = svc.ReportAbsence(ctx, otherEmployee, date(2026, 3, 2), "no show", true)
	assert.NoError(t, err)
}

func TestWarnRequiresAdmin(t *testing.T) {
	svc, requestRepo, _ := newTestService(date(2026, 3, 2))
	ctx := context.Background()

	_, err := svc.Warn(ctx, nonAdminID, testEmployee, "manual", "late again")
	assert.ErrorIs(t, err, admin.ErrAdminNotFound)

	w, err := svc.Warn(ctx, approverID, testEmployee, "manual", "late again")
	require.NoError(t, err)
	assert.Equal(t, approverID, w.CreatedBy)

	warnings, err := requestRepo.ListWarnings(ctx, testEmployee)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
}

func TestPendingListsOnlyPending(t *testing.T) {
	svc, _, _ := newTestService(date(2026, 3, 2))
	ctx := context.Background()

	first, err := svc.SubmitLeave(ctx, testEmployee, "dentist")
	require.NoError(t, err)
	_, err = svc.SubmitLeave(ctx, otherEmployee, "errand")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, first.ID, approverID, request.DecisionApprove)
	require.NoError(t, err)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, otherEmployee, pending[0].EmployeeID)
}
