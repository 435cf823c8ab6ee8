package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dawamy/attendance-bot/internal/domain/admin"
	"github.com/dawamy/attendance-bot/internal/domain/attendance"
	"github.com/dawamy/attendance-bot/internal/domain/breaks"
	"github.com/dawamy/attendance-bot/internal/domain/employee"
	"github.com/dawamy/attendance-bot/internal/domain/request"
)

// Presenter turns structured engine outcomes into user-visible messages.
// Engines never format text; every string the bot sends lives here.
type Presenter struct{}

const menuText = `Commands:
/check_in - record your arrival
/check_out - record your departure
/attendance_report - your last 7 days
/smoke - request a smoke break
/break - request a lunch break
/leave - file a leave request
/vacation - file a vacation request
/help - show this menu`

const adminMenuText = `
Admin commands:
/list_employees
/add_employee <phone>
/remove_employee <phone>
/edit_details
/warn <phone>
/report_absence <phone>
/daily_report
/add_admin <user_id>
/remove_admin <user_id>`

func (p *Presenter) Menu(chatID int64, isAdmin bool) Reply {
	text := menuText
	if isAdmin {
		text += adminMenuText
	}
	return Reply{ChatID: chatID, Text: text}
}

func (p *Presenter) ContactPrompt(chatID int64) Reply {
	return Reply{
		ChatID:         chatID,
		Text:           "Welcome! Please share your contact to register.",
		RequestContact: true,
	}
}

func (p *Presenter) Registered(chatID int64, emp employee.Employee) Reply {
	return Reply{ChatID: chatID, Text: fmt.Sprintf("Registered as %s. Send /help to see the commands.", emp.FullName)}
}

func (p *Presenter) CheckedIn(chatID int64, day attendance.Day) Reply {
	return Reply{ChatID: chatID, Text: fmt.Sprintf("Checked in at %s.", day.CheckIn.Format("15:04"))}
}

func (p *Presenter) CheckedOut(chatID int64, day attendance.Day) Reply {
	text := fmt.Sprintf("Checked out at %s. Worked %s hours", day.CheckOut.Format("15:04"), day.WorkHours.StringFixed(2))
	if day.LateMinutes > 0 {
		text += fmt.Sprintf(", late %d min", day.LateMinutes)
	}
	if day.OvertimeMinutes > 0 {
		text += fmt.Sprintf(", overtime %d min", day.OvertimeMinutes)
	}
	return Reply{ChatID: chatID, Text: text + "."}
}

func (p *Presenter) AttendanceReport(chatID int64, days []attendance.Day) Reply {
	if len(days) == 0 {
		return Reply{ChatID: chatID, Text: "No attendance recorded in the last 7 days."}
	}

	var b strings.Builder
	b.WriteString("Attendance, last 7 days:\n")
	for _, d := range days {
		b.WriteString(d.Date.Format("Mon 2006-01-02"))
		switch {
		case d.Status == attendance.StatusOnLeave:
			b.WriteString(": on leave")
		case d.Status == attendance.StatusAbsent:
			b.WriteString(": absent")
		case d.Open():
			b.WriteString(fmt.Sprintf(": %s - ... (open)", d.CheckIn.Format("15:04")))
		case d.CheckIn != nil && d.CheckOut != nil:
			b.WriteString(fmt.Sprintf(": %s - %s, %s h", d.CheckIn.Format("15:04"), d.CheckOut.Format("15:04"), d.WorkHours.StringFixed(2)))
		}
		b.WriteString("\n")
	}
	return Reply{ChatID: chatID, Text: strings.TrimRight(b.String(), "\n")}
}

func (p *Presenter) DailySummary(chatID int64, s attendance.DailySummary) Reply {
	text := fmt.Sprintf(
		"Daily report %s:\nchecked in: %d\nchecked out: %d\nlate: %d\non leave: %d\nabsent: %d",
		s.Date.Format("2006-01-02"), s.CheckedIn, s.CheckedOut, s.Late, s.OnLeave, s.Absent,
	)
	return Reply{ChatID: chatID, Text: text}
}

func (p *Presenter) SmokeStarted(chatID int64, b breaks.SmokeBreak, remaining int) Reply {
	return Reply{ChatID: chatID, Text: fmt.Sprintf("Smoke break started, 5 minutes. %d left today.", remaining)}
}

func (p *Presenter) LunchStarted(chatID int64, b breaks.LunchBreak) Reply {
	return Reply{ChatID: chatID, Text: fmt.Sprintf("Lunch break started, %d minutes. Enjoy!", b.DurationMinutes)}
}

func (p *Presenter) RequestFiled(chatID int64, req request.Request) Reply {
	return Reply{ChatID: chatID, Text: fmt.Sprintf("Your %s request is pending approval.", req.Type)}
}

// ApprovalPrompt is sent to each approver when a request is filed.
func (p *Presenter) ApprovalPrompt(chatID int64, req request.Request) Reply {
	name := req.EmployeeID
	if req.EmployeeName != nil {
		name = *req.EmployeeName
	}
	text := fmt.Sprintf("%s filed a %s request: %s", name, req.Type, req.Reason)
	if req.StartDate != nil && req.EndDate != nil {
		text += fmt.Sprintf(" (%s to %s)", req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))
	}
	return Reply{
		ChatID: chatID,
		Text:   text,
		Buttons: [][]Button{{
			{Label: "Approve", Data: "req:approve:" + req.ID},
			{Label: "Reject", Data: "req:reject:" + req.ID},
		}},
	}
}

func (p *Presenter) Decided(chatID int64, req request.Request) Reply {
	return Reply{ChatID: chatID, Text: fmt.Sprintf("Request %s.", req.Status)}
}

func (p *Presenter) EmployeeList(chatID int64, employees []employee.Employee) Reply {
	if len(employees) == 0 {
		return Reply{ChatID: chatID, Text: "No employees registered."}
	}

	var b strings.Builder
	b.WriteString("Employees:\n")
	for _, emp := range employees {
		b.WriteString(fmt.Sprintf("%s - %s", emp.FullName, emp.Phone))
		if emp.Position != nil {
			b.WriteString(", " + *emp.Position)
		}
		b.WriteString("\n")
	}
	return Reply{ChatID: chatID, Text: strings.TrimRight(b.String(), "\n")}
}

func (p *Presenter) Text(chatID int64, text string) Reply {
	return Reply{ChatID: chatID, Text: text}
}

func (p *Presenter) Cancelled(chatID int64) Reply {
	return Reply{ChatID: chatID, Text: "Previous conversation timed out and was cancelled."}
}

// Error maps an engine error to a user-visible reply. Unknown errors are
// logged with a correlation ID and the user gets a generic message.
func (p *Presenter) Error(chatID int64, err error) Reply {
	var quotaErr *breaks.QuotaExceededError
	var soonErr *breaks.TooSoonError

	switch {
	case errors.Is(err, employee.ErrForeignContact):
		return p.Text(chatID, "Please share your own contact, not someone else's.")
	case errors.Is(err, employee.ErrNotAllowlisted), errors.Is(err, employee.ErrInvalidPhone):
		return p.Text(chatID, "Your phone number is not authorised for this service.")
	case errors.Is(err, employee.ErrNotRegistered):
		return Reply{ChatID: chatID, Text: "You are not registered yet. Please share your contact.", RequestContact: true}
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return p.Text(chatID, "Employee not found.")
	case errors.Is(err, employee.ErrPhoneConflict):
		return p.Text(chatID, "That phone number is already registered to another account.")
	case errors.Is(err, employee.ErrInvalidField):
		return p.Text(chatID, "That field cannot be edited.")
	case errors.Is(err, admin.ErrForbidden):
		return p.Text(chatID, "You are not allowed to do that.")
	case errors.Is(err, admin.ErrAdminNotFound):
		return p.Text(chatID, "No such admin.")
	case errors.Is(err, admin.ErrSuperProtected):
		return p.Text(chatID, "Super admins cannot be changed this way.")
	case errors.Is(err, admin.ErrLastSuperAdmin):
		return p.Text(chatID, "The last super admin cannot be removed.")
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		return p.Text(chatID, "You have already checked in today.")
	case errors.Is(err, attendance.ErrDayLocked):
		return p.Text(chatID, "Today is locked for check-in (leave or absence recorded).")
	case errors.Is(err, attendance.ErrNoOpenAttendance):
		return p.Text(chatID, "You have no open attendance for today. Check in first.")
	case errors.Is(err, breaks.ErrNotCheckedIn):
		return p.Text(chatID, "You must check in before taking a break.")
	case errors.As(err, &quotaErr):
		return p.Text(chatID, "Smoke break quota for today is used up.")
	case errors.As(err, &soonErr):
		return p.Text(chatID, fmt.Sprintf("Too soon. Next smoke break in %s.", formatDuration(soonErr.RetryAfter)))
	case errors.Is(err, breaks.ErrLunchAlreadyTaken):
		return p.Text(chatID, "You already took your lunch break today.")
	case errors.Is(err, request.ErrAlreadyDecided):
		return p.Text(chatID, "This request has already been decided.")
	case errors.Is(err, request.ErrBadDateRange):
		return p.Text(chatID, "Invalid date range. Dates must be today or later, start before end.")
	case errors.Is(err, request.ErrAbsenceExists):
		return p.Text(chatID, "An absence is already recorded for that date.")
	case errors.Is(err, request.ErrRequestNotFound):
		return p.Text(chatID, "Request not found.")
	}

	correlationID := uuid.NewString()
	slog.Error("unhandled dispatcher error", "correlation_id", correlationID, "error", err)
	return p.Text(chatID, "Something went wrong. Reference: "+correlationID)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return d.String()
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) - minutes*60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
