package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dawamy/attendance-bot/internal/domain/admin"
	"github.com/dawamy/attendance-bot/internal/domain/employee"
	"github.com/dawamy/attendance-bot/internal/domain/request"
	"github.com/dawamy/attendance-bot/internal/pkg/validator"
	attendancesvc "github.com/dawamy/attendance-bot/internal/service/attendance"
	breakssvc "github.com/dawamy/attendance-bot/internal/service/breaks"
	registrationsvc "github.com/dawamy/attendance-bot/internal/service/registration"
	requestsvc "github.com/dawamy/attendance-bot/internal/service/request"
)

const reportWindowDays = 7

// Dispatcher routes inbound events to the engines and renders replies. It is
// the only place that knows both the command surface and the FSM transitions.
type Dispatcher struct {
	registration  *registrationsvc.Service
	attendance    *attendancesvc.Service
	breaks        *breakssvc.Service
	requests      *requestsvc.Service
	conversations *Conversations
	present       *Presenter
}

func NewDispatcher(
	registration *registrationsvc.Service,
	attendance *attendancesvc.Service,
	breaks *breakssvc.Service,
	requests *requestsvc.Service,
	conversations *Conversations,
) *Dispatcher {
	return &Dispatcher{
		registration:  registration,
		attendance:    attendance,
		breaks:        breaks,
		requests:      requests,
		conversations: conversations,
		present:       &Presenter{},
	}
}

// Dispatch handles one event end to end and returns the replies to send.
// Replies may target chats other than the sender's (approver notifications).
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) []Reply {
	if ev.Kind == KindContact {
		return d.handleContact(ctx, ev)
	}

	conv, expired := d.conversations.Get(ev.UserID)

	var replies []Reply
	if expired {
		replies = append(replies, d.present.Cancelled(ev.ChatID))
	}

	switch ev.Kind {
	case KindCallback:
		return append(replies, d.handleCallback(ctx, ev)...)
	case KindCommand:
		return append(replies, d.handleCommand(ctx, ev)...)
	case KindText:
		return append(replies, d.handleText(ctx, ev, conv)...)
	}

	return replies
}

func (d *Dispatcher) handleContact(ctx context.Context, ev Event) []Reply {
	d.conversations.Reset(ev.UserID)

	emp, err := d.registration.Register(ctx, registrationsvc.Contact{
		PlatformUserID: ev.Contact.UserID,
		SharedByUserID: ev.UserID,
		Phone:          ev.Contact.Phone,
		FirstName:      ev.Contact.FirstName,
		LastName:       ev.Contact.LastName,
	})
	if err != nil {
		return []Reply{d.present.Error(ev.ChatID, err)}
	}

	return []Reply{d.present.Registered(ev.ChatID, emp)}
}

func (d *Dispatcher) handleCallback(ctx context.Context, ev Event) []Reply {
	parts := strings.Split(ev.Callback, ":")
	if len(parts) != 3 || parts[0] != "req" {
		return []Reply{d.present.Text(ev.ChatID, "Unknown action.")}
	}

	var decision request.Decision
	switch parts[1] {
	case "approve":
		decision = request.DecisionApprove
	case "reject":
		decision = request.DecisionReject
	default:
		return []Reply{d.present.Text(ev.ChatID, "Unknown action.")}
	}

	req, err := d.requests.Decide(ctx, parts[2], ev.UserID, decision)
	if err != nil {
		return []Reply{d.present.Error(ev.ChatID, err)}
	}

	replies := []Reply{d.present.Decided(ev.ChatID, req)}

	// Tell the requester, when their chat is still bound.
	emp, err := d.registration.EmployeeRepository.GetByID(ctx, req.EmployeeID)
	if err == nil && emp.PlatformUserID != nil {
		replies = append(replies, d.present.Text(*emp.PlatformUserID,
			fmt.Sprintf("Your %s request was %s.", req.Type, req.Status)))
	}

	return replies
}

func (d *Dispatcher) handleCommand(ctx context.Context, ev Event) []Reply {
	// A command always aborts any multi-step conversation in flight.
	d.conversations.Reset(ev.UserID)

	isAdmin := d.isAdmin(ctx, ev.UserID)

	switch ev.Command {
	case "start":
		if _, err := d.identify(ctx, ev.UserID); err != nil {
			if isAdmin {
				return []Reply{d.present.Menu(ev.ChatID, true)}
			}
			return []Reply{d.present.ContactPrompt(ev.ChatID)}
		}
		return []Reply{d.present.Menu(ev.ChatID, isAdmin)}

	case "help":
		return []Reply{d.present.Menu(ev.ChatID, isAdmin)}

	case "check_in":
		emp, err := d.identify(ctx, ev.UserID)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		day, err := d.attendance.CheckIn(ctx, emp.ID)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.CheckedIn(ev.ChatID, day)}

	case "check_out":
		emp, err := d.identify(ctx, ev.UserID)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		day, err := d.attendance.CheckOut(ctx, emp.ID)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.CheckedOut(ev.ChatID, day)}

	case "attendance_report":
		emp, err := d.identify(ctx, ev.UserID)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		days, err := d.attendance.Report(ctx, emp.ID, reportWindowDays)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.AttendanceReport(ev.ChatID, days)}

	case "smoke":
		emp, err := d.identify(ctx, ev.UserID)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		b, remaining, err := d.breaks.RequestSmoke(ctx, emp.ID)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.SmokeStarted(ev.ChatID, b, remaining)}

	case "break":
		emp, err := d.identify(ctx, ev.UserID)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		b, err := d.breaks.RequestLunch(ctx, emp.ID)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.LunchStarted(ev.ChatID, b)}

	case "leave":
		if _, err := d.identify(ctx, ev.UserID); err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		d.conversations.Set(ev.UserID, Conversation{State: StateAwaitLeaveReason})
		return []Reply{d.present.Text(ev.ChatID, "Please send the reason for your leave.")}

	case "vacation":
		if _, err := d.identify(ctx, ev.UserID); err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		d.conversations.Set(ev.UserID, Conversation{State: StateAwaitVacationReason})
		return []Reply{d.present.Text(ev.ChatID, "Please send the reason for your vacation.")}

	case "list_employees":
		if !isAdmin {
			return []Reply{d.present.Error(ev.ChatID, admin.ErrForbidden)}
		}
		employees, err := d.registration.EmployeeRepository.List(ctx)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.EmployeeList(ev.ChatID, employees)}

	case "add_employee":
		if !isAdmin {
			return []Reply{d.present.Error(ev.ChatID, admin.ErrForbidden)}
		}
		if len(ev.Args) != 1 {
			return []Reply{d.present.Text(ev.ChatID, "Usage: /add_employee <phone>")}
		}
		phone, ok := validator.NormalizePhone(ev.Args[0])
		if !ok {
			return []Reply{d.present.Error(ev.ChatID, employee.ErrInvalidPhone)}
		}
		if err := d.registration.AllowlistRepository.Add(ctx, phone); err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.Text(ev.ChatID, phone+" can now register.")}

	case "remove_employee":
		if !isAdmin {
			return []Reply{d.present.Error(ev.ChatID, admin.ErrForbidden)}
		}
		if len(ev.Args) != 1 {
			return []Reply{d.present.Text(ev.ChatID, "Usage: /remove_employee <phone>")}
		}
		return d.removeEmployee(ctx, ev.ChatID, ev.Args[0])

	case "edit_details":
		if !isAdmin {
			return []Reply{d.present.Error(ev.ChatID, admin.ErrForbidden)}
		}
		d.conversations.Set(ev.UserID, Conversation{State: StateEditSelect})
		return []Reply{d.present.Text(ev.ChatID,
			"Send the employee phone and field to edit, e.g.\n+962790000000 position\nFields: full_name, age, position, department, hire_date")}

	case "warn":
		if !isAdmin {
			return []Reply{d.present.Error(ev.ChatID, admin.ErrForbidden)}
		}
		if len(ev.Args) != 1 {
			return []Reply{d.present.Text(ev.ChatID, "Usage: /warn <phone>")}
		}
		phone, ok := validator.NormalizePhone(ev.Args[0])
		if !ok {
			return []Reply{d.present.Error(ev.ChatID, employee.ErrInvalidPhone)}
		}
		emp, err := d.registration.EmployeeRepository.GetByPhone(ctx, phone)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		d.conversations.Set(ev.UserID, Conversation{State: StateAwaitWarnReason, TargetEmployeeID: emp.ID})
		return []Reply{d.present.Text(ev.ChatID, "Send the warning reason for "+emp.FullName+".")}

	case "add_admin":
		if len(ev.Args) < 1 {
			return []Reply{d.present.Text(ev.ChatID, "Usage: /add_admin <user_id> [name]")}
		}
		targetID, err := strconv.ParseInt(ev.Args[0], 10, 64)
		if err != nil {
			return []Reply{d.present.Text(ev.ChatID, "The user ID must be numeric.")}
		}
		a, err := d.registration.PromoteAdmin(ctx, ev.UserID, targetID, strings.Join(ev.Args[1:], " "))
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.Text(ev.ChatID, fmt.Sprintf("User %d can now approve requests.", a.PlatformUserID))}

	case "remove_admin":
		if len(ev.Args) != 1 {
			return []Reply{d.present.Text(ev.ChatID, "Usage: /remove_admin <user_id>")}
		}
		targetID, err := strconv.ParseInt(ev.Args[0], 10, 64)
		if err != nil {
			return []Reply{d.present.Text(ev.ChatID, "The user ID must be numeric.")}
		}
		if err := d.registration.DemoteAdmin(ctx, ev.UserID, targetID); err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.Text(ev.ChatID, fmt.Sprintf("User %d is no longer an admin.", targetID))}

	case "report_absence":
		if !isAdmin {
			return []Reply{d.present.Error(ev.ChatID, admin.ErrForbidden)}
		}
		return d.reportAbsence(ctx, ev)

	case "daily_report":
		if !isAdmin {
			return []Reply{d.present.Error(ev.ChatID, admin.ErrForbidden)}
		}
		summary, err := d.attendance.DailySummary(ctx)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.DailySummary(ev.ChatID, summary)}
	}

	return []Reply{d.present.Text(ev.ChatID, "Unknown command. Send /help for the list.")}
}

func (d *Dispatcher) handleText(ctx context.Context, ev Event, conv Conversation) []Reply {
	switch conv.State {
	case StateAwaitLeaveReason:
		emp, err := d.identify(ctx, ev.UserID)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		d.conversations.Reset(ev.UserID)
		req, err := d.requests.SubmitLeave(ctx, emp.ID, ev.Text)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return d.filedReplies(ctx, ev.ChatID, emp, req)

	case StateAwaitVacationReason:
		conv.Reason = ev.Text
		conv.State = StateAwaitVacationDates
		d.conversations.Set(ev.UserID, conv)
		return []Reply{d.present.Text(ev.ChatID, "Send the dates as: YYYY-MM-DD YYYY-MM-DD")}

	case StateAwaitVacationDates:
		start, end, ok := parseDateRange(ev.Text)
		if !ok {
			return []Reply{d.present.Text(ev.ChatID, "Could not read those dates. Send them as: YYYY-MM-DD YYYY-MM-DD")}
		}
		emp, err := d.identify(ctx, ev.UserID)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		req, err := d.requests.SubmitVacation(ctx, emp.ID, conv.Reason, start, end)
		if err != nil {
			// Bad ranges keep the conversation open for another try.
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		d.conversations.Reset(ev.UserID)
		return d.filedReplies(ctx, ev.ChatID, emp, req)

	case StateAwaitWarnReason:
		d.conversations.Reset(ev.UserID)
		if _, err := d.requests.Warn(ctx, ev.UserID, conv.TargetEmployeeID, "manual", ev.Text); err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.Text(ev.ChatID, "Warning recorded.")}

	case StateEditSelect:
		fields := strings.Fields(ev.Text)
		if len(fields) != 2 {
			return []Reply{d.present.Text(ev.ChatID, "Send: <phone> <field>")}
		}
		phone, ok := validator.NormalizePhone(fields[0])
		if !ok {
			return []Reply{d.present.Error(ev.ChatID, employee.ErrInvalidPhone)}
		}
		field := employee.EditableField(fields[1])
		if !field.Valid() {
			return []Reply{d.present.Error(ev.ChatID, employee.ErrInvalidField)}
		}
		emp, err := d.registration.EmployeeRepository.GetByPhone(ctx, phone)
		if err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		conv.State = StateEditInput
		conv.TargetEmployeeID = emp.ID
		conv.Field = field
		d.conversations.Set(ev.UserID, conv)
		return []Reply{d.present.Text(ev.ChatID, fmt.Sprintf("Send the new %s for %s.", field, emp.FullName))}

	case StateEditInput:
		d.conversations.Reset(ev.UserID)
		if err := d.registration.EmployeeRepository.UpdateField(ctx, conv.TargetEmployeeID, conv.Field, strings.TrimSpace(ev.Text)); err != nil {
			return []Reply{d.present.Error(ev.ChatID, err)}
		}
		return []Reply{d.present.Text(ev.ChatID, "Updated.")}
	}

	return []Reply{d.present.Text(ev.ChatID, "I did not understand that. Send /help for the commands.")}
}

// filedReplies confirms the filing to the employee and pings every approver
// with inline decision buttons.
func (d *Dispatcher) filedReplies(ctx context.Context, chatID int64, emp employee.Employee, req request.Request) []Reply {
	replies := []Reply{d.present.RequestFiled(chatID, req)}

	req.EmployeeName = &emp.FullName

	admins, err := d.registration.AdminRepository.List(ctx)
	if err != nil {
		slog.Error("failed to list approvers", "error", err)
		return replies
	}
	for _, a := range admins {
		if !a.CanApprove {
			continue
		}
		replies = append(replies, d.present.ApprovalPrompt(a.PlatformUserID, req))
	}

	return replies
}

// reportAbsence handles /report_absence <phone> [YYYY-MM-DD] [excused]
// [reason...]. The date defaults to today; the day is locked absent either way.
func (d *Dispatcher) reportAbsence(ctx context.Context, ev Event) []Reply {
	if len(ev.Args) == 0 {
		return []Reply{d.present.Text(ev.ChatID, "Usage: /report_absence <phone> [YYYY-MM-DD] [excused] [reason]")}
	}

	phone, ok := validator.NormalizePhone(ev.Args[0])
	if !ok {
		return []Reply{d.present.Error(ev.ChatID, employee.ErrInvalidPhone)}
	}
	emp, err := d.registration.EmployeeRepository.GetByPhone(ctx, phone)
	if err != nil {
		return []Reply{d.present.Error(ev.ChatID, err)}
	}

	rest := ev.Args[1:]
	date := d.requests.Today()
	if len(rest) > 0 {
		if parsed, parseErr := time.Parse("2006-01-02", rest[0]); parseErr == nil {
			date = parsed
			rest = rest[1:]
		}
	}

	excused := false
	if len(rest) > 0 && strings.EqualFold(rest[0], "excused") {
		excused = true
		rest = rest[1:]
	}

	reason := strings.Join(rest, " ")
	if reason == "" {
		reason = "unreported absence"
	}

	if _, err := d.requests.ReportAbsence(ctx, emp.ID, date, reason, excused); err != nil {
		return []Reply{d.present.Error(ev.ChatID, err)}
	}

	return []Reply{d.present.Text(ev.ChatID,
		fmt.Sprintf("%s marked absent on %s.", emp.FullName, date.Format("2006-01-02")))}
}

// removeEmployee revokes the phone's allowlist entry. The employee row and
// its attendance history are kept; the revoked phone just stops authorising
// new actions.
func (d *Dispatcher) removeEmployee(ctx context.Context, chatID int64, rawPhone string) []Reply {
	phone, ok := validator.NormalizePhone(rawPhone)
	if !ok {
		return []Reply{d.present.Error(chatID, employee.ErrInvalidPhone)}
	}

	if err := d.registration.AllowlistRepository.Remove(ctx, phone); err != nil {
		return []Reply{d.present.Error(chatID, err)}
	}

	return []Reply{d.present.Text(chatID, phone + " can no longer use this service.")}
}

// identify resolves the sender to an employee and refreshes last_active.
func (d *Dispatcher) identify(ctx context.Context, userID int64) (employee.Employee, error) {
	emp, err := d.registration.Identify(ctx, userID)
	if err != nil {
		return employee.Employee{}, err
	}

	if err := d.registration.EmployeeRepository.TouchLastActive(ctx, emp.ID); err != nil {
		slog.Warn("failed to touch last_active", "employee_id", emp.ID, "error", err)
	}

	return emp, nil
}

// isAdmin reports whether the sender has an admin record. Approval rights are
// checked by the request engine, not here.
func (d *Dispatcher) isAdmin(ctx context.Context, userID int64) bool {
	_, ok, err := d.registration.AdminFor(ctx, userID)
	if err != nil {
		slog.Warn("failed to look up admin", "user_id", userID, "error", err)
		return false
	}
	return ok
}

func parseDateRange(text string) (start, end time.Time, ok bool) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return time.Time{}, time.Time{}, false
	}

	start, err := time.Parse("2006-01-02", fields[0])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = time.Parse("2006-01-02", fields[1])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}
