package bot

import (
	"sync"
	"time"

	"github.com/dawamy/attendance-bot/internal/domain/employee"
	"github.com/dawamy/attendance-bot/internal/pkg/clock"
)

// State names one step of a multi-step conversation.
type State string

const (
	StateIdle                State = "idle"
	StateAwaitLeaveReason    State = "await_leave_reason"
	StateAwaitVacationReason State = "await_vacation_reason"
	StateAwaitVacationDates  State = "await_vacation_dates"
	StateAwaitWarnReason     State = "await_warn_reason"
	StateEditSelect          State = "edit_select"
	StateEditInput           State = "edit_input"
)

// Conversation is the per-user FSM snapshot. The zero value is Idle.
type Conversation struct {
	State State
	// Reason stashes the vacation reason between steps.
	Reason string
	// TargetEmployeeID and Field carry edit/warn flow selections.
	TargetEmployeeID string
	Field            employee.EditableField
	LastEvent        time.Time
}

// Conversations stores per-user conversation state in memory, keyed by
// platform user ID, with an inactivity timeout back to Idle.
type Conversations struct {
	mu      sync.Mutex
	clock   clock.Clock
	timeout time.Duration
	byUser  map[int64]Conversation
}

func NewConversations(clk clock.Clock, timeout time.Duration) *Conversations {
	return &Conversations{
		clock:   clk,
		timeout: timeout,
		byUser:  make(map[int64]Conversation),
	}
}

// Get returns the user's conversation. A non-idle conversation older than the
// timeout is reset first and reported as expired so the dispatcher can attach
// a cancellation notice.
func (c *Conversations) Get(userID int64) (Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conv, ok := c.byUser[userID]
	if !ok {
		return Conversation{State: StateIdle}, false
	}

	if conv.State != StateIdle && c.clock.Now().Sub(conv.LastEvent) > c.timeout {
		delete(c.byUser, userID)
		return Conversation{State: StateIdle}, true
	}

	return conv, false
}

// Set stores the conversation and stamps its last-event time.
func (c *Conversations) Set(userID int64, conv Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conv.LastEvent = c.clock.Now()
	c.byUser[userID] = conv
}

// Reset returns the user to Idle.
func (c *Conversations) Reset(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.byUser, userID)
}
