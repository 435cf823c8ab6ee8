package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dawamy/attendance-bot/internal/pkg/clock"
)

type recordingSender struct {
	mu      sync.Mutex
	replies []Reply
}

func (s *recordingSender) Send(ctx context.Context, reply Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, reply)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}

// Plain text outside a conversation gets the fallback reply without touching
// any engine, which is all the pool plumbing needs.
func newPoolFixture(t *testing.T) (*Pool, *recordingSender) {
	t.Helper()

	clk := clock.NewFake(time.Date(2026, 3, 2, 9, 0, 0, 0, amman))
	dispatcher := NewDispatcher(nil, nil, nil, nil, NewConversations(clk, time.Minute))
	sender := &recordingSender{}

	return NewPool(context.Background(), dispatcher, sender, 4), sender
}

func TestPoolDeliversAndDrainsOnClose(t *testing.T) {
	pool, sender := newPoolFixture(t)

	for i := int64(1); i <= 20; i++ {
		pool.Submit(Event{Kind: KindText, UserID: i, ChatID: i, Text: "hello"})
	}
	pool.Close()

	assert.Equal(t, 20, sender.count())
}

func TestSubmitAfterCloseIsDropped(t *testing.T) {
	pool, sender := newPoolFixture(t)

	pool.Submit(Event{Kind: KindText, UserID: 1, ChatID: 1, Text: "hello"})
	pool.Close()

	// A straggler from the poller must be dropped, not sent to a closed queue.
	pool.Submit(Event{Kind: KindText, UserID: 2, ChatID: 2, Text: "straggler"})
	assert.Equal(t, 1, sender.count())
}

func TestPoolCloseTwice(t *testing.T) {
	pool, _ := newPoolFixture(t)

	pool.Close()
	pool.Close()
}
