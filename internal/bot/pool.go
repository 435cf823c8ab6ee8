package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers = 8
	handleTimeout  = 10 * time.Second
	queueDepth     = 64
)

// Sender delivers rendered replies over the transport.
type Sender interface {
	Send(ctx context.Context, reply Reply) error
}

// Pool fans events out to a fixed set of workers. Events are routed by user
// ID so that all events from one user are handled in arrival order; events
// from different users proceed independently.
type Pool struct {
	dispatcher *Dispatcher
	sender     Sender
	queues     []chan Event
	group      *errgroup.Group
	ctx        context.Context

	// mu fences Submit against Close so no event is ever sent to a
	// closed queue.
	mu     sync.RWMutex
	closed bool
}

func NewPool(ctx context.Context, dispatcher *Dispatcher, sender Sender, workers int) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}

	group, ctx := errgroup.WithContext(ctx)

	p := &Pool{
		dispatcher: dispatcher,
		sender:     sender,
		queues:     make([]chan Event, workers),
		group:      group,
		ctx:        ctx,
	}

	for i := range p.queues {
		queue := make(chan Event, queueDepth)
		p.queues[i] = queue
		group.Go(func() error {
			p.worker(queue)
			return nil
		})
	}

	return p
}

// Submit enqueues an event for its owner's worker. It blocks when that queue
// is full, which backpressures the poller rather than dropping updates.
// Events arriving after Close are dropped.
func (p *Pool) Submit(ev Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	idx := int(ev.UserID % int64(len(p.queues)))
	if idx < 0 {
		idx += len(p.queues)
	}

	select {
	case p.queues[idx] <- ev:
	case <-p.ctx.Done():
	}
}

// Close stops intake, then drains the workers and waits for in-flight events
// to finish. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for _, queue := range p.queues {
		close(queue)
	}
	_ = p.group.Wait()
}

func (p *Pool) worker(queue chan Event) {
	for ev := range queue {
		p.handle(ev)
	}
}

func (p *Pool) handle(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	for _, reply := range p.dispatcher.Dispatch(ctx, ev) {
		if err := p.sender.Send(ctx, reply); err != nil {
			slog.Error("failed to send reply", "chat_id", reply.ChatID, "error", err)
		}
	}
}
