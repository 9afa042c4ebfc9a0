package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	id "safereturn/pkg/domain"
	audit "safereturn/pkg/platform/audit"
)

// ErrBufferFull is returned when an async publisher cannot accept an event
// without blocking. Audit is best-effort in async mode; callers log and
// move on.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher fans audit events into a Store. In sync mode Emit appends
// inline; with WithAsyncBuffer a background goroutine drains a channel so
// domain writes never wait on the audit path.
type Publisher struct {
	store audit.Store

	inbox chan audit.Event
	done  chan struct{}
	wg    sync.WaitGroup

	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given
// channel capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. A zero timestamp is stamped with the current time.
// In async mode a full buffer returns ErrBufferFull rather than blocking.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// List reads back a person's events from the underlying store.
func (p *Publisher) List(ctx context.Context, personID id.PersonID) ([]audit.Event, error) {
	return p.store.ListByPerson(ctx, personID)
}

// Close stops the async drainer, flushing anything still buffered.
// Safe to call on a sync publisher and safe to call twice.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		if p.inbox != nil {
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.inbox:
			_ = p.store.Append(context.Background(), event)
		case <-p.done:
			for {
				select {
				case event := <-p.inbox:
					_ = p.store.Append(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}
