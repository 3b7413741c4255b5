package fabric

import (
	"context"
	"sync"
)

// Inbox is a per-agent delivery queue. Envelopes from a single sender are
// observed in the order sent; no ordering is promised between senders. The
// queue is unbounded, so enqueuing never blocks the sender.
type Inbox struct {
	owner string

	mu     sync.Mutex
	items  []*Envelope
	closed bool
	wake   chan struct{}
}

func newInbox(owner string) *Inbox {
	return &Inbox{
		owner: owner,
		wake:  make(chan struct{}, 1),
	}
}

// Owner returns the agent id this inbox belongs to.
func (in *Inbox) Owner() string {
	return in.owner
}

// Len returns the number of queued envelopes.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.items)
}

// enqueue appends an envelope. Returns false if the inbox was closed.
func (in *Inbox) enqueue(env *Envelope) bool {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return false
	}
	in.items = append(in.items, env)
	in.mu.Unlock()

	select {
	case in.wake <- struct{}{}:
	default:
	}
	return true
}

// Receive blocks until an envelope is available, the inbox is closed, or the
// context is done. The second return is false when no envelope will ever be
// returned again (closed and drained, or context done).
func (in *Inbox) Receive(ctx context.Context) (*Envelope, bool) {
	for {
		in.mu.Lock()
		if len(in.items) > 0 {
			env := in.items[0]
			in.items = in.items[1:]
			in.mu.Unlock()
			return env, true
		}
		closed := in.closed
		in.mu.Unlock()
		if closed {
			return nil, false
		}

		select {
		case <-in.wake:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// TryReceive returns the next envelope without blocking.
func (in *Inbox) TryReceive() (*Envelope, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.items) == 0 {
		return nil, false
	}
	env := in.items[0]
	in.items = in.items[1:]
	return env, true
}

// close marks the inbox closed and wakes any blocked receiver. Queued
// envelopes are discarded.
func (in *Inbox) close() {
	in.mu.Lock()
	in.closed = true
	in.items = nil
	in.mu.Unlock()

	select {
	case in.wake <- struct{}{}:
	default:
	}
}
