package events

import "context"

// EventPublisher is the interface for publishing orchestrator change events.
type EventPublisher interface {
	PublishChanged(ctx context.Context, event *ChangedEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (for in-process usage
// without events).
type NoOpPublisher struct{}

// PublishChanged is a no-op.
func (p *NoOpPublisher) PublishChanged(_ context.Context, _ *ChangedEvent) error {
	return nil
}

// CallbackPublisher is an EventPublisher that calls a callback function (for
// testing and for side channels such as persistence).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *ChangedEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *ChangedEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishChanged calls the callback.
func (p *CallbackPublisher) PublishChanged(ctx context.Context, event *ChangedEvent) error {
	return p.callback(ctx, event)
}

// FanoutPublisher forwards each event to every wrapped publisher. The first
// error is returned after all publishers ran.
type FanoutPublisher struct {
	publishers []EventPublisher
}

// NewFanoutPublisher creates a FanoutPublisher over the given publishers.
func NewFanoutPublisher(publishers ...EventPublisher) *FanoutPublisher {
	return &FanoutPublisher{publishers: publishers}
}

// PublishChanged forwards the event to all wrapped publishers.
func (p *FanoutPublisher) PublishChanged(ctx context.Context, event *ChangedEvent) error {
	var first error
	for _, pub := range p.publishers {
		if err := pub.PublishChanged(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
