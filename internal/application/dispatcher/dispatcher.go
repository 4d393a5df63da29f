package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/gas-voucher/internal/domain/event"
)

// DefaultQueueSize is the number of published batches buffered ahead of the worker
const DefaultQueueSize = 256

// Dispatcher routes voucher events to registered handlers
type Dispatcher interface {
	// Subscribe registers a named handler for one event type
	Subscribe(eventType event.Type, name string, handler Handler)

	// SubscribeAll registers the same handler for every voucher event type
	SubscribeAll(name string, handler Handler)

	// Publish queues events for the worker and returns at once. Batches are
	// handled one at a time in call order. A batch that does not fit in the
	// queue is dropped.
	Publish(ctx context.Context, events ...*event.Event)

	// Pending returns the number of batches queued or being handled
	Pending() int64

	// Dropped returns the number of batches discarded on a full queue
	Dropped() int64

	// Close stops accepting events and waits for the queue to drain
	Close() error
}

// Logger is the minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type batch struct {
	ctx    context.Context
	events []*event.Event
}

type eventDispatcher struct {
	mu        sync.RWMutex
	handlers  map[event.Type][]HandlerInfo
	logger    Logger
	queueSize int

	// closeMu guards closed and the send side of queue
	closeMu sync.RWMutex
	closed  bool
	queue   chan batch
	stopped chan struct{}

	pending atomic.Int64
	dropped atomic.Int64
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// WithQueueSize sets how many batches may wait for the worker
func WithQueueSize(size int) Option {
	return func(d *eventDispatcher) {
		if size > 0 {
			d.queueSize = size
		}
	}
}

// NewDispatcher creates an event dispatcher and starts its worker
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers:  make(map[event.Type][]HandlerInfo),
		queueSize: DefaultQueueSize,
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan batch, d.queueSize)

	go d.run()
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("%s#%d", eventType, len(d.handlers[eventType]))
	}
	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})

	d.logInfo("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) SubscribeAll(name string, handler Handler) {
	for _, t := range event.AllTypes {
		d.Subscribe(t, name, handler)
	}
}

func (d *eventDispatcher) Publish(ctx context.Context, events ...*event.Event) {
	b := batch{ctx: context.WithoutCancel(ctx), events: make([]*event.Event, 0, len(events))}
	for _, evt := range events {
		if evt != nil {
			b.events = append(b.events, evt)
		}
	}
	if len(b.events) == 0 {
		return
	}

	d.closeMu.RLock()
	defer d.closeMu.RUnlock()

	if d.closed {
		d.logError("Dropping events, dispatcher is closed",
			"count", len(b.events),
			"voucher_id", b.events[0].VoucherID,
		)
		return
	}

	d.pending.Add(1)
	select {
	case d.queue <- b:
	default:
		d.pending.Add(-1)
		d.dropped.Add(1)
		d.logError("Dropping events, queue full",
			"count", len(b.events),
			"event_type", b.events[0].Type,
			"voucher_id", b.events[0].VoucherID,
			"queue_size", d.queueSize,
		)
	}
}

// run handles queued batches until the queue is closed and empty
func (d *eventDispatcher) run() {
	defer close(d.stopped)
	for b := range d.queue {
		for _, evt := range b.events {
			d.handle(b.ctx, evt)
		}
		d.pending.Add(-1)
	}
}

func (d *eventDispatcher) handle(ctx context.Context, evt *event.Event) {
	for _, h := range d.snapshot(evt.Type) {
		if err := d.safeExecute(ctx, evt, h); err != nil {
			d.logError("Handler error",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"voucher_id", evt.VoucherID,
				"handler_name", h.Name,
				"error", err,
			)
		}
	}
}

func (d *eventDispatcher) Pending() int64 {
	return d.pending.Load()
}

func (d *eventDispatcher) Dropped() int64 {
	return d.dropped.Load()
}

func (d *eventDispatcher) Close() error {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return fmt.Errorf("dispatcher already closed")
	}
	d.closed = true
	close(d.queue)
	d.closeMu.Unlock()

	d.logInfo("Closing dispatcher, draining queue", "pending", d.pending.Load())
	<-d.stopped
	d.logInfo("Dispatcher closed", "dropped", d.dropped.Load())
	return nil
}

func (d *eventDispatcher) snapshot(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]HandlerInfo(nil), d.handlers[eventType]...)
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, h HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			d.logError("Handler panic recovered",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", h.Name,
				"panic", r,
			)
		}
	}()
	return h.Handler(ctx, evt)
}

func (d *eventDispatcher) logInfo(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *eventDispatcher) logError(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
