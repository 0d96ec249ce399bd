package audit

import (
	"context"
	"sync"
)

// Config controls dispatcher buffering behavior. OnDrop, when set, is
// invoked once per event discarded under backpressure; the engine points it
// at a metrics counter.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	OnDrop     func()
}

// Dispatcher forwards audit events to a sink from a single worker goroutine
// so a slow sink never stalls a login or refresh. Emit after Close is a
// no-op; Close blocks until the buffered backlog has reached the sink.
type Dispatcher struct {
	sink   Sink
	events chan Event
	drop   bool
	onDrop func()

	mu      sync.RWMutex
	closed  bool
	drained chan struct{}
}

func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}

	d := &Dispatcher{
		sink:    sink,
		events:  make(chan Event, buffer),
		drop:    cfg.DropIfFull,
		onDrop:  cfg.OnDrop,
		drained: make(chan struct{}),
	}
	go d.run()
	return d
}

// run is the only reader of d.events. It exits once Close has closed the
// channel and the backlog is delivered.
func (d *Dispatcher) run() {
	for event := range d.events {
		d.sink.Emit(context.Background(), event)
	}
	close(d.drained)
}

// Emit queues one event. With DropIfFull a full buffer discards the event
// and fires OnDrop; otherwise Emit waits for room or for ctx.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}

	// The read lock pins the channel open: Close takes the write lock
	// before closing, so a send here can never hit a closed channel.
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.drop {
		select {
		case d.events <- event:
		default:
			if d.onDrop != nil {
				d.onDrop()
			}
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.events <- event:
	case <-ctx.Done():
	}
}

// Close stops intake and blocks until the worker has delivered everything
// already queued. Safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()
	<-d.drained
}
