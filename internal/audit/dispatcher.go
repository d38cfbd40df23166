package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull keeps Emit non-blocking for the redemption path; dropped
	// events are counted.
	DropIfFull bool
}

// Stats counts events by fate.
type Stats struct {
	Delivered uint64
	Dropped   uint64
	// Failed counts events whose sink panicked.
	Failed uint64
}

// Dispatcher forwards audit events to a sink from a single goroutine, so
// sinks see events in emission order.
type Dispatcher struct {
	cfg  Config
	sink Sink

	queue    chan Event
	stopping chan struct{}
	finished chan struct{}
	stopOnce sync.Once

	delivered atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. It returns nil when auditing is
// disabled; every method is safe on a nil Dispatcher.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:      cfg,
		sink:     sink,
		queue:    make(chan Event, cfg.BufferSize),
		stopping: make(chan struct{}),
		finished: make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.finished)

	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stopping:
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	defer func() {
		if recover() != nil {
			d.failed.Add(1)
		}
	}()
	d.sink.Emit(context.Background(), event)
	d.delivered.Add(1)
}

// Emit queues the event. With DropIfFull a full buffer drops the event and
// counts it; otherwise Emit blocks until there is room or ctx ends. Events
// emitted after Close are discarded.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.isStopping() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		case <-d.stopping:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stopping:
	}
}

func (d *Dispatcher) isStopping() bool {
	select {
	case <-d.stopping:
		return true
	default:
		return false
	}
}

// Close stops accepting events and drains the buffer into the sink before
// returning. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() { close(d.stopping) })
	<-d.finished
}

// Dropped reports events lost to a full buffer or a cancelled context.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Stats returns delivery counters.
func (d *Dispatcher) Stats() Stats {
	if d == nil {
		return Stats{}
	}
	return Stats{
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
	}
}
