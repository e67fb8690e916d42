package notifier

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"OISentinel/internal/model"
)

// Sink delivers a message to an audience.
type Sink interface {
	Notify(ctx context.Context, audience model.Audience, text string) error
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(ctx context.Context, audience model.Audience, text string) error

func (f SinkFunc) Notify(ctx context.Context, audience model.Audience, text string) error {
	return f(ctx, audience, text)
}

type job struct {
	ctx      context.Context
	audience model.Audience
	text     string
}

// Dispatcher delivers messages through next on a single background worker.
// Messages are delivered in the order Notify was called.
type Dispatcher struct {
	next  Sink
	queue chan job
	done  chan struct{}

	pending sync.WaitGroup
	sendMu  sync.RWMutex // guards closed and the queue channel
	closed  bool

	mu   sync.Mutex
	errs []error
}

// NewDispatcher starts a dispatcher with a queue of the given size.
func NewDispatcher(next Sink, size int) *Dispatcher {
	d := &Dispatcher{
		next:  next,
		queue: make(chan job, size),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for j := range d.queue {
		if err := d.next.Notify(j.ctx, j.audience, j.text); err != nil {
			log.Error().Err(err).Str("component", "dispatcher").Msg("async delivery failed")
			d.mu.Lock()
			d.errs = append(d.errs, err)
			d.mu.Unlock()
		}
		d.pending.Done()
	}
}

// Notify queues the message. It blocks only while the queue is full.
func (d *Dispatcher) Notify(ctx context.Context, audience model.Audience, text string) error {
	d.sendMu.RLock()
	defer d.sendMu.RUnlock()
	if d.closed {
		return errors.New("dispatcher closed")
	}
	d.pending.Add(1)
	d.queue <- job{ctx: ctx, audience: audience, text: text}
	return nil
}

// Flush waits until every queued message was attempted and returns the
// delivery errors collected since the previous Flush.
func (d *Dispatcher) Flush() error {
	d.pending.Wait()
	d.mu.Lock()
	defer d.mu.Unlock()
	err := errors.Join(d.errs...)
	d.errs = nil
	return err
}

// Close flushes and stops the worker.
func (d *Dispatcher) Close() error {
	d.sendMu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.sendMu.Unlock()
	<-d.done
	return d.Flush()
}
