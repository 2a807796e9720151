package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gogpu/gfx"
)

// ErrClosed is delivered for commands submitted to or still pending in a
// closed Queue.
var ErrClosed = errors.New("dispatch: queue closed")

type item struct {
	cmd    Command
	result chan error
}

// Queue is a FIFO of commands executed by one render goroutine, which owns
// the Device for the queue's lifetime. Queue is safe for concurrent use.
type Queue struct {
	dev   *gfx.Device
	items chan item

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New starts a render goroutine draining commands for dev. depth is the
// number of commands that may wait before Submit blocks.
func New(dev *gfx.Device, depth int) *Queue {
	q := &Queue{
		dev:     dev,
		items:   make(chan item, max(depth, 0)),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.stopped)
	for {
		select {
		case <-q.done:
			return
		case it := <-q.items:
			select {
			case <-q.done:
				it.result <- ErrClosed
				return
			default:
			}
			it.result <- it.cmd.exec(q.dev)
		}
	}
}

// Submit enqueues cmd and returns a channel that receives its result once
// executed. Submit blocks while the queue is full.
func (q *Queue) Submit(cmd Command) <-chan error {
	result := make(chan error, 1)
	if b, ok := cmd.(Bind); ok && b.Context != nil {
		b.Context = b.Context.Clone()
		cmd = b
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		result <- ErrClosed
		return result
	}
	select {
	case q.items <- item{cmd: cmd, result: result}:
	case <-q.done:
		result <- ErrClosed
	}
	return result
}

// Do submits cmd and waits for its result. Cancelling ctx stops the wait
// only; the command still executes in order.
func (q *Queue) Do(ctx context.Context, cmd Command) error {
	select {
	case err := <-q.Submit(cmd):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every command submitted before it has executed.
func (q *Queue) Flush(ctx context.Context) error {
	return q.Do(ctx, Func(func(*gfx.Device) error { return nil }))
}

// Close stops the render goroutine after the command in progress and fails
// every pending command with ErrClosed. Close is idempotent.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.done)

		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()

		<-q.stopped
		dropped := 0
		for {
			select {
			case it := <-q.items:
				it.result <- ErrClosed
				dropped++
			default:
				if dropped > 0 {
					gfx.Logger().Debug("dispatch: dropped pending commands", slog.Int("count", dropped))
				}
				return
			}
		}
	})
}
