package ads

import (
	"context"
	"sync"
)

// Loop is the single goroutine that owns all mutable ad state. The policy
// engine, the lifecycle machines and the format managers are confined to
// it; everything reaches them as a task posted here. Tasks run strictly in
// arrival order.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	stopped bool
	done    chan struct{}
}

// NewLoop creates a loop. It does not run until Start is called; tasks
// posted before that are queued.
func NewLoop() *Loop {
	l := &Loop{
		done: make(chan struct{}),
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Start launches the loop goroutine.
func (l *Loop) Start() {
	go l.run()
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.stopped {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			// Stopped and drained
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// Post queues fn to run on the loop goroutine. Safe to call from any
// goroutine, including from a task already running on the loop. Returns
// false if the loop has been stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return false
	}

	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Do runs fn on the loop goroutine and waits for it to finish. Must not be
// called from the loop goroutine itself. Returns false if the loop has
// been stopped.
func (l *Loop) Do(fn func()) bool {
	ran := make(chan struct{})
	if !l.Post(func() {
		fn()
		close(ran)
	}) {
		return false
	}
	<-ran
	return true
}

// Stop prevents new tasks, lets the queued ones drain, and waits for the
// loop goroutine to exit or the context to expire.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.stopped {
		l.stopped = true
		l.cond.Signal()
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
