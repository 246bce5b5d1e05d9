package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manual clock for tests. Time only moves when Advance is called;
// due callbacks run synchronously on the advancing goroutine, in schedule
// order.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*fakeTimer
}

// NewFake returns a fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Schedule(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	t := &fakeTimer{
		clock: f,
		at:    f.now.Add(d),
		seq:   f.seq,
		fn:    fn,
	}
	f.pending = append(f.pending, t)
	return t
}

// Advance moves time forward by d and fires every timer that came due,
// earliest first. Callbacks may schedule new timers; those fire too if they
// fall inside the advanced window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		t := f.popDue(target)
		if t == nil {
			break
		}
		t.fn()
	}

	f.mu.Lock()
	f.now = target
	f.mu.Unlock()
}

// popDue removes and returns the earliest timer at or before target, moving
// the clock to its deadline, or returns nil when none is due.
func (f *Fake) popDue(target time.Time) *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()

	sort.SliceStable(f.pending, func(i, j int) bool {
		if f.pending[i].at.Equal(f.pending[j].at) {
			return f.pending[i].seq < f.pending[j].seq
		}
		return f.pending[i].at.Before(f.pending[j].at)
	})

	for i, t := range f.pending {
		if t.at.After(target) {
			break
		}
		f.pending = append(f.pending[:i], f.pending[i+1:]...)
		if f.now.Before(t.at) {
			f.now = t.at
		}
		t.fired = true
		return t
	}
	return nil
}

// PendingCount returns how many timers are armed, for assertions.
func (f *Fake) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

type fakeTimer struct {
	clock *Fake
	at    time.Time
	seq   int
	fn    func()
	fired bool
}

func (t *fakeTimer) Cancel() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.fired {
		return false
	}
	for i, p := range t.clock.pending {
		if p == t {
			t.clock.pending = append(t.clock.pending[:i], t.clock.pending[i+1:]...)
			return true
		}
	}
	return false
}
