package clock

import "time"

// Clock abstracts time for the ad managers so interval checks and load
// timeouts stay testable without sleeping.
type Clock interface {
	Now() time.Time

	// Schedule runs fn on its own goroutine after d. Callers that need
	// serialization must post fn onto their own loop themselves.
	Schedule(d time.Duration, fn func()) Timer
}

// Timer is a pending scheduled callback. Cancel reports whether it prevented
// the run; a false return means the callback already fired or was cancelled.
type Timer interface {
	Cancel() bool
}

// System is the wall-clock implementation.
type System struct{}

// NewSystem returns the wall-clock Clock.
func NewSystem() *System {
	return &System{}
}

func (*System) Now() time.Time {
	return time.Now()
}

func (*System) Schedule(d time.Duration, fn func()) Timer {
	return systemTimer{t: time.AfterFunc(d, fn)}
}

type systemTimer struct {
	t *time.Timer
}

func (st systemTimer) Cancel() bool {
	return st.t.Stop()
}
