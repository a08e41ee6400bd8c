package p2p

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rotkonetworks/peerset/peermgr"
)

// clockAdapter implements peermgr.Clock and peermgr.Scheduler over
// benbjohnson/clock, the fake-clock library the test suite uses in
// place of this adapter to drive TTL expiry deterministically.
type clockAdapter struct {
	c clock.Clock
}

// NewClockAdapter wraps c as the Clock and Scheduler capabilities.
// Production wiring passes clock.New().
func NewClockAdapter(c clock.Clock) *clockAdapter {
	return &clockAdapter{c: c}
}

func (a *clockAdapter) Now() time.Time {
	return a.c.Now()
}

func (a *clockAdapter) Schedule(delay time.Duration, cb func()) peermgr.SchedulerHandle {
	timer := a.c.AfterFunc(delay, cb)
	return &timerHandle{timer: timer}
}

type timerHandle struct {
	timer *clock.Timer
}

func (h *timerHandle) Cancel() {
	h.timer.Stop()
}
