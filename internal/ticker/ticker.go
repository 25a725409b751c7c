// Package ticker provides the scheduling primitive used by peer
// sessions to stagger set-reconciliation initiation: a Ticker
// interface with a Ticks channel and a Stop method.
package ticker

import "time"

// Ticker produces delivery ticks on a channel and can be cancelled.
type Ticker interface {
	Ticks() <-chan time.Time
	Stop()
}

// oneShot delivers a single tick after a fixed delay, used for the
// reconciliation-initiation stagger: the peer with the greater
// identity hash schedules one attempt after a short delay.
type oneShot struct {
	timer *time.Timer
}

// NewOneShot returns a Ticker that fires exactly once, after d.
func NewOneShot(d time.Duration) Ticker {
	return &oneShot{timer: time.NewTimer(d)}
}

func (t *oneShot) Ticks() <-chan time.Time {
	return t.timer.C
}

// Stop cancels the pending tick, if it has not already fired.
func (t *oneShot) Stop() {
	t.timer.Stop()
}
