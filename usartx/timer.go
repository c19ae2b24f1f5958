package usartx

import "time"

// Timer measures the time budget of a blocking transfer. Elapsed must be
// monotonically non-decreasing between Start and Stop.
type Timer interface {
	Start()
	Stop()
	Elapsed() time.Duration
}

// ClockTimer is a Timer backed by the runtime clock.
type ClockTimer struct {
	start   time.Time
	stopped time.Duration
	running bool
}

func (t *ClockTimer) Start() {
	t.start = time.Now()
	t.stopped = 0
	t.running = true
}

func (t *ClockTimer) Stop() {
	if t.running {
		t.stopped = time.Since(t.start)
		t.running = false
	}
}

// Elapsed returns the time since Start, frozen once Stop is called.
func (t *ClockTimer) Elapsed() time.Duration {
	if !t.running {
		return t.stopped
	}
	return time.Since(t.start)
}
