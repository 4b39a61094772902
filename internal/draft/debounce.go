package draft

import (
	"sync"
	"time"
)

// debouncer runs the last function handed to Call once no further calls have
// arrived for window. Each Adapter owns its own debouncer, so sessions never
// share timing state.
//
// run is held for the whole execution of a call, so Cancel returning means no
// call is running and none will start.
type debouncer struct {
	mu      sync.Mutex
	run     sync.Mutex
	window  time.Duration
	timer   *time.Timer
	pending func()
	gen     uint64
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window}
}

// Call schedules fn, superseding any pending call. A window <= 0 runs fn now.
func (d *debouncer) Call(fn func()) {
	if d.window <= 0 {
		d.Cancel()
		d.run.Lock()
		defer d.run.Unlock()
		fn()
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = fn
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *debouncer) fire(gen uint64) {
	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()
	fn()
}

// Flush runs the pending call immediately, if any.
func (d *debouncer) Flush() {
	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	fn := d.pending
	d.stopLocked()
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Cancel drops the pending call without running it and waits for a call that
// is already running to finish.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	d.stopLocked()
	d.mu.Unlock()

	// Wait out an in-flight call.
	d.run.Lock()
	d.run.Unlock()
}

// Pending reports whether a call is waiting for the window to elapse.
func (d *debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *debouncer) stopLocked() {
	d.pending = nil
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
