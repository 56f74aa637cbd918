//go:build !linux

package notifier

import (
	"sync"
	"time"
)

// workerDeadlineTimer implements deadlineTimer on platforms without a
// kernel-level timerfd equivalent (Darwin via kqueue, Windows via
// WSAPoll): a helper goroutine parks a time.Timer and signals firing
// through the same edge-triggered source AddTrigger uses.
//
// Grounded on go-eventloop's loop.go re-arm-a-time.Timer-per-tick pattern,
// adapted so the Timer lives on a dedicated goroutine that signals firing
// through an edgeSource rather than a channel select inside the loop's main
// body — pollCore only knows how to wait on registrable sources, so the
// firing must become one.
type workerDeadlineTimer struct {
	edge edgeSource

	mu      sync.Mutex
	timer   *time.Timer
	armGen  uint64
	closed  bool
	closeCh chan struct{}
}

func newDeadlineTimer() deadlineTimer {
	t := &workerDeadlineTimer{
		edge:    newEdgeSource(),
		closeCh: make(chan struct{}),
	}
	return t
}

func (t *workerDeadlineTimer) arm(instant Instant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.armGen++
	gen := t.armGen
	delta := time.Until(instant)
	if delta < 0 {
		delta = 0
	}
	t.timer = time.AfterFunc(delta, func() {
		t.mu.Lock()
		fire := gen == t.armGen && !t.closed
		t.mu.Unlock()
		if fire {
			t.edge.fire()
		}
	})
}

func (t *workerDeadlineTimer) elapsed() bool {
	return t.edge.consume()
}

func (t *workerDeadlineTimer) source() uintptr {
	return t.edge.source()
}

func (t *workerDeadlineTimer) close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()
	close(t.closeCh)
	t.edge.close()
}
