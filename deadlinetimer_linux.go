//go:build linux

package notifier

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// timerfdDeadlineTimer implements deadlineTimer using a Linux timerfd in
// non-blocking mode.
//
// Grounded on golang.org/x/sys/unix (the same dependency go-eventloop's
// poller_linux.go uses for epoll) plus the general
// register-a-readiness-source-with-epoll shape common across the pack's
// epoll-based pollers. go-eventloop itself has no timerfd: its loop.go
// instead re-arms a plain time.Timer per tick, which is sufficient there
// because the loop never needs a deadline armed strictly before another
// goroutine's kernel wait call blocks — here a deadline set concurrently
// with an in-flight Wait must still be observed by that Wait, hence a
// kernel-observable timer rather than a Go timer/channel.
//
// Arming is done in relative (not TFD_TIMER_ABSTIME) mode: the delta
// between instant and time.Now() is computed at arm time and handed to the
// kernel as a relative interval. The small skew between computing the
// delta and the kernel arming it is within the accuracy this timer
// promises — it targets "fires close to the requested instant", not
// clock-hardware precision.
type timerfdDeadlineTimer struct {
	fd int

	mu  sync.Mutex
	buf [8]byte
}

func newDeadlineTimer() deadlineTimer {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		fatal("deadlinetimer: timerfd_create", err)
	}
	return &timerfdDeadlineTimer{fd: fd}
}

func (t *timerfdDeadlineTimer) arm(instant Instant) {
	delta := time.Until(instant)
	if delta < 0 {
		delta = 0
	}
	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(delta.Nanoseconds()),
	}
	// A zero Value disarms the timer (no event ever fires), so floor it at
	// 1ns: the deadline has already passed and should fire essentially
	// immediately instead of never.
	if spec.Value.Sec == 0 && spec.Value.Nsec == 0 {
		spec.Value.Nsec = 1
	}
	if err := unix.TimerfdSettime(t.fd, 0, &spec, nil); err != nil {
		fatal("deadlinetimer: timerfd_settime", err)
	}
}

func (t *timerfdDeadlineTimer) elapsed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := unix.Read(t.fd, t.buf[:])
	if err != nil || n != 8 {
		return false
	}
	return true
}

func (t *timerfdDeadlineTimer) source() uintptr {
	return uintptr(t.fd)
}

func (t *timerfdDeadlineTimer) close() {
	_ = unix.Close(t.fd)
}
