//go:build linux

package notifier

import (
	"sync"

	"golang.org/x/sys/unix"
)

// eventfdSource implements edgeSource using a Linux eventfd, exactly the
// mechanism eventloop/wakeup_linux.go uses for the loop's own internal
// wakeups (createWakeFd / unix.Eventfd), re-scoped here from "one fixed
// wake source the Loop owns" to "caller-allocated, per-Key, one-shot".
type eventfdSource struct {
	fd int

	mu  sync.Mutex
	buf [8]byte
}

func newEdgeSource() edgeSource {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		fatal("edgesource: eventfd", err)
	}
	return &eventfdSource{fd: fd}
}

func (e *eventfdSource) fire() {
	var buf [8]byte
	buf[7] = 1
	for {
		_, err := unix.Write(e.fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		// EAGAIN means the counter is already saturated (2^64-2), which
		// only happens under pathological fire-without-drain misuse; it's
		// already readable, so there's nothing more to do.
		return
	}
}

func (e *eventfdSource) consume() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := unix.Read(e.fd, e.buf[:])
	return err == nil && n == 8
}

func (e *eventfdSource) source() uintptr {
	return uintptr(e.fd)
}

func (e *eventfdSource) close() {
	_ = unix.Close(e.fd)
}
