//go:build !linux && !windows

package notifier

import (
	"sync"

	"golang.org/x/sys/unix"
)

// pipeSource implements edgeSource using a pipe, the same mechanism
// eventloop/wakeup_darwin.go uses for the loop's wake-up pipe on
// Darwin/BSD where eventfd is unavailable.
type pipeSource struct {
	readFD, writeFD int

	mu  sync.Mutex
	buf [1]byte
}

func newEdgeSource() edgeSource {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		fatal("edgesource: pipe2", err)
	}
	return &pipeSource{readFD: fds[0], writeFD: fds[1]}
}

func (p *pipeSource) fire() {
	for {
		_, err := unix.Write(p.writeFD, []byte{1})
		if err == unix.EINTR {
			continue
		}
		// EAGAIN means the pipe buffer already holds an unconsumed byte,
		// which is exactly the edge-triggered "already readable" state.
		return
	}
}

func (p *pipeSource) consume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	any := false
	for {
		n, err := unix.Read(p.readFD, p.buf[:])
		if err != nil || n <= 0 {
			break
		}
		any = true
	}
	return any
}

func (p *pipeSource) source() uintptr {
	return uintptr(p.readFD)
}

func (p *pipeSource) close() {
	_ = unix.Close(p.readFD)
	_ = unix.Close(p.writeFD)
}
