//go:build windows

package notifier

import (
	"net"
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

// socketPairSource implements edgeSource on Windows using a loopback TCP
// socket pair, since there is no eventfd or anonymous-pipe-with-a-pollable-
// handle equivalent WSAPoll can register. Grounded on
// eventloop/wakeup_windows.go's acknowledgement that Windows needs its own
// primitive distinct from Unix's eventfd/pipe, but built around WSAPoll
// (see pollcore_windows.go) rather than IOCP's PostQueuedCompletionStatus,
// consistent with this package's Non-goal of not implementing IOCP
// completion-based I/O.
type socketPairSource struct {
	listener net.Listener
	writer   net.Conn
	reader   net.Conn
	readFD   windows.Handle

	mu  sync.Mutex
	buf [1]byte
}

func newEdgeSource() edgeSource {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		fatal("edgesource: listen", err)
	}
	defer ln.Close()

	writer, err := net.Dial("tcp4", ln.Addr().String())
	if err != nil {
		fatal("edgesource: dial", err)
	}

	reader, err := ln.Accept()
	if err != nil {
		fatal("edgesource: accept", err)
	}

	s := &socketPairSource{writer: writer, reader: reader}

	rawConn, err := reader.(*net.TCPConn).SyscallConn()
	if err != nil {
		fatal("edgesource: syscallconn", err)
	}
	if err := rawConn.Control(func(fd uintptr) {
		s.readFD = windows.Handle(fd)
	}); err != nil {
		fatal("edgesource: syscallconn control", err)
	}

	return s
}

func (s *socketPairSource) fire() {
	_, _ = s.writer.Write([]byte{1})
}

func (s *socketPairSource) consume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	any := false
	_ = s.reader.SetReadDeadline(time.Now().Add(-time.Second))
	for {
		n, err := s.reader.Read(s.buf[:])
		if n <= 0 || err != nil {
			break
		}
		any = true
	}
	_ = s.reader.SetReadDeadline(time.Time{})
	return any
}

func (s *socketPairSource) source() uintptr {
	return uintptr(s.readFD)
}

func (s *socketPairSource) close() {
	_ = s.writer.Close()
	_ = s.reader.Close()
}
