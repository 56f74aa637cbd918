// Package notifier: the PollCore façade over the platform's readiness
// multiplexor.
//
// Platform-specific implementations live in pollcore_linux.go (epoll),
// pollcore_darwin.go (kqueue), and pollcore_windows.go (WSAPoll). All three
// implement the pollCore interface declared here, grounded on
// go-eventloop's poller_linux.go and poller_darwin.go, but reshaped from
// inline-callback dispatch to a batch-yielding poll(out, timeout) contract:
// Wait needs the whole batch in hand before it can apply the strip set.
package notifier

// Readiness is a bitmask of I/O readiness conditions, OR-combined.
type Readiness uint32

const (
	// Readable indicates the file descriptor is ready for reading.
	Readable Readiness = 1 << iota
	// Writable indicates the file descriptor is ready for writing.
	Writable
	// Hangup indicates the peer closed its end of the connection.
	Hangup
	// ErrorReadiness indicates an error condition on the file descriptor.
	ErrorReadiness
)

// pollEvent is one readiness notification returned by pollCore.poll.
type pollEvent struct {
	token     Token
	readiness Readiness
}

// pollCore wraps a kernel readiness multiplexor. register/deregister are
// assumed internally thread-safe against each other and against a
// concurrent poll. All failures are fatal — a pollCore implementation
// panics rather than returning an error for a condition that can only
// arise from programmer error.
type pollCore interface {
	// register adds edge-triggered interest in the given readiness mask for
	// source, identified by token on subsequent poll results.
	register(source uintptr, token Token, interest Readiness)

	// deregister removes interest previously registered for source.
	deregister(source uintptr)

	// poll fills out with up to len(out) readiness events. If timeoutMs is
	// negative, it blocks until at least one event is available; if 0, it
	// returns immediately (possibly with zero events). It returns the
	// number of events written into out.
	poll(out []pollEvent, timeoutMs int) int

	// registered returns the number of currently-registered sources,
	// including the DeadlineTimer's own reserved-token registration. Used
	// only for a best-effort teardown diagnostic (see Notifier.Close).
	registered() int

	// close releases the underlying kernel resource.
	close()
}
