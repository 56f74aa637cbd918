//go:build darwin

package notifier

import (
	"sync"

	"golang.org/x/sys/unix"
)

// kqueuePollCore implements pollCore using kqueue (Darwin only; it is not
// built for the BSDs).
//
// Grounded on eventloop/poller_darwin.go's FastPoller: same
// Kqueue/Kevent shape and eventsToKevents/keventToEvents mask
// translation, with the same map-instead-of-array adjustment described in
// pollcore_linux.go.
type kqueuePollCore struct {
	kq int

	mu  sync.RWMutex
	reg map[uintptr]Token

	eventBuf []unix.Kevent_t
}

func newPollCore(batchSize int) pollCore {
	kq, err := unix.Kqueue()
	if err != nil {
		fatal("pollcore: kqueue", err)
	}
	unix.CloseOnExec(kq)
	return &kqueuePollCore{
		kq:       kq,
		reg:      make(map[uintptr]Token),
		eventBuf: make([]unix.Kevent_t, batchSize),
	}
}

func (p *kqueuePollCore) register(source uintptr, token Token, interest Readiness) {
	p.mu.Lock()
	if _, dup := p.reg[source]; dup {
		p.mu.Unlock()
		fatal("pollcore: fd already registered", nil)
	}
	p.reg[source] = token
	p.mu.Unlock()

	kevs := eventsToKevents(source, interest, unix.EV_ADD|unix.EV_ENABLE|unix.EV_CLEAR)
	if len(kevs) > 0 {
		if _, err := unix.Kevent(p.kq, kevs, nil, nil); err != nil {
			p.mu.Lock()
			delete(p.reg, source)
			p.mu.Unlock()
			fatal("pollcore: kevent add", err)
		}
	}
}

func (p *kqueuePollCore) deregister(source uintptr) {
	p.mu.Lock()
	interest, ok := p.reg[source]
	_ = interest
	if !ok {
		p.mu.Unlock()
		fatal("pollcore: fd not registered", nil)
	}
	delete(p.reg, source)
	p.mu.Unlock()

	kevs := eventsToKevents(source, Readable|Writable, unix.EV_DELETE)
	// Best-effort: deleting a filter that was never added returns ENOENT,
	// which is expected for the half we didn't register.
	_, _ = unix.Kevent(p.kq, kevs, nil, nil)
}

func (p *kqueuePollCore) poll(out []pollEvent, timeoutMs int) int {
	buf := p.eventBuf
	if len(out) < len(buf) {
		buf = buf[:len(out)]
	}

	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64((timeoutMs % 1000) * 1_000_000),
		}
	}

	n, err := unix.Kevent(p.kq, nil, buf, ts)
	if err != nil {
		if err == unix.EINTR {
			return 0
		}
		fatal("pollcore: kevent wait", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	count := 0
	for i := 0; i < n; i++ {
		source := uintptr(buf[i].Ident)
		token, ok := p.reg[source]
		if !ok {
			continue
		}
		out[count] = pollEvent{token: token, readiness: keventToEvents(&buf[i])}
		count++
	}
	return count
}

func (p *kqueuePollCore) registered() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.reg)
}

func (p *kqueuePollCore) close() {
	_ = unix.Close(p.kq)
}

func eventsToKevents(source uintptr, r Readiness, flags uint16) []unix.Kevent_t {
	var kevs []unix.Kevent_t
	if r&Readable != 0 {
		kevs = append(kevs, unix.Kevent_t{Ident: uint64(source), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if r&Writable != 0 {
		kevs = append(kevs, unix.Kevent_t{Ident: uint64(source), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return kevs
}

func keventToEvents(kev *unix.Kevent_t) Readiness {
	var r Readiness
	switch kev.Filter {
	case unix.EVFILT_READ:
		r |= Readable
	case unix.EVFILT_WRITE:
		r |= Writable
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		r |= ErrorReadiness
	}
	if kev.Flags&unix.EV_EOF != 0 {
		r |= Hangup
	}
	return r
}
