package notifier

import "sync"

// edgeSource is the userspace one-shot readiness primitive shared by
// AddTrigger and, on non-Linux platforms, the worker-goroutine
// DeadlineTimer fallback: both register a handle with pollCore and rely on
// it being observable as Readable exactly once per fire, just like a real
// descriptor. Three platform implementations: edgesource_linux.go
// (eventfd), edgesource_unix.go (pipe, non-Linux Unix), edgesource_windows.go
// (loopback TCP socket pair) — grounded on go-eventloop's wakeup_linux.go,
// wakeup_darwin.go, and wakeup_windows.go respectively.
type edgeSource interface {
	// fire makes the source observable as Readable exactly once (until the
	// next fire), per the edge-triggered contract.
	fire()

	// consume drains the source and reports whether it had fired since the
	// last consume.
	consume() bool

	// source returns the registration handle pollCore registers against.
	source() uintptr

	close()
}

// Triggerer is the write side of a trigger allocated by
// [Notifier.Context.AddTrigger]: closing it fires exactly one
// edge-triggered readable event for the bound Key, delivered on the next
// Wait.
type Triggerer struct {
	once sync.Once
	edge edgeSource
	m    *metrics
}

// Close fires the trigger. Safe to call from any goroutine; safe to call
// more than once (only the first call has any effect) — equivalent to
// dropping the write side in a one-shot-wakeup design, expressed in Go as
// an explicit Close rather than a destructor.
func (t *Triggerer) Close() error {
	t.once.Do(func() {
		t.edge.fire()
		if t.m != nil {
			t.m.triggerFires.Add(1)
		}
	})
	return nil
}

// Triggeree is the read side of a trigger: it owns the registration in
// pollCore. Close deregisters it.
type Triggeree struct {
	n     triggerRemover
	token Token
	edge  edgeSource
	once  sync.Once
}

// triggerRemover is the one Notifier[K] capability Triggeree needs,
// extracted as an interface so Triggeree itself need not be generic over K.
type triggerRemover interface {
	removeTrigger(token Token, source uintptr)
}

// Close deregisters the trigger and, if a wait is currently in flight,
// strips its token so an event already copied into the in-progress poll
// batch isn't dispatched after the Triggeree has gone away — the same
// synchronous-remove guarantee RemoveFD gives an fd. The caller must not
// use the bound Key for further trigger events after this returns. Safe to
// call more than once.
func (t *Triggeree) Close() error {
	t.once.Do(func() {
		t.n.removeTrigger(t.token, t.edge.source())
		t.edge.close()
	})
	return nil
}
