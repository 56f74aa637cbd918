// Package notifier provides a cross-platform, edge-triggered I/O
// readiness notifier augmented with high-resolution deadline timers.
//
// # Architecture
//
// [Notifier] composes four collaborators into a single blocking [Notifier.Wait]
// call that dispatches three kinds of events to a caller-supplied handler:
//
//   - readiness transitions on registered file descriptors, via [pollCore];
//   - elapsing of caller-scheduled monotonic instants, via an [indexedHeap]
//     of deadlines plus a [deadlineTimer];
//   - synthetic one-shot wake-ups injected from other goroutines, via
//     [Triggerer]/[Triggeree].
//
// The engineering core is interleaving the kernel's blocking readiness wait
// with a timer heap that may be mutated, from any goroutine, while that wait
// is blocked: arming an earlier deadline must shorten the wait, removing a
// deadline must not leave the waiter blocked past a stale wakeup, and
// deregistering a descriptor mid-wait must suppress any in-flight readiness
// event for it (see [stripSet]).
//
// # Platform support
//
//   - Linux: epoll for readiness, timerfd for deadlines, eventfd for triggers.
//   - Darwin: kqueue for readiness, a parked worker goroutine for
//     deadlines, a pipe for triggers.
//   - Windows: WSAPoll for readiness (not IOCP — see Non-goals), a parked
//     worker goroutine for deadlines, a loopback TCP socket pair for triggers.
//
// No other platform has a readiness backend; the package does not build on
// the BSDs.
//
// # Thread safety
//
// Exactly one goroutine — the waiter — calls [Notifier.Wait] at a time. Any
// number of producer goroutines may concurrently call the registration
// methods ([Notifier.Context] and the methods on [Context]). Only
// [Notifier.Wait] may block; every other method takes a short critical
// section and returns.
//
// # Non-goals
//
// Level-triggered semantics, Windows IOCP completion-based I/O, fairness
// guarantees across keys, and timer accuracy beyond what the OS clock and
// scheduler provide are all explicitly out of scope.
package notifier
