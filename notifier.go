package notifier

import (
	"sync"
	"sync/atomic"
	"time"
)

// Handler is invoked by [Notifier.Wait] for every readiness or deadline
// event it dispatches. Deadline events carry a zero Readiness; readiness
// events carry a nonzero mask.
type Handler[K any] func(key K, readiness Readiness)

type deadlineItem[K any] struct {
	instant Instant
	key     K
}

// Context is a lightweight, non-owning binding of (Notifier, Key) returned
// by [Notifier.Context]. It exists only so that a caller juggling several
// keys doesn't have to repeat the key argument on every call; it holds no
// resources of its own and must not be retained past the Notifier's
// lifetime — it is a borrowed reference, not an owning one.
type Context[K any] struct {
	n   *Notifier[K]
	key K
}

// AddFD registers source under the bound key for the union of
// readable|writable|hang-up|error, edge-triggered. Re-registering an
// already-registered (source, key) is fatal.
func (c Context[K]) AddFD(source uintptr) {
	c.n.addFD(c.key, source)
}

// RemoveFD deregisters source. If a wait is in progress, the key is
// stripped, suppressing any in-flight readiness event already queued for
// it.
func (c Context[K]) RemoveFD(source uintptr) {
	c.n.removeFD(c.key, source)
}

// AddInstant schedules the bound key to be delivered as a deadline event no
// earlier than instant.
func (c Context[K]) AddInstant(instant Instant) Slot {
	return c.n.addInstant(c.key, instant)
}

// RemoveInstant unschedules slot. Tolerates a stale slot (already popped by
// a concurrent Wait) as a no-op rather than treating it as a programmer
// error — the caller racing a deadline's own delivery against a cancel is
// a normal, expected sequence, not a bug.
func (c Context[K]) RemoveInstant(slot Slot) {
	c.n.removeInstant(slot)
}

// AddTrigger allocates a userspace one-shot readiness source registered
// under the bound key. Closing the returned Triggerer delivers exactly one
// edge-triggered event for the key; closing the Triggeree deregisters it.
func (c Context[K]) AddTrigger() (*Triggerer, *Triggeree) {
	return c.n.addTrigger(c.key)
}

// Queue is shorthand for AddInstant(time.Now()): the bound key is delivered
// as a deadline event on the next Wait iteration without Wait blocking for
// it, since the deadline is already in the past. Like AddInstant, it arms
// the DeadlineTimer, here for an instant that has already passed.
func (c Context[K]) Queue() Slot {
	return c.n.addInstant(c.key, time.Now())
}

// Notifier composes an [indexedHeap] of deadlines, a [deadlineTimer], a
// [pollCore], and a [stripSet] behind a single blocking [Notifier.Wait]
// call, dispatching readiness and deadline events to a caller-supplied
// [Handler] — see the package doc for the overall architecture.
type Notifier[K any] struct {
	codec   KeyCodec[K]
	logger  Logger
	metrics metrics

	poll  pollCore
	timer deadlineTimer

	heapMu sync.Mutex
	heap   *indexedHeap[deadlineItem[K]]

	deadlineMu   sync.Mutex
	nextDeadline Instant
	hasDeadline  bool

	strip stripSet

	triggerMu sync.Mutex
	triggers  map[Token]edgeSource

	waiting atomic.Bool
	closed  atomic.Bool

	pollBuf []pollEvent
}

// New constructs a Notifier bound to the given [KeyCodec]. codec.ToToken
// must never map a live Key to the reserved token; doing so is a fatal
// programmer error, detected the first time that Key is registered.
func New[K any](codec KeyCodec[K], opts ...Option) (*Notifier[K], error) {
	cfg := resolveOptions(opts)

	n := &Notifier[K]{
		codec:    codec,
		logger:   cfg.logger,
		poll:     newPollCore(cfg.pollBatchSize),
		timer:    newDeadlineTimer(),
		heap:     newIndexedHeap(func(a, b deadlineItem[K]) bool { return a.instant.Before(b.instant) }),
		triggers: make(map[Token]edgeSource),
		pollBuf:  make([]pollEvent, cfg.pollBatchSize),
	}
	// I4: the reserved token is registered exactly once, for the Notifier's
	// lifetime.
	n.poll.register(n.timer.source(), reservedToken, Readable)

	n.logger.Debug().Log("notifier: created")
	return n, nil
}

// Context returns a borrowed [Context] bound to key. It is cheap to call
// repeatedly and need not be retained.
func (n *Notifier[K]) Context(key K) Context[K] {
	return Context[K]{n: n, key: key}
}

func (n *Notifier[K]) tokenFor(key K) Token {
	token := n.codec.ToToken(key)
	if token == reservedToken {
		fatal("key maps to reserved token", nil)
	}
	return token
}

func (n *Notifier[K]) addFD(key K, source uintptr) {
	token := n.tokenFor(key)
	n.poll.register(source, token, Readable|Writable|Hangup|ErrorReadiness)
	n.strip.unstrip(token)
}

func (n *Notifier[K]) removeFD(key K, source uintptr) {
	token := n.tokenFor(key)
	n.poll.deregister(source)
	n.strip.strip(token)
}

func (n *Notifier[K]) addInstant(key K, instant Instant) Slot {
	n.heapMu.Lock()
	slot := n.heap.Push(deadlineItem[K]{instant: instant, key: key})
	n.heapMu.Unlock()
	n.updateTimeout(instant)
	return slot
}

func (n *Notifier[K]) removeInstant(slot Slot) {
	n.heapMu.Lock()
	_, _ = n.heap.Remove(slot)
	n.heapMu.Unlock()
}

func (n *Notifier[K]) addTrigger(key K) (*Triggerer, *Triggeree) {
	token := n.tokenFor(key)
	edge := newEdgeSource()
	n.poll.register(edge.source(), token, Readable)

	n.triggerMu.Lock()
	n.triggers[token] = edge
	n.triggerMu.Unlock()

	return &Triggerer{edge: edge, m: &n.metrics}, &Triggeree{n: n, token: token, edge: edge}
}

// forgetTrigger removes token's edge source from the trigger registry,
// called once the Triggeree deregisters it.
func (n *Notifier[K]) forgetTrigger(token Token) {
	n.triggerMu.Lock()
	delete(n.triggers, token)
	n.triggerMu.Unlock()
}

// removeTrigger deregisters a trigger's edge source from pollCore, strips
// its token the same way removeFD does, and forgets it. A trigger's edge
// source is registered under a token exactly like an fd, so closing the
// Triggeree side while a wait is in flight needs the same suppression:
// without stripping, a handle already woken with the event copied into its
// batch would still dispatch it after the Triggeree closed out from under
// it.
func (n *Notifier[K]) removeTrigger(token Token, source uintptr) {
	n.poll.deregister(source)
	n.strip.strip(token)
	n.forgetTrigger(token)
}

// consumeTriggerIfAny drains the edge source backing token, if token
// identifies a still-registered trigger. This is a no-op on platforms whose
// pollCore is genuinely edge-triggered (Linux epoll, Darwin kqueue) but
// required on Windows, where WSAPoll is level-triggered and would otherwise
// re-report the same fired-but-undrained trigger on every subsequent poll.
func (n *Notifier[K]) consumeTriggerIfAny(token Token) {
	n.triggerMu.Lock()
	edge, ok := n.triggers[token]
	n.triggerMu.Unlock()
	if ok {
		edge.consume()
	}
}

// updateTimeout only ever revises the armed deadline earlier, never later.
// A too-early arm is always safe (wait simply wakes, re-drains, and
// re-arms to the true minimum); a too-late arm would be a liveness bug.
func (n *Notifier[K]) updateTimeout(instant Instant) {
	n.deadlineMu.Lock()
	defer n.deadlineMu.Unlock()
	if n.hasDeadline && !instant.Before(n.nextDeadline) {
		return
	}
	n.nextDeadline = instant
	n.hasDeadline = true
	n.timer.arm(instant)
}

// clearDeadline marks no deadline as currently armed, so the next
// add_instant unconditionally re-arms rather than comparing against a
// stale value.
func (n *Notifier[K]) clearDeadline() {
	n.deadlineMu.Lock()
	n.hasDeadline = false
	n.deadlineMu.Unlock()
}

// drainElapsed pops and dispatches every deadline whose instant has
// already passed, reporting whether any were delivered. Wait calls this
// both before blocking and again after, so a deadline that elapsed while
// dispatch was underway still goes out before Wait returns.
func (n *Notifier[K]) drainElapsed(handle Handler[K]) bool {
	now := time.Now()
	any := false
	for {
		n.heapMu.Lock()
		top := n.heap.Peek()
		if top == nil || top.instant.After(now) {
			n.heapMu.Unlock()
			break
		}
		item, _ := n.heap.Pop()
		n.heapMu.Unlock()

		any = true
		n.metrics.deadlinesFired.Add(1)
		handle(item.key, 0)
	}
	return any
}

// Wait blocks until at least one readiness or deadline event is available
// (unless the pre-drain below already found one), then dispatches every
// available event to handle. Exactly one goroutine may call Wait at a
// time; a concurrent call is a fatal programmer error.
func (n *Notifier[K]) Wait(handle Handler[K]) {
	if !n.waiting.CompareAndSwap(false, true) {
		fatal("wait: concurrent Wait call", nil)
	}
	defer n.waiting.Store(false)

	for {
		// Step 1: pre-drain.
		doneAny := n.drainElapsed(handle)

		// Step 2: arm.
		n.heapMu.Lock()
		top := n.heap.Peek()
		var nextInstant Instant
		hasNext := top != nil
		if hasNext {
			nextInstant = top.instant
		}
		n.heapMu.Unlock()
		if hasNext {
			n.updateTimeout(nextInstant)
		}

		// Step 3: block.
		n.strip.install()
		timeoutMs := -1
		if doneAny {
			timeoutMs = 0
		}
		count := n.poll.poll(n.pollBuf, timeoutMs)
		n.metrics.waitIterations.Add(1)

		// Step 4: reap timer.
		for i := 0; i < count; i++ {
			if n.pollBuf[i].token == reservedToken {
				if n.timer.elapsed() {
					n.clearDeadline()
				}
				break
			}
		}

		// Step 5: dispatch readiness.
		for i := 0; i < count; i++ {
			ev := n.pollBuf[i]
			if ev.token == reservedToken {
				continue
			}
			if n.strip.stripped(ev.token) {
				n.metrics.strippedEvents.Add(1)
				continue
			}
			n.consumeTriggerIfAny(ev.token)
			n.metrics.readinessEvents.Add(1)
			handle(n.codec.FromToken(ev.token), ev.readiness)
		}
		n.strip.uninstall()

		// Step 6: iterate if saturated.
		if count == len(n.pollBuf) {
			continue
		}

		// Step 7: post-drain.
		n.drainElapsed(handle)
		return
	}
}

// Metrics returns a snapshot of this Notifier's lifetime counters.
func (n *Notifier[K]) Metrics() Metrics {
	return n.metrics.snapshot()
}

// Close tears down the Notifier: deregisters the DeadlineTimer and
// releases its underlying resource. The caller must already have released
// every registered fd and Triggeree; Close does not attempt to do so on
// their behalf.
func (n *Notifier[K]) Close() error {
	if !n.closed.CompareAndSwap(false, true) {
		return nil
	}
	if leftover := n.poll.registered() - 1; leftover > 0 {
		n.logger.Warning().Int64("leftover", int64(leftover)).Log("notifier: closing with fds or triggers still registered")
	}
	n.poll.deregister(n.timer.source())
	n.timer.close()
	n.poll.close()
	n.logger.Debug().Log("notifier: closed")
	return nil
}
