package notifier

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func intCodec() KeyCodec[int] {
	return KeyCodec[int]{
		ToToken:   func(k int) Token { return Token(k) },
		FromToken: func(tok Token) int { return int(tok) },
	}
}

func newTestNotifier(t *testing.T) *Notifier[int] {
	t.Helper()
	n, err := New(intCodec())
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n
}

// collected event, as delivered to a Handler.
type gotEvent struct {
	key       int
	readiness Readiness
}

func TestNotifier_SingleDeadline(t *testing.T) {
	n := newTestNotifier(t)

	t0 := time.Now()
	n.Context(1).AddInstant(t0.Add(10 * time.Millisecond))

	var events []gotEvent
	n.Wait(func(key int, r Readiness) {
		events = append(events, gotEvent{key, r})
	})

	require.Len(t, events, 1)
	require.Equal(t, 1, events[0].key)
	require.Zero(t, events[0].readiness)
	require.GreaterOrEqual(t, time.Since(t0), 9*time.Millisecond)
}

func TestNotifier_CrossThreadEarlierArm(t *testing.T) {
	n := newTestNotifier(t)

	n.Context(1).AddInstant(time.Now().Add(10 * time.Second))

	start := make(chan struct{})
	go func() {
		<-start
		time.Sleep(5 * time.Millisecond)
		n.Context(2).AddInstant(time.Now())
	}()

	var events []gotEvent
	done := make(chan struct{})
	go func() {
		close(start)
		n.Wait(func(key int, r Readiness) {
			events = append(events, gotEvent{key, r})
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Wait did not return within 10s; the earlier arm did not preempt the blocking wait")
	}

	require.NotEmpty(t, events)
	require.Equal(t, 2, events[0].key)
}

func TestNotifier_StripDuringWait(t *testing.T) {
	n := newTestNotifier(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	n.Context(3).AddFD(r.Fd())

	// A deadline far enough out that, absent the readiness event, Wait would
	// otherwise block on it.
	n.Context(99).AddInstant(time.Now().Add(2 * time.Second))

	var mu sync.Mutex
	var events []gotEvent
	done := make(chan struct{})
	go func() {
		n.Wait(func(key int, rdy Readiness) {
			mu.Lock()
			events = append(events, gotEvent{key, rdy})
			mu.Unlock()
		})
		close(done)
	}()

	// Give Wait a moment to enter its blocking poll, then race the write
	// against the remove.
	time.Sleep(20 * time.Millisecond)
	_, _ = w.Write([]byte{1})
	n.Context(3).RemoveFD(r.Fd())

	<-done

	mu.Lock()
	defer mu.Unlock()
	for _, e := range events {
		require.NotEqual(t, 3, e.key, "handler must not observe the stripped key")
	}
}

func TestNotifier_Trigger(t *testing.T) {
	n := newTestNotifier(t)

	tx, rx := n.Context(7).AddTrigger()
	defer rx.Close()

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = tx.Close()
	}()

	var events []gotEvent
	n.Wait(func(key int, r Readiness) {
		events = append(events, gotEvent{key, r})
	})

	require.Len(t, events, 1)
	require.Equal(t, 7, events[0].key)
	require.NotZero(t, events[0].readiness&Readable)
}

func TestNotifier_QueueSemantics(t *testing.T) {
	n := newTestNotifier(t)

	n.Context(9).Queue()

	start := time.Now()
	var events []gotEvent
	n.Wait(func(key int, r Readiness) {
		events = append(events, gotEvent{key, r})
	})

	require.Less(t, time.Since(start), 200*time.Millisecond, "queue must not block")
	require.Len(t, events, 1)
	require.Equal(t, 9, events[0].key)
}

func TestNotifier_SlotRemoval(t *testing.T) {
	n := newTestNotifier(t)

	slot := n.Context(4).AddInstant(time.Now().Add(1 * time.Second))
	n.Context(4).RemoveInstant(slot)

	// Unrelated trigger so Wait has something to return on quickly instead
	// of blocking for the full 2s the scenario describes.
	tx, rx := n.Context(50).AddTrigger()
	defer rx.Close()
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = tx.Close()
	}()

	var events []gotEvent
	n.Wait(func(key int, r Readiness) {
		events = append(events, gotEvent{key, r})
	})

	for _, e := range events {
		require.NotEqual(t, 4, e.key)
	}
}

func TestNotifier_ReservedTokenIsFatal(t *testing.T) {
	codec := KeyCodec[int]{
		ToToken:   func(k int) Token { return reservedToken },
		FromToken: func(Token) int { return 0 },
	}
	n, err := New(codec)
	require.NoError(t, err)
	defer n.Close()

	require.Panics(t, func() {
		n.Context(1).AddInstant(time.Now())
		r, w, _ := os.Pipe()
		defer r.Close()
		defer w.Close()
		n.Context(1).AddFD(r.Fd())
	})
}

func TestNotifier_ConcurrentWaitIsFatal(t *testing.T) {
	n := newTestNotifier(t)

	_, rx := n.Context(1).AddTrigger()
	defer rx.Close()

	ready := make(chan struct{})
	go func() {
		close(ready)
		n.Wait(func(int, Readiness) {})
	}()
	<-ready
	time.Sleep(10 * time.Millisecond)

	require.Panics(t, func() {
		n.Wait(func(int, Readiness) {})
	})
}
