package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeSource_FireThenConsume(t *testing.T) {
	e := newEdgeSource()
	defer e.close()

	assert.False(t, e.consume())
	e.fire()
	assert.True(t, e.consume())
	assert.False(t, e.consume(), "a second consume must not observe the same fire again")
}

func TestTrigger_CloseFiresExactlyOnce(t *testing.T) {
	n := newTestNotifier(t)

	tx, rx := n.Context(11).AddTrigger()
	defer rx.Close()

	require.NoError(t, tx.Close())
	require.NoError(t, tx.Close()) // idempotent, per the once-guarded scoped-release pattern

	var count int
	go func() {
		time.Sleep(50 * time.Millisecond)
		n.Context(999).Queue() // unblock Wait if the trigger alone didn't
	}()

	n.Wait(func(key int, r Readiness) {
		if key == 11 {
			count++
		}
	})
	assert.Equal(t, 1, count)
}

func TestTriggeree_CloseIsIdempotent(t *testing.T) {
	n := newTestNotifier(t)
	_, rx := n.Context(12).AddTrigger()
	require.NoError(t, rx.Close())
	require.NoError(t, rx.Close())
}
