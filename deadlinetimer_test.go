package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadlineTimer_FiresAfterArm(t *testing.T) {
	dt := newDeadlineTimer()
	defer dt.close()

	assert.False(t, dt.elapsed())

	dt.arm(time.Now().Add(20 * time.Millisecond))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if dt.elapsed() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timer never fired within 2s of a 20ms arm")
}

func TestDeadlineTimer_ElapsedConsumesOnce(t *testing.T) {
	dt := newDeadlineTimer()
	defer dt.close()

	dt.arm(time.Now())

	deadline := time.Now().Add(2 * time.Second)
	fired := false
	for time.Now().Before(deadline) {
		if dt.elapsed() {
			fired = true
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, fired)
	assert.False(t, dt.elapsed(), "a second elapsed() call must not report the same fire again")
}

func TestDeadlineTimer_RearmBeforeFireUsesLatestTarget(t *testing.T) {
	dt := newDeadlineTimer()
	defer dt.close()

	dt.arm(time.Now().Add(2 * time.Second))
	dt.arm(time.Now().Add(10 * time.Millisecond))

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if dt.elapsed() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("rearming to an earlier target did not take effect")
}

func TestDeadlineTimer_SourceIsStableAcrossArms(t *testing.T) {
	dt := newDeadlineTimer()
	defer dt.close()

	src := dt.source()
	dt.arm(time.Now().Add(time.Millisecond))
	assert.Equal(t, src, dt.source())
}
