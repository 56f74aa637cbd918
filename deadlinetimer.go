package notifier

import "time"

// Instant is a monotonic timestamp, as produced by [time.Now]. Go's
// time.Time already carries a monotonic reading alongside the wall clock
// one whenever it comes from time.Now, so no separate clock type is
// needed; comparisons use Time.Before/After, which — per the time package
// docs — prefer the monotonic reading when both operands have one.
type Instant = time.Time

// deadlineTimer is a single-shot platform primitive whose firing is
// observable as a readiness event on pollCore. Two implementations exist
// behind this interface: deadlinetimer_linux.go (timerfd) and
// deadlinetimer_other.go (parked worker goroutine), selected by build tag —
// one capability, two kernels' worth of plumbing underneath it.
type deadlineTimer interface {
	// arm sets the timer to fire at instant, overriding any previous
	// arming. Safe to call concurrently with elapsed and from any
	// goroutine.
	arm(instant Instant)

	// elapsed returns true at most once per fire, consuming the fired
	// flag; false if not yet fired.
	elapsed() bool

	// source returns the readiness source pollCore should register,
	// identical in kind to an fd: on Linux this is the timerfd; elsewhere
	// it is a synthetic trigger source backed by the same primitive
	// trigger.go uses for Triggerer/Triggeree.
	source() uintptr

	close()
}
