package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripSet_NoOpWhenNotInstalled(t *testing.T) {
	var s stripSet
	s.strip(1)
	assert.False(t, s.stripped(1))
}

func TestStripSet_StripAndQuery(t *testing.T) {
	var s stripSet
	s.install()
	s.strip(42)
	assert.True(t, s.stripped(42))
	assert.False(t, s.stripped(7))
}

func TestStripSet_UnstripUndoesPending(t *testing.T) {
	var s stripSet
	s.install()
	s.strip(1)
	s.unstrip(1)
	assert.False(t, s.stripped(1))
}

func TestStripSet_ResetsOnReinstall(t *testing.T) {
	var s stripSet
	s.install()
	s.strip(1)
	s.uninstall()
	s.install()
	assert.False(t, s.stripped(1), "a fresh install must start empty")
}

func TestStripSet_DoubleStripIsFatal(t *testing.T) {
	var s stripSet
	s.install()
	s.strip(1)
	assert.Panics(t, func() { s.strip(1) })
}

func TestStripSet_UninstallThenStripIsNoOp(t *testing.T) {
	var s stripSet
	s.install()
	s.uninstall()
	assert.NotPanics(t, func() { s.strip(1) })
	assert.False(t, s.stripped(1))
}
