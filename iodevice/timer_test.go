package iodevice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vonsim/vonsim-core/pic"
)

func TestTimerRequestsLineOnMatch(t *testing.T) {
	p := pic.New(nil)
	p.IMR = 0
	tm := NewTimer(p, nil)
	tm.COMP = 3

	tm.Tick()
	tm.Tick()
	assert.Zero(t, p.IRR)

	tm.Tick()
	assert.NotZero(t, p.IRR&(1<<TimerLine))
}

func TestTimerWrapsModulo256(t *testing.T) {
	p := pic.New(nil)
	tm := NewTimer(p, nil)
	tm.COMP = 0
	tm.CONT = 255
	tm.Tick()
	require.EqualValues(t, 0, tm.CONT)
}
