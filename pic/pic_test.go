package pic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateDispatchesHighestPriorityUnmaskedLine(t *testing.T) {
	p := New(nil)
	p.IMR = 0xFF &^ (1 << 2) &^ (1 << 5) // unmask lines 2 and 5
	p.Request(5)
	p.Request(2)

	vec, ok, err := p.Update(true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.Vectors[2], vec)
	assert.NotZero(t, p.ISR&(1<<2))
}

func TestUpdateRespectsInterruptFlag(t *testing.T) {
	p := New(nil)
	p.IMR = 0
	p.Request(0)
	_, ok, err := p.Update(false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateBlocksWhileInService(t *testing.T) {
	p := New(nil)
	p.IMR = 0
	p.Request(1)
	_, ok, _ := p.Update(true)
	require.True(t, ok)

	p.Request(2)
	_, ok, _ = p.Update(true)
	assert.False(t, ok, "a second line must not dispatch while line 1 is in service")
}

func TestEOIClearsISROnNextUpdate(t *testing.T) {
	p := New(nil)
	p.IMR = 0
	p.Request(3)
	p.Update(true)
	require.NotZero(t, p.ISR)

	p.WriteEOI(0x20)
	_, ok, err := p.Update(true)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, p.ISR)
}

func TestReservedVectorIsRejected(t *testing.T) {
	p := New(nil)
	p.IMR = 0
	p.Vectors[0] = 3 // force a reserved ID onto a live line
	p.Request(0)

	_, ok, err := p.Update(true)
	assert.False(t, ok)
	require.Error(t, err)
	var rerr *ReservedInterruptError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, byte(3), rerr.Vector)
}

type portCallbacks struct {
	onRead  func(byte) byte
	onWrite func(byte, byte)
}

type fakeBus struct {
	ports map[byte]portCallbacks
}

func newFakeBus() *fakeBus { return &fakeBus{ports: map[byte]portCallbacks{}} }

func (f *fakeBus) RegisterPort(start, end byte, onRead func(byte) byte, onWrite func(byte, byte)) {
	f.ports[start] = portCallbacks{onRead: onRead, onWrite: onWrite}
}

func TestVectorSelectDataPortPair(t *testing.T) {
	p := New(nil)
	fb := newFakeBus()
	p.RegisterPorts(fb)

	fb.ports[PortVectorSelect].onWrite(PortVectorSelect, 4)
	assert.EqualValues(t, 4, fb.ports[PortVectorSelect].onRead(PortVectorSelect))

	fb.ports[PortVectorData].onWrite(PortVectorData, 0x2A)
	assert.Equal(t, byte(0x2A), p.Vectors[4])
	assert.Equal(t, byte(0x2A), fb.ports[PortVectorData].onRead(PortVectorData))
}
