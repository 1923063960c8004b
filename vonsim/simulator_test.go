package vonsim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vonsim/vonsim-core/link"
	"github.com/vonsim/vonsim-core/numeric"
)

func TestSimulatorRunsToHalt(t *testing.T) {
	// HLT is the first zeroary mnemonic, whose opcode is zeroaryBase (0xAF).
	prog := &link.Program{CodeBytes: map[uint16]byte{0: 0xAF}}

	sim := NewSimulator(DefaultSimulatorConfig())
	sim.LoadProgram(prog)

	events, _ := sim.StartCPU()
	for range events {
	}
	require.NoError(t, sim.Wait())

	state := sim.GetComputerState()
	assert.True(t, state.Halted)
	assert.Empty(t, state.Fault)
}

func TestSimulatorInt6BlocksOnResumer(t *testing.T) {
	// bytes: INT 6 (0x9A 0x06) then HLT (0xAF)
	prog := &link.Program{
		CodeBytes: map[uint16]byte{0: 0x9A, 1: 0x06, 2: 0xAF},
	}

	sim := NewSimulator(DefaultSimulatorConfig())
	sim.LoadProgram(prog)
	sim.CPU.Regs.BX = numeric.MustFromUnsigned(numeric.Word, 0x0100)

	events, resumer := sim.StartCPU()
	done := make(chan struct{})
	go func() {
		for range events {
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("run finished without blocking on the console read")
	case <-time.After(20 * time.Millisecond):
	}

	resumer.Feed(0x58) // 'X'
	<-done
	require.NoError(t, sim.Wait())

	b, _ := sim.Bus.ReadByteRaw(0x0100)
	assert.EqualValues(t, 0x58, b)
}
