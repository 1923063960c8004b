package device

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vonsim/vonsim-core/iodevice"
	"github.com/vonsim/vonsim-core/pic"
)

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

func TestPrinterAppendsAndCompletesImmediately(t *testing.T) {
	p := pic.New(nil)
	pr := NewPrinter(p, nil)
	fb := newFakeBus()
	pr.Handshake().RegisterPorts(fb)

	writeData := fb.ports[iodevice.PortDATA].onWrite
	writeData(iodevice.PortDATA, 'h')
	writeData(iodevice.PortDATA, 'i')

	assert.Equal(t, "hi", pr.Text())
}

func TestScreenAppendsBytes(t *testing.T) {
	s := NewScreen(nil)
	s.Write('h')
	s.Write('i')
	assert.Equal(t, "hi", s.Text())
	s.Clear()
	assert.Equal(t, "", s.Text())
}

func TestSwitchesToggleLatchesIntoPIO(t *testing.T) {
	pio := iodevice.NewPIO(nil)
	sw := NewSwitches(pio)
	sw.Toggle(0)
	sw.Toggle(2)
	assert.EqualValues(t, 0b101, sw.State())
	assert.EqualValues(t, 0b101, pio.PA) // CA is all-input by default, so PA mirrors WriteExternalA
}

func TestLEDsReadBackPIOOutputBits(t *testing.T) {
	pio := iodevice.NewPIO(nil)
	pio.CB = 0xFF // all of PB is CPU-driven output
	pio.PB = 0b0011
	leds := NewLEDs(pio)
	assert.EqualValues(t, 0b0011, leds.State())
}

func TestF10PressRaisesItsOwnLine(t *testing.T) {
	p := pic.New(nil)
	p.IMR = 0
	f10 := NewF10(p)
	f10.Press()
	assert.NotZero(t, p.IRR&(1<<F10Line))
}
