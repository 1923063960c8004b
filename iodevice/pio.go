// Package iodevice implements the three fixed peripherals wired to the I/O
// bus: the parallel I/O chip, the timer, and the printer handshake.
package iodevice

import "github.com/vonsim/vonsim-core/event"

// Bus is the narrow registration interface every device in this package
// needs.
type Bus interface {
	RegisterPort(start, end byte, onRead func(byte) byte, onWrite func(byte, byte))
}

// Port assignments for the PIO, ports 30h-33h.
const (
	PortPA = 0x30
	PortPB = 0x31
	PortCA = 0x32
	PortCB = 0x33
)

// PIO is the parallel I/O chip: two bidirectional 8-bit ports, each with a
// direction register. A CA/CB bit of 1 means the corresponding PA/PB bit
// is CPU-driven output; 0 means it is externally driven input.
type PIO struct {
	PA, PB byte
	CA, CB byte

	events chan<- event.Event
}

func NewPIO(events chan<- event.Event) *PIO {
	return &PIO{events: events}
}

func (p *PIO) emit(ev event.Event) {
	if p.events != nil {
		p.events <- ev
	}
}

// WriteExternalA latches an input-configured bit of PA from an external
// device (e.g. a switch). Output-configured bits are left untouched.
func (p *PIO) WriteExternalA(value byte) {
	p.PA = (p.PA &^ p.CA) | (value &^ p.CA)
}

// WriteExternalB is WriteExternalA for port B.
func (p *PIO) WriteExternalB(value byte) {
	p.PB = (p.PB &^ p.CB) | (value &^ p.CB)
}

// ReadOutputA returns the bits of PA currently driven as CPU output (e.g.
// for a bank of LEDs to read back).
func (p *PIO) ReadOutputA() byte { return p.PA & p.CA }

// ReadOutputB is ReadOutputA for port B.
func (p *PIO) ReadOutputB() byte { return p.PB & p.CB }

func (p *PIO) cpuWriteA(v byte) {
	p.PA = (p.PA &^ p.CA) | (v & p.CA)
	p.emit(event.Event{Source: event.SourcePIO, Kind: event.KindBusSelect, Address: PortPA, Value: uint16(p.PA)})
}

func (p *PIO) cpuWriteB(v byte) {
	p.PB = (p.PB &^ p.CB) | (v & p.CB)
	p.emit(event.Event{Source: event.SourcePIO, Kind: event.KindBusSelect, Address: PortPB, Value: uint16(p.PB)})
}

// RegisterPorts wires PA/PB/CA/CB into b at 30h-33h.
func (p *PIO) RegisterPorts(b Bus) {
	b.RegisterPort(PortPA, PortPA, func(byte) byte { return p.PA }, func(_ byte, v byte) { p.cpuWriteA(v) })
	b.RegisterPort(PortPB, PortPB, func(byte) byte { return p.PB }, func(_ byte, v byte) { p.cpuWriteB(v) })
	b.RegisterPort(PortCA, PortCA, func(byte) byte { return p.CA }, func(_ byte, v byte) { p.CA = v })
	b.RegisterPort(PortCB, PortCB, func(byte) byte { return p.CB }, func(_ byte, v byte) { p.CB = v })
}
