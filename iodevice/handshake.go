package iodevice

import (
	"github.com/vonsim/vonsim-core/event"
	"github.com/vonsim/vonsim-core/pic"
)

// Port assignments for the printer handshake, ports 40h-41h.
const (
	PortDATA  = 0x40
	PortSTATE = 0x41
)

// STATE register bits.
const (
	stateBusy      byte = 1 << 0
	stateIntEnable byte = 1 << 1
)

// HandshakeLine is the PIC request line raised when printing finishes and
// STATE.intEnable is set.
const HandshakeLine = 1

// Handshake is a strobe-based byte transfer to a printer: writing DATA
// while STATE.busy=0 latches the byte and sets busy; the consumer (the
// printer device) reports completion via Done.
type Handshake struct {
	data  byte
	state byte

	onByte func(b byte)
	events chan<- event.Event
	pic    *pic.PIC
}

func NewHandshake(p *pic.PIC, onByte func(byte), events chan<- event.Event) *Handshake {
	return &Handshake{onByte: onByte, events: events, pic: p}
}

func (h *Handshake) cpuWriteData(v byte) {
	if h.state&stateBusy != 0 {
		return // printer still processing the previous byte
	}
	h.data = v
	h.state |= stateBusy
	if h.events != nil {
		h.events <- event.Event{Source: event.SourceHandshake, Kind: event.KindHandshakeStrobe, Byte: v}
	}
	if h.onByte != nil {
		h.onByte(v)
	}
}

func (h *Handshake) cpuWriteState(v byte) {
	h.state = (h.state &^ stateIntEnable) | (v & stateIntEnable)
}

// Done clears busy once the printer has consumed the latched byte, raising
// the handshake's PIC line if interrupts are enabled for it.
func (h *Handshake) Done() {
	h.state &^= stateBusy
	if h.state&stateIntEnable != 0 {
		h.pic.Request(HandshakeLine)
	}
}

// RegisterPorts wires DATA/STATE into b at 40h-41h.
func (h *Handshake) RegisterPorts(b Bus) {
	b.RegisterPort(PortDATA, PortDATA, func(byte) byte { return h.data }, func(_ byte, v byte) { h.cpuWriteData(v) })
	b.RegisterPort(PortSTATE, PortSTATE, func(byte) byte { return h.state }, func(_ byte, v byte) { h.cpuWriteState(v) })
}
