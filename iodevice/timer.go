package iodevice

import (
	"github.com/vonsim/vonsim-core/event"
	"github.com/vonsim/vonsim-core/pic"
)

// Port assignments for the timer, ports 20h-23h. Only CONT and COMP are
// meaningful; the remaining two ports in the range are reserved.
const (
	PortCONT = 0x20
	PortCOMP = 0x21
)

// TimerLine is the PIC request line raised on a CONT==COMP tick.
const TimerLine = 0

// Timer counts clock ticks modulo 256 and raises its PIC line whenever the
// count reaches the configured comparator value.
type Timer struct {
	CONT, COMP byte

	pic    *pic.PIC
	events chan<- event.Event
}

func NewTimer(p *pic.PIC, events chan<- event.Event) *Timer {
	return &Timer{pic: p, events: events}
}

// Tick advances CONT by one, wrapping mod 256, in response to an external
// clock.tick poke.
func (t *Timer) Tick() {
	t.CONT++
	if t.events != nil {
		t.events <- event.Event{Source: event.SourceTimer, Kind: event.KindTimerTick, Value: uint16(t.CONT)}
	}
	if t.CONT == t.COMP {
		t.pic.Request(TimerLine)
	}
}

// RegisterPorts wires CONT/COMP into b at 20h-21h.
func (t *Timer) RegisterPorts(b Bus) {
	b.RegisterPort(PortCONT, PortCONT, func(byte) byte { return t.CONT }, func(_ byte, v byte) { t.CONT = v })
	b.RegisterPort(PortCOMP, PortCOMP, func(byte) byte { return t.COMP }, func(_ byte, v byte) { t.COMP = v })
}
