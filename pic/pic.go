// Package pic implements VonSim's programmable interrupt controller: eight
// request lines, a mask register, an in-service register, and an explicit
// end-of-interrupt handshake, resolved through Update at every instruction
// boundary.
package pic

import "github.com/vonsim/vonsim-core/event"

const Lines = 8

const eoiValue = 0x20

// InterruptAllowed reports whether vector id may be dispatched by the PIC.
// IDs 0-7 are reserved for CPU-managed software interrupts (HLT,
// breakpoint, console read/write, and the four spare vectors VonSim's
// original toolchain reserves); the predicate is overridable so a future
// device profile can shrink or grow the reserved range.
type InterruptAllowed func(id byte) bool

// DefaultInterruptAllowed blocks the eight reserved IDs.
func DefaultInterruptAllowed(id byte) bool {
	return id >= 8
}

// PIC is the controller's register file. Vectors holds the INT0..INT7
// vector-ID register for each line (what ID Update returns when that line
// fires).
type PIC struct {
	IMR, IRR, ISR, EOI byte
	Vectors            [Lines]byte

	allowed InterruptAllowed
	events  chan<- event.Event
}

// New creates a PIC with every line masked and vector IDs defaulting to
// 8+line (the first eight non-reserved IDs).
func New(events chan<- event.Event) *PIC {
	p := &PIC{IMR: 0xFF, allowed: DefaultInterruptAllowed, events: events}
	for i := range p.Vectors {
		p.Vectors[i] = byte(8 + i)
	}
	return p
}

// SetInterruptAllowed overrides the reserved-ID predicate.
func (p *PIC) SetInterruptAllowed(f InterruptAllowed) {
	p.allowed = f
}

func (p *PIC) emit(ev event.Event) {
	if p.events != nil {
		p.events <- ev
	}
}

// Request sets bit n of IRR, as a device raising its interrupt line.
func (p *PIC) Request(n int) {
	p.IRR |= 1 << uint(n)
	p.emit(event.Event{Source: event.SourcePIC, Kind: event.KindInterruptRequested, InterruptID: byte(n)})
}

// Cancel clears bit n of IRR.
func (p *PIC) Cancel(n int) {
	p.IRR &^= 1 << uint(n)
	p.emit(event.Event{Source: event.SourcePIC, Kind: event.KindInterruptCancelled, InterruptID: byte(n)})
}

// ReservedInterruptError is returned by Update when the line selected for
// dispatch maps to a reserved vector ID.
type ReservedInterruptError struct {
	Line   int
	Vector byte
}

func (e *ReservedInterruptError) Error() string {
	return "pic: line maps to reserved interrupt vector"
}

// Update runs the five-step priority-resolution algorithm at one
// instruction boundary. ifFlag is the CPU's current interrupt-enable
// flag. It returns the vector ID to dispatch, or ok=false if nothing
// fires this boundary.
func (p *PIC) Update(ifFlag bool) (vector byte, ok bool, err error) {
	if p.ISR != 0 && p.EOI == eoiValue {
		p.ISR = 0
		p.EOI = 0
		p.emit(event.Event{Source: event.SourcePIC, Kind: event.KindEndOfInterrupt})
		return 0, false, nil
	}
	if p.ISR != 0 || !ifFlag {
		return 0, false, nil
	}

	line := -1
	for n := 0; n < Lines; n++ {
		bit := byte(1 << uint(n))
		if p.IRR&bit != 0 && p.IMR&bit == 0 {
			line = n
			break
		}
	}
	if line < 0 {
		return 0, false, nil
	}

	vec := p.Vectors[line]
	if !p.allowed(vec) {
		return 0, false, &ReservedInterruptError{Line: line, Vector: vec}
	}

	bit := byte(1 << uint(line))
	p.IRR &^= bit
	p.ISR |= bit
	p.EOI = 0
	p.emit(event.Event{Source: event.SourcePIC, Kind: event.KindInterruptDispatch, InterruptID: vec})
	return vec, true, nil
}

// WriteEOI handles a CPU write of 0x20 to the EOI port; the actual
// clear-on-match happens on the next Update call, matching the hardware's
// one-boundary latency.
func (p *PIC) WriteEOI(v byte) {
	p.EOI = v
}

// Port offsets within the 10h-17h range assigned to the PIC. Eight ports
// cannot address IMR/IRR/ISR/EOI plus eight per-line vector registers
// directly, so the two ports after EOI (14h, 15h) are an index/data pair:
// write the line number to PortVectorSelect, then read or write its vector
// through PortVectorData. Ports 16h and 17h are not wired.
const (
	PortIMR          = 0x10
	PortIRR          = 0x11
	PortISR          = 0x12
	PortEOI          = 0x13
	PortVectorSelect = 0x14
	PortVectorData   = 0x15
)

type portIndex struct {
	selected int
}

// Bus is the narrow interface PIC needs from the memory/IO bus, satisfied
// by *bus.Bus without importing it (bus already imports event, and pic
// must stay a leaf package the way the spec's component list lays out the
// dependency direction).
type Bus interface {
	RegisterPort(start, end byte, onRead func(byte) byte, onWrite func(byte, byte))
}

// RegisterPorts wires the PIC's registers into b at the fixed ports
// 10h-15h.
func (p *PIC) RegisterPorts(b Bus) {
	idx := &portIndex{}
	b.RegisterPort(PortIMR, PortIMR, func(byte) byte { return p.IMR }, func(_ byte, v byte) { p.IMR = v })
	b.RegisterPort(PortIRR, PortIRR, func(byte) byte { return p.IRR }, func(_ byte, v byte) { p.IRR = v })
	b.RegisterPort(PortISR, PortISR, func(byte) byte { return p.ISR }, func(_ byte, v byte) { p.ISR = v })
	b.RegisterPort(PortEOI, PortEOI, func(byte) byte { return p.EOI }, func(_ byte, v byte) { p.WriteEOI(v) })
	b.RegisterPort(PortVectorSelect, PortVectorSelect,
		func(byte) byte { return byte(idx.selected) },
		func(_ byte, v byte) { idx.selected = int(v) % Lines })
	b.RegisterPort(PortVectorData, PortVectorData,
		func(byte) byte { return p.Vectors[idx.selected] },
		func(_ byte, v byte) { p.Vectors[idx.selected] = v })
}
