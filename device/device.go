// Package device implements the external-world pokes a host UI uses to
// drive a running simulation: switches, LEDs, a keyboard, a screen, a
// printer, a clock, and the F10 key. None of these carry their own clock;
// each reacts synchronously to a poke from outside and, where relevant,
// to bytes arriving over the PIO or the printer handshake.
package device

import (
	"strings"

	"github.com/vonsim/vonsim-core/event"
	"github.com/vonsim/vonsim-core/iodevice"
	"github.com/vonsim/vonsim-core/pic"
)

// Switches is a bank of up to 8 toggles wired to PIO port A's
// input-configured bits.
type Switches struct {
	pio   *iodevice.PIO
	state byte
}

func NewSwitches(p *iodevice.PIO) *Switches { return &Switches{pio: p} }

// Toggle flips switch i (0-7) and pushes the new state onto the PIO.
func (s *Switches) Toggle(i int) {
	s.state ^= 1 << uint(i)
	s.pio.WriteExternalA(s.state)
}

// State reports the current toggle positions.
func (s *Switches) State() byte { return s.state }

// LEDs reads back the CPU-driven output bits of PIO port B.
type LEDs struct {
	pio *iodevice.PIO
}

func NewLEDs(p *iodevice.PIO) *LEDs { return &LEDs{pio: p} }

// State returns which LEDs are currently lit.
func (l *LEDs) State() byte { return l.pio.ReadOutputB() }

// Keyboard latches the most recently typed character for INT 6 and the
// printer handshake to consume.
type Keyboard struct {
	lastChar byte
	events   chan<- event.Event
}

func NewKeyboard(events chan<- event.Event) *Keyboard { return &Keyboard{events: events} }

// Feed latches b as the last character read, as if the user pressed a key.
func (k *Keyboard) Feed(b byte) {
	k.lastChar = b
	if k.events != nil {
		k.events <- event.Event{Source: event.SourceConsole, Kind: event.KindConsoleReadByte, Byte: b}
	}
}

// LastChar returns the most recently latched character.
func (k *Keyboard) LastChar() byte { return k.lastChar }

// Screen is an append-only UTF-8 character buffer driven by INT 7 and by
// bytes arriving from the printer.
type Screen struct {
	buf    strings.Builder
	events chan<- event.Event
}

func NewScreen(events chan<- event.Event) *Screen { return &Screen{events: events} }

// Write appends b to the screen buffer.
func (s *Screen) Write(b byte) {
	s.buf.WriteByte(b)
	if s.events != nil {
		s.events <- event.Event{Source: event.SourceConsole, Kind: event.KindConsoleWrite, Byte: b}
	}
}

// Text returns everything written to the screen so far.
func (s *Screen) Text() string { return s.buf.String() }

// Clear empties the screen buffer.
func (s *Screen) Clear() { s.buf.Reset() }

// Printer consumes bytes latched through the handshake and appends them to
// its own buffer, then reports completion back to the handshake.
type Printer struct {
	buf strings.Builder
	hs  *iodevice.Handshake
}

// NewPrinter builds a Printer and its backing Handshake device, wired so
// every strobed byte lands in the printer's buffer and immediately
// completes (no simulated print latency).
func NewPrinter(p *pic.PIC, events chan<- event.Event) *Printer {
	pr := &Printer{}
	pr.hs = iodevice.NewHandshake(p, pr.onByte, events)
	return pr
}

func (pr *Printer) onByte(b byte) {
	pr.buf.WriteByte(b)
	pr.hs.Done()
}

// Handshake exposes the backing handshake device for bus registration.
func (pr *Printer) Handshake() *iodevice.Handshake { return pr.hs }

// Text returns everything printed so far.
func (pr *Printer) Text() string { return pr.buf.String() }

// Clear empties the printer's buffer.
func (pr *Printer) Clear() { pr.buf.Reset() }

// Clock drives the Timer from an external clock.tick poke.
type Clock struct {
	timer *iodevice.Timer
}

func NewClock(t *iodevice.Timer) *Clock { return &Clock{timer: t} }

// Tick advances the timer by one count.
func (c *Clock) Tick() { c.timer.Tick() }

// F10Line is the PIC request line raised by the F10 key, distinct from the
// timer and handshake lines.
const F10Line = 2

// F10 is a single poke-only key wired directly to its own PIC line.
type F10 struct {
	pic *pic.PIC
}

func NewF10(p *pic.PIC) *F10 { return &F10{pic: p} }

// Press raises the F10 line; the PIC keeps it pending until serviced.
func (f *F10) Press() { f.pic.Request(F10Line) }
