package vonsim

import (
	"golang.org/x/sync/errgroup"

	"github.com/vonsim/vonsim-core/bus"
	"github.com/vonsim/vonsim-core/cpu"
	"github.com/vonsim/vonsim-core/device"
	"github.com/vonsim/vonsim-core/event"
	"github.com/vonsim/vonsim-core/iodevice"
	"github.com/vonsim/vonsim-core/link"
	"github.com/vonsim/vonsim-core/pic"
)

// SimulatorConfig bounds how many instructions a run is allowed before it
// is treated as runaway (0 disables the limit) and how deep the event
// channel buffers before StartCPU's goroutine blocks on a slow consumer.
// PIC line assignments for Timer/Handshake/F10 are fixed by the constants
// iodevice.TimerLine, iodevice.HandshakeLine and device.F10Line, not
// configurable per instance.
type SimulatorConfig struct {
	StepLimit      int
	EventBufferLen int
}

// DefaultSimulatorConfig returns the defaults used when a caller has no
// opinion: unlimited steps, a moderate event buffer.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		StepLimit:      0,
		EventBufferLen: 256,
	}
}

// Simulator wires a Bus, PIC, the three I/O devices, their host-facing
// device wrappers, and a CPU into one runnable machine.
type Simulator struct {
	cfg SimulatorConfig

	events chan event.Event

	Bus     *bus.Bus
	PIC     *pic.PIC
	PIO     *iodevice.PIO
	Timer   *iodevice.Timer
	Printer *device.Printer

	Switches *device.Switches
	LEDs     *device.LEDs
	Keyboard *device.Keyboard
	Screen   *device.Screen
	Clock    *device.Clock
	F10      *device.F10

	CPU *cpu.CPU

	resumer *Resumer
	group   *errgroup.Group
}

// NewSimulator builds an idle machine: every device registered on the
// bus, nothing loaded, CPU not started.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	events := make(chan event.Event, cfg.EventBufferLen)

	b := bus.New(events)
	p := pic.New(events)
	pio := iodevice.NewPIO(events)
	timer := iodevice.NewTimer(p, events)
	printer := device.NewPrinter(p, events)

	pio.RegisterPorts(b)
	timer.RegisterPorts(b)
	p.RegisterPorts(b)
	printer.Handshake().RegisterPorts(b)

	s := &Simulator{
		cfg:      cfg,
		events:   events,
		Bus:      b,
		PIC:      p,
		PIO:      pio,
		Timer:    timer,
		Printer:  printer,
		Switches: device.NewSwitches(pio),
		LEDs:     device.NewLEDs(pio),
		Keyboard: device.NewKeyboard(events),
		Screen:   device.NewScreen(events),
		Clock:    device.NewClock(timer),
		F10:      device.NewF10(p),
	}
	s.resumer = newResumer()
	s.CPU = cpu.New(b, p, &console{resumer: s.resumer, screen: s.Screen}, events)
	return s
}

// console adapts the Resumer's blocking INT 6 cooperation and the
// Screen's append-only buffer into the single cpu.Console interface the
// CPU core expects.
type console struct {
	resumer *Resumer
	screen  *device.Screen
}

func (c *console) ReadByte() byte   { return c.resumer.ReadByte() }
func (c *console) WriteByte(b byte) { c.screen.Write(b) }

// LoadProgram copies an assembled Program's code and data images into RAM.
// It does not write the interrupt vector table: the only IVT entries are
// those the program's own DB/DW data places at address ID*4.
func (s *Simulator) LoadProgram(prog *link.Program) {
	s.Bus.LoadImage(prog.CodeBytes, prog.DataBytes)
}

// Events returns the channel every CPU/bus/device event is published on.
// It must be drained concurrently with StartCPU's goroutine or the
// machine stalls once the buffer fills.
func (s *Simulator) Events() <-chan event.Event { return s.events }

// StartCPU launches the fetch-decode-execute loop on its own goroutine,
// supervised by an errgroup so a panic inside Step surfaces through
// Wait() instead of crashing the process silently. It returns the event
// stream and the Resumer INT 6 cooperates through.
func (s *Simulator) StartCPU() (<-chan event.Event, *Resumer) {
	s.group = &errgroup.Group{}
	s.group.Go(func() (err error) {
		defer close(s.events)
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r}
			}
		}()
		s.CPU.Run(s.cfg.StepLimit)
		return nil
	})
	return s.events, s.resumer
}

// Wait blocks until the CPU goroutine launched by StartCPU finishes,
// returning any panic it recovered.
func (s *Simulator) Wait() error {
	if s.group == nil {
		return nil
	}
	return s.group.Wait()
}

// PanicError wraps a recovered panic value from the CPU goroutine.
type PanicError struct{ Value any }

func (e *PanicError) Error() string { return "vonsim: cpu goroutine panicked" }

// GetComputerState returns a JSON-serializable snapshot of the whole
// machine: registers, flags, memory, and device state.
func (s *Simulator) GetComputerState() State {
	return newState(s)
}

// Resumer implements the consumer-paced INT 6 cooperation point: the CPU
// goroutine blocks in Console.ReadByte until Feed is called from outside,
// exactly the pattern a debugger UI or test harness drives a simulated
// keystroke through.
type Resumer struct {
	requests chan struct{} // buffered 1: set while a read is outstanding
	bytes    chan byte
}

func newResumer() *Resumer {
	return &Resumer{requests: make(chan struct{}, 1), bytes: make(chan byte)}
}

// ReadByte implements cpu.Console; it is called from the CPU goroutine
// and blocks until Feed supplies a byte.
func (r *Resumer) ReadByte() byte {
	r.requests <- struct{}{}
	return <-r.bytes
}

// Feed supplies the next byte for a pending INT 6 read. It blocks until
// the CPU goroutine is actually waiting on one.
func (r *Resumer) Feed(b byte) {
	r.bytes <- b
}

// Pending reports whether the CPU goroutine has started a read that waits
// for a Feed call, without blocking the caller. Each read is reported
// once: a true result consumes the signal, so later calls return false
// until the CPU starts another read.
func (r *Resumer) Pending() bool {
	select {
	case <-r.requests:
		return true
	default:
		return false
	}
}
