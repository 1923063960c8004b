package vonsim

import "github.com/vonsim/vonsim-core/cpu"

// State is the JSON-serializable machine snapshot returned by
// GetComputerState: registers, flags, memory, and device state, enough
// for a debugger UI to render without reaching into the Simulator's
// internals directly.
type State struct {
	Registers RegisterState `json:"registers"`
	Flags     FlagState     `json:"flags"`
	Memory    []byte        `json:"memory"`
	Devices   DeviceState   `json:"devices"`
	Halted    bool          `json:"halted"`
	Fault     string        `json:"fault,omitempty"`
}

type RegisterState struct {
	AX, BX, CX, DX, SP, IP uint16
}

type FlagState struct {
	CF, ZF, SF, OF, IF bool
}

type DeviceState struct {
	Switches byte   `json:"switches"`
	LEDs     byte   `json:"leds"`
	Screen   string `json:"screen"`
	Printer  string `json:"printer"`
	IMR      byte   `json:"imr"`
	IRR      byte   `json:"irr"`
	ISR      byte   `json:"isr"`
}

func newState(s *Simulator) State {
	mem := make([]byte, 0, 0x4000)
	for addr := 0; addr < 0x4000; addr++ {
		b, _ := s.Bus.ReadByteRaw(uint16(addr))
		mem = append(mem, b)
	}

	st := State{
		Registers: RegisterState{
			AX: s.CPU.Regs.AX.Unsigned(),
			BX: s.CPU.Regs.BX.Unsigned(),
			CX: s.CPU.Regs.CX.Unsigned(),
			DX: s.CPU.Regs.DX.Unsigned(),
			SP: s.CPU.Regs.SP.Unsigned(),
			IP: s.CPU.Regs.IP.Unsigned(),
		},
		Flags: FlagState{
			CF: s.CPU.Regs.Flag(cpu.FlagCF),
			ZF: s.CPU.Regs.Flag(cpu.FlagZF),
			SF: s.CPU.Regs.Flag(cpu.FlagSF),
			OF: s.CPU.Regs.Flag(cpu.FlagOF),
			IF: s.CPU.Regs.Flag(cpu.FlagIF),
		},
		Memory: mem,
		Devices: DeviceState{
			Switches: s.Switches.State(),
			LEDs:     s.LEDs.State(),
			Screen:   s.Screen.Text(),
			Printer:  s.Printer.Text(),
			IMR:      s.PIC.IMR,
			IRR:      s.PIC.IRR,
			ISR:      s.PIC.ISR,
		},
		Halted: s.CPU.Halted(),
	}
	if f := s.CPU.Fault(); f != nil {
		st.Fault = f.Error()
	}
	return st
}
