package cpu

import (
	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/bus"
	"github.com/vonsim/vonsim-core/event"
	"github.com/vonsim/vonsim-core/link"
	"github.com/vonsim/vonsim-core/numeric"
	"github.com/vonsim/vonsim-core/pic"
	"github.com/vonsim/vonsim-core/token"
	"github.com/vonsim/vonsim-core/vmerrors"
)

// Console is the narrow interface the CPU needs to service INT 6 (blocking
// read) and INT 7 (write). Its implementation owns the consumer-paced
// cooperation point: ReadByte blocks until something feeds a byte.
type Console interface {
	ReadByte() byte
	WriteByte(b byte)
}

// Fault is a recoverable runtime error that aborts the run, surfaced
// through the event stream rather than a bag like the compiler's errors.
type Fault struct {
	Code    vmerrors.Code
	Message string
}

func (f *Fault) Error() string { return string(f.Code) + ": " + f.Message }

// CPU is the fetch-decode-execute engine. One Step call advances exactly
// one instruction boundary (or one hardware interrupt dispatch) and
// reports whether the machine has stopped.
type CPU struct {
	Regs    Registers
	Bus     *bus.Bus
	PIC     *pic.PIC
	Console Console

	events chan<- event.Event
	halted bool
	fault  *Fault
}

// New builds a CPU with SP initialized to the top of RAM.
func New(b *bus.Bus, p *pic.PIC, console Console, events chan<- event.Event) *CPU {
	return &CPU{
		Regs:    NewRegisters(bus.MemorySize),
		Bus:     b,
		PIC:     p,
		Console: console,
		events:  events,
	}
}

func (c *CPU) emit(ev event.Event) {
	if c.events != nil {
		c.events <- ev
	}
}

// Halted reports whether the CPU has stopped (INT 0 or a fault).
func (c *CPU) Halted() bool { return c.halted }

// Fault reports the runtime error that stopped the CPU, if any.
func (c *CPU) Fault() *Fault { return c.fault }

func (c *CPU) raiseFault(code vmerrors.Code, msg string) {
	c.fault = &Fault{Code: code, Message: msg}
	c.halted = true
	c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindFatalError, Message: msg})
}

// --- memory access helpers, each a potential fault point ---

func (c *CPU) fetchByte(phase event.Phase) (byte, bool) {
	addr := c.Regs.IP.Unsigned()
	c.Regs.MAR = mustWord(uint32(addr))
	v, ok := c.Bus.ReadByte(addr)
	if !ok {
		c.raiseFault(vmerrors.CodeMemoryOutOfRange, "fetch past end of memory")
		return 0, false
	}
	c.Regs.MBR = mustByte(uint32(v))
	c.Regs.IP = mustWord(uint32(addr) + 1)
	c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindPhaseChange, Phase: phase})
	return v, true
}

func (c *CPU) fetchWord(phase event.Phase) (uint16, bool) {
	lo, ok := c.fetchByte(phase)
	if !ok {
		return 0, false
	}
	hi, ok := c.fetchByte(phase)
	if !ok {
		return 0, false
	}
	return uint16(lo) | uint16(hi)<<8, true
}

func (c *CPU) readMem(addr uint16, size ast.Size) (uint16, bool) {
	if size == ast.SizeWord {
		v, ok := c.Bus.ReadWord(addr)
		if !ok {
			c.raiseFault(vmerrors.CodeMemoryOutOfRange, "read past end of memory")
		}
		return v, ok
	}
	v, ok := c.Bus.ReadByte(addr)
	if !ok {
		c.raiseFault(vmerrors.CodeMemoryOutOfRange, "read past end of memory")
	}
	return uint16(v), ok
}

func (c *CPU) writeMem(addr uint16, size ast.Size, v uint16) bool {
	var ok bool
	if size == ast.SizeWord {
		ok = c.Bus.WriteWord(addr, v)
	} else {
		ok = c.Bus.WriteByte(addr, byte(v))
	}
	if !ok {
		c.raiseFault(vmerrors.CodeMemoryOutOfRange, "write past end of memory")
	}
	return ok
}

func valueOf(size ast.Size, v uint16) numeric.Value {
	if size == ast.SizeWord {
		return numeric.MustFromUnsigned(numeric.Word, uint32(v))
	}
	return numeric.MustFromUnsigned(numeric.Byte, uint32(v&0xFF))
}

func (c *CPU) push(v uint16) bool {
	sp := c.Regs.SP.Unsigned()
	if sp < 2 {
		c.raiseFault(vmerrors.CodeStackOverflow, "stack pointer wrapped below 0")
		return false
	}
	sp -= 2
	if !c.Bus.WriteWord(sp, v) {
		c.raiseFault(vmerrors.CodeMemoryOutOfRange, "stack write past end of memory")
		return false
	}
	c.Regs.SP = mustWord(uint32(sp))
	return true
}

func (c *CPU) pop() (uint16, bool) {
	sp := c.Regs.SP.Unsigned()
	if int(sp)+1 >= bus.MemorySize {
		c.raiseFault(vmerrors.CodeStackUnderflow, "stack pointer exceeds memory top")
		return 0, false
	}
	v, ok := c.Bus.ReadWord(sp)
	if !ok {
		c.raiseFault(vmerrors.CodeMemoryOutOfRange, "stack read past end of memory")
		return 0, false
	}
	c.Regs.SP = mustWord(uint32(sp) + 2)
	return v, true
}

// --- register read/write with size awareness ---

func (c *CPU) readReg(reg token.Kind, size ast.Size) numeric.Value {
	if size == ast.SizeWord {
		return c.Regs.Word(reg)
	}
	return c.Regs.Byte(reg)
}

func (c *CPU) writeReg(reg token.Kind, size ast.Size, v numeric.Value) {
	if size == ast.SizeWord {
		c.Regs.SetWord(reg, v)
	} else {
		c.Regs.SetByte(reg, v)
	}
}

func (c *CPU) applyFlags(r FlagResult) {
	c.Regs.SetFlag(FlagCF, r.CF)
	c.Regs.SetFlag(FlagZF, r.ZF)
	c.Regs.SetFlag(FlagSF, r.SF)
	c.Regs.SetFlag(FlagOF, r.OF)
}

// --- hardware interrupt dispatch, checked once per Step before fetch ---

func (c *CPU) checkHardwareInterrupt() bool {
	vec, ok, err := c.PIC.Update(c.Regs.Flag(FlagIF))
	if err != nil {
		c.raiseFault(vmerrors.CodeReservedInterrupt, err.Error())
		return true
	}
	if !ok {
		return false
	}
	c.dispatchInterrupt(vec)
	return true
}

func (c *CPU) dispatchInterrupt(vectorID byte) {
	if !c.push(c.Regs.FLAGS.Unsigned()) {
		return
	}
	c.Regs.SetFlag(FlagIF, false)
	if !c.push(c.Regs.IP.Unsigned()) {
		return
	}
	c.Regs.IP = mustWord(uint32(c.Bus.Vector(vectorID)))
	c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindInterruptDispatch, InterruptID: vectorID})
}

// Step advances the machine by one instruction, or by one hardware
// interrupt dispatch if one is pending and enabled. It returns true once
// the CPU has halted (INT 0 or a fault); further Step calls are no-ops.
func (c *CPU) Step() bool {
	if c.halted {
		return true
	}
	if c.checkHardwareInterrupt() {
		return c.halted
	}

	c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindCycleStart})

	b0, ok := c.fetchByte(event.PhaseFetching)
	if !ok {
		return true
	}
	c.Regs.IR = mustByte(uint32(b0))
	class := link.ClassifyOpcode(b0)

	switch class {
	case link.OpZeroary:
		c.execZeroary(b0)
	case link.OpStack:
		c.execStack(b0)
	case link.OpUnary:
		c.execUnary(b0)
	case link.OpBinary:
		c.execBinary(b0)
	case link.OpIO:
		c.execIO(b0)
	case link.OpJump:
		c.execJump(b0)
	case link.OpInt:
		c.execInt(b0)
	default:
		c.raiseFault(vmerrors.CodeInvalidIODevice, "undecodable opcode byte")
	}
	return c.halted
}

// Run steps the CPU until it halts or, when limit is positive, until limit
// steps have run, which guards against an accidental infinite loop in a
// program with no HLT. A breakpoint (INT 3) only emits an event and does
// not stop Run. It returns the number of steps taken.
func (c *CPU) Run(limit int) int {
	n := 0
	for !c.halted && (limit <= 0 || n < limit) {
		c.Step()
		n++
	}
	return n
}

// --- Zeroary ---

func (c *CPU) execZeroary(b0 byte) {
	m, ok := link.DecodeZeroary(b0)
	if !ok {
		c.raiseFault(vmerrors.CodeInvalidIODevice, "unknown zeroary opcode")
		return
	}
	c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindDecode, Mnemonic: m.String()})
	switch m {
	case token.HLT:
		c.halted = true
		c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindHalt})
	case token.NOP:
	case token.CLI:
		c.Regs.SetFlag(FlagIF, false)
	case token.STI:
		c.Regs.SetFlag(FlagIF, true)
	case token.PUSHF:
		c.push(c.Regs.FLAGS.Unsigned())
	case token.POPF:
		if v, ok := c.pop(); ok {
			c.Regs.FLAGS = mustWord(uint32(v))
		}
	case token.RET:
		if v, ok := c.pop(); ok {
			c.Regs.IP = mustWord(uint32(v))
		}
	case token.IRET:
		if ip, ok := c.pop(); ok {
			c.Regs.IP = mustWord(uint32(ip))
			if fl, ok := c.pop(); ok {
				c.Regs.FLAGS = mustWord(uint32(fl))
			}
		}
	}
}

// --- Stack ---

func (c *CPU) execStack(b0 byte) {
	op, regIdx, ok := link.DecodeStack(b0)
	if !ok {
		c.raiseFault(vmerrors.CodeInvalidIODevice, "unknown stack opcode")
		return
	}
	reg := link.RegisterByIndex(regIdx, ast.SizeWord)
	if op == link.StackOpPush {
		c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindDecode, Mnemonic: token.PUSH.String()})
		c.push(c.Regs.Word(reg).Unsigned())
		return
	}
	c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindDecode, Mnemonic: token.POP.String()})
	if v, ok := c.pop(); ok {
		c.Regs.SetWord(reg, mustWord(uint32(v)))
	}
}

// --- Unary (INC/DEC/NEG/NOT) ---

func (c *CPU) execUnary(b0 byte) {
	m, size, regIdx, mode, ok := link.DecodeUnary(b0)
	if !ok {
		c.raiseFault(vmerrors.CodeInvalidIODevice, "unknown unary opcode")
		return
	}
	c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindDecode, Mnemonic: m.String()})

	apply := func(v numeric.Value) numeric.Value {
		carry := c.Regs.Flag(FlagCF)
		var r FlagResult
		switch m {
		case token.INC:
			r = Inc(v, carry)
		case token.DEC:
			r = Dec(v, carry)
		case token.NEG:
			r = Neg(v)
		case token.NOT:
			r = Not(v)
		}
		c.applyFlags(r)
		return r.Result
	}

	switch mode {
	case "reg":
		reg := link.RegisterByIndex(regIdx, size)
		c.writeReg(reg, size, apply(c.readReg(reg, size)))
	case "indirect":
		addr := c.Regs.BX.Unsigned()
		v, ok := c.readMem(addr, size)
		if !ok {
			return
		}
		c.writeMem(addr, size, apply(valueOf(size, v)).Unsigned())
	case "direct":
		addr, ok := c.fetchWord(event.PhaseFetchingOperands)
		if !ok {
			return
		}
		v, ok := c.readMem(addr, size)
		if !ok {
			return
		}
		c.writeMem(addr, size, apply(valueOf(size, v)).Unsigned())
	}
}

// --- Binary (MOV/ADD/ADC/SUB/SBB/CMP/AND/OR/XOR) ---

func aluApply(group token.Kind, dst, src numeric.Value, carry bool) (numeric.Value, FlagResult, bool) {
	switch group {
	case token.MOV:
		return src, FlagResult{}, false
	case token.ADD:
		r := Add(dst, src, false)
		return r.Result, r, true
	case token.ADC:
		r := Add(dst, src, carry)
		return r.Result, r, true
	case token.SUB:
		r := Sub(dst, src, false)
		return r.Result, r, true
	case token.SBB:
		r := Sub(dst, src, carry)
		return r.Result, r, true
	case token.CMP:
		r := Sub(dst, src, false)
		return dst, r, true // result discarded, flags kept
	case token.AND:
		r := And(dst, src)
		return r.Result, r, true
	case token.OR:
		r := Or(dst, src)
		return r.Result, r, true
	case token.XOR:
		r := Xor(dst, src)
		return r.Result, r, true
	}
	return dst, FlagResult{}, false
}

func (c *CPU) execBinary(b0 byte) {
	group := b0 >> 4
	size := link.BitToSize((b0 >> 3) & 1)
	mode := (b0 >> 1) & 3
	dir := b0 & 1

	m, ok := link.MnemonicForBinaryGroup(group)
	if !ok {
		c.raiseFault(vmerrors.CodeInvalidIODevice, "unknown binary opcode group")
		return
	}
	c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindDecode, Mnemonic: m.String()})

	writeback := func(dstIsReg bool, reg token.Kind, addr uint16, result numeric.Value, flags FlagResult, setFlags bool) {
		if setFlags {
			c.applyFlags(flags)
		}
		if m == token.CMP {
			return
		}
		if dstIsReg {
			c.writeReg(reg, size, result)
		} else {
			c.writeMem(addr, size, result.Unsigned())
		}
	}

	switch mode {
	case link.BinModeRegReg:
		b1, ok := c.fetchByte(event.PhaseFetchingOperands)
		if !ok {
			return
		}
		dstIdx, srcIdx := b1>>4, b1&0xF
		dstReg, srcReg := link.RegisterByIndex(dstIdx, size), link.RegisterByIndex(srcIdx, size)
		result, flags, setFlags := aluApply(m, c.readReg(dstReg, size), c.readReg(srcReg, size), c.Regs.Flag(FlagCF))
		writeback(true, dstReg, 0, result, flags, setFlags)

	case link.BinModeRegMem:
		b1, ok := c.fetchByte(event.PhaseFetchingOperands)
		if !ok {
			return
		}
		regIdx := b1 & 0x7
		reg := link.RegisterByIndex(regIdx, size)
		var addr uint16
		if b1&0x8 != 0 {
			addr, ok = c.fetchWord(event.PhaseFetchingOperands)
			if !ok {
				return
			}
		} else {
			addr = c.Regs.BX.Unsigned()
		}
		memVal, ok := c.readMem(addr, size)
		if !ok {
			return
		}
		if dir == 0 { // register is destination: reg <- mem
			result, flags, setFlags := aluApply(m, c.readReg(reg, size), valueOf(size, memVal), c.Regs.Flag(FlagCF))
			writeback(true, reg, 0, result, flags, setFlags)
		} else { // memory is destination: mem <- reg
			result, flags, setFlags := aluApply(m, valueOf(size, memVal), c.readReg(reg, size), c.Regs.Flag(FlagCF))
			writeback(false, 0, addr, result, flags, setFlags)
		}

	case link.BinModeRegImm:
		b1, ok := c.fetchByte(event.PhaseFetchingOperands)
		if !ok {
			return
		}
		reg := link.RegisterByIndex(b1, size)
		imm, ok := c.fetchImmediate(size)
		if !ok {
			return
		}
		result, flags, setFlags := aluApply(m, c.readReg(reg, size), valueOf(size, imm), c.Regs.Flag(FlagCF))
		writeback(true, reg, 0, result, flags, setFlags)

	case link.BinModeMemImm:
		b1, ok := c.fetchByte(event.PhaseFetchingOperands)
		if !ok {
			return
		}
		var addr uint16
		if b1&0x8 != 0 {
			addr, ok = c.fetchWord(event.PhaseFetchingOperands)
			if !ok {
				return
			}
		} else {
			addr = c.Regs.BX.Unsigned()
		}
		imm, ok := c.fetchImmediate(size)
		if !ok {
			return
		}
		memVal, ok := c.readMem(addr, size)
		if !ok {
			return
		}
		result, flags, setFlags := aluApply(m, valueOf(size, memVal), valueOf(size, imm), c.Regs.Flag(FlagCF))
		writeback(false, 0, addr, result, flags, setFlags)
	}
}

func (c *CPU) fetchImmediate(size ast.Size) (uint16, bool) {
	if size == ast.SizeWord {
		return c.fetchWord(event.PhaseFetchingOperands)
	}
	v, ok := c.fetchByte(event.PhaseFetchingOperands)
	return uint16(v), ok
}

// --- IO ---

func (c *CPU) execIO(b0 byte) {
	dir, accBit, portKind, ok := link.DecodeIO(b0)
	if !ok {
		c.raiseFault(vmerrors.CodeInvalidIODevice, "unknown IO opcode")
		return
	}
	size := link.BitToSize(accBit)
	mnemonic := token.IN
	if dir == link.IODirOut {
		mnemonic = token.OUT
	}
	c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindDecode, Mnemonic: mnemonic.String()})

	var port byte
	if portKind == link.IOPortImm {
		b, ok := c.fetchByte(event.PhaseFetchingOperands)
		if !ok {
			return
		}
		port = b
	} else {
		port = byte(c.Regs.DX.Low().Unsigned())
	}

	if mnemonic == token.IN {
		lo := c.Bus.In(port)
		if size == ast.SizeByte {
			c.writeReg(token.RegAL, ast.SizeByte, valueOf(ast.SizeByte, uint16(lo)))
			return
		}
		hi := c.Bus.In(port + 1)
		c.writeReg(token.RegAX, ast.SizeWord, valueOf(ast.SizeWord, uint16(lo)|uint16(hi)<<8))
		return
	}

	if size == ast.SizeByte {
		c.Bus.Out(port, byte(c.Regs.AX.Low().Unsigned()))
		return
	}
	ax := c.Regs.AX.Unsigned()
	c.Bus.Out(port, byte(ax))
	c.Bus.Out(port+1, byte(ax>>8))
}

// --- Jump ---

func (c *CPU) execJump(b0 byte) {
	m, ok := link.DecodeJump(b0)
	if !ok {
		c.raiseFault(vmerrors.CodeInvalidIODevice, "unknown jump opcode")
		return
	}
	c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindDecode, Mnemonic: m.String()})

	target, ok := c.fetchWord(event.PhaseFetchingOperands)
	if !ok {
		return
	}

	taken := false
	switch m {
	case token.JMP, token.CALL:
		taken = true
	case token.JC:
		taken = c.Regs.Flag(FlagCF)
	case token.JNC:
		taken = !c.Regs.Flag(FlagCF)
	case token.JZ:
		taken = c.Regs.Flag(FlagZF)
	case token.JNZ:
		taken = !c.Regs.Flag(FlagZF)
	case token.JS:
		taken = c.Regs.Flag(FlagSF)
	case token.JNS:
		taken = !c.Regs.Flag(FlagSF)
	case token.JO:
		taken = c.Regs.Flag(FlagOF)
	case token.JNO:
		taken = !c.Regs.Flag(FlagOF)
	}
	if !taken {
		return
	}
	if m == token.CALL {
		if !c.push(c.Regs.IP.Unsigned()) {
			return
		}
	}
	c.Regs.IP = mustWord(uint32(target))
}

// --- Software interrupts ---

func (c *CPU) execInt(b0 byte) {
	n, ok := c.fetchByte(event.PhaseFetchingOperands)
	if !ok {
		return
	}
	c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindDecode, Mnemonic: token.INT.String()})

	switch n {
	case 0:
		c.halted = true
		c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindHalt})
	case 3:
		c.emit(event.Event{Source: event.SourceCPU, Kind: event.KindBreakpoint})
	case 6:
		c.runAtomic(func() {
			c.emit(event.Event{Source: event.SourceConsole, Kind: event.KindConsoleReadRequest})
			b := c.Console.ReadByte()
			c.writeMem(c.Regs.BX.Unsigned(), ast.SizeByte, uint16(b))
		})
	case 7:
		c.runAtomic(func() {
			count := c.Regs.AX.Low().Unsigned()
			addr := c.Regs.BX.Unsigned()
			for i := uint16(0); i < uint16(count); i++ {
				v, ok := c.readMem(addr+i, ast.SizeByte)
				if !ok {
					return
				}
				c.Console.WriteByte(byte(v))
			}
		})
	default:
		c.dispatchInterrupt(n)
	}
}

// runAtomic wraps INT 6/INT 7's body with the save/disable/restore FLAGS
// sequence the spec calls atomic: nothing else observes IF toggled off.
func (c *CPU) runAtomic(body func()) {
	saved := c.Regs.FLAGS
	c.Regs.SetFlag(FlagIF, false)
	body()
	c.Regs.FLAGS = saved
}
