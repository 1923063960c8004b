// Package cpu implements the fetch-decode-execute engine: register file,
// ALU, addressing, stack, jumps, and the software/hardware interrupt
// dispatch sequences. Every instruction boundary emits event.Event values
// describing what happened, so a consumer can reconstruct the machine's
// state without re-running it.
package cpu

import (
	"github.com/vonsim/vonsim-core/numeric"
	"github.com/vonsim/vonsim-core/token"
)

// Flag bit positions within FLAGS. Only the low five bits are meaningful;
// the rest always read as zero.
const (
	FlagCF = 0
	FlagZF = 1
	FlagSF = 2
	FlagOF = 3
	FlagIF = 4
)

// Registers is the register file: six 16-bit general registers (one of
// which, IP, doubles as the instruction pointer), the instruction and
// memory-access shadow registers, and FLAGS.
type Registers struct {
	AX, BX, CX, DX, SP, IP numeric.Value
	IR                     numeric.Value // last fetched opcode byte
	MAR                    numeric.Value // memory address register
	MBR                    numeric.Value // memory buffer register
	FLAGS                  numeric.Value
}

// NewRegisters zeroes every register and sets SP to the top of RAM, as a
// freshly loaded program expects.
func NewRegisters(stackTop uint16) Registers {
	zero16, _ := numeric.FromUnsigned(numeric.Word, 0)
	zero8, _ := numeric.FromUnsigned(numeric.Byte, 0)
	sp, _ := numeric.FromUnsigned(numeric.Word, uint32(stackTop))
	return Registers{
		AX: zero16, BX: zero16, CX: zero16, DX: zero16,
		SP: sp, IP: zero16,
		IR: zero8, MAR: zero16, MBR: zero8,
		FLAGS: zero16,
	}
}

func mustWord(v uint32) numeric.Value {
	val, err := numeric.FromUnsigned(numeric.Word, v)
	if err != nil {
		panic(err)
	}
	return val
}

func mustByte(v uint32) numeric.Value {
	val, err := numeric.FromUnsigned(numeric.Byte, v)
	if err != nil {
		panic(err)
	}
	return val
}

// Word reads a 16-bit register by token kind.
func (r *Registers) Word(reg token.Kind) numeric.Value {
	switch reg {
	case token.RegAX:
		return r.AX
	case token.RegBX:
		return r.BX
	case token.RegCX:
		return r.CX
	case token.RegDX:
		return r.DX
	case token.RegSP:
		return r.SP
	case token.RegIP:
		return r.IP
	}
	panic("cpu: not a word register")
}

// SetWord writes a 16-bit register by token kind.
func (r *Registers) SetWord(reg token.Kind, v numeric.Value) {
	switch reg {
	case token.RegAX:
		r.AX = v
	case token.RegBX:
		r.BX = v
	case token.RegCX:
		r.CX = v
	case token.RegDX:
		r.DX = v
	case token.RegSP:
		r.SP = v
	case token.RegIP:
		r.IP = v
	default:
		panic("cpu: not a word register")
	}
}

// Byte reads an 8-bit register half by token kind.
func (r *Registers) Byte(reg token.Kind) numeric.Value {
	switch reg {
	case token.RegAL:
		return r.AX.Low()
	case token.RegAH:
		return r.AX.High()
	case token.RegBL:
		return r.BX.Low()
	case token.RegBH:
		return r.BX.High()
	case token.RegCL:
		return r.CX.Low()
	case token.RegCH:
		return r.CX.High()
	case token.RegDL:
		return r.DX.Low()
	case token.RegDH:
		return r.DX.High()
	}
	panic("cpu: not a byte register")
}

// SetByte writes an 8-bit register half, leaving its sibling half intact.
func (r *Registers) SetByte(reg token.Kind, v numeric.Value) {
	set := func(word numeric.Value, high bool) numeric.Value {
		lo, hi := word.Low().Unsigned(), word.High().Unsigned()
		if high {
			hi = v.Unsigned()
		} else {
			lo = v.Unsigned()
		}
		return mustWord(uint32(lo) | uint32(hi)<<8)
	}
	switch reg {
	case token.RegAL:
		r.AX = set(r.AX, false)
	case token.RegAH:
		r.AX = set(r.AX, true)
	case token.RegBL:
		r.BX = set(r.BX, false)
	case token.RegBH:
		r.BX = set(r.BX, true)
	case token.RegCL:
		r.CX = set(r.CX, false)
	case token.RegCH:
		r.CX = set(r.CX, true)
	case token.RegDL:
		r.DX = set(r.DX, false)
	case token.RegDH:
		r.DX = set(r.DX, true)
	default:
		panic("cpu: not a byte register")
	}
}

// Flag reads one FLAGS bit.
func (r *Registers) Flag(bit int) bool { return r.FLAGS.Bit(bit) }

// SetFlag writes one FLAGS bit.
func (r *Registers) SetFlag(bit int, v bool) {
	cur := r.FLAGS.Unsigned()
	if v {
		cur |= 1 << uint(bit)
	} else {
		cur &^= 1 << uint(bit)
	}
	r.FLAGS = mustWord(uint32(cur))
}
