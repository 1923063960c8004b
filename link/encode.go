package link

import (
	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/token"
	"github.com/vonsim/vonsim-core/validate"
	"github.com/vonsim/vonsim-core/vmerrors"
)

// EncodeInstruction turns one validated, placed instruction into its final
// bytes, following the byte layouts fixed in encoding.go. Expression and
// label-reference operands are evaluated here, against the resolver built
// from pass 1's label table and the EQU constant table.
func EncodeInstruction(pl PlacedInstruction, resolve resolver, labelAddrs map[string]labelAddr, errs *vmerrors.Bag) ([]byte, bool) {
	switch pl.Class {
	case validate.ClassZeroary:
		op, _ := zeroaryOpcodeOf(pl.Mnemonic)
		return []byte{op}, true

	case validate.ClassStack:
		op := stackOpPush
		if pl.Mnemonic == token.POP {
			op = stackOpPop
		}
		return []byte{stackOpcodeOf(op, RegisterIndex(pl.Operands[0].Register))}, true

	case validate.ClassUnary:
		return encodeUnary(pl, resolve, errs)

	case validate.ClassBinary:
		return encodeBinary(pl, resolve, errs)

	case validate.ClassIO:
		return encodeIO(pl, resolve, errs)

	case validate.ClassJump:
		return encodeJump(pl, resolve, errs)

	case validate.ClassInt:
		return encodeInt(pl, resolve, errs)
	}
	return nil, false
}

func encodeUnary(pl PlacedInstruction, resolve resolver, errs *vmerrors.Bag) ([]byte, bool) {
	op := pl.Operands[0]
	switch op.Kind {
	case validate.OpRegister:
		return []byte{EncodeUnaryReg(pl.Mnemonic, op.Size, RegisterIndex(op.Register))}, true
	case validate.OpMemoryIndirect:
		return []byte{unaryIndirectOpcode(pl.Mnemonic, op.Size)}, true
	case validate.OpMemoryDirect:
		addr, ok := resolveAddress(op, resolve, errs, pl.Pos)
		if !ok {
			return nil, false
		}
		return []byte{unaryDirectOpcode(pl.Mnemonic, op.Size), byte(addr), byte(addr >> 8)}, true
	}
	return nil, false
}

func encodeBinary(pl PlacedInstruction, resolve resolver, errs *vmerrors.Bag) ([]byte, bool) {
	dst, src := pl.Operands[0], pl.Operands[1]
	group := binaryGroup[pl.Mnemonic]
	size := pl.Size

	switch {
	case dst.Kind == validate.OpRegister && src.Kind == validate.OpRegister:
		b0 := group<<4 | sizeBit(size)<<3 | binModeRegReg<<1
		b1 := RegisterIndex(dst.Register)<<4 | RegisterIndex(src.Register)
		return []byte{b0, b1}, true

	case dst.Kind == validate.OpRegister && isMemory(src):
		return encodeRegMem(group, size, dst.Register, src, 0, resolve, errs, pl.Pos)

	case isMemory(dst) && src.Kind == validate.OpRegister:
		return encodeRegMem(group, size, src.Register, dst, 1, resolve, errs, pl.Pos)

	case dst.Kind == validate.OpRegister && src.Kind == validate.OpImmediate:
		imm, ok := resolveImmediate(src, resolve, errs, pl.Pos)
		if !ok {
			return nil, false
		}
		b0 := group<<4 | sizeBit(size)<<3 | binModeRegImm<<1
		b1 := RegisterIndex(dst.Register)
		out := []byte{b0, b1}
		return append(out, immBytes(imm, size)...), true

	case isMemory(dst) && src.Kind == validate.OpImmediate:
		imm, ok := resolveImmediate(src, resolve, errs, pl.Pos)
		if !ok {
			return nil, false
		}
		b0 := group<<4 | sizeBit(size)<<3 | binModeMemImm<<1
		out := []byte{b0, 0}
		if dst.Kind == validate.OpMemoryDirect {
			addr, ok := resolveAddress(dst, resolve, errs, pl.Pos)
			if !ok {
				return nil, false
			}
			out[1] = 1 << 3
			out = append(out, byte(addr), byte(addr>>8))
		}
		return append(out, immBytes(imm, size)...), true
	}
	return nil, false
}

// encodeRegMem encodes the reg<->mem forms of a binary instruction. dir=0
// means the register is the destination (load), dir=1 means the register
// is the source (store). byte1 packs the addressing sub-mode (indirect or
// direct) in bit 3 and the register index in the low bits; a direct
// address contributes two more little-endian bytes.
func encodeRegMem(group byte, size ast.Size, reg token.Kind, mem validate.ValidatedOperand, dir byte, resolve resolver, errs *vmerrors.Bag, pos vmerrors.Position) ([]byte, bool) {
	b0 := group<<4 | sizeBit(size)<<3 | binModeRegMem<<1 | dir
	if mem.Kind == validate.OpMemoryIndirect {
		b1 := RegisterIndex(reg)
		return []byte{b0, b1}, true
	}
	addr, ok := resolveAddress(mem, resolve, errs, pos)
	if !ok {
		return nil, false
	}
	b1 := 1<<3 | RegisterIndex(reg)
	return []byte{b0, b1, byte(addr), byte(addr >> 8)}, true
}

func encodeIO(pl PlacedInstruction, resolve resolver, errs *vmerrors.Bag) ([]byte, bool) {
	var acc, port validate.ValidatedOperand
	if pl.Mnemonic == token.IN {
		acc, port = pl.Operands[0], pl.Operands[1]
	} else {
		port, acc = pl.Operands[0], pl.Operands[1]
	}
	dir := ioDirIn
	if pl.Mnemonic == token.OUT {
		dir = ioDirOut
	}
	if port.Kind == validate.OpRegister {
		return []byte{ioOpcodeOf(dir, sizeBit(acc.Size), ioPortDX)}, true
	}
	imm, ok := resolveImmediate(port, resolve, errs, pl.Pos)
	if !ok {
		return nil, false
	}
	return []byte{ioOpcodeOf(dir, sizeBit(acc.Size), ioPortImm), byte(imm)}, true
}

func encodeJump(pl PlacedInstruction, resolve resolver, errs *vmerrors.Bag) ([]byte, bool) {
	op := pl.Operands[0]
	addr, ok := resolve(op.LabelName)
	if !ok {
		errs.Addf(vmerrors.CodeLabelNotFound, pl.Pos, "label %q not found", op.LabelName)
		return nil, false
	}
	opcode, _ := jumpOpcodeOf(pl.Mnemonic)
	return []byte{opcode, byte(addr), byte(addr >> 8)}, true
}

func encodeInt(pl PlacedInstruction, resolve resolver, errs *vmerrors.Bag) ([]byte, bool) {
	op := pl.Operands[0]
	v, ok := resolveImmediate(op, resolve, errs, pl.Pos)
	if !ok {
		return nil, false
	}
	return []byte{intOpcode, byte(v)}, true
}

func resolveAddress(op validate.ValidatedOperand, resolve resolver, errs *vmerrors.Bag, pos vmerrors.Position) (uint16, bool) {
	var v int64
	var ok bool
	switch {
	case op.AddressExpr != nil:
		v, ok = evalExpr(op.AddressExpr, resolve, errs)
	case op.LabelName != "":
		v, ok = resolve(op.LabelName)
	}
	if !ok {
		errs.Addf(vmerrors.CodeLabelNotFound, pos, "could not resolve memory address")
		return 0, false
	}
	return uint16(v), true
}

func resolveImmediate(op validate.ValidatedOperand, resolve resolver, errs *vmerrors.Bag, pos vmerrors.Position) (int64, bool) {
	switch {
	case op.Immediate != nil:
		return evalExpr(op.Immediate, resolve, errs)
	case op.LabelName != "":
		v, ok := resolve(op.LabelName)
		if !ok {
			errs.Addf(vmerrors.CodeLabelNotFound, pos, "constant %q not found", op.LabelName)
			return 0, false
		}
		return v, true
	}
	errs.Addf(vmerrors.CodeExpectsImmediate, pos, "expected an immediate value")
	return 0, false
}

func immBytes(v int64, size ast.Size) []byte {
	if size == ast.SizeWord {
		return []byte{byte(v), byte(v >> 8)}
	}
	return []byte{byte(v)}
}
