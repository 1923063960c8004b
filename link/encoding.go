// encoding.go defines VonSim's opcode encoding: the concrete bit/byte
// layout referenced only loosely by the project specification ("five-bit
// opcode group + size bit + two mode bits... full table is
// project-defined"). The reference bit-for-bit table
// (docs/especificaciones/codificacion.md) is not present in this tree, so
// this file defines a self-consistent encoding that reproduces every
// length in the instruction-class table exactly and round-trips under
// assemble/disassemble (see DESIGN.md for the Open Question this
// resolves).
//
// Binary instructions keep a hand bit-packed first byte (group<<4 |
// size<<3 | mode<<1 | dir) because the nine binary groups plus size, mode,
// and direction already consume all eight bits with no room left for a
// shared "which class is this" tag. Every other class whose shortest form
// is a single byte (Zeroary, Stack, Unary reg/[BX], IN/OUT with a DX port)
// needs that whole byte for its own operand too, so rather than hand-carve
// overlapping bitfields for each one, their first-byte values are assigned
// from disjoint numeric ranges by the tables below: one counter per class,
// walked in a fixed mnemonic/operand order that must never change once an
// object file exists. Binary's bit-packed range (0x00-0x8F, since its
// 4-bit group never exceeds 8) leaves 0x90-0xFF for everyone else; the
// comment above each base constant shows the slice it claims.
package link

import (
	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/token"
)

// --- Register index tables ---

var wordRegIndex = map[token.Kind]byte{
	token.RegAX: 0, token.RegBX: 1, token.RegCX: 2, token.RegDX: 3,
	token.RegSP: 4, token.RegIP: 5,
}

var byteRegIndex = map[token.Kind]byte{
	token.RegAL: 0, token.RegAH: 1, token.RegBL: 2, token.RegBH: 3,
	token.RegCL: 4, token.RegCH: 5, token.RegDL: 6, token.RegDH: 7,
}

var wordRegByIndex = invertKind(wordRegIndex)
var byteRegByIndex = invertKind(byteRegIndex)

func invertKind(m map[token.Kind]byte) map[byte]token.Kind {
	out := make(map[byte]token.Kind, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// RegisterIndex returns the 3-bit index used to encode reg, sized by
// whether it is a byte or word register.
func RegisterIndex(reg token.Kind) byte {
	if reg.IsWordRegister() {
		return wordRegIndex[reg]
	}
	return byteRegIndex[reg]
}

// RegisterByIndex is the decode-side inverse of RegisterIndex.
func RegisterByIndex(idx byte, size ast.Size) token.Kind {
	if size == ast.SizeWord {
		return wordRegByIndex[idx]
	}
	return byteRegByIndex[idx]
}

func sizeBit(size ast.Size) byte {
	if size == ast.SizeWord {
		return 1
	}
	return 0
}

func bitToSize(b byte) ast.Size {
	if b != 0 {
		return ast.SizeWord
	}
	return ast.SizeByte
}

// --- Binary opcodes (length 2-6): byte0 = group(4)<<4 | size(1)<<3 |
// mode(2)<<1 | dir(1). Occupies 0x00-0x8F (group never exceeds 8). ---

var binaryGroup = map[token.Kind]byte{
	token.ADD: 0, token.ADC: 1, token.SUB: 2, token.SBB: 3, token.CMP: 4,
	token.AND: 5, token.OR: 6, token.XOR: 7, token.MOV: 8,
}
var binaryGroupByID = invertByte(binaryGroup)

func invertByte(m map[token.Kind]byte) map[byte]token.Kind {
	out := make(map[byte]token.Kind, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

const (
	binModeRegReg byte = 0
	binModeRegMem byte = 1
	binModeRegImm byte = 2
	binModeMemImm byte = 3
)

// --- Fixed mnemonic orders for the disjoint first-byte ranges below.
// Index position IS the assigned code; reordering these slices changes
// the opcode table. ---

var zeroaryMnemonics = []token.Kind{
	token.HLT, token.NOP, token.IRET, token.RET, token.CLI, token.STI, token.PUSHF, token.POPF,
}
var jumpMnemonics = []token.Kind{
	token.JMP, token.JC, token.JNC, token.JZ, token.JNZ, token.JS, token.JNS, token.JO, token.JNO, token.CALL,
}
var unaryMnemonics = []token.Kind{token.INC, token.DEC, token.NEG, token.NOT}

func indexOfKind(list []token.Kind, k token.Kind) (byte, bool) {
	for i, m := range list {
		if m == k {
			return byte(i), true
		}
	}
	return 0, false
}

const (
	// Jump: 10 codes, one per mnemonic, 3-byte instruction (2-byte target
	// follows).
	jumpBase = 0x90 // 0x90-0x99

	// INT: 1 code, 2-byte instruction (1-byte interrupt number follows).
	intBase = 0x9A

	// IO: 8 codes = dir(IN/OUT) x accSize(byte/word) x portKind(imm/DX).
	// imm forms are 2 bytes (port byte follows); DX forms are 1 byte.
	ioBase = 0x9B // 0x9B-0xA2

	// Stack: 12 codes = op(PUSH/POP) x word-register(6). Always 1 byte.
	stackBase = 0xA3 // 0xA3-0xAE

	// Zeroary: 8 codes, one per mnemonic. Always 1 byte.
	zeroaryBase = 0xAF // 0xAF-0xB6

	// Unary: 72 codes covering every form whose encoding is byte0 alone
	// (reg and [BX] operands); a direct-address operand needs 2 more
	// bytes and is assigned its own sub-range. Sub-ranges, in order:
	//   reg, byte size : mnemonic(4) x byte-register(8)  = 32  [+0..+31]
	//   reg, word size : mnemonic(4) x word-register(6)  = 24  [+32..+55]
	//   [BX], any size : mnemonic(4) x size(2)           =  8  [+56..+63]
	//   direct, any size: mnemonic(4) x size(2)          =  8  [+64..+71]
	unaryBase = 0xB7 // 0xB7-0xFE (0xFF is unused)
)

const intOpcode byte = intBase

// --- Zeroary ---

func zeroaryOpcodeOf(m token.Kind) (byte, bool) {
	i, ok := indexOfKind(zeroaryMnemonics, m)
	if !ok {
		return 0, false
	}
	return zeroaryBase + i, true
}

func zeroaryMnemonicOf(b byte) (token.Kind, bool) {
	if b < zeroaryBase || int(b) >= int(zeroaryBase)+len(zeroaryMnemonics) {
		return 0, false
	}
	return zeroaryMnemonics[b-zeroaryBase], true
}

// --- Jump ---

func jumpOpcodeOf(m token.Kind) (byte, bool) {
	i, ok := indexOfKind(jumpMnemonics, m)
	if !ok {
		return 0, false
	}
	return jumpBase + i, true
}

func jumpMnemonicOf(b byte) (token.Kind, bool) {
	if b < jumpBase || int(b) >= int(jumpBase)+len(jumpMnemonics) {
		return 0, false
	}
	return jumpMnemonics[b-jumpBase], true
}

// --- IO: code = ioBase + dir*4 + accSize*2 + portKind ---

const (
	ioDirIn   byte = 0
	ioDirOut  byte = 1
	ioPortImm byte = 0
	ioPortDX  byte = 1
)

func ioOpcodeOf(dir, accSize, portKind byte) byte {
	return ioBase + dir*4 + accSize*2 + portKind
}

func ioDecode(b byte) (dir, accSize, portKind byte, ok bool) {
	if b < ioBase || b > ioBase+7 {
		return 0, 0, 0, false
	}
	o := b - ioBase
	return o / 4, (o / 2) % 2, o % 2, true
}

// --- Stack: code = stackBase + op*6 + wordRegIndex ---

const (
	stackOpPush byte = 0
	stackOpPop  byte = 1
)

func stackOpcodeOf(op, regIdx byte) byte {
	return stackBase + op*6 + regIdx
}

func stackDecode(b byte) (op, regIdx byte, ok bool) {
	if b < stackBase || b > stackBase+11 {
		return 0, 0, false
	}
	o := b - stackBase
	return o / 6, o % 6, true
}

// --- Unary ---

const (
	unaryRegByteBase     = unaryBase      // +0..+31
	unaryRegWordBase     = unaryBase + 32 // +32..+55
	unaryIndirectBase    = unaryBase + 56 // +56..+63
	unaryDirectBase      = unaryBase + 64 // +64..+71
	unaryRegByteCount    = 32
	unaryRegWordCount    = 24
	unaryIndirectCount   = 8
	unaryDirectCount     = 8
)

func unaryRegByteOpcode(m token.Kind, regIdx byte) byte {
	mi, _ := indexOfKind(unaryMnemonics, m)
	return unaryRegByteBase + mi*8 + regIdx
}

func unaryRegWordOpcode(m token.Kind, regIdx byte) byte {
	mi, _ := indexOfKind(unaryMnemonics, m)
	return unaryRegWordBase + mi*6 + regIdx
}

func unaryIndirectOpcode(m token.Kind, size ast.Size) byte {
	mi, _ := indexOfKind(unaryMnemonics, m)
	return unaryIndirectBase + mi*2 + sizeBit(size)
}

func unaryDirectOpcode(m token.Kind, size ast.Size) byte {
	mi, _ := indexOfKind(unaryMnemonics, m)
	return unaryDirectBase + mi*2 + sizeBit(size)
}

// unaryDecode inverts all four unary sub-ranges at once, reporting the
// addressing mode it found via mode ("reg", "indirect", "direct").
func unaryDecode(b byte) (m token.Kind, size ast.Size, regIdx byte, mode string, ok bool) {
	switch {
	case b >= unaryRegByteBase && b < unaryRegByteBase+unaryRegByteCount:
		o := b - unaryRegByteBase
		return unaryMnemonics[o/8], ast.SizeByte, o % 8, "reg", true
	case b >= unaryRegWordBase && b < unaryRegWordBase+unaryRegWordCount:
		o := b - unaryRegWordBase
		return unaryMnemonics[o/6], ast.SizeWord, o % 6, "reg", true
	case b >= unaryIndirectBase && b < unaryIndirectBase+unaryIndirectCount:
		o := b - unaryIndirectBase
		return unaryMnemonics[o/2], bitToSize(o % 2), 0, "indirect", true
	case b >= unaryDirectBase && b < unaryDirectBase+unaryDirectCount:
		o := b - unaryDirectBase
		return unaryMnemonics[o/2], bitToSize(o % 2), 0, "direct", true
	}
	return 0, ast.SizeAuto, 0, "", false
}

// --- Decode-side exports used by the cpu package's fetch/decode phase.
// Keeping every accessor here means the opcode table has exactly one
// owner instead of a second copy drifting out of sync with it. ---

const (
	StackOpPush = stackOpPush
	StackOpPop  = stackOpPop
	IODirIn     = ioDirIn
	IODirOut    = ioDirOut
	IOPortImm   = ioPortImm
	IOPortDX    = ioPortDX
	IntOpcode   = intOpcode

	BinModeRegReg = binModeRegReg
	BinModeRegMem = binModeRegMem
	BinModeRegImm = binModeRegImm
	BinModeMemImm = binModeMemImm
)

func MnemonicForBinaryGroup(g byte) (token.Kind, bool) {
	v, ok := binaryGroupByID[g]
	return v, ok
}

// ClassifyOpcode inspects byte0 and reports which instruction class it
// belongs to, without decoding the operand fields yet.
type OpcodeClass int

const (
	OpBinary OpcodeClass = iota
	OpZeroary
	OpStack
	OpUnary
	OpIO
	OpJump
	OpInt
	OpInvalid
)

func ClassifyOpcode(b0 byte) OpcodeClass {
	switch {
	case b0 <= 0x8F:
		return OpBinary
	case b0 >= jumpBase && b0 < intBase:
		return OpJump
	case b0 == intBase:
		return OpInt
	case b0 >= ioBase && b0 < stackBase:
		return OpIO
	case b0 >= stackBase && b0 < zeroaryBase:
		return OpStack
	case b0 >= zeroaryBase && b0 < unaryBase:
		return OpZeroary
	case b0 >= unaryBase && b0 < unaryBase+72:
		return OpUnary
	default:
		return OpInvalid
	}
}

// DecodeZeroary, DecodeJump, DecodeStack, DecodeIO and DecodeUnary are the
// decode-side counterparts of this file's encode helpers.
func DecodeZeroary(b0 byte) (token.Kind, bool)                            { return zeroaryMnemonicOf(b0) }
func DecodeJump(b0 byte) (token.Kind, bool)                               { return jumpMnemonicOf(b0) }
func DecodeStack(b0 byte) (op byte, regIdx byte, ok bool)                 { return stackDecode(b0) }
func DecodeIO(b0 byte) (dir, accSize, portKind byte, ok bool)             { return ioDecode(b0) }
func DecodeUnary(b0 byte) (m token.Kind, size ast.Size, regIdx byte, mode string, ok bool) {
	return unaryDecode(b0)
}

func EncodeZeroary(m token.Kind) (byte, bool)                   { return zeroaryOpcodeOf(m) }
func EncodeJump(m token.Kind) (byte, bool)                      { return jumpOpcodeOf(m) }
func EncodeStackOp(op, regIdx byte) byte                        { return stackOpcodeOf(op, regIdx) }
func EncodeIO(dir, accSize, portKind byte) byte                 { return ioOpcodeOf(dir, accSize, portKind) }
func EncodeUnaryReg(m token.Kind, size ast.Size, regIdx byte) byte {
	if size == ast.SizeWord {
		return unaryRegWordOpcode(m, regIdx)
	}
	return unaryRegByteOpcode(m, regIdx)
}
func EncodeUnaryIndirect(m token.Kind, size ast.Size) byte { return unaryIndirectOpcode(m, size) }
func EncodeUnaryDirect(m token.Kind, size ast.Size) byte   { return unaryDirectOpcode(m, size) }

// SizeBit and BitToSize are the exported forms of this file's size-bit
// packing, used identically by encode.go and by the cpu package's decoder.
func SizeBit(s ast.Size) byte   { return sizeBit(s) }
func BitToSize(b byte) ast.Size { return bitToSize(b) }
