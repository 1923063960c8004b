package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/bus"
	"github.com/vonsim/vonsim-core/link"
	"github.com/vonsim/vonsim-core/pic"
	"github.com/vonsim/vonsim-core/token"
	"github.com/vonsim/vonsim-core/vmerrors"
)

type fakeConsole struct {
	in  []byte
	out []byte
}

func (f *fakeConsole) ReadByte() byte {
	if len(f.in) == 0 {
		return 0
	}
	b := f.in[0]
	f.in = f.in[1:]
	return b
}
func (f *fakeConsole) WriteByte(b byte) { f.out = append(f.out, b) }

func newTestCPU(code map[uint16]byte) (*CPU, *fakeConsole) {
	b := bus.New(nil)
	b.LoadImage(code, nil)
	p := pic.New(nil)
	console := &fakeConsole{}
	return New(b, p, console, nil), console
}

func binaryOpcode(t *testing.T, m token.Kind, size ast.Size, mode, dir byte) byte {
	t.Helper()
	for g := byte(0); g <= 8; g++ {
		got, ok := link.MnemonicForBinaryGroup(g)
		if ok && got == m {
			return g<<4 | link.SizeBit(size)<<3 | mode<<1 | dir
		}
	}
	t.Fatalf("no binary group for %v", m)
	return 0
}

func TestHLTHalts(t *testing.T) {
	op, ok := link.EncodeZeroary(token.HLT)
	require.True(t, ok)
	c, _ := newTestCPU(map[uint16]byte{0: op})

	halted := c.Step()
	assert.True(t, halted)
	assert.True(t, c.Halted())
}

func TestMovRegImmWord(t *testing.T) {
	b0 := binaryOpcode(t, token.MOV, ast.SizeWord, link.BinModeRegImm, 0)
	regIdx := link.RegisterIndex(token.RegAX)
	code := map[uint16]byte{
		0: b0, 1: regIdx, 2: 0x34, 3: 0x12, // MOV AX, 1234h
	}
	c, _ := newTestCPU(code)
	c.Step()
	assert.EqualValues(t, 0x1234, c.Regs.AX.Unsigned())
}

func TestAddRegRegSetsFlags(t *testing.T) {
	movB0 := binaryOpcode(t, token.MOV, ast.SizeByte, link.BinModeRegImm, 0)
	addB0 := binaryOpcode(t, token.ADD, ast.SizeByte, link.BinModeRegReg, 0)
	al := link.RegisterIndex(token.RegAL)
	bl := link.RegisterIndex(token.RegBL)
	code := map[uint16]byte{
		0: movB0, 1: al, 2: 0x7F, // MOV AL, 7Fh
		3: movB0, 4: bl, 5: 0x01, // MOV BL, 01h
		6: addB0, 7: al<<4 | bl, // ADD AL, BL
	}
	c, _ := newTestCPU(code)
	c.Run(3)
	assert.EqualValues(t, 0x80, c.Regs.Byte(token.RegAL).Unsigned())
	assert.True(t, c.Regs.Flag(FlagOF))
	assert.True(t, c.Regs.Flag(FlagSF))
}

func TestPushPopRoundTrip(t *testing.T) {
	movB0 := binaryOpcode(t, token.MOV, ast.SizeWord, link.BinModeRegImm, 0)
	bx := link.RegisterIndex(token.RegBX)
	pushOp := link.EncodeStackOp(link.StackOpPush, link.RegisterIndex(token.RegBX))
	popOp := link.EncodeStackOp(link.StackOpPop, link.RegisterIndex(token.RegCX))
	code := map[uint16]byte{
		0: movB0, 1: bx, 2: 0xAD, 3: 0xDE, // MOV BX, DEADh
		4: pushOp,
		5: popOp,
	}
	c, _ := newTestCPU(code)
	c.Run(3)
	assert.EqualValues(t, 0xDEAD, c.Regs.CX.Unsigned())
}

func TestJumpConditionalNotTakenStillConsumesThreeBytes(t *testing.T) {
	jcOp, ok := link.EncodeJump(token.JC)
	require.True(t, ok)
	hltOp, _ := link.EncodeZeroary(token.HLT)
	code := map[uint16]byte{
		0: jcOp, 1: 0x00, 2: 0x00, // JC 0000h, CF clear so not taken
		3: hltOp,
	}
	c, _ := newTestCPU(code)
	c.Step()
	assert.EqualValues(t, 3, c.Regs.IP.Unsigned())
	c.Step()
	assert.True(t, c.Halted())
}

func TestStackOverflowFault(t *testing.T) {
	pushOp := link.EncodeStackOp(link.StackOpPush, link.RegisterIndex(token.RegAX))
	c, _ := newTestCPU(map[uint16]byte{0: pushOp})
	c.Regs.SP = mustWord(0) // nothing below SP, push must fault
	c.Step()
	require.NotNil(t, c.Fault())
	assert.Equal(t, vmerrors.CodeStackOverflow, c.Fault().Code)
	assert.True(t, c.Halted())
}

func TestInt6ReadsFromConsole(t *testing.T) {
	intOp := link.IntOpcode
	code := map[uint16]byte{0: intOp, 1: 6}
	c, console := newTestCPU(code)
	console.in = []byte{0x42}
	c.Regs.BX = mustWord(0x0100)
	c.Step()
	v, _ := c.Bus.ReadByte(0x0100)
	assert.EqualValues(t, 0x42, v)
}

func TestInt7WritesCountBytesFromBX(t *testing.T) {
	intOp := link.IntOpcode
	code := map[uint16]byte{
		0:      intOp, 1: 7,
		0x0200: 'h', 0x0201: 'i',
	}
	c, console := newTestCPU(code)
	c.Regs.AX = mustWord(2) // AL = count
	c.Regs.BX = mustWord(0x0200)
	c.Step()
	assert.Equal(t, []byte("hi"), console.out)
}
