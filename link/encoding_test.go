package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/token"
)

func TestClassifyOpcodeCoversEveryClass(t *testing.T) {
	b, ok := EncodeZeroary(token.HLT)
	require.True(t, ok)
	assert.Equal(t, OpZeroary, ClassifyOpcode(b))

	b, ok = EncodeJump(token.JMP)
	require.True(t, ok)
	assert.Equal(t, OpJump, ClassifyOpcode(b))

	assert.Equal(t, OpInt, ClassifyOpcode(IntOpcode))
	assert.Equal(t, OpIO, ClassifyOpcode(EncodeIO(IODirIn, 0, IOPortDX)))
	assert.Equal(t, OpStack, ClassifyOpcode(EncodeStackOp(StackOpPush, RegisterIndex(token.RegAX))))
	assert.Equal(t, OpUnary, ClassifyOpcode(EncodeUnaryReg(token.INC, ast.SizeByte, RegisterIndex(token.RegAL))))

	binByte0 := byte(binaryGroup[token.MOV])<<4 | SizeBit(ast.SizeWord)<<3 | BinModeRegReg<<1
	assert.Equal(t, OpBinary, ClassifyOpcode(binByte0))
}

func TestZeroaryRoundTrip(t *testing.T) {
	for _, m := range zeroaryMnemonics {
		b, ok := EncodeZeroary(m)
		require.True(t, ok)
		got, ok := DecodeZeroary(b)
		require.True(t, ok)
		assert.Equal(t, m, got)
	}
}

func TestJumpRoundTrip(t *testing.T) {
	for _, m := range jumpMnemonics {
		b, ok := EncodeJump(m)
		require.True(t, ok)
		got, ok := DecodeJump(b)
		require.True(t, ok)
		assert.Equal(t, m, got)
	}
}

func TestStackRoundTrip(t *testing.T) {
	for _, op := range []byte{StackOpPush, StackOpPop} {
		for _, reg := range []token.Kind{token.RegAX, token.RegBX, token.RegCX, token.RegDX, token.RegSP, token.RegIP} {
			idx := RegisterIndex(reg)
			b := EncodeStackOp(op, idx)
			gotOp, gotIdx, ok := DecodeStack(b)
			require.True(t, ok)
			assert.Equal(t, op, gotOp)
			assert.Equal(t, idx, gotIdx)
			assert.Equal(t, reg, RegisterByIndex(gotIdx, ast.SizeWord))
		}
	}
}

func TestIORoundTrip(t *testing.T) {
	for _, dir := range []byte{IODirIn, IODirOut} {
		for _, accSize := range []byte{0, 1} {
			for _, portKind := range []byte{IOPortImm, IOPortDX} {
				b := EncodeIO(dir, accSize, portKind)
				gotDir, gotAcc, gotPort, ok := DecodeIO(b)
				require.True(t, ok)
				assert.Equal(t, dir, gotDir)
				assert.Equal(t, accSize, gotAcc)
				assert.Equal(t, portKind, gotPort)
			}
		}
	}
}

func TestUnaryRegRoundTrip(t *testing.T) {
	for _, m := range unaryMnemonics {
		for _, reg := range []token.Kind{token.RegAL, token.RegBH, token.RegCL, token.RegDH} {
			idx := RegisterIndex(reg)
			b := EncodeUnaryReg(m, ast.SizeByte, idx)
			gotM, gotSize, gotIdx, mode, ok := DecodeUnary(b)
			require.True(t, ok)
			assert.Equal(t, m, gotM)
			assert.Equal(t, ast.SizeByte, gotSize)
			assert.Equal(t, idx, gotIdx)
			assert.Equal(t, "reg", mode)
		}
		for _, reg := range []token.Kind{token.RegAX, token.RegCX} {
			idx := RegisterIndex(reg)
			b := EncodeUnaryReg(m, ast.SizeWord, idx)
			gotM, gotSize, gotIdx, mode, ok := DecodeUnary(b)
			require.True(t, ok)
			assert.Equal(t, m, gotM)
			assert.Equal(t, ast.SizeWord, gotSize)
			assert.Equal(t, idx, gotIdx)
			assert.Equal(t, "reg", mode)
		}
	}
}

func TestUnaryIndirectAndDirectRoundTrip(t *testing.T) {
	for _, m := range unaryMnemonics {
		for _, size := range []ast.Size{ast.SizeByte, ast.SizeWord} {
			b := EncodeUnaryIndirect(m, size)
			gotM, gotSize, _, mode, ok := DecodeUnary(b)
			require.True(t, ok)
			assert.Equal(t, m, gotM)
			assert.Equal(t, size, gotSize)
			assert.Equal(t, "indirect", mode)

			b = EncodeUnaryDirect(m, size)
			gotM, gotSize, _, mode, ok = DecodeUnary(b)
			require.True(t, ok)
			assert.Equal(t, m, gotM)
			assert.Equal(t, size, gotSize)
			assert.Equal(t, "direct", mode)
		}
	}
}

func TestMnemonicForBinaryGroup(t *testing.T) {
	for m, g := range binaryGroup {
		got, ok := MnemonicForBinaryGroup(g)
		require.True(t, ok)
		assert.Equal(t, m, got)
	}
	_, ok := MnemonicForBinaryGroup(200)
	assert.False(t, ok)
}

func TestOpcodeRangesAreDisjoint(t *testing.T) {
	seen := make(map[byte]OpcodeClass)
	for b := 0; b <= 0xFF; b++ {
		class := ClassifyOpcode(byte(b))
		if class == OpInvalid {
			continue
		}
		seen[byte(b)] = class
	}
	// every binary byte0 must classify as OpBinary regardless of which
	// group/size/mode/dir bits are set
	for g := byte(0); g <= 8; g++ {
		for size := byte(0); size <= 1; size++ {
			for mode := byte(0); mode <= 3; mode++ {
				for dir := byte(0); dir <= 1; dir++ {
					b0 := g<<4 | size<<3 | mode<<1 | dir
					assert.Equal(t, OpBinary, ClassifyOpcode(b0))
				}
			}
		}
	}
}
