package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vonsim/vonsim-core/numeric"
)

func b(v uint32) numeric.Value { return numeric.MustFromUnsigned(numeric.Byte, v) }

func TestAddSetsCarryOnUnsignedOverflow(t *testing.T) {
	r := Add(b(0xFF), b(0x01), false)
	assert.EqualValues(t, 0x00, r.Result.Unsigned())
	assert.True(t, r.CF)
	assert.True(t, r.ZF)
	assert.False(t, r.OF)
}

func TestAddSetsOverflowOnSignedOverflow(t *testing.T) {
	// 0x7F (+127) + 0x01 (+1) = 0x80 (-128 signed): signed overflow, no
	// unsigned carry.
	r := Add(b(0x7F), b(0x01), false)
	assert.EqualValues(t, 0x80, r.Result.Unsigned())
	assert.False(t, r.CF)
	assert.True(t, r.OF)
	assert.True(t, r.SF)
}

func TestAddWithCarryIn(t *testing.T) {
	r := Add(b(0x01), b(0x01), true)
	assert.EqualValues(t, 0x03, r.Result.Unsigned())
}

func TestSubBorrow(t *testing.T) {
	r := Sub(b(0x00), b(0x01), false)
	assert.EqualValues(t, 0xFF, r.Result.Unsigned())
	assert.True(t, r.CF)
	assert.True(t, r.SF)
}

func TestSubSignedOverflow(t *testing.T) {
	// -128 - 1 overflows signed range.
	r := Sub(b(0x80), b(0x01), false)
	assert.True(t, r.OF)
}

func TestLogicOpsAlwaysClearCarryAndOverflow(t *testing.T) {
	for _, r := range []FlagResult{
		And(b(0xF0), b(0x0F)),
		Or(b(0xF0), b(0x0F)),
		Xor(b(0xFF), b(0x0F)),
		Not(b(0x00)),
	} {
		assert.False(t, r.CF)
		assert.False(t, r.OF)
	}
}

func TestAndOrXorNot(t *testing.T) {
	assert.EqualValues(t, 0x00, And(b(0xF0), b(0x0F)).Result.Unsigned())
	assert.EqualValues(t, 0xFF, Or(b(0xF0), b(0x0F)).Result.Unsigned())
	assert.EqualValues(t, 0xF0, Xor(b(0xFF), b(0x0F)).Result.Unsigned())
	assert.EqualValues(t, 0xFF, Not(b(0x00)).Result.Unsigned())
}

func TestIncDecPreserveIncomingCarry(t *testing.T) {
	r := Inc(b(0x00), true)
	assert.EqualValues(t, 0x01, r.Result.Unsigned())
	assert.True(t, r.CF) // carried in, not touched by INC itself

	r = Dec(b(0x01), false)
	assert.EqualValues(t, 0x00, r.Result.Unsigned())
	assert.False(t, r.CF)
}

func TestNegIsSubFromZero(t *testing.T) {
	r := Neg(b(0x01))
	assert.EqualValues(t, 0xFF, r.Result.Unsigned())
	assert.True(t, r.CF)
}
