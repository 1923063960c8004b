package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromUnsignedRejectsOverflow(t *testing.T) {
	_, err := FromUnsigned(Byte, 256)
	require.Error(t, err)

	v, err := FromUnsigned(Byte, 255)
	require.NoError(t, err)
	assert.EqualValues(t, 255, v.Unsigned())
}

func TestFromSignedRoundTrip(t *testing.T) {
	v, err := FromSigned(Byte, -1)
	require.NoError(t, err)
	assert.EqualValues(t, 0xFF, v.Unsigned())
	assert.EqualValues(t, -1, v.Signed())

	_, err = FromSigned(Byte, 128)
	require.Error(t, err)
}

func TestLowHighSplit(t *testing.T) {
	v := MustFromUnsigned(Word, 0xBEEF)
	assert.EqualValues(t, 0xEF, v.Low().Unsigned())
	assert.EqualValues(t, 0xBE, v.High().Unsigned())
}

func TestLowHighPanicOnByte(t *testing.T) {
	v := MustFromUnsigned(Byte, 0x12)
	assert.Panics(t, func() { v.Low() })
	assert.Panics(t, func() { v.High() })
}

func TestBit(t *testing.T) {
	v := MustFromUnsigned(Byte, 0b1010_0001)
	assert.True(t, v.Bit(0))
	assert.False(t, v.Bit(1))
	assert.True(t, v.Bit(5))
	assert.False(t, v.Bit(8)) // out of range for a byte
}

func TestFitsIn(t *testing.T) {
	v := MustFromUnsigned(Word, 0x00FF)
	assert.True(t, v.FitsIn(Byte))

	v2 := MustFromUnsigned(Word, 0x0100)
	assert.False(t, v2.FitsIn(Byte))
}
