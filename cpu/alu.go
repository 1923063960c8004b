package cpu

import "github.com/vonsim/vonsim-core/numeric"

// FlagResult carries the four flags an ALU op sets, alongside the result
// value. Every binary op returns one of these; the caller decides whether
// to write the result back (CMP discards it) and whether CF is preserved
// (INC/DEC).
type FlagResult struct {
	Result     numeric.Value
	CF, ZF, SF, OF bool
}

func width(v numeric.Value) numeric.Width { return v.Width() }

// Add computes left+right, optionally with an incoming carry (ADC), and
// sets CF from unsigned overflow and OF from signed overflow.
func Add(left, right numeric.Value, carryIn bool) FlagResult {
	w := width(left)
	c := uint32(0)
	if carryIn {
		c = 1
	}
	sum := uint32(left.Unsigned()) + uint32(right.Unsigned()) + c
	mask := uint32(1)<<uint(w) - 1
	result := numeric.MustFromUnsigned(w, sum&mask)

	signBit := uint32(1) << uint(w-1)
	leftSign := uint32(left.Unsigned())&signBit != 0
	rightSign := uint32(right.Unsigned())&signBit != 0
	resultSign := result.Unsigned()&uint16(signBit) != 0

	return FlagResult{
		Result: result,
		CF:     sum > mask,
		ZF:     result.Unsigned() == 0,
		SF:     resultSign,
		OF:     leftSign == rightSign && resultSign != leftSign,
	}
}

// Sub computes left-right, optionally with an incoming borrow (SBB).
func Sub(left, right numeric.Value, borrowIn bool) FlagResult {
	w := width(left)
	b := uint32(0)
	if borrowIn {
		b = 1
	}
	mask := uint32(1)<<uint(w) - 1
	diff := int64(left.Unsigned()) - int64(right.Unsigned()) - int64(b)
	result := numeric.MustFromUnsigned(w, uint32(diff)&mask)

	signBit := uint32(1) << uint(w-1)
	leftSign := uint32(left.Unsigned())&signBit != 0
	rightSign := uint32(right.Unsigned())&signBit != 0
	resultSign := result.Unsigned()&uint16(signBit) != 0

	return FlagResult{
		Result: result,
		CF:     diff < 0,
		ZF:     result.Unsigned() == 0,
		SF:     resultSign,
		OF:     leftSign != rightSign && resultSign != leftSign,
	}
}

// Neg computes 0-x, equivalent to Sub with a zero left operand.
func Neg(x numeric.Value) FlagResult {
	zero := numeric.MustFromUnsigned(width(x), 0)
	return Sub(zero, x, false)
}

// logicResult builds the flag set shared by AND/OR/XOR/NOT: CF and OF are
// always cleared, ZF/SF follow the result.
func logicResult(result numeric.Value) FlagResult {
	w := width(result)
	signBit := uint16(1) << uint(w-1)
	return FlagResult{
		Result: result,
		CF:     false,
		OF:     false,
		ZF:     result.Unsigned() == 0,
		SF:     result.Unsigned()&signBit != 0,
	}
}

func And(left, right numeric.Value) FlagResult {
	return logicResult(numeric.MustFromUnsigned(width(left), uint32(left.Unsigned()&right.Unsigned())))
}

func Or(left, right numeric.Value) FlagResult {
	return logicResult(numeric.MustFromUnsigned(width(left), uint32(left.Unsigned()|right.Unsigned())))
}

func Xor(left, right numeric.Value) FlagResult {
	return logicResult(numeric.MustFromUnsigned(width(left), uint32(left.Unsigned()^right.Unsigned())))
}

func Not(x numeric.Value) FlagResult {
	w := width(x)
	mask := uint32(1)<<uint(w) - 1
	return logicResult(numeric.MustFromUnsigned(w, (^uint32(x.Unsigned()))&mask))
}

// Inc and Dec behave like Add/Sub by one but never touch CF, leaving it at
// whatever the last op that does set it left behind.
func Inc(x numeric.Value, carryIn bool) FlagResult {
	one := numeric.MustFromUnsigned(width(x), 1)
	r := Add(x, one, false)
	r.CF = carryIn
	return r
}

func Dec(x numeric.Value, carryIn bool) FlagResult {
	one := numeric.MustFromUnsigned(width(x), 1)
	r := Sub(x, one, false)
	r.CF = carryIn
	return r
}
