package link

import (
	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/validate"
)

// Length reports the encoded byte length of a validated instruction. It
// never needs an expression's evaluated value, only the operand kinds and
// sizes the validator already established, so pass 1 can lay out addresses
// before pass 2 evaluates any expression.
func Length(inst validate.Instruction) int {
	switch inst.Class {
	case validate.ClassZeroary, validate.ClassStack:
		return 1

	case validate.ClassUnary:
		op := inst.Operands[0]
		if op.Kind == validate.OpMemoryDirect {
			return 3
		}
		return 1

	case validate.ClassBinary:
		dst, src := inst.Operands[0], inst.Operands[1]
		switch {
		case dst.Kind == validate.OpRegister && src.Kind == validate.OpRegister:
			return 2
		case dst.Kind == validate.OpRegister && isMemory(src), isMemory(dst) && src.Kind == validate.OpRegister:
			if memOperand(dst, src).Kind == validate.OpMemoryIndirect {
				return 2
			}
			return 4
		case dst.Kind == validate.OpRegister && src.Kind == validate.OpImmediate:
			return immLen(inst.Size, 2)
		case isMemory(dst) && src.Kind == validate.OpImmediate:
			if dst.Kind == validate.OpMemoryIndirect {
				return immLen(inst.Size, 2)
			}
			return immLen(inst.Size, 4)
		}
		return 2

	case validate.ClassIO:
		for _, op := range inst.Operands {
			if op.Kind == validate.OpImmediate {
				return 2
			}
		}
		return 1

	case validate.ClassJump:
		return 3

	case validate.ClassInt:
		return 2
	}
	return 0
}

func isMemory(op validate.ValidatedOperand) bool {
	return op.Kind == validate.OpMemoryDirect || op.Kind == validate.OpMemoryIndirect
}

func memOperand(a, b validate.ValidatedOperand) validate.ValidatedOperand {
	if isMemory(a) {
		return a
	}
	return b
}

func immLen(size ast.Size, header int) int {
	if size == ast.SizeWord {
		return header + 2
	}
	return header + 1
}
