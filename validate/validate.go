// Package validate implements the semantic validator: per-statement
// operand arity/kind/size checking, producing the ValidatedInstruction
// shape the linker encodes. Each violation carries one of the error codes
// named in the project specification.
package validate

import (
	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/token"
	"github.com/vonsim/vonsim-core/vmerrors"
)

// Class is the instruction class table from the specification.
type Class int

const (
	ClassZeroary Class = iota
	ClassStack
	ClassUnary
	ClassBinary
	ClassIO
	ClassJump
	ClassInt
)

// OperandKind mirrors ast.OperandKind but after validation has resolved a
// LabelRef into either MemoryDirect (data label) or an instruction target.
type OperandKind int

const (
	OpRegister OperandKind = iota
	OpMemoryDirect
	OpMemoryIndirect
	OpImmediate
	OpInstructionLabel // Jump/CALL target
)

// ValidatedOperand is one fully classified operand.
type ValidatedOperand struct {
	Kind        OperandKind
	Register    token.Kind
	AddressExpr *ast.Expr // MemoryDirect
	Immediate   *ast.Expr // Immediate
	LabelName   string    // InstructionLabel, or the source label for MemoryDirect-from-label
	Size        ast.Size
}

// Instruction is the validator's output for one StmtInstruction: arity and
// kind already checked, operand sizes inferred, ready for two-pass address
// resolution and encoding.
type Instruction struct {
	Label    string
	Mnemonic token.Kind
	Class    Class
	Size     ast.Size // byte or word; SizeAuto for Zeroary/Jump and for a Unary on a label of unknown size
	Operands []ValidatedOperand
	Pos      vmerrors.Position
}

// classOf maps a mnemonic to its instruction class.
func classOf(m token.Kind) (Class, bool) {
	switch m {
	case token.HLT, token.NOP, token.IRET, token.RET, token.CLI, token.STI, token.PUSHF, token.POPF:
		return ClassZeroary, true
	case token.PUSH, token.POP:
		return ClassStack, true
	case token.INC, token.DEC, token.NEG, token.NOT:
		return ClassUnary, true
	case token.MOV, token.ADD, token.ADC, token.SUB, token.SBB, token.AND, token.OR, token.XOR, token.CMP:
		return ClassBinary, true
	case token.IN, token.OUT:
		return ClassIO, true
	case token.JMP, token.JC, token.JNC, token.JZ, token.JNZ, token.JS, token.JNS, token.JO, token.JNO, token.CALL:
		return ClassJump, true
	case token.INT:
		return ClassInt, true
	}
	return 0, false
}

func registerSize(k token.Kind) ast.Size {
	if k.IsWordRegister() {
		return ast.SizeWord
	}
	return ast.SizeByte
}

// Validate checks every instruction statement in stmts and returns the
// validated instructions plus accumulated errors. Non-instruction
// statements (data directives, ORG, END, EQU) pass through untouched and
// are handled directly by the linker.
func Validate(stmts []ast.Statement, labelKinds map[string]LabelKind) ([]Instruction, *vmerrors.Bag) {
	var out []Instruction
	var errs vmerrors.Bag
	for _, st := range stmts {
		if st.Kind != ast.StmtInstruction {
			continue
		}
		inst, ok := validateOne(st, labelKinds, &errs)
		if ok {
			out = append(out, inst)
		}
	}
	return out, &errs
}

// LabelKind tells the validator what kind of location a label names, so it
// can enforce operand-size agreement and writability rules.
type LabelKind int

const (
	LabelUnknown LabelKind = iota
	LabelByteData
	LabelWordData
	LabelInstruction
	LabelEquConst
)

func validateOne(st ast.Statement, labelKinds map[string]LabelKind, errs *vmerrors.Bag) (Instruction, bool) {
	class, ok := classOf(st.Mnemonic)
	if !ok {
		errs.Addf(vmerrors.CodeUnknownMnemonic, st.Pos, "unknown mnemonic %s", st.Mnemonic)
		return Instruction{}, false
	}

	switch class {
	case ClassZeroary:
		if len(st.Operands) != 0 {
			errs.Addf(vmerrors.CodeWrongOperandCount, st.Pos, "%s takes no operands", st.Mnemonic)
			return Instruction{}, false
		}
		return Instruction{Label: st.Label, Mnemonic: st.Mnemonic, Class: class, Pos: st.Pos}, true

	case ClassStack:
		if len(st.Operands) != 1 || st.Operands[0].Kind != ast.OperandRegister || !st.Operands[0].Register.IsWordRegister() {
			errs.Addf(vmerrors.CodeInvalidOperandKind, st.Pos, "%s requires a single 16-bit register operand", st.Mnemonic)
			return Instruction{}, false
		}
		vop := ValidatedOperand{Kind: OpRegister, Register: st.Operands[0].Register, Size: ast.SizeWord}
		return Instruction{Label: st.Label, Mnemonic: st.Mnemonic, Class: class, Size: ast.SizeWord, Operands: []ValidatedOperand{vop}, Pos: st.Pos}, true

	case ClassUnary:
		return validateUnary(st, labelKinds, errs)

	case ClassBinary:
		return validateBinary(st, labelKinds, errs)

	case ClassIO:
		return validateIO(st, errs)

	case ClassJump:
		if len(st.Operands) != 1 || st.Operands[0].Kind != ast.OperandLabelRef {
			errs.Addf(vmerrors.CodeInvalidOperandKind, st.Pos, "%s requires a single instruction-label operand", st.Mnemonic)
			return Instruction{}, false
		}
		name := st.Operands[0].LabelName
		if k, ok := labelKinds[name]; ok && k != LabelInstruction && k != LabelUnknown {
			errs.Addf(vmerrors.CodeLabelShouldBeANumber, st.Operands[0].Pos, "%s is not an instruction label", name)
			return Instruction{}, false
		}
		vop := ValidatedOperand{Kind: OpInstructionLabel, LabelName: name}
		return Instruction{Label: st.Label, Mnemonic: st.Mnemonic, Class: class, Operands: []ValidatedOperand{vop}, Pos: st.Pos}, true

	case ClassInt:
		if len(st.Operands) != 1 || st.Operands[0].Kind != ast.OperandImmediate {
			errs.Addf(vmerrors.CodeExpectsImmediate, st.Pos, "INT requires a single immediate operand")
			return Instruction{}, false
		}
		vop := ValidatedOperand{Kind: OpImmediate, Immediate: st.Operands[0].Immediate, Size: ast.SizeByte}
		return Instruction{Label: st.Label, Mnemonic: st.Mnemonic, Class: class, Size: ast.SizeByte, Operands: []ValidatedOperand{vop}, Pos: st.Pos}, true
	}
	return Instruction{}, false
}

func validateUnary(st ast.Statement, labelKinds map[string]LabelKind, errs *vmerrors.Bag) (Instruction, bool) {
	if len(st.Operands) != 1 {
		errs.Addf(vmerrors.CodeWrongOperandCount, st.Pos, "%s requires exactly one operand", st.Mnemonic)
		return Instruction{}, false
	}
	op := st.Operands[0]
	switch op.Kind {
	case ast.OperandRegister:
		size := registerSize(op.Register)
		vop := ValidatedOperand{Kind: OpRegister, Register: op.Register, Size: size}
		return Instruction{Label: st.Label, Mnemonic: st.Mnemonic, Class: ClassUnary, Size: size, Operands: []ValidatedOperand{vop}, Pos: st.Pos}, true
	case ast.OperandMemoryIndirect:
		if op.SizeHint == ast.SizeAuto {
			errs.Addf(vmerrors.CodeUnknownSize, op.Pos, "%s [BX] requires BYTE PTR or WORD PTR", st.Mnemonic)
			return Instruction{}, false
		}
		vop := ValidatedOperand{Kind: OpMemoryIndirect, Size: op.SizeHint}
		return Instruction{Label: st.Label, Mnemonic: st.Mnemonic, Class: ClassUnary, Size: op.SizeHint, Operands: []ValidatedOperand{vop}, Pos: st.Pos}, true
	case ast.OperandMemoryDirect:
		if op.SizeHint == ast.SizeAuto {
			errs.Addf(vmerrors.CodeUnknownSize, op.Pos, "%s requires BYTE PTR or WORD PTR for a direct address", st.Mnemonic)
			return Instruction{}, false
		}
		vop := ValidatedOperand{Kind: OpMemoryDirect, AddressExpr: op.AddressExpr, Size: op.SizeHint}
		return Instruction{Label: st.Label, Mnemonic: st.Mnemonic, Class: ClassUnary, Size: op.SizeHint, Operands: []ValidatedOperand{vop}, Pos: st.Pos}, true
	case ast.OperandLabelRef:
		if isEquConst(op.LabelName, labelKinds) {
			errs.Addf(vmerrors.CodeLabelShouldBeWritable, op.Pos, "%s is a constant, not a writable location", op.LabelName)
			return Instruction{}, false
		}
		size, ok := resolveLabelSize(op, labelKinds, errs)
		if !ok {
			return Instruction{}, false
		}
		vop := ValidatedOperand{Kind: OpMemoryDirect, LabelName: op.LabelName, Size: size}
		return Instruction{Label: st.Label, Mnemonic: st.Mnemonic, Class: ClassUnary, Size: size, Operands: []ValidatedOperand{vop}, Pos: st.Pos}, true
	default:
		errs.Addf(vmerrors.CodeInvalidOperandKind, op.Pos, "%s cannot take an immediate operand", st.Mnemonic)
		return Instruction{}, false
	}
}

func resolveLabelSize(op ast.Operand, labelKinds map[string]LabelKind, errs *vmerrors.Bag) (ast.Size, bool) {
	kind, ok := labelKinds[op.LabelName]
	if !ok {
		return ast.SizeAuto, true // unresolved until link pass 1; checked later
	}
	switch kind {
	case LabelByteData:
		return ast.SizeByte, true
	case LabelWordData:
		return ast.SizeWord, true
	case LabelInstruction:
		errs.Addf(vmerrors.CodeLabelShouldBeWritable, op.Pos, "%s names an instruction, not a data location", op.LabelName)
		return ast.SizeAuto, false
	case LabelEquConst:
		return ast.SizeAuto, true
	default:
		return ast.SizeAuto, true
	}
}

// isEquConst reports whether name is known (at this point in the scan) to
// name an EQU constant rather than an addressable location.
func isEquConst(name string, labelKinds map[string]LabelKind) bool {
	k, ok := labelKinds[name]
	return ok && k == LabelEquConst
}

func validateBinary(st ast.Statement, labelKinds map[string]LabelKind, errs *vmerrors.Bag) (Instruction, bool) {
	if len(st.Operands) != 2 {
		errs.Addf(vmerrors.CodeWrongOperandCount, st.Pos, "%s requires exactly two operands", st.Mnemonic)
		return Instruction{}, false
	}
	dst, src := st.Operands[0], st.Operands[1]

	if isMemoryKind(dst) && isMemoryKind(src) {
		errs.Addf(vmerrors.CodeDoubleMemoryAccess, st.Pos, "%s cannot access memory on both operands", st.Mnemonic)
		return Instruction{}, false
	}
	if dst.Kind == ast.OperandImmediate {
		errs.Addf(vmerrors.CodeDestinationIsImmediate, dst.Pos, "%s cannot write to an immediate", st.Mnemonic)
		return Instruction{}, false
	}

	vdst, dstSize, ok := classifyOperand(dst, labelKinds, errs, true)
	if !ok {
		return Instruction{}, false
	}
	vsrc, srcSize, ok := classifyOperand(src, labelKinds, errs, false)
	if !ok {
		return Instruction{}, false
	}

	size := dstSize
	if dstSize == ast.SizeAuto {
		size = srcSize
	}
	if size == ast.SizeAuto {
		errs.Addf(vmerrors.CodeUnknownSize, st.Pos, "%s cannot infer an operand size; add BYTE PTR or WORD PTR", st.Mnemonic)
		return Instruction{}, false
	}
	if dstSize != ast.SizeAuto && srcSize != ast.SizeAuto && dstSize != srcSize {
		errs.Addf(vmerrors.CodeSizeMismatch, st.Pos, "%s operand sizes disagree", st.Mnemonic)
		return Instruction{}, false
	}
	vdst.Size = size
	vsrc.Size = size

	return Instruction{
		Label: st.Label, Mnemonic: st.Mnemonic, Class: ClassBinary, Size: size,
		Operands: []ValidatedOperand{vdst, vsrc}, Pos: st.Pos,
	}, true
}

func isMemoryKind(op ast.Operand) bool {
	switch op.Kind {
	case ast.OperandMemoryDirect, ast.OperandMemoryIndirect:
		return true
	case ast.OperandLabelRef:
		return true
	}
	return false
}

// classifyOperand turns an ast.Operand into a ValidatedOperand plus its
// known size (SizeAuto if the operand carries no inherent size, e.g. a
// bare immediate or an as-yet-unresolved label).
func classifyOperand(op ast.Operand, labelKinds map[string]LabelKind, errs *vmerrors.Bag, isDest bool) (ValidatedOperand, ast.Size, bool) {
	switch op.Kind {
	case ast.OperandRegister:
		size := registerSize(op.Register)
		return ValidatedOperand{Kind: OpRegister, Register: op.Register}, size, true
	case ast.OperandMemoryIndirect:
		return ValidatedOperand{Kind: OpMemoryIndirect}, op.SizeHint, true
	case ast.OperandMemoryDirect:
		return ValidatedOperand{Kind: OpMemoryDirect, AddressExpr: op.AddressExpr}, op.SizeHint, true
	case ast.OperandLabelRef:
		if isEquConst(op.LabelName, labelKinds) {
			if isDest {
				errs.Addf(vmerrors.CodeDestinationIsImmediate, op.Pos, "%s is a constant, not a writable location", op.LabelName)
				return ValidatedOperand{}, ast.SizeAuto, false
			}
			return ValidatedOperand{Kind: OpImmediate, LabelName: op.LabelName}, ast.SizeAuto, true
		}
		size, ok := resolveLabelSize(op, labelKinds, errs)
		if !ok {
			return ValidatedOperand{}, ast.SizeAuto, false
		}
		if isDest {
			if k, ok := labelKinds[op.LabelName]; ok && k == LabelInstruction {
				errs.Addf(vmerrors.CodeLabelShouldBeWritable, op.Pos, "%s is not a writable data location", op.LabelName)
				return ValidatedOperand{}, ast.SizeAuto, false
			}
		}
		return ValidatedOperand{Kind: OpMemoryDirect, LabelName: op.LabelName}, size, true
	case ast.OperandImmediate:
		if isDest {
			errs.Addf(vmerrors.CodeDestinationIsImmediate, op.Pos, "an immediate cannot be a destination")
			return ValidatedOperand{}, ast.SizeAuto, false
		}
		return ValidatedOperand{Kind: OpImmediate, Immediate: op.Immediate}, ast.SizeAuto, true
	}
	return ValidatedOperand{}, ast.SizeAuto, false
}

func validateIO(st ast.Statement, errs *vmerrors.Bag) (Instruction, bool) {
	if len(st.Operands) != 2 {
		errs.Addf(vmerrors.CodeWrongOperandCount, st.Pos, "%s requires exactly two operands", st.Mnemonic)
		return Instruction{}, false
	}
	acc, port := st.Operands[0], st.Operands[1]
	if st.Mnemonic == token.OUT {
		acc, port = st.Operands[1], st.Operands[0]
	}
	if acc.Kind != ast.OperandRegister || (acc.Register != token.RegAX && acc.Register != token.RegAL) {
		errs.Addf(vmerrors.CodeInvalidOperandKind, st.Pos, "%s requires AX or AL as the accumulator operand", st.Mnemonic)
		return Instruction{}, false
	}
	size := registerSize(acc.Register)

	var vport ValidatedOperand
	switch {
	case port.Kind == ast.OperandRegister && port.Register == token.RegDX:
		vport = ValidatedOperand{Kind: OpRegister, Register: token.RegDX}
	case port.Kind == ast.OperandImmediate:
		vport = ValidatedOperand{Kind: OpImmediate, Immediate: port.Immediate, Size: ast.SizeByte}
	default:
		errs.Addf(vmerrors.CodeInvalidOperandKind, st.Pos, "%s port must be DX or an immediate byte", st.Mnemonic)
		return Instruction{}, false
	}

	vacc := ValidatedOperand{Kind: OpRegister, Register: acc.Register, Size: size}
	var ops []ValidatedOperand
	if st.Mnemonic == token.OUT {
		ops = []ValidatedOperand{vport, vacc}
	} else {
		ops = []ValidatedOperand{vacc, vport}
	}
	return Instruction{Label: st.Label, Mnemonic: st.Mnemonic, Class: ClassIO, Size: size, Operands: ops, Pos: st.Pos}, true
}
