// Package link implements the two-pass address resolver and opcode
// encoder described by the project spec: pass 1 assigns addresses and
// builds the label table, pass 2 evaluates every expression against that
// table and emits bytes into a sparse code/data image.
package link

import (
	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/token"
	"github.com/vonsim/vonsim-core/validate"
	"github.com/vonsim/vonsim-core/vmerrors"
)

const (
	MemoryLow  = 0x0000
	MemoryHigh = 0x3FFF // inclusive
)

type labelAddr struct {
	kind    validate.LabelKind
	address uint16
}

// PlacedInstruction is a validated instruction with its assigned address
// and byte length, the "meta{label?, start_address, length_bytes,
// source_position}" record named by the spec.
type PlacedInstruction struct {
	validate.Instruction
	Address uint16
	Length  int
}

// LabelInfo is one entry of Program.LabelAddresses.
type LabelInfo struct {
	Kind    validate.LabelKind
	Address uint16 // meaningless for LabelEquConst; see Consts instead
}

// Program is the assembler's final output: a byte-exact image plus enough
// metadata to load it into a Simulator and to resolve symbols for
// disassembly/debugging.
type Program struct {
	Instructions   []PlacedInstruction
	LabelAddresses map[string]LabelInfo
	Consts         map[string]int64
	CodeBytes      map[uint16]byte
	DataBytes      map[uint16]byte
}

// placement is an internal pass-1 record: one statement, resolved to an
// address and length, not yet evaluated or encoded.
type placement struct {
	stmt    ast.Statement
	address uint16
	length  int
}

// Resolve runs both passes over a parsed, validated statement list and
// produces a Program, or a bag of resolution errors.
func Resolve(stmts []ast.Statement, instrs []validate.Instruction) (*Program, *vmerrors.Bag) {
	var errs vmerrors.Bag

	instrByPos := map[vmerrors.Position]validate.Instruction{}
	for _, in := range instrs {
		instrByPos[in.Pos] = in
	}

	// --- Pass 1: address assignment ---
	// ORG operands are numeric literals in practice, so they are evaluated
	// eagerly here against an empty resolver (no forward EQU references)
	// rather than deferred to pass 2.
	labelAddrs := map[string]labelAddr{}
	occupied := map[uint16]bool{}
	var placements []placement

	var pointer uint16
	sawOrigin := false
	for _, st := range stmts {
		if st.Kind == ast.StmtEnd || st.Kind == ast.StmtEqu {
			continue
		}
		if st.Kind == ast.StmtOrigin {
			v, ok := evalExpr(st.OriginAddress, func(string) (int64, bool) { return 0, false }, &vmerrors.Bag{})
			if !ok || v < MemoryLow || v > MemoryHigh {
				errs.Addf(vmerrors.CodeInstructionOutOfRange, st.Pos, "ORG target out of range")
				continue
			}
			pointer = uint16(v)
			sawOrigin = true
			continue
		}
		if !sawOrigin {
			errs.Addf(vmerrors.CodeMissingOrg, st.Pos, "no ORG precedes this statement")
			continue
		}

		length := 0
		switch st.Kind {
		case ast.StmtData:
			length = dataLength(st)
		case ast.StmtInstruction:
			inst, ok := instrByPos[st.Pos]
			if !ok {
				continue
			}
			length = Length(inst)
		}

		start := pointer
		end := uint32(start) + uint32(length)
		if end > uint32(MemoryHigh)+1 {
			errs.Addf(vmerrors.CodeInstructionOutOfRange, st.Pos, "statement at %04Xh extends past %04Xh", start, MemoryHigh)
		} else {
			for a := start; uint32(a) < end; a++ {
				if occupied[a] {
					errs.Addf(vmerrors.CodeOccupiedAddress, st.Pos, "address %04Xh already occupied", a)
					break
				}
				occupied[a] = true
			}
		}

		if st.Label != "" {
			var kind validate.LabelKind
			switch st.Kind {
			case ast.StmtData:
				if st.DataKind == token.KwDB {
					kind = validate.LabelByteData
				} else {
					kind = validate.LabelWordData
				}
			case ast.StmtInstruction:
				kind = validate.LabelInstruction
			}
			labelAddrs[st.Label] = labelAddr{kind: kind, address: start}
		}

		placements = append(placements, placement{stmt: st, address: start, length: length})
		pointer = uint16(end)
	}

	if !errs.Empty() {
		return nil, &errs
	}

	// --- EQU constants ---
	consts := resolveEquConstants(stmts, labelAddrs, &errs)

	resolve := func(name string) (int64, bool) {
		if v, ok := consts[name]; ok {
			return v, true
		}
		if a, ok := labelAddrs[name]; ok {
			return int64(a.address), true
		}
		return 0, false
	}

	// --- Pass 2: evaluate + encode ---
	prog := &Program{
		LabelAddresses: map[string]LabelInfo{},
		Consts:         consts,
		CodeBytes:      map[uint16]byte{},
		DataBytes:      map[uint16]byte{},
	}
	for name, a := range labelAddrs {
		prog.LabelAddresses[name] = LabelInfo{Kind: a.kind, Address: a.address}
	}

	for _, pl := range placements {
		switch pl.stmt.Kind {
		case ast.StmtData:
			encodeData(pl, resolve, prog, &errs)
		case ast.StmtInstruction:
			inst := instrByPos[pl.stmt.Pos]
			placed := PlacedInstruction{Instruction: inst, Address: pl.address, Length: pl.length}
			bytes, ok := EncodeInstruction(placed, resolve, labelAddrs, &errs)
			if ok {
				for i, b := range bytes {
					prog.CodeBytes[pl.address+uint16(i)] = b
				}
			}
			prog.Instructions = append(prog.Instructions, placed)
		}
	}

	if !errs.Empty() {
		return nil, &errs
	}
	return prog, &errs
}

func dataLength(st ast.Statement) int {
	if st.DataKind == token.KwDW {
		return 2 * len(st.DataValues)
	}
	total := 0
	for _, dv := range st.DataValues {
		if dv.Kind == ast.DataValueString {
			total += len(dv.Text)
		} else {
			total++
		}
	}
	return total
}

func encodeData(pl placement, resolve resolver, prog *Program, errs *vmerrors.Bag) {
	st := pl.stmt
	isWord := st.DataKind == token.KwDW
	addr := pl.address
	for _, dv := range st.DataValues {
		switch dv.Kind {
		case ast.DataValueUnassigned:
			// no byte is emitted; the RAM cell keeps whatever it held
			// when the image is loaded.
			if isWord {
				addr += 2
			} else {
				addr++
			}
		case ast.DataValueString:
			for _, ch := range []byte(dv.Text) {
				prog.DataBytes[addr] = ch
				addr++
			}
		case ast.DataValueNumber:
			v, ok := evalExpr(dv.Number, resolve, errs)
			if ok {
				prog.DataBytes[addr] = byte(v)
				if isWord {
					prog.DataBytes[addr+1] = byte(v >> 8)
				}
			}
			if isWord {
				addr += 2
			} else {
				addr++
			}
		}
	}
}
