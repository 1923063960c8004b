package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vonsim/vonsim-core/lexer"
	"github.com/vonsim/vonsim-core/parser"
	"github.com/vonsim/vonsim-core/validate"
	"github.com/vonsim/vonsim-core/vmerrors"
)

func TestResolveAssignsAddressesAndEncodesBytes(t *testing.T) {
	toks, bag := lexer.Scan("ORG 0\nMOV AL, 5\nHLT\n")
	require.True(t, bag.Empty())
	stmts, perrs := parser.Parse(toks)
	require.True(t, perrs.Empty())

	insts, verrs := validate.Validate(stmts, map[string]validate.LabelKind{})
	require.True(t, verrs.Empty())

	prog, rerrs := Resolve(stmts, insts)
	require.True(t, rerrs.Empty())
	require.NotNil(t, prog)

	require.Len(t, prog.Instructions, 2)
	assert.EqualValues(t, 0, prog.Instructions[0].Address)
	assert.Greater(t, len(prog.CodeBytes), 0)
}

func TestResolveAssignsLabelAddress(t *testing.T) {
	toks, bag := lexer.Scan("ORG 0\nloop: HLT\nJMP loop\n")
	require.True(t, bag.Empty())
	stmts, perrs := parser.Parse(toks)
	require.True(t, perrs.Empty())

	labelKinds := map[string]validate.LabelKind{"LOOP": validate.LabelInstruction}
	insts, verrs := validate.Validate(stmts, labelKinds)
	require.True(t, verrs.Empty())

	prog, rerrs := Resolve(stmts, insts)
	require.True(t, rerrs.Empty())

	info, ok := prog.LabelAddresses["LOOP"]
	require.True(t, ok)
	assert.EqualValues(t, 0, info.Address)
	assert.Equal(t, validate.LabelInstruction, info.Kind)
}

func TestResolveRequiresOrgBeforeFirstStatement(t *testing.T) {
	toks, bag := lexer.Scan("HLT\n")
	require.True(t, bag.Empty())
	stmts, perrs := parser.Parse(toks)
	require.True(t, perrs.Empty())

	insts, verrs := validate.Validate(stmts, map[string]validate.LabelKind{})
	require.True(t, verrs.Empty())

	_, rerrs := Resolve(stmts, insts)
	require.False(t, rerrs.Empty())
	assert.Equal(t, vmerrors.CodeMissingOrg, rerrs.Errs()[0].Code)
}

func TestResolveEvaluatesEquConstantsInDependencyOrder(t *testing.T) {
	toks, bag := lexer.Scan("base: EQU 5\ndouble: EQU base * 2\nORG 0\nDB double\n")
	require.True(t, bag.Empty())
	stmts, perrs := parser.Parse(toks)
	require.True(t, perrs.Empty())

	insts, verrs := validate.Validate(stmts, map[string]validate.LabelKind{
		"BASE": validate.LabelEquConst, "DOUBLE": validate.LabelEquConst,
	})
	require.True(t, verrs.Empty())

	prog, rerrs := Resolve(stmts, insts)
	require.True(t, rerrs.Empty())

	assert.EqualValues(t, 10, prog.Consts["DOUBLE"])
	assert.EqualValues(t, 10, prog.DataBytes[0])
}

func TestResolveDataDirectiveEncodesBytesAndWords(t *testing.T) {
	toks, bag := lexer.Scan("ORG 0\nvals: DB 1, 2\ncnt: DW 300\n")
	require.True(t, bag.Empty())
	stmts, perrs := parser.Parse(toks)
	require.True(t, perrs.Empty())

	insts, verrs := validate.Validate(stmts, map[string]validate.LabelKind{})
	require.True(t, verrs.Empty())

	prog, rerrs := Resolve(stmts, insts)
	require.True(t, rerrs.Empty())

	assert.EqualValues(t, 1, prog.DataBytes[0])
	assert.EqualValues(t, 2, prog.DataBytes[1])
	assert.EqualValues(t, 300&0xFF, prog.DataBytes[2])
	assert.EqualValues(t, 300>>8, prog.DataBytes[3])
}
