package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/lexer"
	"github.com/vonsim/vonsim-core/vmerrors"
)

func parse(t *testing.T, src string) []ast.Statement {
	t.Helper()
	toks, bag := lexer.Scan(src)
	require.True(t, bag.Empty(), "lexer errors: %v", bag.Errs())
	stmts, perrs := Parse(toks)
	require.True(t, perrs.Empty(), "parser errors: %v", perrs.Errs())
	return stmts
}

func TestParseLabelAndInstruction(t *testing.T) {
	stmts := parse(t, "start: MOV AX, 10h\n")
	require.Len(t, stmts, 1)
	s := stmts[0]
	assert.Equal(t, ast.StmtInstruction, s.Kind)
	assert.Equal(t, "START", s.Label)
	require.Len(t, s.Operands, 2)
	assert.Equal(t, ast.OperandImmediate, s.Operands[1].Kind)
}

func TestParseOriginDirective(t *testing.T) {
	stmts := parse(t, "ORG 1000h\n")
	require.Len(t, stmts, 1)
	assert.Equal(t, ast.StmtOrigin, stmts[0].Kind)
	require.NotNil(t, stmts[0].OriginAddress)
	assert.Equal(t, ast.ExprNumber, stmts[0].OriginAddress.Kind)
}

func TestParseDataDirectiveWithMixedValues(t *testing.T) {
	stmts := parse(t, "msg: DB 1, ?, \"hi\"\n")
	require.Len(t, stmts, 1)
	s := stmts[0]
	require.Len(t, s.DataValues, 3)
	assert.Equal(t, ast.DataValueNumber, s.DataValues[0].Kind)
	assert.Equal(t, ast.DataValueUnassigned, s.DataValues[1].Kind)
	assert.Equal(t, ast.DataValueString, s.DataValues[2].Kind)
	assert.Equal(t, "hi", s.DataValues[2].Text)
}

func TestParseMemoryIndirectOperand(t *testing.T) {
	stmts := parse(t, "MOV AL, [BX]\n")
	require.Len(t, stmts, 1)
	op := stmts[0].Operands[1]
	assert.Equal(t, ast.OperandMemoryIndirect, op.Kind)
}

func TestParseMemoryDirectWithSizeHint(t *testing.T) {
	stmts := parse(t, "MOV BYTE PTR [1000h], 1\n")
	require.Len(t, stmts, 1)
	op := stmts[0].Operands[0]
	assert.Equal(t, ast.OperandMemoryDirect, op.Kind)
	assert.Equal(t, ast.SizeByte, op.SizeHint)
}

func TestParseExpressionPrecedence(t *testing.T) {
	// 2 + 3 * 4 should bind as 2 + (3 * 4)
	stmts := parse(t, "DW 2 + 3 * 4\n")
	expr := stmts[0].DataValues[0].Number
	require.Equal(t, ast.ExprBinary, expr.Kind)
	require.Equal(t, ast.ExprNumber, expr.Left.Kind)
	assert.EqualValues(t, 2, expr.Left.Number)
	assert.Equal(t, ast.ExprBinary, expr.Right.Kind)
}

func TestParseDuplicateLabelIsReported(t *testing.T) {
	toks, bag := lexer.Scan("a: NOP\na: NOP\n")
	require.True(t, bag.Empty())
	_, perrs := Parse(toks)
	require.False(t, perrs.Empty())
	assert.Equal(t, vmerrors.CodeDuplicatedLabel, perrs.Errs()[0].Code)
}

func TestParseStatementAfterEndIsReported(t *testing.T) {
	toks, bag := lexer.Scan("END\nNOP\n")
	require.True(t, bag.Empty())
	_, perrs := Parse(toks)
	require.False(t, perrs.Empty())
	assert.Equal(t, vmerrors.CodeEndMustBeLast, perrs.Errs()[0].Code)
}
