// Package parser implements the recursive-descent parser that turns a
// token stream into a statement AST, per the grammar in the project spec:
// an optional label, then one of ORG / END / a data directive / an
// instruction mnemonic, one statement per source line.
package parser

import (
	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/token"
	"github.com/vonsim/vonsim-core/vmerrors"
)

// Parser consumes a token slice produced by the lexer.
type Parser struct {
	toks []token.Token
	pos  int
	errs vmerrors.Bag

	labels    map[string]bool
	sawEnd    bool
	endWasAt  int
}

// Parse runs the parser to completion, returning the statement list and any
// accumulated parse errors.
func Parse(toks []token.Token) ([]ast.Statement, *vmerrors.Bag) {
	p := &Parser{toks: toks, labels: map[string]bool{}}
	stmts := p.parseProgram()
	return stmts, &p.errs
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) curKind() token.Kind { return p.toks[p.pos].Kind }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.curKind() == k }

func (p *Parser) match(k token.Kind) (token.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if t, ok := p.match(k); ok {
		return t, true
	}
	pos := p.cur().Position
	p.errs.Addf(vmerrors.CodeExpectedToken, pos, "expected %s, got %s %q", k, p.curKind(), p.cur().Lexeme)
	return token.Token{}, false
}

// skipToEOL discards tokens until (and including) the next EOL/EOF, used to
// resynchronise after a malformed statement so later lines still parse.
func (p *Parser) skipToEOL() {
	for !p.check(token.EOL) && !p.check(token.EOF) {
		p.advance()
	}
	if p.check(token.EOL) {
		p.advance()
	}
}

func (p *Parser) skipBlankLines() {
	for p.check(token.EOL) {
		p.advance()
	}
}

func (p *Parser) parseProgram() []ast.Statement {
	var stmts []ast.Statement
	p.skipBlankLines()
	for !p.check(token.EOF) {
		pos := p.cur().Position
		stmt, ok := p.parseStatement()
		if p.sawEnd && p.endWasAt != len(stmts) {
			// An END already appeared earlier but more statements follow.
		}
		if ok {
			if p.sawEnd && stmt.Kind != ast.StmtEnd {
				p.errs.Addf(vmerrors.CodeEndMustBeLast, pos, "statement found after END")
			}
			if stmt.Kind == ast.StmtEnd {
				p.sawEnd = true
				p.endWasAt = len(stmts)
			}
			stmts = append(stmts, stmt)
		}
		p.skipBlankLines()
	}
	return stmts
}

// parseStatement parses exactly one logical line.
func (p *Parser) parseStatement() (ast.Statement, bool) {
	pos := p.cur().Position
	label := ""

	if p.check(token.Identifier) && p.peekIsLabelColon() {
		labTok := p.advance()
		p.advance() // colon
		label = labTok.Lexeme
		if p.labels[label] {
			p.errs.Addf(vmerrors.CodeDuplicatedLabel, labTok.Position, "label %q already defined", label)
		} else {
			p.labels[label] = true
		}
	}

	switch {
	case p.check(token.KwORG):
		return p.parseOrigin(pos, label)
	case p.check(token.KwEND):
		p.advance()
		p.skipToEOL()
		return ast.Statement{Kind: ast.StmtEnd, Pos: pos, Label: label}, true
	case p.check(token.KwDB), p.check(token.KwDW):
		return p.parseData(pos, label)
	case p.check(token.KwEQU):
		return p.parseEqu(pos, label)
	case p.curKind().IsMnemonic():
		return p.parseInstruction(pos, label)
	case p.check(token.EOL):
		p.advance()
		return ast.Statement{}, false
	default:
		p.errs.Addf(vmerrors.CodeExpectedToken, pos, "expected a directive or mnemonic, got %s %q", p.curKind(), p.cur().Lexeme)
		p.skipToEOL()
		return ast.Statement{}, false
	}
}

// peekIsLabelColon reports whether the current Identifier token is
// immediately followed by a colon, i.e. it is a label definition rather
// than a bare operand reference (labels never need a colon-less form in
// statement position).
func (p *Parser) peekIsLabelColon() bool {
	return p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.Colon
}

func (p *Parser) parseOrigin(pos vmerrors.Position, label string) (ast.Statement, bool) {
	p.advance() // ORG
	expr, ok := p.parseExpr()
	if !ok {
		p.skipToEOL()
		return ast.Statement{}, false
	}
	p.skipToEOL()
	return ast.Statement{Kind: ast.StmtOrigin, Pos: pos, Label: label, OriginAddress: expr}, true
}

func (p *Parser) parseData(pos vmerrors.Position, label string) (ast.Statement, bool) {
	kind := p.advance().Kind // DB or DW
	var values []ast.DataValue
	for {
		switch {
		case p.check(token.QuestionMark):
			p.advance()
			values = append(values, ast.DataValue{Kind: ast.DataValueUnassigned})
		case p.check(token.String):
			t := p.advance()
			values = append(values, ast.DataValue{Kind: ast.DataValueString, Text: t.Lexeme})
		default:
			expr, ok := p.parseExpr()
			if !ok {
				p.skipToEOL()
				return ast.Statement{}, false
			}
			values = append(values, ast.DataValue{Kind: ast.DataValueNumber, Number: expr})
		}
		if _, ok := p.match(token.Comma); !ok {
			break
		}
	}
	p.skipToEOL()
	return ast.Statement{Kind: ast.StmtData, Pos: pos, Label: label, DataKind: kind, DataValues: values}, true
}

func (p *Parser) parseEqu(pos vmerrors.Position, label string) (ast.Statement, bool) {
	p.advance() // EQU
	expr, ok := p.parseExpr()
	if !ok {
		p.skipToEOL()
		return ast.Statement{}, false
	}
	p.skipToEOL()
	return ast.Statement{Kind: ast.StmtEqu, Pos: pos, Label: label, EquExpr: expr}, true
}

func (p *Parser) parseInstruction(pos vmerrors.Position, label string) (ast.Statement, bool) {
	mnemonic := p.advance().Kind
	var operands []ast.Operand
	if !p.check(token.EOL) && !p.check(token.EOF) {
		for {
			op, ok := p.parseOperand()
			if !ok {
				p.skipToEOL()
				return ast.Statement{}, false
			}
			operands = append(operands, op)
			if _, ok := p.match(token.Comma); !ok {
				break
			}
		}
	}
	p.skipToEOL()
	return ast.Statement{Kind: ast.StmtInstruction, Pos: pos, Label: label, Mnemonic: mnemonic, Operands: operands}, true
}

// parseOperand parses one instruction operand: a bare register, a bare
// identifier (data label, equivalent to [OFFSET label]), [BX], [expr],
// BYTE/WORD PTR [...], or an immediate number expression.
func (p *Parser) parseOperand() (ast.Operand, bool) {
	pos := p.cur().Position

	if p.curKind().IsRegister() {
		reg := p.advance().Kind
		return ast.Operand{Kind: ast.OperandRegister, Pos: pos, Register: reg}, true
	}

	sizeHint := ast.SizeAuto
	if p.check(token.KwBYTE) || p.check(token.KwWORD) {
		if p.check(token.KwBYTE) {
			sizeHint = ast.SizeByte
		} else {
			sizeHint = ast.SizeWord
		}
		p.advance()
		if _, ok := p.expect(token.KwPTR); !ok {
			return ast.Operand{}, false
		}
	}

	if p.check(token.LBracket) {
		p.advance()
		if p.check(token.RegBX) {
			p.advance()
			if _, ok := p.expect(token.RBracket); !ok {
				return ast.Operand{}, false
			}
			return ast.Operand{Kind: ast.OperandMemoryIndirect, Pos: pos, SizeHint: sizeHint}, true
		}
		expr, ok := p.parseExpr()
		if !ok {
			return ast.Operand{}, false
		}
		if _, ok := p.expect(token.RBracket); !ok {
			return ast.Operand{}, false
		}
		return ast.Operand{Kind: ast.OperandMemoryDirect, Pos: pos, AddressExpr: expr, SizeHint: sizeHint}, true
	}

	if sizeHint != ast.SizeAuto {
		pos2 := p.cur().Position
		p.errs.Addf(vmerrors.CodeUnknownSize, pos2, "BYTE/WORD PTR must be followed by [...]")
		return ast.Operand{}, false
	}

	if p.check(token.Identifier) {
		name := p.advance().Lexeme
		return ast.Operand{Kind: ast.OperandLabelRef, Pos: pos, LabelName: name}, true
	}

	expr, ok := p.parseExpr()
	if !ok {
		return ast.Operand{}, false
	}
	return ast.Operand{Kind: ast.OperandImmediate, Pos: pos, Immediate: expr}, true
}

// --- Number-expression grammar ---
//
//	expr   := term
//	term   := factor (( '+' | '-' ) factor)*
//	factor := unary (( '*' ) unary)*
//	unary  := ( '+' | '-' ) unary | primary
//	primary:= number | 'OFFSET' IDENT | IDENT | '(' expr ')'

func (p *Parser) parseExpr() (*ast.Expr, bool) { return p.parseTerm() }

func (p *Parser) parseTerm() (*ast.Expr, bool) {
	left, ok := p.parseFactor()
	if !ok {
		return nil, false
	}
	for p.check(token.Plus) || p.check(token.Minus) {
		op := p.advance()
		right, ok := p.parseFactor()
		if !ok {
			return nil, false
		}
		left = &ast.Expr{Kind: ast.ExprBinary, Pos: op.Position, BinOp: op.Kind, Left: left, Right: right}
	}
	return left, true
}

func (p *Parser) parseFactor() (*ast.Expr, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	for p.check(token.Star) {
		op := p.advance()
		right, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		left = &ast.Expr{Kind: ast.ExprBinary, Pos: op.Position, BinOp: op.Kind, Left: left, Right: right}
	}
	return left, true
}

func (p *Parser) parseUnary() (*ast.Expr, bool) {
	if p.check(token.Plus) || p.check(token.Minus) {
		op := p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprUnary, Pos: op.Position, UnaryOp: op.Kind, Operand: operand}, true
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*ast.Expr, bool) {
	pos := p.cur().Position
	switch {
	case p.check(token.Number):
		t := p.advance()
		n, err := parseNumberLiteral(t.Lexeme)
		if err != nil {
			p.errs.Addf(vmerrors.CodeExpectedToken, t.Position, "%s", err.Error())
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprNumber, Pos: pos, Number: n}, true
	case p.check(token.KwOFFSET):
		p.advance()
		id, ok := p.expect(token.Identifier)
		if !ok {
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprOffsetLabel, Pos: pos, Label: id.Lexeme}, true
	case p.check(token.Identifier):
		id := p.advance()
		return &ast.Expr{Kind: ast.ExprLabel, Pos: pos, Label: id.Lexeme}, true
	case p.check(token.LParen):
		p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RParen); !ok {
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprParen, Pos: pos, Inner: inner}, true
	default:
		p.errs.Addf(vmerrors.CodeExpectedToken, pos, "expected a number, label, or '(', got %s %q", p.curKind(), p.cur().Lexeme)
		return nil, false
	}
}
