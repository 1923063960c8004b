package link

import (
	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/token"
	"github.com/vonsim/vonsim-core/vmerrors"
)

// resolver looks up a label's numeric value, whether it names an EQU
// constant, a data address, or an instruction address — the grammar makes
// no distinction between OFFSET label and a bare label inside an
// expression, both resolve to the same integer.
type resolver func(name string) (int64, bool)

// evalExpr evaluates a number-expression tree with unbounded intermediate
// range; only the final value is range-checked by the caller.
func evalExpr(e *ast.Expr, resolve resolver, errs *vmerrors.Bag) (int64, bool) {
	switch e.Kind {
	case ast.ExprNumber:
		return e.Number, true
	case ast.ExprLabel, ast.ExprOffsetLabel:
		v, ok := resolve(e.Label)
		if !ok {
			errs.Addf(vmerrors.CodeLabelNotFound, e.Pos, "label %q not found", e.Label)
			return 0, false
		}
		return v, true
	case ast.ExprUnary:
		v, ok := evalExpr(e.Operand, resolve, errs)
		if !ok {
			return 0, false
		}
		if e.UnaryOp == token.Minus {
			return -v, true
		}
		return v, true
	case ast.ExprBinary:
		l, ok := evalExpr(e.Left, resolve, errs)
		if !ok {
			return 0, false
		}
		r, ok := evalExpr(e.Right, resolve, errs)
		if !ok {
			return 0, false
		}
		switch e.BinOp {
		case token.Plus:
			return l + r, true
		case token.Minus:
			return l - r, true
		case token.Star:
			return l * r, true
		}
		return 0, false
	case ast.ExprParen:
		return evalExpr(e.Inner, resolve, errs)
	}
	return 0, false
}

// labelRefs collects every bare/OFFSET label name referenced anywhere in
// e, used to build the EQU dependency graph.
func labelRefs(e *ast.Expr, out map[string]bool) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprLabel, ast.ExprOffsetLabel:
		out[e.Label] = true
	case ast.ExprUnary:
		labelRefs(e.Operand, out)
	case ast.ExprBinary:
		labelRefs(e.Left, out)
		labelRefs(e.Right, out)
	case ast.ExprParen:
		labelRefs(e.Inner, out)
	}
}
