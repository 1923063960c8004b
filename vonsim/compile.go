// Package vonsim is the top-level facade: Compile turns source text into
// an assembled Program, and Simulator drives that program on a virtual
// machine built from bus/pic/iodevice/device/cpu, exposing its run as an
// event stream a consumer can watch live.
package vonsim

import (
	"github.com/vonsim/vonsim-core/lexer"
	"github.com/vonsim/vonsim-core/link"
	"github.com/vonsim/vonsim-core/parser"
	"github.com/vonsim/vonsim-core/validate"
	"github.com/vonsim/vonsim-core/vmerrors"
)

// Compile runs the full lexer -> parser -> validator -> linker pipeline
// over source and returns the assembled Program, or the errors from
// whichever phase failed first. Every phase that can keeps accumulating
// diagnostics rather than stopping at the first one.
func Compile(source string) (*link.Program, []*vmerrors.Error) {
	toks, bag := lexer.Scan(source)
	if !bag.Empty() {
		return nil, bag.Errs()
	}

	stmts, bag := parser.Parse(toks)
	if !bag.Empty() {
		return nil, bag.Errs()
	}

	labelKinds := link.CollectLabelKinds(stmts)
	instrs, bag := validate.Validate(stmts, labelKinds)
	if !bag.Empty() {
		return nil, bag.Errs()
	}

	prog, bag := link.Resolve(stmts, instrs)
	if !bag.Empty() {
		return nil, bag.Errs()
	}
	return prog, nil
}
