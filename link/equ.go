package link

import (
	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/vmerrors"
)

// resolveEquConstants builds the EQU dependency graph keyed by label name
// and evaluates every EQU in dependency order. Cycles are detected with
// Kahn's topological peel: after removing every node with in-degree zero
// repeatedly, any nodes left unremoved are exactly the ones on a cycle
// (possibly via a longer chain), and are reported as label-undefined-chain.
func resolveEquConstants(stmts []ast.Statement, addrs map[string]labelAddr, errs *vmerrors.Bag) map[string]int64 {
	equStmt := map[string]ast.Statement{}
	var order []string
	for _, st := range stmts {
		if st.Kind == ast.StmtEqu && st.Label != "" {
			equStmt[st.Label] = st
			order = append(order, st.Label)
		}
	}

	deps := map[string]map[string]bool{}
	for name, st := range equStmt {
		refs := map[string]bool{}
		labelRefs(st.EquExpr, refs)
		depSet := map[string]bool{}
		for ref := range refs {
			if _, isEqu := equStmt[ref]; isEqu {
				depSet[ref] = true
			}
		}
		deps[name] = depSet
	}

	// Kahn's algorithm: repeatedly remove nodes with no remaining
	// dependencies, appending them to a safe evaluation order.
	inDegree := map[string]int{}
	for name := range equStmt {
		inDegree[name] = len(deps[name])
	}
	// dependents[x] = set of labels that depend on x
	dependents := map[string]map[string]bool{}
	for name, ds := range deps {
		for d := range ds {
			if dependents[d] == nil {
				dependents[d] = map[string]bool{}
			}
			dependents[d][name] = true
		}
	}

	var queue []string
	for _, name := range order {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	var evalOrder []string
	removed := map[string]bool{}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if removed[n] {
			continue
		}
		removed[n] = true
		evalOrder = append(evalOrder, n)
		for dependent := range dependents[n] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(evalOrder) != len(equStmt) {
		for _, name := range order {
			if !removed[name] {
				st := equStmt[name]
				errs.Addf(vmerrors.CodeLabelUndefinedChain, st.Pos, "EQU %q participates in a dependency cycle", name)
			}
		}
	}

	consts := map[string]int64{}
	resolve := func(name string) (int64, bool) {
		if v, ok := consts[name]; ok {
			return v, true
		}
		if a, ok := addrs[name]; ok {
			return int64(a.address), true
		}
		return 0, false
	}
	for _, name := range evalOrder {
		st := equStmt[name]
		v, ok := evalExpr(st.EquExpr, resolve, errs)
		if ok {
			consts[name] = v
		}
	}
	return consts
}
