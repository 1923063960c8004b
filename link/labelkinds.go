package link

import (
	"github.com/vonsim/vonsim-core/ast"
	"github.com/vonsim/vonsim-core/token"
	"github.com/vonsim/vonsim-core/validate"
)

// CollectLabelKinds performs a cheap preliminary scan (no address
// tracking, no expression evaluation) so the semantic validator can check
// whether a label names byte data, word data, or an instruction, before
// the full two-pass address resolution runs.
func CollectLabelKinds(stmts []ast.Statement) map[string]validate.LabelKind {
	kinds := map[string]validate.LabelKind{}
	for _, st := range stmts {
		if st.Label == "" {
			continue
		}
		switch st.Kind {
		case ast.StmtData:
			if st.DataKind == token.KwDB {
				kinds[st.Label] = validate.LabelByteData
			} else {
				kinds[st.Label] = validate.LabelWordData
			}
		case ast.StmtInstruction:
			kinds[st.Label] = validate.LabelInstruction
		case ast.StmtEqu:
			kinds[st.Label] = validate.LabelEquConst
		}
	}
	return kinds
}
