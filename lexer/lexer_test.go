package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vonsim/vonsim-core/token"
	"github.com/vonsim/vonsim-core/vmerrors"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func TestScanMnemonicRegisterImmediate(t *testing.T) {
	toks, bag := Scan("MOV AX, 10h\n")
	require.True(t, bag.Empty())
	assert.Equal(t,
		[]token.Kind{token.MOV, token.RegAX, token.Comma, token.Number, token.EOL, token.EOF},
		kinds(toks),
	)
}

func TestScanIsCaseInsensitiveForKeywords(t *testing.T) {
	toks, bag := Scan("mov al, bl\n")
	require.True(t, bag.Empty())
	assert.Equal(t,
		[]token.Kind{token.MOV, token.RegAL, token.Comma, token.RegBL, token.EOL, token.EOF},
		kinds(toks),
	)
}

func TestScanUnexpectedCharacterIsReported(t *testing.T) {
	_, bag := Scan("MOV AX, @\n")
	require.False(t, bag.Empty())
	assert.Equal(t, vmerrors.CodeUnexpectedCharacter, bag.Errs()[0].Code)
}
