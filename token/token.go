// Package token defines the lexical tokens produced by the lexer and
// consumed by the parser.
package token

import "github.com/vonsim/vonsim-core/vmerrors"

// Kind identifies the lexical class of a Token.
type Kind int

const (
	EOF Kind = iota
	EOL

	// Literals
	Number
	String
	Identifier

	// Registers
	RegAX
	RegAL
	RegAH
	RegBX
	RegBL
	RegBH
	RegCX
	RegCL
	RegCH
	RegDX
	RegDL
	RegDH
	RegSP
	RegIP

	// Keywords / directives
	KwORG
	KwEND
	KwDB
	KwDW
	KwEQU
	KwOFFSET
	KwPTR
	KwBYTE
	KwWORD

	// Mnemonics
	MnemonicStart
	MOV
	ADD
	ADC
	SUB
	SBB
	CMP
	NEG
	INC
	DEC
	AND
	OR
	XOR
	NOT
	PUSH
	POP
	PUSHF
	POPF
	IN
	OUT
	JMP
	JC
	JNC
	JZ
	JNZ
	JS
	JNS
	JO
	JNO
	CALL
	RET
	IRET
	INT
	CLI
	STI
	HLT
	NOP
	MnemonicEnd

	// Punctuation
	Colon
	Comma
	LBracket
	RBracket
	LParen
	RParen
	Plus
	Minus
	Star
	QuestionMark
)

// Token is a single lexical unit: kind, raw lexeme, and source position.
type Token struct {
	Kind     Kind
	Lexeme   string
	Position vmerrors.Position
}

// IsMnemonic reports whether k names an instruction mnemonic.
func (k Kind) IsMnemonic() bool { return k > MnemonicStart && k < MnemonicEnd }

// IsRegister reports whether k names a register token.
func (k Kind) IsRegister() bool { return k >= RegAX && k <= RegIP }

// IsWordRegister reports whether k names a 16-bit register.
func (k Kind) IsWordRegister() bool {
	switch k {
	case RegAX, RegBX, RegCX, RegDX, RegSP, RegIP:
		return true
	}
	return false
}

// IsByteRegister reports whether k names an 8-bit register half.
func (k Kind) IsByteRegister() bool {
	switch k {
	case RegAL, RegAH, RegBL, RegBH, RegCL, RegCH, RegDL, RegDH:
		return true
	}
	return false
}

// keywords and registers are matched before plain identifiers; identifiers
// are upper-cased for the lookup, per the spec's case-insensitivity rule.
var keywords = map[string]Kind{
	"ORG": KwORG, "END": KwEND, "DB": KwDB, "DW": KwDW, "EQU": KwEQU,
	"OFFSET": KwOFFSET, "PTR": KwPTR, "BYTE": KwBYTE, "WORD": KwWORD,

	"AX": RegAX, "AL": RegAL, "AH": RegAH,
	"BX": RegBX, "BL": RegBL, "BH": RegBH,
	"CX": RegCX, "CL": RegCL, "CH": RegCH,
	"DX": RegDX, "DL": RegDL, "DH": RegDH,
	"SP": RegSP, "IP": RegIP,

	"MOV": MOV, "ADD": ADD, "ADC": ADC, "SUB": SUB, "SBB": SBB, "CMP": CMP,
	"NEG": NEG, "INC": INC, "DEC": DEC,
	"AND": AND, "OR": OR, "XOR": XOR, "NOT": NOT,
	"PUSH": PUSH, "POP": POP, "PUSHF": PUSHF, "POPF": POPF,
	"IN": IN, "OUT": OUT,
	"JMP": JMP, "JC": JC, "JNC": JNC, "JZ": JZ, "JNZ": JNZ,
	"JS": JS, "JNS": JNS, "JO": JO, "JNO": JNO,
	"CALL": CALL, "RET": RET, "IRET": IRET,
	"INT": INT, "CLI": CLI, "STI": STI, "HLT": HLT, "NOP": NOP,
}

// Lookup resolves an upper-cased identifier to a reserved Kind, or
// reports ok=false if it is a plain user identifier.
func Lookup(upper string) (Kind, bool) {
	k, ok := keywords[upper]
	return k, ok
}
