package token

var kindNames = map[Kind]string{
	EOF: "EOF", EOL: "EOL",
	Number: "Number", String: "String", Identifier: "Identifier",
	RegAX: "AX", RegAL: "AL", RegAH: "AH",
	RegBX: "BX", RegBL: "BL", RegBH: "BH",
	RegCX: "CX", RegCL: "CL", RegCH: "CH",
	RegDX: "DX", RegDL: "DL", RegDH: "DH",
	RegSP: "SP", RegIP: "IP",
	KwORG: "ORG", KwEND: "END", KwDB: "DB", KwDW: "DW", KwEQU: "EQU",
	KwOFFSET: "OFFSET", KwPTR: "PTR", KwBYTE: "BYTE", KwWORD: "WORD",
	MOV: "MOV", ADD: "ADD", ADC: "ADC", SUB: "SUB", SBB: "SBB", CMP: "CMP",
	NEG: "NEG", INC: "INC", DEC: "DEC",
	AND: "AND", OR: "OR", XOR: "XOR", NOT: "NOT",
	PUSH: "PUSH", POP: "POP", PUSHF: "PUSHF", POPF: "POPF",
	IN: "IN", OUT: "OUT",
	JMP: "JMP", JC: "JC", JNC: "JNC", JZ: "JZ", JNZ: "JNZ",
	JS: "JS", JNS: "JNS", JO: "JO", JNO: "JNO",
	CALL: "CALL", RET: "RET", IRET: "IRET",
	INT: "INT", CLI: "CLI", STI: "STI", HLT: "HLT", NOP: "NOP",
	Colon: ":", Comma: ",", LBracket: "[", RBracket: "]",
	LParen: "(", RParen: ")", Plus: "+", Minus: "-", Star: "*",
	QuestionMark: "?",
}

// String renders a Kind for diagnostics.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}
