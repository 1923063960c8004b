package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// parseNumberLiteral accepts decimal, "...h" hex, and "...b" binary forms,
// suffix case-insensitive, as scanned by the lexer.
func parseNumberLiteral(lexeme string) (int64, error) {
	if lexeme == "" {
		return 0, fmt.Errorf("empty number literal")
	}
	last := lexeme[len(lexeme)-1]
	switch last {
	case 'h', 'H':
		digits := lexeme[:len(lexeme)-1]
		// The lexer only produces Number tokens that start with a decimal
		// digit, so a hex literal cannot be confused with an identifier;
		// only an empty digit run is rejected here.
		if digits == "" {
			return 0, fmt.Errorf("malformed hex literal %q", lexeme)
		}
		n, err := strconv.ParseInt(digits, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed hex literal %q", lexeme)
		}
		return n, nil
	case 'b', 'B':
		digits := lexeme[:len(lexeme)-1]
		if digits == "" || strings.ContainsAny(digits, "23456789abcdefABCDEF") {
			return 0, fmt.Errorf("malformed binary literal %q", lexeme)
		}
		n, err := strconv.ParseInt(digits, 2, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed binary literal %q", lexeme)
		}
		return n, nil
	default:
		n, err := strconv.ParseInt(lexeme, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed decimal literal %q", lexeme)
		}
		return n, nil
	}
}
