package token

const (
	ILLEGAL TokenType = iota
	EOF

	// Text
	WORD
	PHRASE
	PREDICATE

	// Delimiters
	LPAREN
	RPAREN

	// Operators
	AND
	OR
)

type TokenType int

func (t TokenType) String() string {
	switch t {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case WORD:
		return "WORD"
	case PHRASE:
		return "PHRASE"
	case PREDICATE:
		return "PREDICATE"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case AND:
		return "AND"
	case OR:
		return "OR"
	default:
		return "UNKNOWN"
	}
}

// Token is a lexeme together with the rune range it occupies in the input.
// Start is inclusive and End is exclusive.
type Token struct {
	Type    TokenType
	Literal string
	Start   int
	End     int
}

// IsText reports whether the token carries clause text.
func (t Token) IsText() bool {
	return t.Type == WORD || t.Type == PHRASE
}
