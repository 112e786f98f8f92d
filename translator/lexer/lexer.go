package lexer

import "github.com/thisisjab/querybridge/translator/token"

type Lexer struct {
	input   []rune
	pos     int  // position of the current character in the input string
	readPos int  // position of the next character to be read
	char    rune // current character being processed
}

const (
	matchPhraseKeyword = "MATCH_PHRASE"
	regexpKeyword      = "REGEXP"
)

func New(input string) *Lexer {
	l := &Lexer{[]rune(input), 0, 0, 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.char = 0
	} else {
		l.char = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// seek moves the lexer so that the current character is at pos.
func (l *Lexer) seek(pos int) {
	l.readPos = pos
	l.readChar()
}

// Slice returns the input text between two rune offsets.
func (l *Lexer) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(l.input) {
		end = len(l.input)
	}
	if start >= end {
		return ""
	}
	return string(l.input[start:end])
}

// Len returns the input length in runes.
func (l *Lexer) Len() int {
	return len(l.input)
}

// Tokens drains the lexer. The returned slice always ends with an EOF token.
func (l *Lexer) Tokens() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	start := l.pos

	switch l.char {
	case 0:
		if l.pos >= len(l.input) {
			return token.Token{Type: token.EOF, Literal: "", Start: start, End: start}
		}
		// NUL inside the input is plain text.
		return l.readText()
	case '(':
		l.readChar()
		return token.Token{Type: token.LPAREN, Literal: "(", Start: start, End: l.pos}
	case ')':
		l.readChar()
		return token.Token{Type: token.RPAREN, Literal: ")", Start: start, End: l.pos}
	}

	if end := l.scanPredicate(start); end > 0 {
		l.seek(end)
		return token.Token{Type: token.PREDICATE, Literal: string(l.input[start:end]), Start: start, End: end}
	}

	return l.readText()
}

// readText reads a run of non-whitespace, non-paren characters. Quoted
// sections are consumed whole, so they may contain spaces and parens.
func (l *Lexer) readText() token.Token {
	start := l.pos
	quotedOnly := l.char == '"' || l.char == '\''

	for {
		if l.pos >= len(l.input) || isWhitespace(l.char) || l.char == '(' || l.char == ')' {
			break
		}

		if l.opensQuote(start) {
			closed := l.skipQuoted(l.char)
			if !closed {
				quotedOnly = false
				break
			}
			// The closing quote was the last character of a leading phrase.
			if l.pos >= len(l.input) || isWhitespace(l.char) || l.char == '(' || l.char == ')' {
				break
			}
			quotedOnly = false
			continue
		}

		quotedOnly = false
		l.readChar()
	}

	literal := string(l.input[start:l.pos])
	tok := token.Token{Type: token.WORD, Literal: literal, Start: start, End: l.pos}

	switch {
	case quotedOnly && len([]rune(literal)) >= 2:
		tok.Type = token.PHRASE
	case literal == "AND" && l.isOperatorPosition(start, l.pos):
		tok.Type = token.AND
	case literal == "OR" && l.isOperatorPosition(start, l.pos):
		tok.Type = token.OR
	}

	return tok
}

// opensQuote reports whether the current character starts a quoted section.
// Double quotes always do; a single quote only at the start of a word or
// right after a colon, so apostrophes inside words stay literal.
func (l *Lexer) opensQuote(wordStart int) bool {
	switch l.char {
	case '"':
		return true
	case '\'':
		return l.pos == wordStart || (l.pos > 0 && l.input[l.pos-1] == ':')
	default:
		return false
	}
}

// skipQuoted consumes a quoted section starting at the current opening quote.
// It reports false when the input ends before the closing quote.
func (l *Lexer) skipQuoted(quote rune) bool {
	l.readChar() // opening quote
	for {
		switch {
		case l.pos >= len(l.input):
			return false
		case l.char == '\\':
			l.readChar()
			if l.pos >= len(l.input) {
				return false
			}
			l.readChar()
		case l.char == quote:
			l.readChar()
			return true
		default:
			l.readChar()
		}
	}
}

// isOperatorPosition implements the " AND " / " OR " rule: the keyword must
// have whitespace on both sides.
func (l *Lexer) isOperatorPosition(start, end int) bool {
	if start == 0 || !isWhitespace(l.input[start-1]) {
		return false
	}
	return end < len(l.input) && isWhitespace(l.input[end])
}

// scanPredicate checks whether an already-resolved predicate starts at pos:
//
//	ident MATCH_PHRASE(<string>)
//	MATCH_PHRASE(<string>)
//	ident REGEXP <string>
//	ident = <string>
//
// It returns the end offset of the predicate, or -1.
func (l *Lexer) scanPredicate(pos int) int {
	identEnd := l.scanIdent(pos)
	if identEnd < 0 {
		return -1
	}

	ident := string(l.input[pos:identEnd])
	i := identEnd

	if ident == matchPhraseKeyword {
		if end := l.scanCall(i); end > 0 && l.isBoundary(end) {
			return end
		}
		return -1
	}

	spaced := l.skipSpaces(i)

	// ident = <string>
	if spaced < len(l.input) && l.input[spaced] == '=' {
		if end := l.scanString(l.skipSpaces(spaced + 1)); end > 0 && l.isBoundary(end) {
			return end
		}
		return -1
	}

	if spaced == i {
		return -1
	}

	if l.hasKeyword(spaced, matchPhraseKeyword) {
		if end := l.scanCall(spaced + len(matchPhraseKeyword)); end > 0 && l.isBoundary(end) {
			return end
		}
		return -1
	}

	if l.hasKeyword(spaced, regexpKeyword) {
		after := spaced + len(regexpKeyword)
		next := l.skipSpaces(after)
		if next == after {
			return -1
		}
		if end := l.scanString(next); end > 0 && l.isBoundary(end) {
			return end
		}
	}

	return -1
}

// scanCall scans `(<string>)` starting at pos.
func (l *Lexer) scanCall(pos int) int {
	if pos >= len(l.input) || l.input[pos] != '(' {
		return -1
	}
	end := l.scanString(pos + 1)
	if end < 0 || end >= len(l.input) || l.input[end] != ')' {
		return -1
	}
	return end + 1
}

// scanString scans a complete single- or double-quoted literal starting at pos.
func (l *Lexer) scanString(pos int) int {
	if pos >= len(l.input) {
		return -1
	}
	quote := l.input[pos]
	if quote != '"' && quote != '\'' {
		return -1
	}
	for i := pos + 1; i < len(l.input); i++ {
		switch l.input[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	return -1
}

func (l *Lexer) scanIdent(pos int) int {
	if pos >= len(l.input) || !isIdentStart(l.input[pos]) {
		return -1
	}
	i := pos + 1
	for i < len(l.input) && isIdentPart(l.input[i]) {
		i++
	}
	return i
}

func (l *Lexer) hasKeyword(pos int, kw string) bool {
	r := []rune(kw)
	if pos+len(r) > len(l.input) {
		return false
	}
	for i, c := range r {
		if l.input[pos+i] != c {
			return false
		}
	}
	return true
}

func (l *Lexer) skipSpaces(pos int) int {
	for pos < len(l.input) && isWhitespace(l.input[pos]) {
		pos++
	}
	return pos
}

func (l *Lexer) isBoundary(pos int) bool {
	return pos >= len(l.input) || isWhitespace(l.input[pos]) || l.input[pos] == ')'
}

func isIdentStart(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r) || r == '.'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func (l *Lexer) skipWhitespace() {
	for isWhitespace(l.char) {
		l.readChar()
	}
}
