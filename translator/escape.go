package translator

import (
	"regexp"
	"strings"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// IsValidField reports whether name may be emitted as a column identifier.
func IsValidField(name string) bool {
	return identifierRegex.MatchString(name)
}

var (
	doubleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	singleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)
)

// EscapeDouble escapes a value for a double-quoted SQL string literal:
// backslashes are doubled, then double quotes are escaped.
func EscapeDouble(v string) string {
	return doubleQuoteEscaper.Replace(v)
}

// EscapeSingle escapes a value for a single-quoted SQL string literal.
func EscapeSingle(v string) string {
	return singleQuoteEscaper.Replace(v)
}

func quoteDouble(v string) string {
	return `"` + EscapeDouble(v) + `"`
}

func quoteSingle(v string) string {
	return `'` + EscapeSingle(v) + `'`
}

// wrapVerbatim wraps text whose inner escaping is already done. It picks the
// quote character that does not occur in text, preferring single quotes.
// When both occur, single quotes inside text are escaped.
func wrapVerbatim(text string) string {
	switch {
	case !strings.Contains(text, "'"):
		return "'" + text + "'"
	case !strings.Contains(text, `"`):
		return `"` + text + `"`
	default:
		return "'" + strings.ReplaceAll(text, "'", `\'`) + "'"
	}
}
