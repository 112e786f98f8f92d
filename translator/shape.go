package translator

import "strings"

// Shape classifies a clause value and decides which predicate it becomes.
type Shape uint8

const (
	// ShapeLiteral is an unquoted plain value.
	ShapeLiteral Shape = iota
	// ShapePattern contains wildcard or regex characters.
	ShapePattern
	// ShapePhrase is a quoted plain value.
	ShapePhrase
)

func (s Shape) String() string {
	return [...]string{"literal", "pattern", "phrase"}[s]
}

const patternChars = "*?+[]|"

// Classify returns the shape of an unquoted value.
func Classify(value string, quoted bool) Shape {
	if strings.ContainsAny(value, patternChars) {
		return ShapePattern
	}
	if quoted {
		return ShapePhrase
	}
	return ShapeLiteral
}

// ClauseParts is a clause split into its field and value.
type ClauseParts struct {
	Field    string
	HasField bool
	Value    string
	Quoted   bool
	Shape    Shape
}

// ParseClause splits "field:value" at the first colon outside quotes. Quotes
// around the value are stripped and \\ and \" are unescaped.
func ParseClause(text string) ClauseParts {
	text = strings.TrimSpace(text)

	var parts ClauseParts
	value := text

	if i := colonOutsideQuotes(text); i >= 0 {
		field := strings.TrimSpace(text[:i])
		value = strings.TrimSpace(text[i+1:])
		if field != "" {
			parts.Field = field
			parts.HasField = true
		}
	}

	parts.Value, parts.Quoted = unquote(value)
	parts.Shape = Classify(parts.Value, parts.Quoted)

	return parts
}

func colonOutsideQuotes(s string) int {
	var quote rune
	escaped := false
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"':
			quote = r
		case r == ':':
			return i
		}
	}
	return -1
}

// unquote strips one pair of surrounding double or single quotes.
func unquote(v string) (string, bool) {
	if len(v) < 2 {
		return v, false
	}

	q := v[0]
	if (q != '"' && q != '\'') || v[len(v)-1] != q {
		return v, false
	}

	inner := v[1 : len(v)-1]
	if !strings.ContainsRune(inner, '\\') {
		return inner, true
	}

	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) && (inner[i+1] == '\\' || inner[i+1] == q) {
			b.WriteByte(inner[i+1])
			i++
			continue
		}
		b.WriteByte(c)
	}

	return b.String(), true
}

// isQuoteWrapped reports whether v still starts and ends with a quote after
// one level of quotes has been stripped.
func isQuoteWrapped(v string) bool {
	if len(v) < 2 {
		return false
	}
	return (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0]
}
