package translator

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	pred := &And{Children: []Predicate{
		&Or{Children: []Predicate{
			&Equal{Field: "level", Value: "error"},
			&Regexp{Field: "app", Pattern: "a|b"},
		}},
		&Phrase{Field: "message", Value: "disk full"},
		&Phrase{Field: "message", Value: "1", Qualifier: "code"},
		&Paren{Inner: &Raw{Text: `x = "y"`}},
		&True{},
	}}

	tests := map[Dialect]string{
		Doris:      `((level = "error" OR app REGEXP "a|b") AND message MATCH_PHRASE("disk full") AND message MATCH_PHRASE('code:"1"') AND (x = "y") AND TRUE)`,
		ClickHouse: `((level = 'error' OR match(app, 'a|b')) AND position(message, 'disk full') > 0 AND position(message, 'code:"1"') > 0 AND (x = "y") AND true)`,
	}

	for d, expected := range tests {
		if actual := d.Render(pred); actual != expected {
			t.Fatalf("%s: Render\n%s,\nwant %s", d.Name(), actual, expected)
		}
	}
}

func TestRenderEmptyLogical(t *testing.T) {
	if actual := Doris.Render(&Or{}); actual != "TRUE" {
		t.Fatalf("Render(empty or) = %s, want TRUE", actual)
	}

	if actual := Doris.Render(nil); actual != "" {
		t.Fatalf("Render(nil) = %s, want empty", actual)
	}
}

func TestDialectByName(t *testing.T) {
	tests := map[string]Dialect{
		"":           Doris,
		"doris":      Doris,
		"ClickHouse": ClickHouse,
	}

	for name, expected := range tests {
		d, err := DialectByName(name)
		if err != nil {
			t.Fatalf("DialectByName(%q) returned error: %v", name, err)
		}
		if d != expected {
			t.Fatalf("DialectByName(%q) = %s, want %s", name, d.Name(), expected.Name())
		}
	}

	if _, err := DialectByName("postgres"); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
}

// readLiteral returns the text of a backslash-escaped SQL string literal.
func readLiteral(t *testing.T, literal string) string {
	t.Helper()

	if len(literal) < 2 || (literal[0] != '\'' && literal[0] != '"') || literal[len(literal)-1] != literal[0] {
		t.Fatalf("%s is not a quoted literal", literal)
	}

	var b strings.Builder
	inner := literal[1 : len(literal)-1]
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

func TestQualifiedPhraseSearchesSameText(t *testing.T) {
	for _, value := range []string{"1", `a"b`, `a\b`, "O'Brien", `it's "x"`} {
		p := &Phrase{Field: "message", Value: value, Qualifier: "user"}
		expected := qualifierText("user", value)

		doris := Doris.Render(p)
		dorisLiteral := strings.TrimSuffix(strings.TrimPrefix(doris, "message MATCH_PHRASE("), ")")
		if actual := readLiteral(t, dorisLiteral); actual != expected {
			t.Fatalf("doris %s searches %q, want %q", doris, actual, expected)
		}

		ch := ClickHouse.Render(p)
		chLiteral := strings.TrimSuffix(strings.TrimPrefix(ch, "position(message, "), ") > 0")
		if actual := readLiteral(t, chLiteral); actual != expected {
			t.Fatalf("clickhouse %s searches %q, want %q", ch, actual, expected)
		}
	}
}
