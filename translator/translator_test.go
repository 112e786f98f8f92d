package translator

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var translateTests = []struct {
	input    string
	expected string
}{
	{`hello world`, `message MATCH_PHRASE("hello world")`},
	{`error*`, `message MATCH_PHRASE("error*")`},
	{`field:("a" OR "b")`, `field REGEXP "a|b"`},
	{`field:("a" OR "b*")`, `(field MATCH_PHRASE("a") OR field MATCH_PHRASE("b*"))`},
	{`field:(("x" OR "y") AND "z")`, `((field MATCH_PHRASE("x") OR field MATCH_PHRASE("y")) AND field MATCH_PHRASE("z"))`},
	{`a:1 AND b:2`, `message MATCH_PHRASE('a:"1"') AND message MATCH_PHRASE('b:"2"')`},
	{`level:"error"`, `level = "error"`},
	{`msg:"timeout"`, `message MATCH_PHRASE("timeout")`},
	{`msg:("a" OR "b")`, `message REGEXP "a|b"`},
	{`msg:"say \"hi\""`, `message MATCH_PHRASE("say \"hi\"")`},
	{`field:("a"`, `message MATCH_PHRASE('field:"(\"a\""')`},
	{`error OR warn`, `(message MATCH_PHRASE("error") OR message MATCH_PHRASE("warn"))`},
	{`(a) (b)`, `message MATCH_PHRASE("a") AND message MATCH_PHRASE("b")`},
	{`app:api*`, `app REGEXP "api*"`},
	{`level:err*`, `level REGEXP "err*"`},
	{`user:"O'Brien"`, `message MATCH_PHRASE('user:"O\'Brien"')`},
	{`level:error AND app:(a OR b) disk`, `level = "error" AND app REGEXP "a|b" AND message MATCH_PHRASE("disk")`},
	{`msg:(("creditOrderStatus is error,creditOrderStatus") OR (("kyc handleSubmit occur error") AND ("isFinalSubmit:true")))`, `(message MATCH_PHRASE("creditOrderStatus is error,creditOrderStatus") OR (message MATCH_PHRASE("kyc handleSubmit occur error") AND message MATCH_PHRASE("isFinalSubmit:true")))`},
}

func TestTranslate(t *testing.T) {
	tr := New(Options{})

	for _, tt := range translateTests {
		actual := tr.Translate(tt.input)
		if actual != tt.expected {
			t.Fatalf("Translate(%q)\n%s,\nwant %s", tt.input, actual, tt.expected)
		}
	}
}

func TestTranslateBlank(t *testing.T) {
	tr := New(Options{})

	for _, input := range []string{"", "  ", "\n\t"} {
		res := tr.TranslateWithReport(input)
		if res.Condition != "" || len(res.Diagnostics) != 0 {
			t.Fatalf("Translate(%q) = %+v, want empty result", input, res)
		}
	}
}

func TestTranslateIsIdempotent(t *testing.T) {
	tr := New(Options{})

	for _, tt := range translateTests {
		once := tr.Translate(tt.input)
		if once == "" {
			continue
		}

		twice := tr.Translate(once)
		if twice != once {
			t.Fatalf("Translate(%q) is not stable:\n%s\nthen\n%s", tt.input, once, twice)
		}
	}

	resolved := []string{
		`level = "error"`,
		`field REGEXP "a|b"`,
		`(field MATCH_PHRASE("a"))`,
		`MATCH_PHRASE("x") AND level = "warn"`,
		`((a MATCH_PHRASE("x") OR a MATCH_PHRASE("y")) AND a MATCH_PHRASE("z"))`,
	}
	for _, input := range resolved {
		if actual := tr.Translate(input); actual != input {
			t.Fatalf("Translate(%q)\n%s,\nwant it unchanged", input, actual)
		}
	}
}

func TestTranslateFreeTextFallsBackToDefaultField(t *testing.T) {
	tr := New(Options{})

	inputs := []string{
		"timeout",
		"connection refused",
		"user not found?",
		`say "hi"`,
		`back\slash`,
		"a|b [x]",
	}

	for _, input := range inputs {
		expected := `message MATCH_PHRASE("` + EscapeDouble(input) + `")`
		if actual := tr.Translate(input); actual != expected {
			t.Fatalf("Translate(%q)\n%s,\nwant %s", input, actual, expected)
		}
	}
}

func TestTranslateTopLevelPhraseKeepsQuotes(t *testing.T) {
	tr := New(Options{})

	tests := map[string]string{
		`"a" AND "b"`:   `message MATCH_PHRASE("\"a\"") AND message MATCH_PHRASE("\"b\"")`,
		`("a" AND "b")`: `(message MATCH_PHRASE("a") AND message MATCH_PHRASE("b"))`,
	}

	for input, expected := range tests {
		if actual := tr.Translate(input); actual != expected {
			t.Fatalf("Translate(%q)\n%s,\nwant %s", input, actual, expected)
		}
	}
}

func TestTranslateEscapesQuotes(t *testing.T) {
	tr := New(Options{})

	inputs := []string{
		`msg:"a \"quoted\" word"`,
		`level:"x\"y"`,
		`"unterminated`,
		`he said "no`,
	}

	for _, input := range inputs {
		actual := tr.Translate(input)

		open := strings.Index(actual, `("`)
		if open < 0 {
			open = strings.Index(actual, `= "`) + 1
		}
		literal := actual[open+1:]
		literal = strings.TrimSuffix(literal, ")")

		if !strings.HasPrefix(literal, `"`) || !strings.HasSuffix(literal, `"`) {
			t.Fatalf("Translate(%q) = %s, literal %s is not double quoted", input, actual, literal)
		}

		inner := literal[1 : len(literal)-1]
		for i := 0; i < len(inner); i++ {
			switch inner[i] {
			case '\\':
				i++
			case '"':
				t.Fatalf("Translate(%q) = %s has an unescaped quote at %d", input, actual, i)
			}
		}
	}
}

func TestTranslateInvalidFields(t *testing.T) {
	tests := map[string]struct {
		expected string
		codes    []string
	}{
		`bad-field:value`: {
			expected: "",
			codes:    []string{DiagInvalidField},
		},
		`a:1 AND bad-field:x`: {
			expected: `message MATCH_PHRASE('a:"1"')`,
			codes:    []string{DiagInvalidField},
		},
		`(bad-field:x)`: {
			expected: "TRUE",
			codes:    []string{DiagInvalidField},
		},
		`(bad-field:x OR bad-x:y) AND level:info`: {
			expected: `TRUE AND level = "info"`,
			codes:    []string{DiagInvalidField, DiagInvalidField},
		},
		`bad-field:(a OR b)`: {
			expected: `(message MATCH_PHRASE("a") OR message MATCH_PHRASE("b"))`,
			codes:    []string{DiagInvalidField},
		},
		`() AND a`: {
			expected: `TRUE AND message MATCH_PHRASE("a")`,
			codes:    []string{DiagEmptyGroup},
		},
	}

	tr := New(Options{})

	for input, tt := range tests {
		res := tr.TranslateWithReport(input)
		if res.Condition != tt.expected {
			t.Fatalf("Translate(%q)\n%s,\nwant %s", input, res.Condition, tt.expected)
		}

		var codes []string
		for _, d := range res.Diagnostics {
			codes = append(codes, d.Code)
		}
		if diff := cmp.Diff(tt.codes, codes); diff != "" {
			t.Fatalf("Translate(%q) diagnostics mismatch (-want +got):\n%s", input, diff)
		}
	}
}

func TestTranslateMalformedInput(t *testing.T) {
	tr := New(Options{})

	res := tr.TranslateWithReport(`field:("a"`)

	expected := []Diagnostic{
		{Code: DiagUnbalancedParen, Message: "opening parenthesis is never closed", Pos: 6},
	}
	if diff := cmp.Diff(expected, res.Diagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	inputs := []string{
		"(", ")", "((", "))(", `"`, `'`, ":", "::", "a:", ":(", "AND", " OR ", "a AND", "OR b",
		`field:(`, `field:()`, `(a OR (b AND)`, `x:("a" OR`, `MATCH_PHRASE(`, `level =`,
	}
	for _, input := range inputs {
		// Must not panic.
		_ = tr.Translate(input)
	}
}

func TestTranslateDepthLimit(t *testing.T) {
	tr := New(Options{MaxDepth: 2})

	res := tr.TranslateWithReport(`(((x)))`)
	if want := `message MATCH_PHRASE("(x)")`; res.Condition != want {
		t.Fatalf("Translate\n%s,\nwant %s", res.Condition, want)
	}

	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != DiagDepthExceeded {
		t.Fatalf("expected one %s diagnostic, got %+v", DiagDepthExceeded, res.Diagnostics)
	}

	deep := strings.Repeat("(", 100) + "x" + strings.Repeat(")", 100)
	if res := New(Options{}).TranslateWithReport(deep); res.Condition == "" {
		t.Fatalf("expected a condition for deeply nested input")
	}
}

func TestTranslateQuery(t *testing.T) {
	tests := []struct {
		raw          string
		knownFields  []string
		defaultField string
		expected     string
	}{
		{"host:web1", []string{"host"}, "body", `host = "web1"`},
		{"oops", nil, "body", `body MATCH_PHRASE("oops")`},
		{"msg:x", nil, "body", `body MATCH_PHRASE("x")`},
		{"level:error", []string{}, "", `message MATCH_PHRASE('level:"error"')`},
		{"level:error", nil, "", `level = "error"`},
		{"x", nil, "not valid!", `message MATCH_PHRASE("x")`},
	}

	for _, tt := range tests {
		actual := TranslateQuery(tt.raw, tt.knownFields, tt.defaultField)
		if actual != tt.expected {
			t.Fatalf("TranslateQuery(%q, %v, %q)\n%s,\nwant %s", tt.raw, tt.knownFields, tt.defaultField, actual, tt.expected)
		}
	}
}

func TestSetKnownFields(t *testing.T) {
	tr := New(Options{})

	if actual := tr.Translate("level:error"); actual != `level = "error"` {
		t.Fatalf("unexpected translation %s", actual)
	}

	tr.SetKnownFields([]string{"host", " level_name "})

	if diff := cmp.Diff([]string{"host", "level_name"}, tr.KnownFields()); diff != "" {
		t.Fatalf("KnownFields mismatch (-want +got):\n%s", diff)
	}

	if actual := tr.Translate("level:error"); actual != `message MATCH_PHRASE('level:"error"')` {
		t.Fatalf("unexpected translation after reload %s", actual)
	}
}

func TestTranslateClickHouse(t *testing.T) {
	tr := New(Options{Dialect: ClickHouse})

	tests := []struct {
		input    string
		expected string
	}{
		{`level:"error" AND app:("a" OR "b*") AND user:x`, `level = 'error' AND (position(app, 'a') > 0 OR position(app, 'b*') > 0) AND position(message, 'user:"x"') > 0`},
		{`app:(a OR b)`, `match(app, 'a|b')`},
		{`it's`, `position(message, 'it\'s') > 0`},
		{`(bad-f:x)`, `true`},
	}

	for _, tt := range tests {
		if actual := tr.Translate(tt.input); actual != tt.expected {
			t.Fatalf("Translate(%q)\n%s,\nwant %s", tt.input, actual, tt.expected)
		}
	}

	if actual := New(Options{}).TranslateTo("app:(a OR b)", ClickHouse).Condition; actual != `match(app, 'a|b')` {
		t.Fatalf("TranslateTo returned %s", actual)
	}
}

func TestTranslateConcurrent(t *testing.T) {
	tr := New(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Go(func() {
			for _, tt := range translateTests {
				if actual := tr.Translate(tt.input); actual != tt.expected {
					t.Errorf("Translate(%q)\n%s,\nwant %s", tt.input, actual, tt.expected)
				}
			}
		})
		if i == 8 {
			tr.SetKnownFields(KnownFields)
		}
	}
	wg.Wait()
}
