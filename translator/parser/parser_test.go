package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/thisisjab/querybridge/translator/lexer"
	"github.com/thisisjab/querybridge/translator/token"
)

func TestParseQuery(t *testing.T) {
	tests := map[string]string{
		`a:1 AND b:2`:                  `[clause(a:1) AND clause(b:2)]`,
		`field:("a" OR "b")`:           `field:([clause("a") OR clause("b")])`,
		`field:(("x" OR "y") AND "z")`: `field:([([clause("x") OR clause("y")]) AND clause("z")])`,
		`hello world`:                  `clause(hello world)`,
		`(a) (b)`:                      `[(clause(a)) AND (clause(b))]`,
		`level = "error" AND x`:        `[resolved(level = "error") AND clause(x)]`,
		`a OR b AND c`:                 `[clause(a) OR [clause(b) AND clause(c)]]`,
		`a OR`:                         `clause(a OR)`,
		`()`:                           `()`,
		`msg:"x y" (level:error OR b)`: `[clause(msg:"x y") AND ([clause(level:error) OR clause(b)])]`,
		`app:(a) AND msg:("b" OR "c")`: `[app:(clause(a)) AND msg:([clause("b") OR clause("c")])]`,
	}

	for input, expected := range tests {
		p := New(lexer.New(input), 0)

		actual := p.ParseQuery()
		if actual == nil {
			t.Fatalf("ParseQuery(%q) returned nil", input)
		}

		if actual.String() != expected {
			t.Fatalf("ParseQuery(%q)\n%s,\nwant %s", input, actual.String(), expected)
		}

		if p.curToken.Type != token.EOF {
			t.Fatalf("Expected EOF token, got %v", p.curToken)
		}

		if len(p.Problems()) != 0 {
			t.Fatalf("ParseQuery(%q) reported problems: %+v", input, p.Problems())
		}
	}
}

func TestParseQueryBlank(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		p := New(lexer.New(input), 0)
		if n := p.ParseQuery(); n != nil {
			t.Fatalf("ParseQuery(%q) = %s, want nil", input, n.String())
		}
	}
}

func TestParseQueryUnbalanced(t *testing.T) {
	tests := map[string]struct {
		tree     string
		problems []Problem
	}{
		`field:("a"`: {
			tree: `clause(field:("a")`,
			problems: []Problem{
				{Code: ProblemUnbalancedParen, Message: "opening parenthesis is never closed", Pos: 6},
			},
		},
		`a)`: {
			tree: `clause(a))`,
			problems: []Problem{
				{Code: ProblemUnbalancedParen, Message: "closing parenthesis without an opening one", Pos: 1},
			},
		},
		`(a OR b) c)`: {
			tree: `[([clause(a) OR clause(b)]) AND clause(c))]`,
			problems: []Problem{
				{Code: ProblemUnbalancedParen, Message: "closing parenthesis without an opening one", Pos: 10},
			},
		},
	}

	for input, tt := range tests {
		p := New(lexer.New(input), 0)

		actual := p.ParseQuery()
		if actual.String() != tt.tree {
			t.Fatalf("ParseQuery(%q)\n%s,\nwant %s", input, actual.String(), tt.tree)
		}

		if diff := cmp.Diff(tt.problems, p.Problems()); diff != "" {
			t.Fatalf("ParseQuery(%q) problems mismatch (-want +got):\n%s", input, diff)
		}
	}
}

func TestParseQueryDepthLimit(t *testing.T) {
	p := New(lexer.New(`(((x)))`), 2)

	actual := p.ParseQuery()
	if want := `((clause((x))))`; actual.String() != want {
		t.Fatalf("ParseQuery\n%s,\nwant %s", actual.String(), want)
	}

	problems := p.Problems()
	if len(problems) != 1 || problems[0].Code != ProblemDepthExceeded || problems[0].Pos != 2 {
		t.Fatalf("expected one depth problem at 2, got %+v", problems)
	}
}
