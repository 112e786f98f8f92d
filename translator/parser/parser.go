package parser

import (
	"fmt"
	"strings"

	"github.com/thisisjab/querybridge/translator/ast"
	"github.com/thisisjab/querybridge/translator/lexer"
	"github.com/thisisjab/querybridge/translator/token"
)

// DefaultMaxDepth is the deepest parenthesis nesting that is parsed as
// structure. Deeper parentheses are kept as literal text.
const DefaultMaxDepth = 20

const (
	ProblemUnbalancedParen = "unbalanced_paren"
	ProblemDepthExceeded   = "depth_exceeded"
)

// Problem describes input the parser could not structure. Problems are never
// fatal: the offending characters are kept as literal text.
type Problem struct {
	Code    string
	Message string
	Pos     int
}

type Parser struct {
	l         *lexer.Lexer
	tokens    []token.Token
	idx       int
	curToken  token.Token
	peekToken token.Token
	maxDepth  int
	problems  []Problem
}

func New(l *lexer.Lexer, maxDepth int) *Parser {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	p := &Parser{
		l:        l,
		maxDepth: maxDepth,
	}

	p.tokens = p.matchBrackets(l.Tokens())
	p.idx = -1

	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
	p.curToken = p.tokens[p.idx]
	if p.idx < len(p.tokens)-1 {
		p.peekToken = p.tokens[p.idx+1]
	} else {
		p.peekToken = p.curToken
	}
}

// Problems returns everything the parser had to degrade while structuring
// the input.
func (p *Parser) Problems() []Problem {
	return p.problems
}

// matchBrackets pairs parentheses with a stack. Parentheses without a partner,
// and pairs nested deeper than maxDepth, are demoted to literal words.
func (p *Parser) matchBrackets(toks []token.Token) []token.Token {
	partner := make(map[int]int)
	depthOf := make(map[int]int)
	var stack []int

	for i, tok := range toks {
		switch tok.Type {
		case token.LPAREN:
			stack = append(stack, i)
			depthOf[i] = len(stack)
		case token.RPAREN:
			if len(stack) == 0 {
				toks[i] = demote(tok)
				p.addProblem(ProblemUnbalancedParen, "closing parenthesis without an opening one", tok.Start)
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			partner[open] = i
		}
	}

	for _, open := range stack {
		toks[open] = demote(toks[open])
		p.addProblem(ProblemUnbalancedParen, "opening parenthesis is never closed", toks[open].Start)
	}

	reported := false
	for open := range toks {
		close, ok := partner[open]
		if !ok || depthOf[open] <= p.maxDepth {
			continue
		}
		toks[open] = demote(toks[open])
		toks[close] = demote(toks[close])
		if !reported {
			p.addProblem(ProblemDepthExceeded, fmt.Sprintf("nesting deeper than %d levels is kept as text", p.maxDepth), toks[open].Start)
			reported = true
		}
	}

	return toks
}

func demote(tok token.Token) token.Token {
	tok.Type = token.WORD
	return tok
}

func (p *Parser) addProblem(code, msg string, pos int) {
	p.problems = append(p.problems, Problem{Code: code, Message: msg, Pos: pos})
}

// ParseQuery builds the query tree. It returns nil for blank input.
func (p *Parser) ParseQuery() ast.Node {
	var parts []ast.Node

	// Operators or stray tokens can leave the cursor before EOF; keep
	// collecting so that nothing the user typed is silently ignored.
	for p.curToken.Type != token.EOF {
		if n := p.parseOr(); n != nil {
			parts = append(parts, n)
		}
		if p.curToken.Type == token.RPAREN {
			p.nextToken()
		}
	}

	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	default:
		return &ast.And{Children: parts}
	}
}

func (p *Parser) parseOr() ast.Node {
	children := appendNode(nil, p.parseAnd())

	for p.curToken.Type == token.OR {
		p.nextToken()
		children = appendNode(children, p.parseAnd())
	}

	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		return &ast.Or{Children: children}
	}
}

func (p *Parser) parseAnd() ast.Node {
	children := appendNode(nil, p.parseUnit())

	for p.curToken.Type == token.AND {
		p.nextToken()
		children = appendNode(children, p.parseUnit())
	}

	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		return &ast.And{Children: children}
	}
}

// parseUnit reads everything up to the next operator or closing parenthesis.
// Adjacent text tokens form a single clause; groups and resolved predicates
// written next to each other without an operator are implicitly AND-ed.
func (p *Parser) parseUnit() ast.Node {
	var items []ast.Node
	runStart, runEnd := -1, -1

	flush := func() {
		if runStart < 0 {
			return
		}
		text := strings.TrimSpace(p.l.Slice(runStart, runEnd))
		if text != "" {
			items = append(items, &ast.Clause{Text: text, Pos: runStart})
		}
		runStart, runEnd = -1, -1
	}

	for {
		switch p.curToken.Type {
		case token.EOF, token.AND, token.OR, token.RPAREN:
			flush()
			return unitNode(items)

		case token.PREDICATE:
			flush()
			items = append(items, &ast.Resolved{Text: p.curToken.Literal, Pos: p.curToken.Start})
			p.nextToken()

		case token.LPAREN:
			flush()
			items = append(items, p.parseGroup(""))

		case token.WORD:
			if strings.HasSuffix(p.curToken.Literal, ":") && p.peekToken.Type == token.LPAREN {
				flush()
				field := strings.TrimSuffix(p.curToken.Literal, ":")
				p.nextToken()
				items = append(items, p.parseGroup(field))
				continue
			}
			p.extendRun(&runStart, &runEnd)
			p.nextToken()

		default:
			p.extendRun(&runStart, &runEnd)
			p.nextToken()
		}
	}
}

func (p *Parser) extendRun(start, end *int) {
	if *start < 0 {
		*start = p.curToken.Start
	}
	*end = p.curToken.End
}

// parseGroup parses "(...)". The current token must be a matched LPAREN.
func (p *Parser) parseGroup(field string) ast.Node {
	g := &ast.Group{Field: field, Pos: p.curToken.Start}

	p.nextToken()

	if p.curToken.Type != token.RPAREN {
		g.Body = p.parseOr()
	}

	// Brackets are matched up front, so anything left before the closing
	// parenthesis is a run of stray operators; skip it.
	for p.curToken.Type != token.RPAREN && p.curToken.Type != token.EOF {
		if n := p.parseOr(); n != nil {
			g.Body = joinAnd(g.Body, n)
		} else {
			p.nextToken()
		}
	}

	if p.curToken.Type == token.RPAREN {
		p.nextToken()
	}

	return g
}

func unitNode(items []ast.Node) ast.Node {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return items[0]
	default:
		return &ast.And{Children: items}
	}
}

func joinAnd(left, right ast.Node) ast.Node {
	if left == nil {
		return right
	}
	return &ast.And{Children: []ast.Node{left, right}}
}

func appendNode(nodes []ast.Node, n ast.Node) []ast.Node {
	if n == nil {
		return nodes
	}
	return append(nodes, n)
}
