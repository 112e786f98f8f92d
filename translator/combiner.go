package translator

import (
	"strings"

	"github.com/thisisjab/querybridge/translator/ast"
)

// build resolves the top level of the query. Top-level conjuncts are
// returned separately so the caller can join them without parentheses.
func (b *builder) build(root ast.Node) []Predicate {
	if root == nil {
		return nil
	}

	var preds []Predicate
	for _, n := range flattenAnd(root) {
		if p := b.resolveTop(n); p != nil {
			preds = append(preds, p)
		}
	}
	return preds
}

func flattenAnd(n ast.Node) []ast.Node {
	and, ok := n.(*ast.And)
	if !ok {
		return []ast.Node{n}
	}
	var out []ast.Node
	for _, child := range and.Children {
		out = append(out, flattenAnd(child)...)
	}
	return out
}

func (b *builder) resolveTop(n ast.Node) Predicate {
	switch n := n.(type) {
	case *ast.Clause:
		// Free text without a field is searched as written.
		if colonOutsideQuotes(n.Text) < 0 {
			return &Phrase{Field: b.defaultField, Value: n.Text}
		}
		return b.resolveClause(n, "")
	case *ast.Resolved:
		return &Raw{Text: n.Text}
	case *ast.Group:
		return b.resolveGroup(n, "")
	case *ast.Or:
		return b.resolveOr(n.Children, "", false)
	default:
		return b.branch(n, "")
	}
}

// combine renders the top-level conjuncts and joins them with AND. It returns
// "" when nothing is left.
func combine(d Dialect, preds []Predicate) string {
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		if s := d.Render(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " AND ")
}
