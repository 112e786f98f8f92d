package translator

import (
	"fmt"
	"strings"

	"github.com/thisisjab/querybridge/translator/ast"
)

// builder turns the query tree into predicates. It is created per call and
// collects diagnostics as it goes.
type builder struct {
	known        *FieldSet
	defaultField string
	diags        []Diagnostic
}

// resolveGroup resolves a parenthesized group. inherited is the field of the
// enclosing group, used when the group has no field of its own.
func (b *builder) resolveGroup(g *ast.Group, inherited string) Predicate {
	field := g.Field
	explicit := field != ""

	if explicit && !IsValidField(field) {
		b.diag(DiagInvalidField, fmt.Sprintf("field %q is not a valid identifier, group is searched without it", field), g.Pos)
		field, explicit = "", false
	}
	if !explicit {
		field = inherited
	}

	switch body := g.Body.(type) {
	case nil:
		b.diag(DiagEmptyGroup, "empty group always matches", g.Pos)
		return &True{}

	case *ast.Or:
		return b.resolveOr(body.Children, field, explicit)

	case *ast.And:
		return b.resolveAnd(body.Children, field)

	case *ast.Clause:
		p := b.resolveClause(body, field)
		if p == nil {
			return &True{}
		}
		return p

	case *ast.Resolved:
		return &Paren{Inner: &Raw{Text: body.Text}}

	case *ast.Group:
		return b.resolveGroup(body, field)

	default:
		return b.branch(body, field)
	}
}

// resolveOr resolves the branches of an OR. A field written directly before
// the group collapses plain values into a single REGEXP alternation.
func (b *builder) resolveOr(children []ast.Node, field string, explicit bool) Predicate {
	if explicit && field != "" {
		if alts, ok := b.alternation(children); ok {
			return &Regexp{Field: b.column(field), Pattern: strings.Join(alts, "|")}
		}
	}

	preds := make([]Predicate, 0, len(children))
	for _, child := range children {
		preds = append(preds, b.branch(child, field))
	}

	preds = compact(preds)
	if len(preds) == 0 {
		return &True{}
	}
	return &Or{Children: preds}
}

func (b *builder) resolveAnd(children []ast.Node, field string) Predicate {
	preds := make([]Predicate, 0, len(children))
	for _, child := range children {
		preds = append(preds, b.branch(child, field))
	}

	preds = compact(preds)
	if len(preds) == 0 {
		return &True{}
	}
	return &And{Children: preds}
}

// alternation returns the branch values when every branch is a plain value
// without a field of its own, so the branches can share one REGEXP.
func (b *builder) alternation(children []ast.Node) ([]string, bool) {
	alts := make([]string, 0, len(children))
	for _, child := range children {
		c, ok := child.(*ast.Clause)
		if !ok {
			return nil, false
		}
		parts := ParseClause(c.Text)
		if parts.HasField || parts.Shape == ShapePattern || parts.Value == "" || isQuoteWrapped(parts.Value) {
			return nil, false
		}
		alts = append(alts, parts.Value)
	}
	return alts, true
}

// branch resolves one operand of a logical operator. With a field in effect,
// plain values become phrase matches against it; otherwise each branch uses
// its own field or the default one.
func (b *builder) branch(n ast.Node, field string) Predicate {
	switch n := n.(type) {
	case *ast.Clause:
		parts := ParseClause(n.Text)
		if parts.HasField || field == "" {
			return b.resolveValue(parts, n.Pos)
		}
		return &Phrase{Field: b.column(field), Value: parts.Value}

	case *ast.Resolved:
		return &Raw{Text: n.Text}

	case *ast.Group:
		return b.resolveGroup(n, field)

	case *ast.And:
		return b.resolveAnd(n.Children, field)

	case *ast.Or:
		return b.resolveOr(n.Children, field, false)

	default:
		return nil
	}
}

// resolveClause resolves a clause standing on its own. field is the group
// field in effect, used when the clause names none.
func (b *builder) resolveClause(c *ast.Clause, field string) Predicate {
	parts := ParseClause(c.Text)
	if !parts.HasField && field != "" {
		parts.Field = field
		parts.HasField = true
	}
	return b.resolveValue(parts, c.Pos)
}

// resolveValue applies the value-shape rules to a single field and value:
// patterns become REGEXP, known fields an exact match, the default field a
// phrase match, and anything else a phrase search for "field:value" in the
// default field.
func (b *builder) resolveValue(parts ClauseParts, pos int) Predicate {
	if parts.HasField && !IsValidField(parts.Field) {
		b.diag(DiagInvalidField, fmt.Sprintf("field %q is not a valid identifier, clause dropped", parts.Field), pos)
		return nil
	}

	if parts.Shape == ShapePattern {
		target := b.defaultField
		if parts.HasField {
			target = b.column(parts.Field)
		}
		return &Regexp{Field: target, Pattern: parts.Value}
	}

	if parts.HasField && b.known.Contains(parts.Field) {
		return &Equal{Field: parts.Field, Value: parts.Value}
	}

	if !parts.HasField || b.isDefaultAlias(parts.Field) {
		return &Phrase{Field: b.defaultField, Value: parts.Value}
	}

	return &Phrase{Field: b.defaultField, Value: parts.Value, Qualifier: parts.Field}
}

func (b *builder) isDefaultAlias(field string) bool {
	return field == "msg" || field == "message" || field == b.defaultField
}

// column maps the default-field aliases to the default field.
func (b *builder) column(field string) string {
	if b.isDefaultAlias(field) {
		return b.defaultField
	}
	return field
}

func (b *builder) diag(code, msg string, pos int) {
	b.diags = append(b.diags, Diagnostic{Code: code, Message: msg, Pos: pos})
}
