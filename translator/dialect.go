package translator

import (
	"fmt"
	"strings"
)

// Dialect renders predicates as a SQL boolean expression for one database.
type Dialect interface {
	// Name is the identifier used in configuration, e.g. "doris".
	Name() string

	// Render converts p into SQL text.
	Render(p Predicate) string
}

// leafFormatter formats the dialect-specific predicates. Logical nodes are
// rendered the same way for every dialect.
type leafFormatter interface {
	equal(field, value string) string
	regexp(field, pattern string) string
	phrase(field, value string) string
	qualifiedPhrase(field, qualifier, value string) string
	truth() string
}

// qualifierText is the text a qualified phrase searches for: q:"v" with v
// unescaped. Every dialect searches this same text.
func qualifierText(qualifier, value string) string {
	return qualifier + `:"` + value + `"`
}

type renderer struct {
	name string
	leaf leafFormatter
}

func (r *renderer) Name() string {
	return r.name
}

func (r *renderer) Render(p Predicate) string {
	switch n := p.(type) {
	case nil:
		return ""

	case *And:
		return r.joinNodes(n.Children, "AND")

	case *Or:
		return r.joinNodes(n.Children, "OR")

	case *Paren:
		inner := r.Render(n.Inner)
		if inner == "" {
			return r.leaf.truth()
		}
		return "(" + inner + ")"

	case *Equal:
		return r.leaf.equal(n.Field, n.Value)

	case *Regexp:
		return r.leaf.regexp(n.Field, n.Pattern)

	case *Phrase:
		if n.Qualifier != "" {
			return r.leaf.qualifiedPhrase(n.Field, n.Qualifier, n.Value)
		}
		return r.leaf.phrase(n.Field, n.Value)

	case *True:
		return r.leaf.truth()

	case *Raw:
		return n.Text

	default:
		panic(fmt.Sprintf("translator: unknown predicate type %T", p))
	}
}

// joinNodes renders children joined by operator. The result is always
// wrapped in parentheses so it can be embedded anywhere.
func (r *renderer) joinNodes(children []Predicate, operator string) string {
	var parts []string
	for _, child := range children {
		if s := r.Render(child); s != "" {
			parts = append(parts, s)
		}
	}

	if len(parts) == 0 {
		return r.leaf.truth()
	}

	return "(" + strings.Join(parts, " "+operator+" ") + ")"
}

type dorisLeaf struct{}

func (dorisLeaf) equal(field, value string) string {
	return field + " = " + quoteDouble(value)
}

func (dorisLeaf) regexp(field, pattern string) string {
	return field + " REGEXP " + quoteDouble(pattern)
}

func (dorisLeaf) phrase(field, value string) string {
	return field + " MATCH_PHRASE(" + quoteDouble(value) + ")"
}

// qualifiedPhrase searches qualifierText(qualifier, value). The value is
// escaped for the inner double quotes, then the whole is wrapped verbatim; the
// SQL string literal reads back to the same text.
func (dorisLeaf) qualifiedPhrase(field, qualifier, value string) string {
	inner := qualifier + ":" + quoteDouble(value)
	return field + " MATCH_PHRASE(" + wrapVerbatim(inner) + ")"
}

func (dorisLeaf) truth() string {
	return "TRUE"
}

type clickhouseLeaf struct{}

func (clickhouseLeaf) equal(field, value string) string {
	return field + " = " + quoteSingle(value)
}

func (clickhouseLeaf) regexp(field, pattern string) string {
	return "match(" + field + ", " + quoteSingle(pattern) + ")"
}

func (clickhouseLeaf) phrase(field, value string) string {
	return "position(" + field + ", " + quoteSingle(value) + ") > 0"
}

func (clickhouseLeaf) qualifiedPhrase(field, qualifier, value string) string {
	return "position(" + field + ", " + quoteSingle(qualifierText(qualifier, value)) + ") > 0"
}

func (clickhouseLeaf) truth() string {
	return "true"
}

var (
	// Doris renders MATCH_PHRASE / REGEXP / = predicates for Apache Doris
	// inverted-index columns.
	Doris Dialect = &renderer{name: "doris", leaf: dorisLeaf{}}

	// ClickHouse renders the same predicates with ClickHouse string functions.
	ClickHouse Dialect = &renderer{name: "clickhouse", leaf: clickhouseLeaf{}}
)

// DialectByName returns the dialect registered under name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "doris":
		return Doris, nil
	case "clickhouse":
		return ClickHouse, nil
	default:
		return nil, fmt.Errorf("unknown dialect: %q", name)
	}
}
