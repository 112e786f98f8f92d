package translator

// Predicate is a resolved boolean condition. Like the query tree it is a
// closed sum type; dialects render it to SQL.
type Predicate interface {
	predicate()
}

// Equal is an exact match on a known column.
type Equal struct {
	Field string
	Value string
}

// Regexp matches Field against a regular expression.
type Regexp struct {
	Field   string
	Pattern string
}

// Phrase is a full-text phrase match on Field. When Qualifier is set the
// phrase is `Qualifier:"Value"`, searched as text inside Field.
type Phrase struct {
	Field     string
	Value     string
	Qualifier string
}

// And is a parenthesized conjunction.
type And struct {
	Children []Predicate
}

// Or is a parenthesized disjunction.
type Or struct {
	Children []Predicate
}

// Paren wraps a single predicate that was written inside parentheses.
type Paren struct {
	Inner Predicate
}

// True always holds. It stands in for a group whose content was dropped.
type True struct{}

// Raw is a predicate fragment from the input that is already resolved.
type Raw struct {
	Text string
}

func (*Equal) predicate()  {}
func (*Regexp) predicate() {}
func (*Phrase) predicate() {}
func (*And) predicate()    {}
func (*Or) predicate()     {}
func (*Paren) predicate()  {}
func (*True) predicate()   {}
func (*Raw) predicate()    {}

func compact(preds []Predicate) []Predicate {
	out := preds[:0]
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
