package ast

import "strings"

// Node is the interface that all nodes in the query tree must implement.
// It uses a private marker method to ensure only types defined in this
// package can be used as nodes, creating a controlled "sum type" behavior.
type Node interface {
	node()
	// String returns a debug representation of the node.
	String() string
}

// Or represents a disjunction of its Children.
// Invariant: len(Children) >= 2
type Or struct {
	Children []Node
}

func (*Or) node() {}

func (n *Or) String() string {
	return joinNodes(n.Children, " OR ")
}

// And represents a conjunction of its Children.
// Invariant: len(Children) >= 2
type And struct {
	Children []Node
}

func (*And) node() {}

func (n *And) String() string {
	return joinNodes(n.Children, " AND ")
}

// Group is a parenthesized span of the query.
type Group struct {
	// Field is the field name written before the group (field:(...)) or
	// empty when the group is unattached.
	Field string

	// Body is the parsed content of the group. It is nil for "()".
	Body Node

	// Pos is the rune offset of the opening parenthesis.
	Pos int
}

func (*Group) node() {}

func (n *Group) String() string {
	body := ""
	if n.Body != nil {
		body = n.Body.String()
	}
	if n.Field != "" {
		return n.Field + ":(" + body + ")"
	}
	return "(" + body + ")"
}

// Clause is an atomic field:value or bare value fragment.
// Text holds the source exactly as written, quotes included.
type Clause struct {
	Text string
	Pos  int
}

func (*Clause) node() {}

func (n *Clause) String() string {
	return "clause(" + n.Text + ")"
}

// Resolved is a fragment of the input that already is a target predicate,
// e.g. `level = "error"`. It is passed through unchanged.
type Resolved struct {
	Text string
	Pos  int
}

func (*Resolved) node() {}

func (n *Resolved) String() string {
	return "resolved(" + n.Text + ")"
}

func joinNodes(nodes []Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return "[" + strings.Join(parts, sep) + "]"
}
