package translator

import (
	"slices"
	"strings"
)

// KnownFields are the structured columns of the default log schema. Values
// on these fields are matched exactly.
var KnownFields = []string{
	"datetime_local",
	"timestamp",
	"application_name",
	"project_name",
	"logger",
	"thread",
	"level",
	"bj_timestamp",
}

// DefaultField is the full-text column used when a clause has no field.
const DefaultField = "message"

// FieldSet is an immutable set of column names.
type FieldSet struct {
	names map[string]struct{}
}

func NewFieldSet(fields ...string) *FieldSet {
	s := &FieldSet{names: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			s.names[f] = struct{}{}
		}
	}
	return s
}

func (s *FieldSet) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[name]
	return ok
}

// Fields returns the names in sorted order.
func (s *FieldSet) Fields() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (s *FieldSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}
