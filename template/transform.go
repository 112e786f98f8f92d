package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/thisisjab/querybridge/entity"
)

const (
	calculationTransform  = "field from calculation"
	filterByNameTransform = "Filter by name"
)

var (
	selectRegex    = regexp.MustCompile(`(?i)SELECT\s+(.*?)\s+FROM`)
	whereRegex     = regexp.MustCompile(`(?i)WHERE\s+(.*?)(\s+AND\s+|\s+ORDER\s+|\s+GROUP\s+|$)`)
	operationRegex = regexp.MustCompile(`\s*\|\s*`)
)

// ApplyTransforms rewrites rendered SQL with the panel transforms in order.
// "Add field from calculation" with an Operation of "a | op | b" adds a
// computed column to the first SELECT. "Filter by name" adds its Identifier
// to the first WHERE clause. Other transforms are ignored.
func ApplyTransforms(sql string, transforms []entity.Transform) string {
	for _, t := range transforms {
		switch {
		case strings.Contains(t.Type, calculationTransform) && t.Config["Operation"] != "":
			parts := operationRegex.Split(t.Config["Operation"], -1)
			if len(parts) != 3 {
				continue
			}

			alias := t.Config["Alias"]
			if alias == "" {
				alias = "calculated_field"
			}

			column := fmt.Sprintf(`(%s %s %s) AS "%s"`, parts[0], parts[1], parts[2], alias)
			sql = replaceFirst(selectRegex, sql, func(m []string) string {
				return "SELECT " + m[1] + ", " + column + " FROM"
			})

		case strings.Contains(t.Type, filterByNameTransform) && t.Config["Identifier"] != "":
			identifier := t.Config["Identifier"]
			sql = replaceFirst(whereRegex, sql, func(m []string) string {
				return "WHERE " + m[1] + " AND " + identifier + m[2]
			})
		}
	}

	return sql
}

func replaceFirst(re *regexp.Regexp, s string, repl func(m []string) string) string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}

	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}

	return s[:loc[0]] + repl(m) + s[loc[1]:]
}
