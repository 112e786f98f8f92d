package template

import (
	"regexp"

	"github.com/thisisjab/querybridge/entity"
)

var placeholderRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render replaces every ${name} placeholder that has a value. Placeholders
// without a value are kept, so the result can still be expanded by the
// dashboard. Values are inserted as is and never expanded again.
func Render(skeleton string, values map[string]string) string {
	return placeholderRegex.ReplaceAllStringFunc(skeleton, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}

// Build renders skeleton for one query and applies the panel transforms.
func Build(skeleton string, query entity.QueryConfig, condition string, transforms []entity.Transform, cfg Config) (string, error) {
	values, err := Values(query, condition, cfg)
	if err != nil {
		return "", err
	}

	return ApplyTransforms(Render(skeleton, values), transforms), nil
}
