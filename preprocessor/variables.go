package preprocessor

import (
	"fmt"
	"regexp"
	"strings"
)

type VariablesPreprocessorConfig struct {
	Name   string            `yaml:"-"`
	Values map[string]string `yaml:"values"`

	// Multi joins multi-value variables written as "{a,b}" with " OR ".
	Multi bool `yaml:"multi"`
}

// VariablesPreprocessor substitutes dashboard variables ($name, ${name} and
// [[name]]) with configured values. Unknown variables are left untouched.
type VariablesPreprocessor struct {
	cfg VariablesPreprocessorConfig
}

var variableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var variableRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::[A-Za-z]+)?\}|\$([A-Za-z_][A-Za-z0-9_]*)|\[\[([A-Za-z_][A-Za-z0-9_]*)\]\]`)

func NewVariablesPreprocessor(cfg VariablesPreprocessorConfig) (*VariablesPreprocessor, error) {
	for name := range cfg.Values {
		if !variableNameRegex.MatchString(name) {
			return nil, fmt.Errorf("invalid variable name: %q", name)
		}
	}

	return &VariablesPreprocessor{cfg: cfg}, nil
}

func (p *VariablesPreprocessor) Name() string {
	return p.cfg.Name
}

func (p *VariablesPreprocessor) Process(query string) (string, error) {
	return p.Substitute(query, nil), nil
}

// Substitute replaces variables using extra first, then the configured
// values.
func (p *VariablesPreprocessor) Substitute(query string, extra map[string]string) string {
	if len(p.cfg.Values) == 0 && len(extra) == 0 {
		return query
	}

	return variableRegex.ReplaceAllStringFunc(query, func(match string) string {
		m := variableRegex.FindStringSubmatch(match)
		name := m[1] + m[2] + m[3]

		value, ok := extra[name]
		if !ok {
			value, ok = p.cfg.Values[name]
		}
		if !ok {
			return match
		}

		return p.format(value)
	})
}

func (p *VariablesPreprocessor) format(value string) string {
	if !p.cfg.Multi || !strings.HasPrefix(value, "{") || !strings.HasSuffix(value, "}") {
		return value
	}

	parts := strings.Split(strings.Trim(value, "{}"), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return "(" + strings.Join(parts, " OR ") + ")"
}
