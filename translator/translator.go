// Package translator converts Lucene-style log search queries into SQL
// boolean conditions.
package translator

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/thisisjab/querybridge/translator/lexer"
	"github.com/thisisjab/querybridge/translator/parser"
)

type Options struct {
	// KnownFields are matched exactly with "=". Nil means KnownFields.
	KnownFields []string

	// DefaultField is searched when a clause has no field. Defaults to
	// "message".
	DefaultField string

	// MaxDepth is the deepest parenthesis nesting kept as structure.
	MaxDepth int

	// Dialect renders the result. Defaults to Doris.
	Dialect Dialect

	Logger *slog.Logger
}

// Result is a translated condition and everything that was degraded on the way.
type Result struct {
	Condition   string       `json:"condition"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Translator is safe for concurrent use. The known field set can be swapped
// at runtime with SetKnownFields.
type Translator struct {
	known        atomic.Pointer[FieldSet]
	defaultField string
	maxDepth     int
	dialect      Dialect
	logger       *slog.Logger
}

func New(opts Options) *Translator {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.Dialect == nil {
		opts.Dialect = Doris
	}

	if opts.MaxDepth <= 0 {
		opts.MaxDepth = parser.DefaultMaxDepth
	}

	defaultField := strings.TrimSpace(opts.DefaultField)
	if defaultField == "" {
		defaultField = DefaultField
	} else if !IsValidField(defaultField) {
		opts.Logger.Warn("invalid default field, falling back", "field", defaultField, "fallback", DefaultField)
		defaultField = DefaultField
	}

	t := &Translator{
		defaultField: defaultField,
		maxDepth:     opts.MaxDepth,
		dialect:      opts.Dialect,
		logger:       opts.Logger,
	}

	fields := opts.KnownFields
	if fields == nil {
		fields = KnownFields
	}
	t.SetKnownFields(fields)

	return t
}

// SetKnownFields replaces the known field set. Translations already running
// keep the set they started with.
func (t *Translator) SetKnownFields(fields []string) {
	t.known.Store(NewFieldSet(fields...))
}

func (t *Translator) KnownFields() []string {
	return t.known.Load().Fields()
}

func (t *Translator) DefaultField() string {
	return t.defaultField
}

func (t *Translator) Dialect() Dialect {
	return t.dialect
}

// Translate returns the SQL condition for raw, or "" for a blank query.
func (t *Translator) Translate(raw string) string {
	return t.TranslateWithReport(raw).Condition
}

// TranslateWithReport translates raw with the configured dialect.
func (t *Translator) TranslateWithReport(raw string) Result {
	return t.TranslateTo(raw, t.dialect)
}

// TranslateTo translates raw and renders it with d. It never fails: input
// that cannot be structured is searched as literal text and reported in the
// result's diagnostics.
func (t *Translator) TranslateTo(raw string, d Dialect) Result {
	if d == nil {
		d = t.dialect
	}

	if strings.TrimSpace(raw) == "" {
		return Result{}
	}

	p := parser.New(lexer.New(raw), t.maxDepth)
	root := p.ParseQuery()

	b := &builder{
		known:        t.known.Load(),
		defaultField: t.defaultField,
	}

	for _, problem := range p.Problems() {
		b.diag(problem.Code, problem.Message, problem.Pos)
	}

	res := Result{
		Condition:   combine(d, b.build(root)),
		Diagnostics: b.diags,
	}

	if len(res.Diagnostics) > 0 {
		t.logger.Debug("query translated with diagnostics",
			"query", raw,
			"dialect", d.Name(),
			"diagnostics", len(res.Diagnostics),
			"first", res.Diagnostics[0].Code,
		)
	}

	return res
}

// TranslateQuery translates raw for Doris with the given known fields and
// default field. A nil knownFields uses KnownFields; an empty defaultField
// uses "message".
func TranslateQuery(raw string, knownFields []string, defaultField string) string {
	return New(Options{KnownFields: knownFields, DefaultField: defaultField}).Translate(raw)
}
