package preprocessor

import "golang.org/x/net/html"

type HTMLPreprocessorConfig struct {
	Name string `yaml:"-"`
}

// HTMLPreprocessor decodes HTML entities such as &quot; and &#39;. Queries
// scraped from a rendered page arrive entity-encoded.
type HTMLPreprocessor struct {
	cfg HTMLPreprocessorConfig
}

func NewHTMLPreprocessor(cfg HTMLPreprocessorConfig) (*HTMLPreprocessor, error) {
	return &HTMLPreprocessor{cfg: cfg}, nil
}

func (p *HTMLPreprocessor) Name() string {
	return p.cfg.Name
}

func (p *HTMLPreprocessor) Process(query string) (string, error) {
	return html.UnescapeString(query), nil
}
