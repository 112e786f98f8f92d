// Package preprocessor holds rewrites applied to a raw query before it is
// translated.
package preprocessor

// Preprocessor rewrites a raw query. Implementations must be safe for
// concurrent use.
type Preprocessor interface {
	Name() string
	Process(query string) (string, error)
}

// Chain runs preprocessors in order.
func Chain(query string, preprocessors ...Preprocessor) (string, error) {
	var err error
	for _, p := range preprocessors {
		query, err = p.Process(query)
		if err != nil {
			return "", err
		}
	}
	return query, nil
}
