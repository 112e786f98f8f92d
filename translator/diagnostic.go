package translator

import "github.com/thisisjab/querybridge/translator/parser"

const (
	DiagUnbalancedParen = parser.ProblemUnbalancedParen
	DiagDepthExceeded   = parser.ProblemDepthExceeded
	DiagInvalidField    = "invalid_field"
	DiagEmptyGroup      = "empty_group"
)

// Diagnostic reports a part of the query that could not be translated as
// written. Translation still succeeds; the affected text was either kept as a
// literal phrase or dropped.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Pos     int    `json:"pos"`
}
