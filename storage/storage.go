// Package storage previews translated conditions against a log table and
// keeps an audit trail of translations.
package storage

import "time"

// Row is one result row keyed by column name.
type Row map[string]any

type SortField struct {
	Name         string `json:"name"`
	IsDescending bool   `json:"desc"`
}

// PreviewRequest selects rows of the log table matching Condition.
// If End is before Start, or either bound is missing, newest rows come first.
type PreviewRequest struct {
	Condition string
	Start     time.Time
	End       time.Time
	Sort      []SortField
	Limit     int
}
