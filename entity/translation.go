package entity

import (
	"time"

	"github.com/google/uuid"
)

// TranslationRecord is one translated query, kept for auditing.
type TranslationRecord struct {
	ID          uuid.UUID     `json:"id"`
	RequestID   string        `json:"request_id,omitempty"`
	Query       string        `json:"query"`
	Condition   string        `json:"condition"`
	Dialect     string        `json:"dialect"`
	Diagnostics []string      `json:"diagnostics,omitempty"`
	Duration    time.Duration `json:"duration"`
	Timestamp   time.Time     `json:"timestamp"`
}
