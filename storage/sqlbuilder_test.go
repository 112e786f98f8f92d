package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSQLQueryBuilder(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	b, err := NewSQLQueryBuilder(SQLOptions{TableName: "logs.app"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := map[string]struct {
		req      PreviewRequest
		expected BuildResult
	}{
		"unbounded": {
			req: PreviewRequest{Condition: `level = "error"`},
			expected: BuildResult{
				Query: `SELECT * FROM logs.app WHERE (level = "error") ORDER BY timestamp DESC LIMIT 100`,
			},
		},
		"forward": {
			req: PreviewRequest{Condition: `a = "1" OR b = "2"`, Start: start, End: end, Limit: 5},
			expected: BuildResult{
				Query: `SELECT * FROM logs.app WHERE timestamp >= ? AND timestamp <= ? AND (a = "1" OR b = "2") ORDER BY timestamp ASC LIMIT 5`,
				Args:  []any{start, end},
			},
		},
		"backward": {
			req: PreviewRequest{Start: end, End: start, Limit: 50000},
			expected: BuildResult{
				Query: `SELECT * FROM logs.app WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp DESC LIMIT 10000`,
				Args:  []any{start, end},
			},
		},
		"sorted": {
			req: PreviewRequest{Sort: []SortField{{Name: "level", IsDescending: true}}},
			expected: BuildResult{
				Query: `SELECT * FROM logs.app WHERE 1 = 1 ORDER BY level DESC, timestamp DESC LIMIT 100`,
			},
		},
	}

	for name, tt := range tests {
		actual, err := b.Build(tt.req)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if diff := cmp.Diff(tt.expected, actual); diff != "" {
			t.Fatalf("%s: build mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestSQLQueryBuilderRejectsSortField(t *testing.T) {
	b, _ := NewSQLQueryBuilder(SQLOptions{TableName: "logs"})

	_, err := b.Build(PreviewRequest{Sort: []SortField{{Name: "message; DROP TABLE logs"}}})
	if err == nil || !strings.Contains(err.Error(), "not allowed for sorting") {
		t.Fatalf("expected sort field error, got %v", err)
	}
}

func TestSQLQueryBuilderTableName(t *testing.T) {
	tests := map[string]bool{
		"logs":          true,
		"logs.app_2025": true,
		"":              false,
		"logs; DROP":    false,
		"a.b.c":         false,
		"`logs`":        false,
	}

	for name, valid := range tests {
		_, err := NewSQLQueryBuilder(SQLOptions{TableName: name})
		if (err == nil) != valid {
			t.Fatalf("NewSQLQueryBuilder(%q) error = %v, want valid %t", name, err, valid)
		}
	}
}

func TestDorisDSN(t *testing.T) {
	cfg := DorisStorageConfig{
		Addr:     "127.0.0.1:9030",
		Database: "logs",
		Username: "root",
		Password: "secret",
		Timeout:  5 * time.Second,
	}

	dsn := cfg.dsn()

	for _, part := range []string{"root:secret@tcp(127.0.0.1:9030)/logs", "parseTime=true", "timeout=5s"} {
		if !strings.Contains(dsn, part) {
			t.Fatalf("dsn %q does not contain %q", dsn, part)
		}
	}
}

func TestNewStorageValidatesConfig(t *testing.T) {
	if _, err := NewDorisStorage(DorisStorageConfig{}); err == nil {
		t.Fatalf("expected error for missing doris address")
	}

	if _, err := NewClickHouseStorage(ClickHouseStorageConfig{}); err == nil {
		t.Fatalf("expected error for missing clickhouse address")
	}

	s, err := NewDorisStorage(DorisStorageConfig{Addr: "localhost:9030"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.cfg.Table != "logs" || s.Dialect() != "doris" {
		t.Fatalf("unexpected defaults %+v", s.cfg)
	}
}
