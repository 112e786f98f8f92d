package storage

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/thisisjab/querybridge/fault"
)

const (
	DefaultPreviewLimit = 100
	MaxPreviewLimit     = 10000
)

var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLOptions holds configuration for the SQL query builder.
type SQLOptions struct {
	// AllowedSortFields is a whitelist of field names permitted in ORDER BY clauses.
	// This prevents SQL injection through malicious sort parameters.
	// If empty, defaults to ["timestamp", "level", "application_name"].
	AllowedSortFields []string

	// TableName is the name of the table to query from, optionally prefixed
	// with a database.
	TableName string

	// TimestampColumn bounds the query in time. Defaults to "timestamp".
	TimestampColumn string

	// SelectColumns is the list of columns to SELECT.
	// If empty, defaults to SELECT *.
	SelectColumns []string
}

// SQLQueryBuilder constructs preview SELECT queries around an already
// translated condition.
type SQLQueryBuilder struct {
	opts SQLOptions
}

func NewSQLQueryBuilder(opts SQLOptions) (*SQLQueryBuilder, error) {
	if !tableNameRegex.MatchString(opts.TableName) {
		return nil, fmt.Errorf("invalid table name `%s`", opts.TableName)
	}

	if opts.TimestampColumn == "" {
		opts.TimestampColumn = "timestamp"
	}

	if len(opts.AllowedSortFields) == 0 {
		opts.AllowedSortFields = []string{"timestamp", "level", "application_name"}
	}

	return &SQLQueryBuilder{opts: opts}, nil
}

// BuildResult holds the generated SQL query and its arguments.
type BuildResult struct {
	Query string
	Args  []any
}

// Build builds a complete SELECT query. The condition is inserted as is: it
// is expected to come from the translator, which escapes every literal.
func (b *SQLQueryBuilder) Build(req PreviewRequest) (BuildResult, error) {
	whereClause, args := b.buildWhereClause(req.Condition, req.Start, req.End)

	orderByClause, err := b.buildOrderByClause(req.Start, req.End, req.Sort)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to build order by clause: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	limit = min(limit, MaxPreviewLimit)

	selectCols := strings.Join(b.opts.SelectColumns, ", ")
	if len(b.opts.SelectColumns) == 0 {
		selectCols = "*"
	}

	sqlQuery := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s %s LIMIT %d",
		selectCols,
		b.opts.TableName,
		whereClause,
		orderByClause,
		limit,
	)

	return BuildResult{Query: sqlQuery, Args: args}, nil
}

// buildWhereClause constructs the WHERE clause with timestamp bounds and the condition.
func (b *SQLQueryBuilder) buildWhereClause(condition string, start, end time.Time) (string, []any) {
	var parts []string
	var args []any

	sTime, eTime := start, end
	if !end.IsZero() && end.Before(start) {
		sTime, eTime = end, start
	}

	if !sTime.IsZero() {
		parts = append(parts, b.opts.TimestampColumn+" >= ?")
		args = append(args, sTime)
	}

	if !eTime.IsZero() {
		parts = append(parts, b.opts.TimestampColumn+" <= ?")
		args = append(args, eTime)
	}

	if condition = strings.TrimSpace(condition); condition != "" {
		parts = append(parts, "("+condition+")")
	}

	if len(parts) == 0 {
		return "1 = 1", nil
	}

	return strings.Join(parts, " AND "), args
}

// buildOrderByClause determines the sort order based on custom fields
// and the relationship between Start and End timestamps.
func (b *SQLQueryBuilder) buildOrderByClause(start, end time.Time, sortFields []SortField) (string, error) {
	timeDirection := "DESC"
	if !end.IsZero() && !start.IsZero() && end.After(start) {
		timeDirection = "ASC"
	}

	if len(sortFields) == 0 {
		return fmt.Sprintf("ORDER BY %s %s", b.opts.TimestampColumn, timeDirection), nil
	}

	var parts []string
	for _, field := range sortFields {
		if !slices.Contains(b.opts.AllowedSortFields, field.Name) {
			return "", fault.New(fault.BadInputCode, fmt.Sprintf("field `%s` is not allowed for sorting", field.Name)).
				WithMetadata(fault.FieldErrorsMetadata{"sort": {"Allowed fields are " + strings.Join(b.opts.AllowedSortFields, ", ") + "."}})
		}

		direction := "ASC"
		if field.IsDescending {
			direction = "DESC"
		}

		parts = append(parts, fmt.Sprintf("%s %s", field.Name, direction))
	}

	// Keep the time order as a tiebreaker unless it was requested explicitly.
	hasTimestamp := slices.ContainsFunc(sortFields, func(f SortField) bool {
		return f.Name == b.opts.TimestampColumn
	})

	if !hasTimestamp {
		parts = append(parts, fmt.Sprintf("%s %s", b.opts.TimestampColumn, timeDirection))
	}

	return fmt.Sprintf("ORDER BY %s", strings.Join(parts, ", ")), nil
}
