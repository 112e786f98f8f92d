package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/thisisjab/querybridge/entity"
)

// DorisStorageConfig points at the MySQL protocol port of a Doris frontend.
type DorisStorageConfig struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Table is the log table previews run against.
	Table string `yaml:"table"`

	AllowedSortFields []string `yaml:"allowed_sort_fields"`

	Timeout      time.Duration `yaml:"timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
}

type DorisStorage struct {
	db      *sql.DB
	cfg     DorisStorageConfig
	builder *SQLQueryBuilder
}

func NewDorisStorage(cfg DorisStorageConfig) (*DorisStorage, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("doris address is required")
	}

	if cfg.Table == "" {
		cfg.Table = "logs"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	builder, err := NewSQLQueryBuilder(SQLOptions{
		TableName:         cfg.Table,
		AllowedSortFields: cfg.AllowedSortFields,
	})
	if err != nil {
		return nil, err
	}

	return &DorisStorage{cfg: cfg, builder: builder}, nil
}

func (s *DorisStorage) Dialect() string {
	return "doris"
}

func (cfg DorisStorageConfig) dsn() string {
	c := mysql.NewConfig()
	c.Net = "tcp"
	c.Addr = cfg.Addr
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Timeout = cfg.Timeout

	return c.FormatDSN()
}

func setupDorisTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS translation_log (
			id VARCHAR(36),
			timestamp DATETIME(3),
			request_id VARCHAR(64),
			dialect VARCHAR(16),
			query STRING,
			`+"`condition`"+` STRING,
			diagnostics STRING,
			duration_us BIGINT
		)
		DUPLICATE KEY(id, timestamp)
		DISTRIBUTED BY HASH(id) BUCKETS 1
		PROPERTIES ("replication_num" = "1")
	`)
	return err
}

func (s *DorisStorage) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := sql.Open("mysql", s.cfg.dsn())
	if err != nil {
		return fmt.Errorf("failed to connect: %v", err)
	}

	if s.cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.db = db

	if err := setupDorisTables(ctx, db); err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	return nil
}

func (s *DorisStorage) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *DorisStorage) StoreTranslations(ctx context.Context, records ...entity.TranslationRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	placeholders := make([]string, 0, len(records))
	args := make([]any, 0, len(records)*8)

	for _, r := range records {
		diagnostics, err := json.Marshal(r.Diagnostics)
		if err != nil {
			return fmt.Errorf("couldn't encode diagnostics: %w", err)
		}

		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, r.ID.String(), r.Timestamp, r.RequestID, r.Dialect, r.Query, r.Condition, string(diagnostics), r.Duration.Microseconds())
	}

	query := "INSERT INTO translation_log (id, timestamp, request_id, dialect, query, `condition`, diagnostics, duration_us) VALUES " +
		strings.Join(placeholders, ", ")

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("couldn't insert translations: %w", err)
	}

	return nil
}

func (s *DorisStorage) Preview(ctx context.Context, req PreviewRequest) ([]Row, error) {
	q, err := s.builder.Build(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, q.Query, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("couldn't run preview query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("couldn't read preview columns: %w", err)
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("couldn't scan preview row: %w", err)
		}

		row := make(Row, len(columns))
		for i, name := range columns {
			// Text columns arrive as raw bytes over the MySQL protocol.
			if b, ok := values[i].([]byte); ok {
				row[strings.ToLower(name)] = string(b)
				continue
			}
			row[strings.ToLower(name)] = values[i]
		}
		result = append(result, row)
	}

	return result, rows.Err()
}
