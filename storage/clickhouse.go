package storage

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/thisisjab/querybridge/entity"
)

type ClickHouseStorageConfig struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`

	// Table is the log table previews run against.
	Table string `yaml:"table"`

	AllowedSortFields []string `yaml:"allowed_sort_fields"`
}

type ClickHouseStorage struct {
	conn    clickhouse.Conn
	cfg     ClickHouseStorageConfig
	builder *SQLQueryBuilder
}

func NewClickHouseStorage(cfg ClickHouseStorageConfig) (*ClickHouseStorage, error) {
	if len(cfg.Addr) == 0 {
		return nil, fmt.Errorf("at least one clickhouse address is required")
	}

	if cfg.Table == "" {
		cfg.Table = "logs"
	}

	builder, err := NewSQLQueryBuilder(SQLOptions{
		TableName:         cfg.Table,
		AllowedSortFields: cfg.AllowedSortFields,
	})
	if err != nil {
		return nil, err
	}

	return &ClickHouseStorage{cfg: cfg, builder: builder}, nil
}

func (s *ClickHouseStorage) Dialect() string {
	return "clickhouse"
}

func setupClickHouseTables(ctx context.Context, conn driver.Conn) error {
	return conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS translation_log (
			id UUID,
			request_id String,
			timestamp DateTime64(3),
			dialect LowCardinality(String),
			query String,
			condition String,
			diagnostics Array(String),
			duration_us UInt64
		)
		ENGINE = MergeTree
		ORDER BY (timestamp, id)
		PARTITION BY toYYYYMM(timestamp)
	`)
}

func (s *ClickHouseStorage) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: s.cfg.Addr,
		Auth: clickhouse.Auth{
			Database: s.cfg.Database,
			Username: s.cfg.Username,
			Password: s.cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return fmt.Errorf("failed to connect: %v", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.conn = conn

	if err := setupClickHouseTables(ctx, conn); err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	return nil
}

func (s *ClickHouseStorage) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}

	return s.conn.Close()
}

func (s *ClickHouseStorage) StoreTranslations(ctx context.Context, records ...entity.TranslationRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO translation_log (id, request_id, timestamp, dialect, query, condition, diagnostics, duration_us)")
	if err != nil {
		return fmt.Errorf("couldn't prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(r.ID, r.RequestID, r.Timestamp, r.Dialect, r.Query, r.Condition, r.Diagnostics, uint64(r.Duration.Microseconds()))

		if err != nil {
			return fmt.Errorf("couldn't append translation to batch: %w", err)
		}
	}

	err = batch.Send()
	if err != nil {
		return fmt.Errorf("couldn't send batch: %w", err)
	}

	return nil
}

func (s *ClickHouseStorage) Preview(ctx context.Context, req PreviewRequest) ([]Row, error) {
	q, err := s.builder.Build(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := s.conn.Query(ctx, q.Query, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("couldn't run preview query: %w", err)
	}
	defer rows.Close()

	columns := rows.ColumnTypes()

	var result []Row
	for rows.Next() {
		dest := make([]any, len(columns))
		for i, c := range columns {
			dest[i] = reflect.New(c.ScanType()).Interface()
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("couldn't scan preview row: %w", err)
		}

		row := make(Row, len(columns))
		for i, c := range columns {
			row[strings.ToLower(c.Name())] = reflect.ValueOf(dest[i]).Elem().Interface()
		}
		result = append(result, row)
	}

	return result, rows.Err()
}
