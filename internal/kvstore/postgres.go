package kvstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

const tableRecords = "kv_records"

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS kv_records (
	path TEXT PRIMARY KEY,
	data JSONB NOT NULL
)`

type postgresConfig struct {
	DSN string `json:"dsn"`
}

type postgresStore struct {
	db *sqlx.DB
}

func init() {
	Register("postgres", createPostgresStore)
}

func createPostgresStore(args interface{}) (Store, error) {
	cfg := &postgresConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres store dsn is required")
	}
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.Exec(createRecordsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure records table: %w", err)
	}
	return &postgresStore{db: db}, nil
}

func (s *postgresStore) Get(ctx context.Context, path string) (Fields, error) {
	query, args, err := builder.BuildSelect(tableRecords, map[string]interface{}{"path": path}, []string{"data"})
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var data []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return decodeFields(data)
}

func (s *postgresStore) Put(ctx context.Context, path string, fields Fields) error {
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO kv_records (path, data)
		VALUES ($1, $2)
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data
	`
	_, err = s.db.ExecContext(ctx, query, path, data)
	return err
}

func (s *postgresStore) Merge(ctx context.Context, path string, fields Fields) error {
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	// jsonb || merges top level fields server side, so unrelated fields
	// survive and the write stays a single atomic statement.
	const query = `
		INSERT INTO kv_records (path, data)
		VALUES ($1, $2)
		ON CONFLICT (path) DO UPDATE SET data = kv_records.data || EXCLUDED.data
	`
	_, err = s.db.ExecContext(ctx, query, path, data)
	return err
}

func (s *postgresStore) Delete(ctx context.Context, path string) error {
	query, args, err := builder.BuildDelete(tableRecords, map[string]interface{}{"path": path})
	if err != nil {
		return err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *postgresStore) List(ctx context.Context, prefix string) ([]Record, error) {
	query, args, err := builder.BuildSelect(tableRecords, map[string]interface{}{
		"path like": likePrefix(prefix),
		"_orderby":  "path asc",
	}, []string{"path", "data"})
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var path string
		var data []byte
		if err := rows.Scan(&path, &data); err != nil {
			return nil, err
		}
		fields, err := decodeFields(data)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{Path: path, Fields: fields})
	}
	return records, rows.Err()
}

func (s *postgresStore) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := builder.BuildSelect(tableRecords, map[string]interface{}{
		"path like": likePrefix(prefix),
		"_orderby":  "path asc",
	}, []string{"path"})
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}

func likePrefix(prefix string) string {
	escaped := ""
	for _, r := range prefix {
		if r == '%' || r == '_' || r == '\\' {
			escaped += `\`
		}
		escaped += string(r)
	}
	return escaped + "%"
}
