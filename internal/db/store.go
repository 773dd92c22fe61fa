package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS cache_records_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS cache_records (
	id                BIGINT PRIMARY KEY DEFAULT nextval('cache_records_id_seq'),
	model             VARCHAR NOT NULL,
	temperature       DOUBLE NOT NULL,
	max_tokens        INTEGER NOT NULL,
	system_message    VARCHAR NOT NULL,
	user_message      VARCHAR NOT NULL,
	assistant_message VARCHAR NOT NULL,
	input_tokens      INTEGER NOT NULL,
	output_tokens     INTEGER NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
)`,
}

// CacheRecord is one stored request/response exchange.
type CacheRecord struct {
	ID               int64
	Model            string
	Temperature      float64
	MaxTokens        int
	SystemMessage    string
	UserMessage      string
	AssistantMessage string
	InputTokens      int
	OutputTokens     int
	CreatedAt        time.Time
}

// Store is an append-only record table in a DuckDB file. Open it once per
// process and hand it to whatever needs it.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path. An empty path opens
// an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InsertRecord(ctx context.Context, rec CacheRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_records (
			model, temperature, max_tokens,
			system_message, user_message, assistant_message,
			input_tokens, output_tokens
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		rec.Model, rec.Temperature, rec.MaxTokens,
		rec.SystemMessage, rec.UserMessage, rec.AssistantMessage,
		rec.InputTokens, rec.OutputTokens,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cache record: %w", err)
	}
	return nil
}

// MostRecentRecord returns the last inserted record, or nil when the table
// is empty.
func (s *Store) MostRecentRecord(ctx context.Context) (*CacheRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			id, model, temperature, max_tokens,
			system_message, user_message, assistant_message,
			input_tokens, output_tokens, created_at
		FROM cache_records
		ORDER BY id DESC
		LIMIT 1
	`)

	var rec CacheRecord
	err := row.Scan(
		&rec.ID, &rec.Model, &rec.Temperature, &rec.MaxTokens,
		&rec.SystemMessage, &rec.UserMessage, &rec.AssistantMessage,
		&rec.InputTokens, &rec.OutputTokens, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read last cache record: %w", err)
	}

	return &rec, nil
}

func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache records: %w", err)
	}
	return count, nil
}
