package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteConfig struct {
	Path string `envconfig:"PATH" split_words:"true" default:"conversations.db"`
}

// SQLiteStore keeps one JSON row per session in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database file named by cfg.Path.
func OpenSQLiteStore(ctx context.Context, cfg SQLiteConfig) (*SQLiteStore, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an open database, running migrations on first use.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate conversation states: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS conversation_states (
			session_id TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (*ConversationState, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, ErrInvalidSession
	}

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM conversation_states WHERE session_id = ?`,
		id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select conversation state: %w", err)
	}
	return decodeState([]byte(payload))
}

func (s *SQLiteStore) Save(ctx context.Context, st *ConversationState) error {
	payload, err := encodeState(st)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_states (session_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, st.ID, string(payload), st.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert conversation state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return ErrInvalidSession
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversation_states WHERE session_id = ?`, id)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
