package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

type conversationStateRow struct {
	bun.BaseModel `bun:"table:conversation_states,alias:cs"`

	SessionID string    `bun:"session_id,pk"`
	Payload   string    `bun:"payload,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// PostgresStore keeps one jsonb row per session using bun.
type PostgresStore struct {
	db *bun.DB
}

func OpenPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if cfg.Timeout > 0 {
		opts = append(opts, pgdriver.WithTimeout(cfg.Timeout))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	db := bun.NewDB(sqldb, pgdialect.New())

	store, err := NewPostgresStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an open bun database and creates the table if needed.
func NewPostgresStore(ctx context.Context, db *bun.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	if _, err := db.NewCreateTable().
		Model((*conversationStateRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("create conversation_states: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*ConversationState, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, ErrInvalidSession
	}

	row := new(conversationStateRow)
	err := s.db.NewSelect().
		Model(row).
		Where("session_id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select conversation state: %w", err)
	}
	return decodeState([]byte(row.Payload))
}

func (s *PostgresStore) Save(ctx context.Context, st *ConversationState) error {
	payload, err := encodeState(st)
	if err != nil {
		return err
	}

	row := &conversationStateRow{
		SessionID: st.ID,
		Payload:   string(payload),
		UpdatedAt: st.UpdatedAt,
	}
	if _, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (session_id) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("upsert conversation state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return ErrInvalidSession
	}
	_, err := s.db.NewDelete().
		Model((*conversationStateRow)(nil)).
		Where("session_id = ?", id).
		Exec(ctx)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
