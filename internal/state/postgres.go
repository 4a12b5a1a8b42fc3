package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists dialog and user state in PostgreSQL, for
// deployments where conversations must survive a restart.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dialog_sessions (
			conversation_id TEXT PRIMARY KEY,
			dialog_state TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS user_state (
			user_id TEXT PRIMARY KEY,
			turn_count BIGINT NOT NULL DEFAULT 0,
			last_activity_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, conversationID string) (Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx,
		`SELECT conversation_id, dialog_state, updated_at FROM dialog_sessions WHERE conversation_id=$1`,
		conversationID,
	).Scan(&sess.ConversationID, &sess.Dialog, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) PutSession(ctx context.Context, sess Session) error {
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dialog_sessions (conversation_id, dialog_state, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (conversation_id) DO UPDATE SET dialog_state=$2, updated_at=$3`,
		sess.ConversationID,
		sess.Dialog,
		sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, conversationID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM dialog_sessions WHERE conversation_id=$1`, conversationID,
	); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (UserRecord, error) {
	var u UserRecord
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, turn_count, last_activity_at FROM user_state WHERE user_id=$1`,
		userID,
	).Scan(&u.UserID, &u.TurnCount, &u.LastActivityAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserRecord{}, ErrNotFound
	}
	if err != nil {
		return UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) PutUser(ctx context.Context, u UserRecord) error {
	if u.LastActivityAt.IsZero() {
		u.LastActivityAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_state (user_id, turn_count, last_activity_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET turn_count=$2, last_activity_at=$3`,
		u.UserID,
		u.TurnCount,
		u.LastActivityAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
