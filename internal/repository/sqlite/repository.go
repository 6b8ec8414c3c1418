package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/omarshaarawi/pickem/internal/models"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	chat_id       INTEGER PRIMARY KEY,
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	updated_at    INTEGER NOT NULL
)`

// Repository persists session tokens so chats stay signed in across restarts.
type Repository struct {
	db *sql.DB
}

func Open(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open session db: %w", err)
	}
	// One writer keeps SQLite from reporting SQLITE_BUSY under concurrent chats.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to session db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create sessions table: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) SaveTokens(ctx context.Context, chatID int64, tokens models.Tokens) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (chat_id, access_token, refresh_token, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at`,
		chatID, tokens.AccessToken, tokens.RefreshToken, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("saving tokens: %w", err)
	}
	return nil
}

func (r *Repository) GetTokens(ctx context.Context, chatID int64) (models.Tokens, bool, error) {
	var tokens models.Tokens
	err := r.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token FROM sessions WHERE chat_id = ?`, chatID,
	).Scan(&tokens.AccessToken, &tokens.RefreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tokens{}, false, nil
	}
	if err != nil {
		return models.Tokens{}, false, fmt.Errorf("loading tokens: %w", err)
	}
	return tokens, true, nil
}

func (r *Repository) DeleteTokens(ctx context.Context, chatID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("deleting tokens: %w", err)
	}
	return nil
}
