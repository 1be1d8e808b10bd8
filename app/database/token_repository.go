package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ TokenRepository = (*SQLTokenRepository)(nil)

// SQLTokenRepository handles database operations for access tokens
type SQLTokenRepository struct {
	db *DB
}

func NewTokenRepository(db *DB) *SQLTokenRepository {
	return &SQLTokenRepository{db: db}
}

// GetToken retrieves an access token record, or nil when the token is unknown.
func (r *SQLTokenRepository) GetToken(token string) (*AccessToken, error) {
	var t AccessToken
	var createdAt string
	var lastUsedAt sql.NullString

	err := r.db.QueryRow(`
		SELECT token, name, COALESCE(category, ''), COALESCE(feed_id, ''),
		       limit_default, enabled, is_admin, created_at, last_used_at
		FROM access_tokens
		WHERE token = ?
	`, token).Scan(
		&t.Token, &t.Name, &t.Category, &t.FeedID,
		&t.LimitDefault, &t.Enabled, &t.IsAdmin, &createdAt, &lastUsedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.LastUsedAt, err = parseNullableTime(lastUsedAt); err != nil {
		return nil, err
	}

	return &t, nil
}

// TouchToken records the last successful use of a token.
func (r *SQLTokenRepository) TouchToken(token string, usedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE access_tokens SET last_used_at = ? WHERE token = ?
	`, formatTime(usedAt), token)

	if err != nil {
		return fmt.Errorf("failed to touch access token: %w", err)
	}

	return nil
}

// InsertToken stores a newly provisioned access token.
func (r *SQLTokenRepository) InsertToken(t AccessToken) error {
	_, err := r.db.Exec(`
		INSERT INTO access_tokens (token, name, category, feed_id, limit_default, enabled, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.Token, t.Name, nullableString(t.Category), nullableString(t.FeedID),
		t.LimitDefault, t.Enabled, t.IsAdmin, formatTime(time.Now()))

	if err != nil {
		return fmt.Errorf("failed to insert access token: %w", err)
	}

	return nil
}
