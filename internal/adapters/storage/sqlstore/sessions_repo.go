package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SessionStore implementa session.Store sobre la tabla sessions.
type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Find(ctx context.Context, key string, now time.Time) ([]byte, time.Time, bool, error) {
	var data string
	var expiry time.Time
	err := s.db.conn().queryRow(ctx, `
		SELECT data, expiry FROM sessions WHERE token_hash = ? AND expiry > ?
	`, key, now.UTC()).Scan(&data, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return []byte(data), expiry.UTC(), true, nil
}

func (s *SessionStore) Save(ctx context.Context, key string, data []byte, expiry time.Time) error {
	_, err := s.db.conn().exec(ctx, `
		INSERT INTO sessions (token_hash, data, expiry) VALUES (?, ?, ?)
		ON CONFLICT (token_hash) DO UPDATE SET data = excluded.data, expiry = excluded.expiry
	`, key, string(data), expiry.UTC())
	return err
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.conn().exec(ctx, `DELETE FROM sessions WHERE token_hash = ?`, key)
	return err
}

func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.conn().exec(ctx, `DELETE FROM sessions WHERE expiry <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
