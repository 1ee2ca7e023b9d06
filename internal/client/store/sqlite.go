package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/suraj-driod/swa-antarang/internal/dbx"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

// metadata keys
const (
	keySession   = "session"
	keyUserID    = "user_id"
	keyExpiresAt = "expires_at"
)

// SQLiteStore keeps the session in the metadata table of the local database.
// Besides the session blob it mirrors the user id and expiry so they can be
// inspected without decoding.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (r *SQLiteStore) Load(ctx context.Context) (*models.Session, error) {
	value, err := r.get(ctx, r.db, keySession)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return decode(value)
}

func (r *SQLiteStore) Save(ctx context.Context, s *models.Session) error {
	blob, err := encode(s)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := r.set(ctx, tx, keySession, blob); err != nil {
			return err
		}
		if err := r.set(ctx, tx, keyUserID, []byte(s.UserID())); err != nil {
			return err
		}
		var exp int64
		if !s.ExpiresAt.IsZero() {
			exp = s.ExpiresAt.Unix()
		}
		return r.set(ctx, tx, keyExpiresAt, []byte(strconv.FormatInt(exp, 10)))
	})
}

func (r *SQLiteStore) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata`)
	if err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return nil
}

// UserID returns the mirrored user id of the stored session, or "".
func (r *SQLiteStore) UserID(ctx context.Context) (string, error) {
	v, err := r.get(ctx, r.db, keyUserID)
	return string(v), err
}

func (r *SQLiteStore) get(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if dbx.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteStore) set(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}
