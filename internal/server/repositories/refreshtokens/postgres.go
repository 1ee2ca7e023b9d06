package refreshtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/suraj-driod/swa-antarang/internal/common"
	"github.com/suraj-driod/swa-antarang/internal/dbx"
	"github.com/suraj-driod/swa-antarang/internal/server/models"
)

// PostgresRepository works over dbx.DBTX, so it runs inside or outside a
// transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID, sessionID, token string, validity time.Duration) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, session_id, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, token, userID, sessionID, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1
		RETURNING token, user_id, session_id, expires_at, created_at
	`
	rt := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&rt.Token, &rt.UserID, &rt.SessionID, &rt.Expires, &rt.CreatedAt)
	if err != nil {
		if dbx.IsNoRows(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

func (r *PostgresRepository) ExistsBySession(ctx context.Context, sessionID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM refresh_tokens
			WHERE session_id = $1 AND expires_at > now()
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	return r.deleteWhere(ctx, "session_id", sessionID)
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return r.deleteWhere(ctx, "user_id", userID)
}

func (r *PostgresRepository) deleteWhere(ctx context.Context, column, value string) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE ` + column + ` = $1`
	res, err := r.db.ExecContext(ctx, query, value)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
