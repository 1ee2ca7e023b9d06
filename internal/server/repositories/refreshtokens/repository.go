// Package refreshtokens stores refresh tokens, each bound to a user and a
// sign-in session.
package refreshtokens

import (
	"context"
	"time"

	"github.com/suraj-driod/swa-antarang/internal/server/models"
)

type Repository interface {
	// Create stores token for userID within sessionID, valid for validity.
	Create(ctx context.Context, userID, sessionID, token string, validity time.Duration) error

	// Consume deletes token and returns the deleted row. Of several callers
	// presenting the same token only one gets it; the others, like callers
	// with an unknown token, get common.ErrNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// ExistsBySession reports whether sessionID still holds an unexpired token.
	ExistsBySession(ctx context.Context, sessionID string) (bool, error)

	// DeleteBySession revokes every token of one sign-in session.
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)

	// DeleteByUser revokes every token of the user.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
