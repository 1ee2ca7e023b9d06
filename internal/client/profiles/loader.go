// Package profiles assembles an Identity from the generic profile row and the
// role's sub-profile row.
package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/suraj-driod/swa-antarang/internal/client/client"
	"github.com/suraj-driod/swa-antarang/internal/logging"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

var (
	// ErrProfileNotFound means the user has no profile row.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidRole means the profile row names a role outside the enum.
	ErrInvalidRole = errors.New("profile has invalid role")
)

// Source is the slice of the identity backend the loader reads from.
type Source interface {
	FetchProfile(ctx context.Context, userID string) (*models.Profile, error)
	FetchMerchantProfile(ctx context.Context, userID string) (*models.MerchantProfile, error)
	FetchDriverProfile(ctx context.Context, userID string) (*models.DriverProfile, error)
}

type Loader struct {
	src Source
	log logging.Logger
}

func NewLoader(src Source, log logging.Logger) *Loader {
	if log == nil {
		log = logging.Nop()
	}
	return &Loader{src: src, log: log.With("module", "profiles")}
}

// Load returns the assembled Identity for userID. Any error means no identity
// could be resolved; ErrProfileNotFound and ErrInvalidRole tell the cases apart
// from a failed fetch.
//
// A missing or failing sub-profile fetch does not fail the load: the id is
// left empty so a half-provisioned account can still sign in.
func (l *Loader) Load(ctx context.Context, userID string) (*models.Identity, error) {
	p, err := l.src.FetchProfile(ctx, userID)
	if errors.Is(err, client.ErrNotFound) || (err == nil && p == nil) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", userID, err)
	}

	role, err := models.ParseRole(p.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRole, err)
	}

	id := &models.Identity{
		ID:        userID,
		Role:      role,
		Email:     p.Email,
		FullName:  p.FullName,
		Phone:     p.Phone,
		AvatarURL: p.AvatarURL,
	}

	switch role {
	case models.RoleMerchant:
		m, err := l.src.FetchMerchantProfile(ctx, userID)
		if err != nil || m == nil {
			l.log.Warn(ctx, "merchant sub-profile unavailable", "user_id", userID, "error", err)
			break
		}
		id.MerchantProfileID = m.ID
	case models.RoleDriver:
		d, err := l.src.FetchDriverProfile(ctx, userID)
		if err != nil || d == nil {
			l.log.Warn(ctx, "driver sub-profile unavailable", "user_id", userID, "error", err)
			break
		}
		id.DriverProfileID = d.ID
	case models.RoleCustomer:
	}

	return id, nil
}
