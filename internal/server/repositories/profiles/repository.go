// Package profiles stores the generic profile row and the role
// sub-profiles.
package profiles

import (
	"context"

	"github.com/suraj-driod/swa-antarang/internal/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Profile) error
	CreateMerchant(ctx context.Context, p *models.MerchantProfile) error
	CreateDriver(ctx context.Context, p *models.DriverProfile) error

	// The getters return common.ErrNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetMerchantByUser(ctx context.Context, userID string) (*models.MerchantProfile, error)
	GetDriverByUser(ctx context.Context, userID string) (*models.DriverProfile, error)
}
