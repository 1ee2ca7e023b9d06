package services

import (
	"context"
	"errors"

	"github.com/suraj-driod/swa-antarang/internal/common"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

// Profile reads are row-filtered: a caller only ever sees rows keyed by its
// own user id. Everything else reads as an empty result, never an error.

func (s *AuthService) Profiles(ctx context.Context, callerID, id string) ([]models.Profile, error) {
	if id != callerID {
		return []models.Profile{}, nil
	}
	p, err := s.repomanager.Profiles(s.db).GetByID(ctx, id)
	if err != nil {
		return emptyOr[models.Profile](err)
	}
	return []models.Profile{*p}, nil
}

func (s *AuthService) MerchantProfiles(ctx context.Context, callerID, userID string) ([]models.MerchantProfile, error) {
	if userID != callerID {
		return []models.MerchantProfile{}, nil
	}
	p, err := s.repomanager.Profiles(s.db).GetMerchantByUser(ctx, userID)
	if err != nil {
		return emptyOr[models.MerchantProfile](err)
	}
	return []models.MerchantProfile{*p}, nil
}

func (s *AuthService) DriverProfiles(ctx context.Context, callerID, userID string) ([]models.DriverProfile, error) {
	if userID != callerID {
		return []models.DriverProfile{}, nil
	}
	p, err := s.repomanager.Profiles(s.db).GetDriverByUser(ctx, userID)
	if err != nil {
		return emptyOr[models.DriverProfile](err)
	}
	return []models.DriverProfile{*p}, nil
}

func emptyOr[T any](err error) ([]T, error) {
	if errors.Is(err, common.ErrNotFound) {
		return []T{}, nil
	}
	return nil, common.ErrInternal
}
