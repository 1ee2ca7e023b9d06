package profiles

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/suraj-driod/swa-antarang/internal/common"
	"github.com/suraj-driod/swa-antarang/internal/dbx"
	"github.com/suraj-driod/swa-antarang/internal/models"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (id, role, email, full_name, phone, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, p.ID, p.Role, p.Email, p.FullName, p.Phone, p.AvatarURL).Scan(&p.CreatedAt)
	return wrap(err)
}

func (r *PostgresRepository) CreateMerchant(ctx context.Context, p *models.MerchantProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `
		INSERT INTO merchant_profiles (id, user_id, business_name)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.BusinessName)
	return wrap(err)
}

func (r *PostgresRepository) CreateDriver(ctx context.Context, p *models.DriverProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `
		INSERT INTO driver_profiles (id, user_id, vehicle_number)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.VehicleNumber)
	return wrap(err)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `
		SELECT id, role, email, full_name, phone, avatar_url, created_at
		FROM profiles
		WHERE id = $1
	`
	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Role, &p.Email, &p.FullName, &p.Phone, &p.AvatarURL, &p.CreatedAt)
	if err != nil {
		return nil, wrap(err)
	}
	return p, nil
}

func (r *PostgresRepository) GetMerchantByUser(ctx context.Context, userID string) (*models.MerchantProfile, error) {
	query := `
		SELECT id, user_id, business_name
		FROM merchant_profiles
		WHERE user_id = $1
	`
	p := &models.MerchantProfile{}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.ID, &p.UserID, &p.BusinessName); err != nil {
		return nil, wrap(err)
	}
	return p, nil
}

func (r *PostgresRepository) GetDriverByUser(ctx context.Context, userID string) (*models.DriverProfile, error) {
	query := `
		SELECT id, user_id, vehicle_number
		FROM driver_profiles
		WHERE user_id = $1
	`
	p := &models.DriverProfile{}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.ID, &p.UserID, &p.VehicleNumber); err != nil {
		return nil, wrap(err)
	}
	return p, nil
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case dbx.IsNoRows(err):
		return common.ErrNotFound
	case repositories.IsUniqueViolation(err):
		return common.ErrAlreadyExists
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
