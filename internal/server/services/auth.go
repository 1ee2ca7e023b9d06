// Package services holds the identity backend's business logic: accounts,
// sign-in sessions and profile reads.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/suraj-driod/swa-antarang/internal/common"
	"github.com/suraj-driod/swa-antarang/internal/cryptox"
	"github.com/suraj-driod/swa-antarang/internal/dbx"
	"github.com/suraj-driod/swa-antarang/internal/logging"
	"github.com/suraj-driod/swa-antarang/internal/models"
	"github.com/suraj-driod/swa-antarang/internal/server/auth"
	"github.com/suraj-driod/swa-antarang/internal/server/config"
	smodels "github.com/suraj-driod/swa-antarang/internal/server/models"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories/repomanager"
)

// Issued is a freshly minted token pair with the user it belongs to.
type Issued struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	ExpiresIn    int64
	User         *smodels.User
}

type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	hashParams                   cryptox.Params
	dummyHash                    string
	log                          logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *AuthService {
	if log == nil {
		log = logging.Nop()
	}
	s := &AuthService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		hashParams:                   cryptox.DefaultParams,
		log:                          log.With("module", "auth_service"),
	}
	s.dummyHash = cryptox.HashPassword(fmt.Sprintf("%x", common.GenerateRandByteArray(16)), s.hashParams)
	return s
}

// SignUp creates the account together with its profile row and the role's
// sub-profile in one transaction, then signs the new user in.
func (s *AuthService) SignUp(ctx context.Context, email, password string, meta models.SignUpMetadata) (*Issued, error) {
	role, err := models.ParseRole(string(meta.Role))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	email = normalizeEmail(email)

	var issued *Issued
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &smodels.User{
			Email:        email,
			PasswordHash: cryptox.HashPassword(password, s.hashParams),
			Metadata:     meta.Map(),
		})
		if err != nil {
			return err
		}

		profiles := s.repomanager.Profiles(tx)
		if err := profiles.Create(ctx, &models.Profile{
			ID:       user.ID,
			Role:     string(role),
			Email:    email,
			FullName: meta.FullName,
			Phone:    meta.Phone,
		}); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}

		switch role {
		case models.RoleMerchant:
			err = profiles.CreateMerchant(ctx, &models.MerchantProfile{UserID: user.ID, BusinessName: meta.BusinessName})
		case models.RoleDriver:
			err = profiles.CreateDriver(ctx, &models.DriverProfile{UserID: user.ID, VehicleNumber: meta.VehicleNumber})
		case models.RoleCustomer:
		}
		if err != nil {
			return fmt.Errorf("create %s profile: %w", role, err)
		}

		issued, err = s.issue(ctx, tx, user, uuid.NewString())
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		s.log.Error(ctx, "sign up failed", "email", email, "error", err)
		return nil, common.ErrInternal
	}

	s.log.Info(ctx, "user signed up", "user_id", issued.User.ID, "role", string(role))
	return issued, nil
}

// Login checks the password and opens a new sign-in session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Issued, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_, _ = cryptox.VerifyPassword(s.dummyHash, password)
			return nil, common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	ok, err := cryptox.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		s.log.Error(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, common.ErrInternal
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.issue(ctx, s.db, user, uuid.NewString())
}

// Refresh rotates refreshToken: the presented token is consumed and a new
// pair is issued within the same session. A token can be consumed once, so
// of two concurrent refreshes with the same token only one succeeds.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Issued, error) {
	var (
		issued  *Issued
		expired bool
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrRefreshTokenRevoked
			}
			return fmt.Errorf("consume refresh token: %w", err)
		}
		if token.Expires.Before(time.Now()) {
			expired = true
			return nil
		}
		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrRefreshTokenRevoked
			}
			return fmt.Errorf("load user: %w", err)
		}
		issued, err = s.issue(ctx, tx, user, token.SessionID)
		return err
	})
	switch {
	case errors.Is(err, common.ErrRefreshTokenRevoked):
		return nil, err
	case err != nil:
		s.log.Error(ctx, "refresh failed", "error", err)
		return nil, common.ErrInternal
	case expired:
		return nil, common.ErrRefreshTokenExpired
	}

	return issued, nil
}

// Logout revokes the refresh tokens of the caller's session (local) or of
// every session of the caller (global). Access tokens of a revoked session
// stop authenticating.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims, scope string) error {
	tokens := s.repomanager.RefreshTokens(s.db)

	var (
		n   int64
		err error
	)
	switch scope {
	case "", common.ScopeGlobal:
		n, err = tokens.DeleteByUser(ctx, claims.UserID())
	case common.ScopeLocal:
		n, err = tokens.DeleteBySession(ctx, claims.SessionID)
	default:
		return fmt.Errorf("%w: unknown scope %q", common.ErrValidation, scope)
	}
	if err != nil {
		s.log.Error(ctx, "logout failed", "user_id", claims.UserID(), "error", err)
		return common.ErrInternal
	}

	s.log.Info(ctx, "user signed out", "user_id", claims.UserID(), "scope", scope, "revoked", n)
	return nil
}

// GetUser returns the account behind an access token.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*smodels.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}
	return user, nil
}

// Authenticate verifies an access token and requires its session to still
// hold a live refresh token.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	live, err := s.repomanager.RefreshTokens(s.db).ExistsBySession(ctx, claims.SessionID)
	if err != nil {
		s.log.Error(ctx, "session lookup failed", "session_id", claims.SessionID, "error", err)
		return nil, common.ErrInternal
	}
	if !live {
		return nil, common.ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) issue(ctx context.Context, db dbx.DBTX, user *smodels.User, sessionID string) (*Issued, error) {
	access, exp, err := auth.GenerateToken(user.ID, sessionID, user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.repomanager.RefreshTokens(db).Create(ctx, user.ID, sessionID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &Issued{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
		ExpiresIn:    int64(s.accessTokenValidityDuration / time.Second),
		User:         user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
