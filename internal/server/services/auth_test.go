package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suraj-driod/swa-antarang/internal/common"
	"github.com/suraj-driod/swa-antarang/internal/cryptox"
	"github.com/suraj-driod/swa-antarang/internal/dbx"
	"github.com/suraj-driod/swa-antarang/internal/models"
	"github.com/suraj-driod/swa-antarang/internal/server/auth"
	"github.com/suraj-driod/swa-antarang/internal/server/config"
	smodels "github.com/suraj-driod/swa-antarang/internal/server/models"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories/profiles"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories/refreshtokens"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories/users"
)

// --- in-memory repositories ---

type store struct {
	mu        sync.Mutex
	users     map[string]*smodels.User
	tokens    map[string]*smodels.RefreshToken
	profiles  map[string]*models.Profile
	merchants map[string]*models.MerchantProfile
	drivers   map[string]*models.DriverProfile

	failProfile error
}

func newStore() *store {
	return &store{
		users:     map[string]*smodels.User{},
		tokens:    map[string]*smodels.RefreshToken{},
		profiles:  map[string]*models.Profile{},
		merchants: map[string]*models.MerchantProfile{},
		drivers:   map[string]*models.DriverProfile{},
	}
}

type fakeManager struct{ s *store }

func (m fakeManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m fakeManager) Users(dbx.DBTX) users.Repository                 { return fakeUsers{m.s} }
func (m fakeManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return fakeTokens{m.s} }
func (m fakeManager) Profiles(dbx.DBTX) profiles.Repository           { return fakeProfiles{m.s} }

type fakeUsers struct{ s *store }

func (f fakeUsers) Create(_ context.Context, u *smodels.User) (*smodels.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	cp := *u
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	f.s.users[cp.ID] = &cp
	return &cp, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*smodels.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f fakeUsers) GetByID(_ context.Context, id string) (*smodels.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if u, ok := f.s.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

type fakeTokens struct{ s *store }

func (f fakeTokens) Create(_ context.Context, userID, sessionID, token string, validity time.Duration) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.tokens[token] = &smodels.RefreshToken{Token: token, UserID: userID, SessionID: sessionID, Expires: time.Now().Add(validity)}
	return nil
}

func (f fakeTokens) Consume(_ context.Context, token string) (*smodels.RefreshToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(f.s.tokens, token)
	return t, nil
}

func (f fakeTokens) ExistsBySession(_ context.Context, sessionID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, t := range f.s.tokens {
		if t.SessionID == sessionID && t.Expires.After(time.Now()) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeTokens) DeleteBySession(_ context.Context, sessionID string) (int64, error) {
	return f.deleteWhere(func(t *smodels.RefreshToken) bool { return t.SessionID == sessionID }), nil
}

func (f fakeTokens) DeleteByUser(_ context.Context, userID string) (int64, error) {
	return f.deleteWhere(func(t *smodels.RefreshToken) bool { return t.UserID == userID }), nil
}

func (f fakeTokens) deleteWhere(match func(*smodels.RefreshToken) bool) int64 {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for k, t := range f.s.tokens {
		if match(t) {
			delete(f.s.tokens, k)
			n++
		}
	}
	return n
}

type fakeProfiles struct{ s *store }

func (f fakeProfiles) Create(_ context.Context, p *models.Profile) error {
	if f.s.failProfile != nil {
		return f.s.failProfile
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *p
	f.s.profiles[p.ID] = &cp
	return nil
}

func (f fakeProfiles) CreateMerchant(_ context.Context, p *models.MerchantProfile) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *p
	cp.ID = uuid.NewString()
	f.s.merchants[p.UserID] = &cp
	return nil
}

func (f fakeProfiles) CreateDriver(_ context.Context, p *models.DriverProfile) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *p
	cp.ID = uuid.NewString()
	f.s.drivers[p.UserID] = &cp
	return nil
}

func (f fakeProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p, ok := f.s.profiles[id]; ok {
		return p, nil
	}
	return nil, common.ErrNotFound
}

func (f fakeProfiles) GetMerchantByUser(_ context.Context, userID string) (*models.MerchantProfile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p, ok := f.s.merchants[userID]; ok {
		return p, nil
	}
	return nil, common.ErrNotFound
}

func (f fakeProfiles) GetDriverByUser(_ context.Context, userID string) (*models.DriverProfile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p, ok := f.s.drivers[userID]; ok {
		return p, nil
	}
	return nil, common.ErrNotFound
}

// --- helpers ---

var testHashParams = cryptox.Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

func newAuthService(t *testing.T) (*AuthService, *store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := newStore()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	svc := NewAuthService(db, fakeManager{s}, cfg, nil)
	svc.hashParams = testHashParams
	return svc, s, mock
}

func signUp(t *testing.T, svc *AuthService, mock sqlmock.Sqlmock, email string, meta models.SignUpMetadata) *Issued {
	t.Helper()
	mock.ExpectBegin()
	mock.ExpectCommit()
	out, err := svc.SignUp(context.Background(), email, "secret1", meta)
	require.NoError(t, err)
	return out
}

// --- tests ---

func TestAuthService_SignUp_ProvisionsRoleProfile(t *testing.T) {
	svc, s, mock := newAuthService(t)

	out := signUp(t, svc, mock, "  Shop@Example.com ", models.SignUpMetadata{
		Role: models.RoleMerchant, FullName: "Asha", BusinessName: "Asha Stores",
	})
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "shop@example.com", out.User.Email)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)
	assert.Equal(t, int64(3600), out.ExpiresIn)

	p := s.profiles[out.User.ID]
	require.NotNil(t, p)
	assert.Equal(t, "merchant", p.Role)
	assert.Equal(t, "Asha", p.FullName)
	require.Contains(t, s.merchants, out.User.ID)
	assert.Equal(t, "Asha Stores", s.merchants[out.User.ID].BusinessName)
	assert.Empty(t, s.drivers)

	claims, err := svc.Authenticate(context.Background(), out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, claims.UserID())
	assert.Equal(t, s.tokens[out.RefreshToken].SessionID, claims.SessionID)
}

func TestAuthService_SignUp_Driver(t *testing.T) {
	svc, s, mock := newAuthService(t)

	out := signUp(t, svc, mock, "d@example.com", models.SignUpMetadata{Role: models.RoleDriver, VehicleNumber: "KA01"})
	require.Contains(t, s.drivers, out.User.ID)
	assert.Equal(t, "KA01", s.drivers[out.User.ID].VehicleNumber)
	assert.Empty(t, s.merchants)
}

func TestAuthService_SignUp_Errors(t *testing.T) {
	t.Run("unknown role", func(t *testing.T) {
		svc, _, _ := newAuthService(t)
		_, err := svc.SignUp(context.Background(), "a@b.c", "secret1", models.SignUpMetadata{Role: "admin"})
		require.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("duplicate email rolls back", func(t *testing.T) {
		svc, _, mock := newAuthService(t)
		signUp(t, svc, mock, "a@b.c", models.SignUpMetadata{Role: models.RoleCustomer})

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.SignUp(context.Background(), "A@B.C", "other12", models.SignUpMetadata{Role: models.RoleCustomer})
		require.ErrorIs(t, err, common.ErrAlreadyExists)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("profile failure is internal", func(t *testing.T) {
		svc, s, mock := newAuthService(t)
		s.failProfile = common.ErrInternal

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.SignUp(context.Background(), "a@b.c", "secret1", models.SignUpMetadata{Role: models.RoleCustomer})
		require.ErrorIs(t, err, common.ErrInternal)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuthService_Login(t *testing.T) {
	svc, _, mock := newAuthService(t)
	first := signUp(t, svc, mock, "c@example.com", models.SignUpMetadata{Role: models.RoleCustomer})
	ctx := context.Background()

	out, err := svc.Login(ctx, "C@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, out.User.ID)

	c1, err := svc.Authenticate(ctx, first.AccessToken)
	require.NoError(t, err)
	c2, err := svc.Authenticate(ctx, out.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, c1.SessionID, c2.SessionID, "each login opens a new session")

	_, err = svc.Login(ctx, "c@example.com", "wrong")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestAuthService_Refresh(t *testing.T) {
	svc, s, mock := newAuthService(t)
	first := signUp(t, svc, mock, "c@example.com", models.SignUpMetadata{Role: models.RoleCustomer})
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	next, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, next.RefreshToken)
	assert.NotContains(t, s.tokens, first.RefreshToken)

	c1, err := svc.Authenticate(ctx, first.AccessToken)
	require.NoError(t, err, "the session survives rotation")
	c2, err := svc.Authenticate(ctx, next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, c1.SessionID, c2.SessionID)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, common.ErrRefreshTokenRevoked)

	s.tokens[next.RefreshToken].Expires = time.Now().Add(-time.Minute)
	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err = svc.Refresh(ctx, next.RefreshToken)
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)
	assert.NotContains(t, s.tokens, next.RefreshToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Refresh_ConcurrentReuse(t *testing.T) {
	svc, s, mock := newAuthService(t)
	first := signUp(t, svc, mock, "c@example.com", models.SignUpMetadata{Role: models.RoleCustomer})
	ctx := context.Background()

	mock.MatchExpectationsInOrder(false)
	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectRollback()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Refresh(ctx, first.RefreshToken)
		}(i)
	}
	wg.Wait()

	var ok, revoked int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, common.ErrRefreshTokenRevoked):
			revoked++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, revoked)
	assert.Len(t, s.tokens, 1, "only the winner's token is live")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Logout(t *testing.T) {
	svc, s, mock := newAuthService(t)
	first := signUp(t, svc, mock, "c@example.com", models.SignUpMetadata{Role: models.RoleCustomer})
	ctx := context.Background()
	second, err := svc.Login(ctx, "c@example.com", "secret1")
	require.NoError(t, err)

	claims, err := svc.Authenticate(ctx, first.AccessToken)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Logout(ctx, claims, "everything"), common.ErrValidation)

	require.NoError(t, svc.Logout(ctx, claims, common.ScopeLocal))
	assert.NotContains(t, s.tokens, first.RefreshToken)
	assert.Contains(t, s.tokens, second.RefreshToken)

	_, err = svc.Authenticate(ctx, first.AccessToken)
	require.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, second.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims, common.ScopeGlobal))
	assert.Empty(t, s.tokens)

	_, err = svc.Authenticate(ctx, second.AccessToken)
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthService_GetUser(t *testing.T) {
	svc, _, mock := newAuthService(t)
	out := signUp(t, svc, mock, "c@example.com", models.SignUpMetadata{Role: models.RoleCustomer})

	u, err := svc.GetUser(context.Background(), out.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "customer", u.Metadata["role"])

	_, err = svc.GetUser(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthService_Authenticate_RejectsForeignSecret(t *testing.T) {
	svc, _, _ := newAuthService(t)
	tok, _, err := auth.GenerateToken("u", "s", "e", []byte("other"), time.Minute)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestAuthService_ProfilesAreOwnerScoped(t *testing.T) {
	svc, _, mock := newAuthService(t)
	m := signUp(t, svc, mock, "m@example.com", models.SignUpMetadata{Role: models.RoleMerchant, BusinessName: "Shop"})
	d := signUp(t, svc, mock, "d@example.com", models.SignUpMetadata{Role: models.RoleDriver})
	ctx := context.Background()

	own, err := svc.Profiles(ctx, m.User.ID, m.User.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "merchant", own[0].Role)

	other, err := svc.Profiles(ctx, m.User.ID, d.User.ID)
	require.NoError(t, err)
	assert.Empty(t, other)

	merchants, err := svc.MerchantProfiles(ctx, m.User.ID, m.User.ID)
	require.NoError(t, err)
	require.Len(t, merchants, 1)
	assert.Equal(t, "Shop", merchants[0].BusinessName)

	drivers, err := svc.DriverProfiles(ctx, m.User.ID, m.User.ID)
	require.NoError(t, err)
	assert.Empty(t, drivers)

	drivers, err = svc.DriverProfiles(ctx, d.User.ID, d.User.ID)
	require.NoError(t, err)
	assert.Len(t, drivers, 1)
}
