package client

import (
	"context"

	"github.com/suraj-driod/swa-antarang/internal/common"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

// Scope selects which sessions a sign-out revokes.
type Scope string

const (
	// ScopeLocal revokes the current session only.
	ScopeLocal Scope = common.ScopeLocal
	// ScopeGlobal revokes every session of the user.
	ScopeGlobal Scope = common.ScopeGlobal
)

// Backend is everything the session controller needs from the identity service.
type Backend interface {
	// ReadSession returns the persisted session without touching the network,
	// or nil when none is stored.
	ReadSession(ctx context.Context) (*models.Session, error)
	// GetCurrentUser revalidates the persisted credential, refreshing it first
	// when it is about to expire.
	GetCurrentUser(ctx context.Context) (*models.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.AuthResponse, error)
	// SignUp creates an account. The returned Session is nil when the account
	// still needs confirmation.
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.AuthResponse, error)
	// SignOut revokes sessions per scope. The persisted session is cleared even
	// when the call fails.
	SignOut(ctx context.Context, scope Scope) error
	// OnAuthStateChange registers fn for pushed events and returns its
	// unsubscribe func. An INITIAL_SESSION event is delivered asynchronously
	// right after registering.
	OnAuthStateChange(fn func(models.AuthEvent)) (unsubscribe func())
	FetchProfile(ctx context.Context, userID string) (*models.Profile, error)
	FetchMerchantProfile(ctx context.Context, userID string) (*models.MerchantProfile, error)
	FetchDriverProfile(ctx context.Context, userID string) (*models.DriverProfile, error)
	ClearPersistedSession(ctx context.Context) error
}
