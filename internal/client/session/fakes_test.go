package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/suraj-driod/swa-antarang/internal/client/client"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

// fakeBackend is a scriptable client.Backend. Fields are read under mu.
type fakeBackend struct {
	mu sync.Mutex

	session   *models.Session
	readErr   error
	user      *models.User
	userErr   error
	userBlock chan struct{}

	signInRes  *models.AuthResponse
	signInErr  error
	signUpRes  *models.AuthResponse
	signUpErr  error
	signOutErr error
	clearErr   error

	handlers []func(models.AuthEvent)

	Calls         []string
	SignOutScopes []client.Scope
	LastMetadata  map[string]any
}

var _ client.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

func (f *fakeBackend) scopes() []client.Scope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.Scope(nil), f.SignOutScopes...)
}

func (f *fakeBackend) stored() *models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeBackend) ReadSession(context.Context) (*models.Session, error) {
	f.record("ReadSession")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.readErr
}

func (f *fakeBackend) GetCurrentUser(ctx context.Context) (*models.User, error) {
	f.record("GetCurrentUser")
	f.mu.Lock()
	block := f.userBlock
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, f.userErr
}

func (f *fakeBackend) SignInWithPassword(_ context.Context, _, _ string) (*models.AuthResponse, error) {
	f.record("SignInWithPassword")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.session = f.signInRes.Session
	return f.signInRes, nil
}

func (f *fakeBackend) SignUp(_ context.Context, _, _ string, metadata map[string]any) (*models.AuthResponse, error) {
	f.record("SignUp")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastMetadata = metadata
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	if f.signUpRes.Session != nil {
		f.session = f.signUpRes.Session
	}
	return f.signUpRes, nil
}

func (f *fakeBackend) SignOut(_ context.Context, scope client.Scope) error {
	f.record("SignOut")
	f.mu.Lock()
	f.SignOutScopes = append(f.SignOutScopes, scope)
	f.session = nil
	err := f.signOutErr
	f.mu.Unlock()
	f.emit(models.AuthEvent{Type: models.EventSignedOut})
	return err
}

func (f *fakeBackend) OnAuthStateChange(fn func(models.AuthEvent)) func() {
	f.mu.Lock()
	f.handlers = append(f.handlers, fn)
	idx := len(f.handlers) - 1
	s := f.session
	f.mu.Unlock()

	go fn(models.AuthEvent{Type: models.EventInitialSession, Session: s})

	return func() {
		f.mu.Lock()
		f.handlers[idx] = nil
		f.mu.Unlock()
	}
}

func (f *fakeBackend) emit(ev models.AuthEvent) {
	f.mu.Lock()
	hs := slices.Clone(f.handlers)
	f.mu.Unlock()
	for _, h := range hs {
		if h != nil {
			h(ev)
		}
	}
}

func (f *fakeBackend) FetchProfile(context.Context, string) (*models.Profile, error) {
	return nil, client.ErrNotFound
}

func (f *fakeBackend) FetchMerchantProfile(context.Context, string) (*models.MerchantProfile, error) {
	return nil, client.ErrNotFound
}

func (f *fakeBackend) FetchDriverProfile(context.Context, string) (*models.DriverProfile, error) {
	return nil, client.ErrNotFound
}

func (f *fakeBackend) ClearPersistedSession(context.Context) error {
	f.record("ClearPersistedSession")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = nil
	return f.clearErr
}

var errNoProfile = errors.New("profile not found")

// fakeLoader serves identities by user id. The answer is taken when Load is
// entered. When block is set, Load then signals entered and waits for block
// before returning; with blockOne only the next call waits.
type fakeLoader struct {
	mu       sync.Mutex
	ids      map[string]*models.Identity
	err      error
	panics   bool
	block    chan struct{}
	blockOne bool
	entered  chan struct{}
	Calls    int
}

func newLoader(ids ...*models.Identity) *fakeLoader {
	l := &fakeLoader{ids: map[string]*models.Identity{}}
	for _, id := range ids {
		l.ids[id.ID] = id
	}
	return l
}

func (l *fakeLoader) set(id *models.Identity) {
	l.mu.Lock()
	l.ids[id.ID] = id
	l.mu.Unlock()
}

func (l *fakeLoader) Load(_ context.Context, userID string) (*models.Identity, error) {
	l.mu.Lock()
	l.Calls++
	block, entered, panics := l.block, l.entered, l.panics
	if l.blockOne {
		l.block, l.blockOne = nil, false
	}
	err := l.err
	id, ok := l.ids[userID]
	l.mu.Unlock()

	if panics {
		panic("loader exploded")
	}
	if block != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		<-block
	}

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoProfile
	}
	return id.Clone(), nil
}
