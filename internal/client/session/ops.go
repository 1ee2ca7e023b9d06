package session

import (
	"context"
	"time"

	"github.com/suraj-driod/swa-antarang/internal/client/client"
	"github.com/suraj-driod/swa-antarang/internal/metrics"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

// LoginResult is what a successful Login yields.
type LoginResult struct {
	Session  *models.Session
	User     *models.User
	Identity *models.Identity
}

// SignUpResult is what a successful SignUp yields. Session is nil when the
// account awaits confirmation; Identity is nil when no profile was found yet.
type SignUpResult struct {
	Session  *models.Session
	User     *models.User
	Identity *models.Identity
}

// Login signs in with a password and resolves the profile. Any session held
// before is revoked on every device first. A rejected sign-in returns the
// backend's *client.AuthError; an account without a profile returns
// ErrProfileNotFound. On every failure the identity ends up absent and the
// persisted session cleared.
func (c *Controller) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if !c.isAlive() {
		return nil, ErrStopped
	}

	had := c.dropLeftovers(ctx, client.ScopeGlobal)

	gen, ok := c.nextGen()
	if !ok {
		return nil, ErrStopped
	}
	if had {
		c.commit(gen, c.nextSeq(), nil, "login")
	}

	res, err := c.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		if cerr := c.backend.ClearPersistedSession(ctx); cerr != nil {
			c.log.Warn(ctx, "clear session after failed login", "error", cerr)
		}
		c.commit(gen, c.nextSeq(), nil, "login")
		c.log.Info(ctx, "login rejected", "email", email, "error", err)
		return nil, err
	}

	userID := res.Session.UserID()
	if res.User != nil {
		userID = res.User.ID
	}

	seq := c.nextSeq()
	id, err := c.loader.Load(ctx, userID)
	if err != nil {
		c.log.Info(ctx, "login without profile", "user_id", userID, "error", err)
		c.cleanSession(ctx, gen, seq)
		return nil, ErrProfileNotFound
	}

	if !c.commit(gen, seq, id, "login") {
		// a reload for the same session may have finished first
		if cur := c.overtakenBy(gen, userID); cur != nil {
			return &LoginResult{Session: res.Session, User: res.User, Identity: cur}, nil
		}
		return nil, ErrSuperseded
	}
	return &LoginResult{Session: res.Session, User: res.User, Identity: id.Clone()}, nil
}

// SignUp creates an account. Backend errors are returned as-is. When the
// backend issues a session right away, the profile is looked up once after
// the grace period; not finding it is not an error.
func (c *Controller) SignUp(ctx context.Context, email, password string, meta models.SignUpMetadata) (*SignUpResult, error) {
	if !c.isAlive() {
		return nil, ErrStopped
	}

	had := c.dropLeftovers(ctx, client.ScopeLocal)

	gen, ok := c.nextGen()
	if !ok {
		return nil, ErrStopped
	}
	if had {
		c.commit(gen, c.nextSeq(), nil, "signup")
	}

	res, err := c.backend.SignUp(ctx, email, password, meta.Map())
	if err != nil {
		return nil, err
	}

	out := &SignUpResult{Session: res.Session, User: res.User}
	if res.Session == nil {
		c.log.Info(ctx, "sign-up awaiting confirmation", "email", email)
		return out, nil
	}

	if c.opts.SignUpGrace > 0 {
		t := time.NewTimer(c.opts.SignUpGrace)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return out, ctx.Err()
		}
	}

	userID := res.Session.UserID()
	if res.User != nil {
		userID = res.User.ID
	}

	seq := c.nextSeq()
	id, err := c.loader.Load(ctx, userID)
	if err != nil {
		c.log.Info(ctx, "profile not provisioned yet", "user_id", userID, "error", err)
		return out, nil
	}
	if c.commit(gen, seq, id, "signup") {
		out.Identity = id.Clone()
	} else {
		out.Identity = c.overtakenBy(gen, userID)
	}
	return out, nil
}

// Logout clears the identity at once, then revokes the session everywhere
// and wipes the persisted copy. It cannot fail; step errors are reported in
// the result for logging.
func (c *Controller) Logout(ctx context.Context) CleanupResult {
	c.mu.Lock()
	if c.alive {
		c.advanceLocked()
		c.identity = nil
	}
	c.mu.Unlock()
	metrics.SessionTransitions.WithLabelValues("logout").Inc()

	var r CleanupResult
	r.SignOutErr = c.backend.SignOut(ctx, client.ScopeGlobal)
	r.StoreErr = c.backend.ClearPersistedSession(ctx)

	if err := r.Err(); err != nil {
		c.log.Warn(ctx, "logout cleanup incomplete", "error", err)
	} else {
		c.log.Info(ctx, "logged out")
	}
	return r
}

// cleanSession drops a session that cannot back an identity: local sign-out,
// store wipe, identity absent. It does nothing once gen is stale or a load
// started after seq has committed, so it never undoes a newer result.
func (c *Controller) cleanSession(ctx context.Context, gen, seq uint64) CleanupResult {
	var r CleanupResult
	if !c.fresh(gen, seq) {
		return r
	}

	r.SignOutErr = c.backend.SignOut(ctx, client.ScopeLocal)
	if c.fresh(gen, seq) {
		r.StoreErr = c.backend.ClearPersistedSession(ctx)
	}
	c.commit(gen, seq, nil, "clean")

	if err := r.Err(); err != nil {
		c.log.Warn(ctx, "session cleanup incomplete", "error", err)
	}
	return r
}

// dropLeftovers wipes an unreadable persisted session and signs out a
// readable one with scope. It reports whether a session was present.
func (c *Controller) dropLeftovers(ctx context.Context, scope client.Scope) bool {
	s, err := c.backend.ReadSession(ctx)
	if err != nil {
		c.log.Warn(ctx, "wiping unreadable persisted session", "error", err)
		if cerr := c.backend.ClearPersistedSession(ctx); cerr != nil {
			c.log.Warn(ctx, "wipe persisted session", "error", cerr)
		}
		return false
	}
	if s == nil {
		return false
	}

	if err := c.backend.SignOut(ctx, scope); err != nil {
		c.log.Warn(ctx, "sign-out of previous session failed", "scope", scope, "error", err)
	}
	if err := c.backend.ClearPersistedSession(ctx); err != nil {
		c.log.Warn(ctx, "clear previous session", "error", err)
	}
	return true
}

func (c *Controller) isAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}
