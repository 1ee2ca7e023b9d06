// Package session owns the signed-in identity of a running client.
//
// A Controller restores a persisted session at Start, follows auth events
// pushed by the identity backend, and exposes Login, SignUp and Logout.
// Consumers only read State; nothing else writes the identity or the
// persisted session.
//
// Every operation that may produce an identity captures a generation number
// when it starts and commits its result only if that generation is still
// current. Logout and a pushed SIGNED_OUT advance the generation, so a slow
// profile load can never resurrect or overwrite a newer state. After Stop no
// completion changes state.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/suraj-driod/swa-antarang/internal/client/client"
	"github.com/suraj-driod/swa-antarang/internal/logging"
	"github.com/suraj-driod/swa-antarang/internal/metrics"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

const (
	DefaultSafetyTimeout = 10 * time.Second
	DefaultSignUpGrace   = 1500 * time.Millisecond
)

var (
	// ErrProfileNotFound is returned by Login when the account has no usable profile.
	ErrProfileNotFound = errors.New("Profile not found. Please sign up first.")
	// ErrSuperseded is returned when a newer session change overtook the operation.
	ErrSuperseded = errors.New("superseded by a newer session change")
	// ErrStopped is returned by operations on a stopped controller.
	ErrStopped = errors.New("session controller stopped")
)

// IdentityLoader resolves a user id into an Identity.
type IdentityLoader interface {
	Load(ctx context.Context, userID string) (*models.Identity, error)
}

type Options struct {
	// SafetyTimeout forces Loading off if bootstrap has not finished by then.
	SafetyTimeout time.Duration
	// SignUpGrace is waited after a sign-up that issued a session, giving the
	// backend time to provision the profile rows.
	SignUpGrace time.Duration
}

// State is a snapshot of the controller. Identity is nil when signed out.
type State struct {
	Identity *models.Identity
	Loading  bool
}

// CleanupResult reports failures of best-effort cleanup steps. Callers may
// ignore it; the local state is cleared regardless.
type CleanupResult struct {
	SignOutErr error
	StoreErr   error
}

// Err joins the step errors, or returns nil when every step succeeded.
func (r CleanupResult) Err() error {
	return errors.Join(r.SignOutErr, r.StoreErr)
}

type Controller struct {
	backend client.Backend
	loader  IdentityLoader
	log     logging.Logger
	opts    Options

	mu        sync.Mutex
	identity  *models.Identity
	loading   bool
	gen       uint64
	loadSeq   uint64
	applied   uint64
	started   bool
	alive     bool
	startedAt time.Time
	queue     []queuedEvent
	timer     *time.Timer
	unsub     func()
	ctx       context.Context

	ready     chan struct{}
	readyOnce sync.Once
	wake      chan struct{}
	done      chan struct{}
}

func New(backend client.Backend, loader IdentityLoader, log logging.Logger, opts Options) *Controller {
	if opts.SafetyTimeout <= 0 {
		opts.SafetyTimeout = DefaultSafetyTimeout
	}
	if opts.SignUpGrace < 0 {
		opts.SignUpGrace = 0
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Controller{
		backend: backend,
		loader:  loader,
		log:     log.With("module", "session"),
		opts:    opts,
		ready:   make(chan struct{}),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start begins the bootstrap in the background, subscribes to backend events
// and arms the safety timer. Loading is true until bootstrap finishes or the
// timer fires. Calling Start more than once has no effect.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.alive = true
	c.loading = true
	c.startedAt = time.Now()
	c.ctx = ctx
	gen := c.advanceLocked()
	c.timer = time.AfterFunc(c.opts.SafetyTimeout, func() { c.finishLoading("timeout") })
	c.mu.Unlock()

	go c.loop()
	go c.bootstrap(ctx, gen)

	unsub := c.backend.OnAuthStateChange(c.enqueue)
	c.mu.Lock()
	if c.alive {
		c.unsub = unsub
		unsub = nil
	}
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Stop detaches from the backend. In-flight calls are left to finish but
// their results are discarded. Ready is closed if it was still open.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.alive = false
	unsub, timer := c.unsub, c.timer
	c.unsub = nil
	c.queue = nil
	c.mu.Unlock()

	close(c.done)
	if unsub != nil {
		unsub()
	}
	if timer != nil {
		timer.Stop()
	}
	c.readyOnce.Do(func() { close(c.ready) })
	c.log.Debug(context.Background(), "session controller stopped")
}

// Snapshot returns the current state. The Identity is a copy.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Identity: c.identity.Clone(), Loading: c.loading}
}

// Identity returns a copy of the current identity, or nil.
func (c *Controller) Identity() *models.Identity {
	return c.Snapshot().Identity
}

func (c *Controller) Loading() bool {
	return c.Snapshot().Loading
}

// Ready is closed once Loading has turned false or the controller stopped.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// nextGen starts a new generation and returns it, or reports false when stopped.
func (c *Controller) nextGen() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return 0, false
	}
	return c.advanceLocked(), true
}

// advanceLocked starts a new generation. c.mu must be held.
func (c *Controller) advanceLocked() uint64 {
	c.gen++
	c.applied = 0
	return c.gen
}

// nextSeq numbers an identity decision in start order. Within a generation
// a result only commits if no later-numbered one has committed already.
func (c *Controller) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadSeq++
	return c.loadSeq
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive && gen == c.gen
}

func (c *Controller) freshLocked(gen, seq uint64) bool {
	return c.alive && gen == c.gen && seq >= c.applied
}

func (c *Controller) fresh(gen, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.freshLocked(gen, seq)
}

// commit replaces the identity with id if gen is still current and no load
// started after seq has committed.
func (c *Controller) commit(gen, seq uint64, id *models.Identity, event string) bool {
	c.mu.Lock()
	if !c.freshLocked(gen, seq) {
		c.mu.Unlock()
		metrics.StaleCommits.Inc()
		c.log.Debug(context.Background(), "discarding stale result", "event", event, "generation", gen, "seq", seq)
		return false
	}
	c.identity = id.Clone()
	c.applied = seq
	c.mu.Unlock()

	metrics.SessionTransitions.WithLabelValues(event).Inc()
	if id != nil {
		c.log.Info(context.Background(), "identity set", "event", event, "user_id", id.ID, "role", id.Role)
	} else {
		c.log.Info(context.Background(), "identity cleared", "event", event)
	}
	return true
}

// overtakenBy returns the identity of userID committed in gen by a newer
// load, or nil.
func (c *Controller) overtakenBy(gen uint64, userID string) *models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive || gen != c.gen || c.identity == nil || c.identity.ID != userID {
		return nil
	}
	return c.identity.Clone()
}

// finishLoading turns Loading off once per controller lifetime.
func (c *Controller) finishLoading(outcome string) {
	c.mu.Lock()
	if !c.alive || !c.loading {
		c.mu.Unlock()
		return
	}
	c.loading = false
	elapsed := time.Since(c.startedAt)
	c.mu.Unlock()

	c.readyOnce.Do(func() { close(c.ready) })
	metrics.BootstrapDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if outcome == "timeout" {
		c.log.Warn(context.Background(), "bootstrap still running, loading forced off", "after", elapsed)
		return
	}
	c.log.Debug(context.Background(), "bootstrap finished", "outcome", outcome, "took", elapsed)
}
