package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/suraj-driod/swa-antarang/internal/client/client"
	"github.com/suraj-driod/swa-antarang/internal/client/config"
	"github.com/suraj-driod/swa-antarang/internal/client/profiles"
	"github.com/suraj-driod/swa-antarang/internal/client/session"
	"github.com/suraj-driod/swa-antarang/internal/client/store"
	"github.com/suraj-driod/swa-antarang/internal/client/web"
	"github.com/suraj-driod/swa-antarang/internal/logging"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

// sessionAPI is what the REPL needs from the session controller.
type sessionAPI interface {
	web.Sessions
	Ready() <-chan struct{}
}

type pinger interface {
	Ping(ctx context.Context) error
}

type sessionRefresher interface {
	RefreshSession(ctx context.Context) (*models.Session, error)
}

// storedUser reads the user id of the persisted session without going to
// the backend. SQLiteStore keeps it in a row of its own.
type storedUser interface {
	UserID(ctx context.Context) (string, error)
}

type loadedUserID struct{ st store.Store }

func (l loadedUserID) UserID(ctx context.Context) (string, error) {
	s, err := l.st.Load(ctx)
	if err != nil {
		return "", err
	}
	return s.UserID(), nil
}

func storedUserOf(st store.Store) storedUser {
	if u, ok := st.(storedUser); ok {
		return u
	}
	return loadedUserID{st}
}

type App struct {
	config   *config.Config
	sessions sessionAPI
	pinger   pinger
	tokens   sessionRefresher
	stored   storedUser
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer

	mu   sync.Mutex
	mode Mode

	backend *client.HTTPBackend
	ctrl    *session.Controller
	shell   *web.Shell
	closers []func() error
}

// NewApp builds the client stack described by c and starts the session
// controller. Close releases everything NewApp opened.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	st, closeStore, err := openStore(ctx, c)
	if err != nil {
		log.Error(ctx, "error opening session store", "store", c.StoreKind, "error", err)
		return nil, err
	}

	backend := client.NewHTTPBackend(st, client.Options{
		BaseURL: c.BackendURL,
		AnonKey: c.AnonKey,
		Logger:  log,
	})
	loader := profiles.NewLoader(backend, log)
	ctrl := session.New(backend, loader, log, session.Options{
		SafetyTimeout: c.SafetyTimeout,
		SignUpGrace:   c.SignUpGrace,
	})
	ctrl.Start(ctx)

	a := newApp(ctrl, backend, log, os.Stdin, os.Stdout)
	a.config = c
	a.backend = backend
	a.tokens = backend
	a.stored = storedUserOf(st)
	a.ctrl = ctrl
	a.closers = append(a.closers, closeStore)
	if c.WebAddr != "" {
		a.shell = web.NewShell(ctrl, log)
	}
	return a, nil
}

func newApp(s sessionAPI, p pinger, log logging.Logger, in io.Reader, out io.Writer) *App {
	if log == nil {
		log = logging.Nop()
	}
	return &App{
		sessions: s,
		pinger:   p,
		log:      log.With("module", "cli"),
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

func openStore(ctx context.Context, c *config.Config) (store.Store, func() error, error) {
	switch c.StoreKind {
	case config.StoreMemory:
		return store.NewMemoryStore(), func() error { return nil }, nil
	case config.StoreRedis:
		rdb, err := store.ConnectRedis(ctx, store.RedisConfig{Addr: c.Redis.Addr, DB: c.Redis.DB})
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(rdb, c.Redis.Prefix, c.Redis.TTL), rdb.Close, nil
	default:
		db, err := client.InitDatabase(ctx, c.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLiteStore(db), db.Close, nil
	}
}

// Run waits for the session restore, then serves the REPL until exit or
// ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to swa-antarang (type 'help' for commands)")

	select {
	case <-a.sessions.Ready():
	case <-ctx.Done():
		return
	}

	if a.config != nil {
		go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
		if a.backend != nil {
			a.backend.StartAutoRefresh(ctx, a.config.AutoRefreshInterval)
		}
		if a.shell != nil {
			go func() {
				if err := a.shell.Start(a.config.WebAddr); err != nil {
					a.log.Error(ctx, "web shell stopped", "error", err)
				}
			}()
		}
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

// Close stops the controller and the web shell and releases the store.
func (a *App) Close() error {
	if a.ctrl != nil {
		a.ctrl.Stop()
	}
	var errs []error
	if a.shell != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.shell.Shutdown(ctx))
		cancel()
	}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.sessions.Snapshot().Identity != nil
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "switched mode", "mode", string(mode))
	}
}

// getStatus renders the prompt decoration, e.g. "(a@b.co driver online)".
func (a *App) getStatus() string {
	s := ""
	if st := a.sessions.Snapshot(); st.Identity != nil {
		s = st.Identity.Email + " " + st.Identity.Role.String() + " "
	}
	if m := a.Mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// StartOnlineStatusWatcher pings the backend every interval and flips the
// mode on change. It blocks until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.pinger.Ping(pctx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}
