package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/suraj-driod/swa-antarang/internal/client/store"
	"github.com/suraj-driod/swa-antarang/internal/common"
	"github.com/suraj-driod/swa-antarang/internal/logging"
	"github.com/suraj-driod/swa-antarang/internal/models"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultRefreshMargin = 60 * time.Second
	maxResponseBytes     = 1 << 20
)

// Options configure an HTTPBackend.
type Options struct {
	// BaseURL is the project URL, e.g. https://xyz.supabase.co.
	BaseURL string
	// AnonKey is sent as the apikey header on every call.
	AnonKey    string
	HTTPClient *http.Client
	// Timeout bounds each HTTP call.
	Timeout time.Duration
	// RefreshMargin is how close to expiry an access token is refreshed
	// before use.
	RefreshMargin time.Duration
	Logger        logging.Logger
}

// HTTPBackend implements Backend over the hosted auth and REST APIs.
type HTTPBackend struct {
	baseURL string
	anonKey string
	hc      *http.Client
	timeout time.Duration
	margin  time.Duration
	store   store.Store
	log     logging.Logger
	events  *hub
	flight  singleflight.Group
	now     func() time.Time
}

var _ Backend = (*HTTPBackend)(nil)

func NewHTTPBackend(st store.Store, opts Options) *HTTPBackend {
	b := &HTTPBackend{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		anonKey: opts.AnonKey,
		hc:      opts.HTTPClient,
		timeout: opts.Timeout,
		margin:  opts.RefreshMargin,
		store:   st,
		log:     opts.Logger,
		events:  newHub(),
		now:     time.Now,
	}
	if b.hc == nil {
		b.hc = &http.Client{}
	}
	if b.timeout <= 0 {
		b.timeout = defaultTimeout
	}
	if b.margin <= 0 {
		b.margin = defaultRefreshMargin
	}
	if b.log == nil {
		b.log = logging.Nop()
	}
	b.log = b.log.With("module", "backend")
	return b
}

// tokenResponse is the wire shape of an issued session.
type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

func (t *tokenResponse) session(now time.Time) *models.Session {
	s := &models.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresIn:    t.ExpiresIn,
		User:         t.User,
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	default:
		s.ExpiresAt = tokenExpiry(t.AccessToken)
	}
	return s
}

// tokenExpiry reads the exp claim of a JWT without verifying it.
// The zero time is returned when the token carries none.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// expiring reports whether s is within the refresh margin of its expiry,
// reading the expiry from the access token when the session has none.
func (b *HTTPBackend) expiring(s *models.Session) bool {
	if s.ExpiresAt.IsZero() {
		withExp := *s
		withExp.ExpiresAt = tokenExpiry(s.AccessToken)
		s = &withExp
	}
	return s.Expired(b.now(), b.margin)
}

func (b *HTTPBackend) ReadSession(ctx context.Context) (*models.Session, error) {
	return b.store.Load(ctx)
}

func (b *HTTPBackend) GetCurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	err := b.withSession(ctx, func(token string) error {
		return b.do(ctx, http.MethodGet, "/auth/v1/user", nil, token, nil, &u)
	})
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, fmt.Errorf("%w: backend returned no user", ErrUnauthorized)
	}
	return &u, nil
}

func (b *HTTPBackend) SignInWithPassword(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var tr tokenResponse
	body := map[string]string{"email": email, "password": password}
	q := url.Values{"grant_type": {"password"}}
	if err := b.do(ctx, http.MethodPost, "/auth/v1/token", q, "", body, &tr); err != nil {
		return nil, err
	}

	s := tr.session(b.now())
	if err := b.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	b.events.emit(models.AuthEvent{Type: models.EventSignedIn, Session: s})

	return &models.AuthResponse{Session: s, User: s.User}, nil
}

func (b *HTTPBackend) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.AuthResponse, error) {
	var raw json.RawMessage
	body := map[string]any{"email": email, "password": password, "data": metadata}
	if err := b.do(ctx, http.MethodPost, "/auth/v1/signup", nil, "", body, &raw); err != nil {
		return nil, err
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("decode signup: %w", err)
	}

	// Without an access token the account awaits confirmation and the body is the bare user.
	if tr.AccessToken == "" {
		u := tr.User
		if u == nil {
			u = &models.User{}
			if err := json.Unmarshal(raw, u); err != nil {
				return nil, fmt.Errorf("decode signup user: %w", err)
			}
		}
		return &models.AuthResponse{User: u}, nil
	}

	s := tr.session(b.now())
	if err := b.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	b.events.emit(models.AuthEvent{Type: models.EventSignedIn, Session: s})

	return &models.AuthResponse{Session: s, User: s.User}, nil
}

func (b *HTTPBackend) SignOut(ctx context.Context, scope Scope) error {
	var callErr error

	s, err := b.store.Load(ctx)
	switch {
	case err != nil:
		callErr = err
	case s != nil:
		q := url.Values{"scope": {string(scope)}}
		callErr = b.do(ctx, http.MethodPost, "/auth/v1/logout", q, s.AccessToken, nil, nil)
		// an already revoked token is as good as signed out
		if errors.Is(callErr, ErrUnauthorized) || errors.Is(callErr, ErrNotFound) {
			callErr = nil
		}
	}

	if err := b.store.Clear(ctx); err != nil {
		callErr = errors.Join(callErr, err)
	}
	b.events.emit(models.AuthEvent{Type: models.EventSignedOut})

	return callErr
}

func (b *HTTPBackend) OnAuthStateChange(fn func(models.AuthEvent)) func() {
	unsubscribe := b.events.subscribe(fn)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		s, err := b.store.Load(ctx)
		if err != nil {
			s = nil
		}
		fn(models.AuthEvent{Type: models.EventInitialSession, Session: s})
	}()

	return unsubscribe
}

func (b *HTTPBackend) FetchProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return fetchFirst[models.Profile](ctx, b, "profiles", "id", userID)
}

func (b *HTTPBackend) FetchMerchantProfile(ctx context.Context, userID string) (*models.MerchantProfile, error) {
	return fetchFirst[models.MerchantProfile](ctx, b, "merchant_profiles", "user_id", userID)
}

func (b *HTTPBackend) FetchDriverProfile(ctx context.Context, userID string) (*models.DriverProfile, error) {
	return fetchFirst[models.DriverProfile](ctx, b, "driver_profiles", "user_id", userID)
}

func (b *HTTPBackend) ClearPersistedSession(ctx context.Context) error {
	return b.store.Clear(ctx)
}

// Ping calls the backend health endpoint.
func (b *HTTPBackend) Ping(ctx context.Context) error {
	return b.do(ctx, http.MethodGet, "/auth/v1/health", nil, "", nil, nil)
}

// fetchFirst reads the first row of table whose column equals value.
func fetchFirst[T any](ctx context.Context, b *HTTPBackend, table, column, value string) (*T, error) {
	q := url.Values{"select": {"*"}, column: {"eq." + value}, "limit": {"1"}}

	var rows []T
	err := b.withSession(ctx, func(token string) error {
		rows = nil
		return b.do(ctx, http.MethodGet, "/rest/v1/"+table, q, token, nil, &rows)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// withSession calls fn with a usable access token. An expiring token is
// refreshed first; if fn is rejected with 401 the token is refreshed once and
// fn retried.
func (b *HTTPBackend) withSession(ctx context.Context, fn func(token string) error) error {
	s, err := b.store.Load(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		return ErrNoSession
	}

	if b.expiring(s) {
		if s, err = b.refresh(ctx, s.RefreshToken); err != nil {
			return err
		}
	}

	err = fn(s.AccessToken)
	if !isTokenRejected(err) || s.RefreshToken == "" {
		return err
	}

	s, err = b.refresh(ctx, s.RefreshToken)
	if err != nil {
		return err
	}
	return fn(s.AccessToken)
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, query url.Values, token string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	u := b.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if token == "" {
		token = b.anonKey
	}
	req.Header.Set(common.APIKeyHeaderName, b.anonKey)
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return parseError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// parseError maps an error body onto AuthError. The auth and REST APIs use
// different field names for the human-readable text.
func parseError(status int, raw []byte) *AuthError {
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Err              string `json:"error"`
		ErrorCode        string `json:"error_code"`
	}
	_ = json.Unmarshal(raw, &body)

	ae := &AuthError{Status: status, Code: body.ErrorCode}
	for _, m := range []string{body.Msg, body.Message, body.ErrorDescription, body.Err} {
		if m != "" {
			ae.Message = m
			break
		}
	}
	if ae.Code == "" {
		ae.Code = body.Err
	}
	return ae
}
