package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suraj-driod/swa-antarang/internal/client/client"
	"github.com/suraj-driod/swa-antarang/internal/client/session"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

type fakeSessions struct {
	mu        sync.Mutex
	state     session.State
	loginErr  error
	signUpErr error
	signUpRes *session.SignUpResult
	gotMeta   models.SignUpMetadata
	logouts   int
}

func (f *fakeSessions) Snapshot() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSessions) Login(_ context.Context, email, _ string) (*session.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	id := &models.Identity{ID: "u1", Role: models.RoleDriver, Email: email}
	f.state = session.State{Identity: id}
	return &session.LoginResult{Identity: id}, nil
}

func (f *fakeSessions) SignUp(_ context.Context, _ string, _ string, meta models.SignUpMetadata) (*session.SignUpResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotMeta = meta
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.signUpRes, nil
}

func (f *fakeSessions) Logout(context.Context) session.CleanupResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	f.state = session.State{}
	return session.CleanupResult{}
}

func merchant() *models.Identity {
	return &models.Identity{ID: "m1", Role: models.RoleMerchant, MerchantProfileID: "mp1"}
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoleRoute_Decisions(t *testing.T) {
	tests := []struct {
		name     string
		state    session.State
		wantCode int
		wantLoc  string
	}{
		{name: "loading", state: session.State{Loading: true}, wantCode: http.StatusServiceUnavailable},
		{name: "signed out", state: session.State{}, wantCode: http.StatusFound, wantLoc: LoginPath},
		{name: "wrong role", state: session.State{Identity: &models.Identity{ID: "d1", Role: models.RoleDriver}}, wantCode: http.StatusFound, wantLoc: LoginPath},
		{name: "allowed", state: session.State{Identity: merchant()}, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/merchant", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var seen *models.Identity
			mw := RoleRoute(&fakeSessions{state: tt.state}, models.RoleMerchant)
			err := mw(func(c echo.Context) error {
				seen = IdentityFrom(c)
				return c.NoContent(http.StatusOK)
			})(c)

			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get(echo.HeaderLocation))
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "m1", seen.ID)
			} else {
				assert.Nil(t, seen)
			}
			if tt.state.Loading {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestProtected_AnyRole(t *testing.T) {
	for _, r := range models.Roles() {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/me", nil), rec)

		err := Protected(&fakeSessions{state: session.State{Identity: &models.Identity{ID: "x", Role: r}}})(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code, r.String())
	}
}

func TestIdentityFrom_Unset(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, IdentityFrom(c))
}

func TestShell_LoginThenAreas(t *testing.T) {
	fs := &fakeSessions{}
	h := NewShell(fs, nil).Handler()

	rec := serve(t, h, http.MethodGet, "/driver", "")
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = serve(t, h, http.MethodPost, "/login", `{"email":"d@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body identityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u1", body.Identity.ID)
	assert.True(t, body.Flags.IsDriver)
	assert.False(t, body.Flags.IsMerchant)

	rec = serve(t, h, http.MethodGet, "/driver", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(t, h, http.MethodGet, "/merchant", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	rec = serve(t, h, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, h, http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, fs.logouts)

	rec = serve(t, h, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestShell_LoginErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		body     string
		wantCode int
		wantMsg  string
	}{
		{name: "invalid payload", body: `{`, wantCode: http.StatusBadRequest},
		{name: "missing password", body: `{"email":"a@b.co"}`, wantCode: http.StatusBadRequest, wantMsg: "password is required"},
		{name: "no profile", err: session.ErrProfileNotFound, wantCode: http.StatusNotFound, wantMsg: session.ErrProfileNotFound.Error()},
		{name: "bad credentials", err: &client.AuthError{Status: 400, Message: "Invalid login credentials"}, wantCode: http.StatusUnauthorized, wantMsg: "Invalid login credentials"},
		{name: "backend down", err: client.ErrUnavailable, wantCode: http.StatusServiceUnavailable, wantMsg: "identity backend unavailable"},
		{name: "backend failure keeps its message", err: fmt.Errorf("sign in: %w", &client.AuthError{Status: 503, Message: "Database is restarting"}), wantCode: http.StatusServiceUnavailable, wantMsg: "Database is restarting"},
		{name: "superseded", err: session.ErrSuperseded, wantCode: http.StatusConflict},
		{name: "unexpected", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantMsg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == "" {
				body = `{"email":"a@b.co","password":"pw"}`
			}
			h := NewShell(&fakeSessions{loginErr: tt.err}, nil).Handler()
			rec := serve(t, h, http.MethodPost, "/login", body)

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Error)
			}
		})
	}
}

func TestShell_SignUp(t *testing.T) {
	t.Run("confirmation required", func(t *testing.T) {
		fs := &fakeSessions{signUpRes: &session.SignUpResult{User: &models.User{ID: "u9"}}}
		h := NewShell(fs, nil).Handler()

		rec := serve(t, h, http.MethodPost, "/signup",
			`{"email":"m@example.com","password":"secret1","metadata":{"role":"merchant","full_name":"M","business_name":"Shop"}}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp signUpResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.ConfirmationRequired)
		assert.Equal(t, "u9", resp.UserID)
		assert.Equal(t, "Shop", fs.gotMeta.BusinessName)
		assert.Equal(t, models.RoleMerchant, fs.gotMeta.Role)
	})

	t.Run("merchant without business name", func(t *testing.T) {
		h := NewShell(&fakeSessions{}, nil).Handler()
		rec := serve(t, h, http.MethodPost, "/signup",
			`{"email":"m@example.com","password":"secret1","metadata":{"role":"merchant"}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short password", func(t *testing.T) {
		h := NewShell(&fakeSessions{}, nil).Handler()
		rec := serve(t, h, http.MethodPost, "/signup",
			`{"email":"c@example.com","password":"123","metadata":{"role":"customer"}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("backend rejects", func(t *testing.T) {
		h := NewShell(&fakeSessions{signUpErr: &client.AuthError{Status: 422, Message: "User already registered"}}, nil).Handler()
		rec := serve(t, h, http.MethodPost, "/signup",
			`{"email":"c@example.com","password":"secret1","metadata":{"role":"customer"}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "User already registered")
	})
}

func TestShell_HealthAndMetrics(t *testing.T) {
	h := NewShell(&fakeSessions{state: session.State{Loading: true}}, nil).Handler()

	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/metrics", "").Code)

	rec := serve(t, h, http.MethodGet, "/login", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"signed_in":false,"loading":true}`, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/customer", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
