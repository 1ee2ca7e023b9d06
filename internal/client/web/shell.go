package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/suraj-driod/swa-antarang/internal/client/client"
	"github.com/suraj-driod/swa-antarang/internal/client/rolegate"
	"github.com/suraj-driod/swa-antarang/internal/client/session"
	"github.com/suraj-driod/swa-antarang/internal/logging"
	"github.com/suraj-driod/swa-antarang/internal/models"
	"github.com/suraj-driod/swa-antarang/internal/validation"
)

// Sessions is the part of the session controller the shell drives.
type Sessions interface {
	StateSource
	Login(ctx context.Context, email, password string) (*session.LoginResult, error)
	SignUp(ctx context.Context, email, password string, meta models.SignUpMetadata) (*session.SignUpResult, error)
	Logout(ctx context.Context) session.CleanupResult
}

// Shell is the local HTTP front of one session controller.
type Shell struct {
	e        *echo.Echo
	sessions Sessions
	log      logging.Logger
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signUpRequest struct {
	Email    string                `json:"email" validate:"required,email"`
	Password string                `json:"password" validate:"required,min=6"`
	Metadata models.SignUpMetadata `json:"metadata"`
}

type identityResponse struct {
	Identity *models.Identity `json:"identity"`
	Flags    rolegate.Flags   `json:"flags"`
	Area     string           `json:"area,omitempty"`
}

type signUpResponse struct {
	UserID               string           `json:"user_id,omitempty"`
	ConfirmationRequired bool             `json:"confirmation_required"`
	Identity             *models.Identity `json:"identity,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewShell(sessions Sessions, log logging.Logger) *Shell {
	if log == nil {
		log = logging.Nop()
	}
	s := &Shell{e: echo.New(), sessions: sessions, log: log.With("module", "web")}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Validator = validation.New()
	s.e.HTTPErrorHandler = s.handleError
	s.e.Use(echomiddleware.Recover())
	s.e.Use(echomiddleware.RequestID())

	s.e.GET("/healthz", func(c echo.Context) error { return c.JSON(http.StatusOK, map[string]string{"status": "ok"}) })
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.e.GET(LoginPath, s.loginInfo)
	s.e.POST(LoginPath, s.login)
	s.e.POST("/signup", s.signUp)
	s.e.POST("/logout", s.logout)

	s.e.GET("/me", s.me, Protected(sessions))
	s.e.GET("/merchant", s.area("merchant"), RoleRoute(sessions, models.RoleMerchant))
	s.e.GET("/driver", s.area("driver"), RoleRoute(sessions, models.RoleDriver))
	s.e.GET("/customer", s.area("customer"), RoleRoute(sessions, models.RoleCustomer))

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Shell) Handler() http.Handler { return s.e }

// Start serves on addr until Shutdown.
func (s *Shell) Start(addr string) error {
	s.log.Info(context.Background(), "web shell listening", "addr", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Shell) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Shell) loginInfo(c echo.Context) error {
	st := s.sessions.Snapshot()
	return c.JSON(http.StatusOK, map[string]any{"signed_in": st.Identity != nil, "loading": st.Loading})
}

func (s *Shell) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := s.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identityResponse{Identity: res.Identity, Flags: rolegate.Derive(res.Identity)})
}

func (s *Shell) signUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := s.sessions.SignUp(c.Request().Context(), req.Email, req.Password, req.Metadata)
	if err != nil {
		return err
	}

	out := signUpResponse{ConfirmationRequired: res.Session == nil, Identity: res.Identity}
	if res.User != nil {
		out.UserID = res.User.ID
	}
	return c.JSON(http.StatusCreated, out)
}

func (s *Shell) logout(c echo.Context) error {
	r := s.sessions.Logout(c.Request().Context())
	if err := r.Err(); err != nil {
		s.log.Warn(c.Request().Context(), "logout finished with errors", "error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Shell) me(c echo.Context) error {
	id := IdentityFrom(c)
	return c.JSON(http.StatusOK, identityResponse{Identity: id, Flags: rolegate.Derive(id)})
}

func (s *Shell) area(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := IdentityFrom(c)
		return c.JSON(http.StatusOK, identityResponse{Identity: id, Flags: rolegate.Derive(id), Area: name})
	}
}

// handleError renders every failure as {"error": "..."} with a status
// derived from the error.
func (s *Shell) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := s.resolveError(err, c)
	_ = c.JSON(code, errorResponse{Error: msg})
}

func (s *Shell) resolveError(err error, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ae *client.AuthError
	switch {
	case errors.Is(err, session.ErrProfileNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict, err.Error()
	case errors.As(err, &ae):
		switch {
		case ae.Status >= http.StatusInternalServerError:
			return http.StatusServiceUnavailable, ae.Error()
		case errors.Is(ae, client.ErrUnauthorized):
			return http.StatusUnauthorized, ae.Error()
		}
		return http.StatusUnprocessableEntity, ae.Error()
	case errors.Is(err, session.ErrStopped), errors.Is(err, client.ErrUnavailable):
		return http.StatusServiceUnavailable, "identity backend unavailable"
	}

	s.log.Error(c.Request().Context(), "unhandled error", "method", c.Request().Method, "path", c.Path(), "error", err)
	return http.StatusInternalServerError, "internal server error"
}
