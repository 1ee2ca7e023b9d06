// Package api is the identity backend's HTTP surface: the auth endpoints
// under /auth/v1 and the owner-scoped profile tables under /rest/v1.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/suraj-driod/swa-antarang/internal/logging"
	"github.com/suraj-driod/swa-antarang/internal/models"
	"github.com/suraj-driod/swa-antarang/internal/server/auth"
	smodels "github.com/suraj-driod/swa-antarang/internal/server/models"
	"github.com/suraj-driod/swa-antarang/internal/server/services"
	"github.com/suraj-driod/swa-antarang/internal/validation"
)

// Service is what the handlers need from the auth service.
type Service interface {
	SignUp(ctx context.Context, email, password string, meta models.SignUpMetadata) (*services.Issued, error)
	Login(ctx context.Context, email, password string) (*services.Issued, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Issued, error)
	Logout(ctx context.Context, claims *auth.Claims, scope string) error
	GetUser(ctx context.Context, userID string) (*smodels.User, error)
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)

	Profiles(ctx context.Context, callerID, id string) ([]models.Profile, error)
	MerchantProfiles(ctx context.Context, callerID, userID string) ([]models.MerchantProfile, error)
	DriverProfiles(ctx context.Context, callerID, userID string) ([]models.DriverProfile, error)
}

type Server struct {
	e       *echo.Echo
	svc     Service
	anonKey string
	log     logging.Logger
}

// NewServer builds the router. An empty anonKey disables the apikey check.
func NewServer(svc Service, anonKey string, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{e: echo.New(), svc: svc, anonKey: anonKey, log: log.With("module", "http_api")}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Validator = validation.New()
	s.e.HTTPErrorHandler = s.handleError
	s.e.Use(echomiddleware.Recover())
	s.e.Use(echomiddleware.RequestID())
	s.e.Use(observeDuration)

	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	a := s.e.Group("/auth/v1")
	a.GET("/health", s.health)

	a.POST("/signup", s.signUp, countAuth(func(echo.Context) string { return "signup" }), s.requireAPIKey)
	a.POST("/token", s.token, countAuth(func(c echo.Context) string { return c.QueryParam("grant_type") }), s.requireAPIKey)
	a.GET("/user", s.user, countAuth(func(echo.Context) string { return "user" }), s.requireAPIKey, s.requireBearer)
	a.POST("/logout", s.logout, countAuth(func(echo.Context) string { return "logout" }), s.requireAPIKey, s.requireBearer)

	rest := s.e.Group("/rest/v1", s.requireAPIKey, s.requireBearer)
	rest.GET("/profiles", s.profiles)
	rest.GET("/merchant_profiles", s.merchantProfiles)
	rest.GET("/driver_profiles", s.driverProfiles)

	return s
}

func (s *Server) Handler() http.Handler { return s.e }

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info(context.Background(), "Starting HTTP server", "address", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
