package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suraj-driod/swa-antarang/internal/common"
	"github.com/suraj-driod/swa-antarang/internal/models"
	"github.com/suraj-driod/swa-antarang/internal/server/services"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type signUpRequest struct {
	Email    string                `json:"email" validate:"required,email"`
	Password string                `json:"password" validate:"required,min=6"`
	Data     models.SignUpMetadata `json:"data"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

func newTokenResponse(out *services.Issued) tokenResponse {
	return tokenResponse{
		AccessToken:  out.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    out.ExpiresIn,
		ExpiresAt:    out.ExpiresAt.Unix(),
		RefreshToken: out.RefreshToken,
		User:         out.User.Public(),
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) signUp(c echo.Context) error {
	var req signUpRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := s.svc.SignUp(c.Request().Context(), req.Email, req.Password, req.Data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTokenResponse(out))
}

func (s *Server) token(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		out *services.Issued
		err error
	)
	switch grant := c.QueryParam("grant_type"); grant {
	case "password":
		var req credentialsRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		out, err = s.svc.Login(ctx, req.Email, req.Password)
	case "refresh_token":
		var req refreshRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		out, err = s.svc.Refresh(ctx, req.RefreshToken)
	default:
		return &apiError{status: http.StatusBadRequest, code: "unsupported_grant_type", msg: fmt.Sprintf("unsupported grant_type %q", grant)}
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTokenResponse(out))
}

func (s *Server) user(c echo.Context) error {
	u, err := s.svc.GetUser(c.Request().Context(), claimsFrom(c).UserID())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u.Public())
}

func (s *Server) logout(c echo.Context) error {
	if err := s.svc.Logout(c.Request().Context(), claimsFrom(c), c.QueryParam("scope")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) profiles(c echo.Context) error {
	id, err := eqFilter(c, "id")
	if err != nil {
		return err
	}
	rows, err := s.svc.Profiles(c.Request().Context(), claimsFrom(c).UserID(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) merchantProfiles(c echo.Context) error {
	id, err := eqFilter(c, "user_id")
	if err != nil {
		return err
	}
	rows, err := s.svc.MerchantProfiles(c.Request().Context(), claimsFrom(c).UserID(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) driverProfiles(c echo.Context) error {
	id, err := eqFilter(c, "user_id")
	if err != nil {
		return err
	}
	rows, err := s.svc.DriverProfiles(c.Request().Context(), claimsFrom(c).UserID(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// eqFilter reads a column=eq.<value> row filter. It is the only filter the
// profile tables accept.
func eqFilter(c echo.Context, column string) (string, error) {
	v, ok := strings.CutPrefix(c.QueryParam(column), "eq.")
	if !ok || v == "" {
		return "", &apiError{status: http.StatusBadRequest, code: "invalid_filter", msg: fmt.Sprintf("expected %s=eq.<value>", column)}
	}
	return v, nil
}

func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: malformed body", common.ErrValidation)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	return nil
}
