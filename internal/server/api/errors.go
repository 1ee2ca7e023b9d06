package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suraj-driod/swa-antarang/internal/common"
)

// apiError is a rejection with a fixed status and machine-readable code.
type apiError struct {
	status int
	code   string
	msg    string
}

func (e *apiError) Error() string { return e.msg }

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	ErrorCode        string `json:"error_code"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, code, msg := resolveError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(c.Request().Context(), "request failed", "path", c.Path(), "error", err)
	}

	body := errorResponse{Error: code, ErrorDescription: msg, Msg: msg, ErrorCode: code}
	if err := c.JSON(status, body); err != nil {
		s.log.Error(context.Background(), "write error response", "error", err)
	}
}

func resolveError(err error) (int, string, string) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, ae.code, ae.msg
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, http.StatusText(he.Code), fmt.Sprint(he.Message)
	}

	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_failed", err.Error()
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusUnprocessableEntity, "user_already_exists", "User already registered"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusBadRequest, "invalid_credentials", "Invalid login credentials"
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusBadRequest, "refresh_token_expired", "Refresh token expired"
	case errors.Is(err, common.ErrRefreshTokenRevoked):
		return http.StatusBadRequest, "refresh_token_not_found", "Invalid refresh token"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "bad_jwt", "token is expired"
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, "bad_jwt", "invalid JWT"
	default:
		return http.StatusInternalServerError, "unexpected_failure", "internal server error"
	}
}
