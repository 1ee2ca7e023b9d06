package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suraj-driod/swa-antarang/internal/common"
	"github.com/suraj-driod/swa-antarang/internal/metrics"
	"github.com/suraj-driod/swa-antarang/internal/server/auth"
)

const claimsKey = "claims"

func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.anonKey == "" {
			return next(c)
		}
		key := c.Request().Header.Get(common.APIKeyHeaderName)
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.anonKey)) != 1 {
			return &apiError{status: http.StatusUnauthorized, code: "no_api_key", msg: "invalid or missing api key"}
		}
		return next(c)
	}
}

// requireBearer rejects requests without a valid access token of a live
// session and stores the token's claims on the context.
func (s *Server) requireBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Request().Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(h, common.BearerPrefix)
		if !ok || token == "" {
			return common.ErrUnauthorized
		}

		claims, err := s.svc.Authenticate(c.Request().Context(), token)
		if err != nil {
			return err
		}
		c.Set(claimsKey, claims)
		return next(c)
	}
}

func claimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	if claims == nil {
		return &auth.Claims{}
	}
	return claims
}

func observeDuration(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		metrics.RequestDuration.WithLabelValues(c.Path(), c.Request().Method).Observe(time.Since(start).Seconds())
		return err
	}
}

// countAuth records the outcome of an auth call under the op label.
func countAuth(op func(echo.Context) string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			code := c.Response().Status
			if err != nil {
				code, _, _ = resolveError(err)
			}
			metrics.AuthRequests.WithLabelValues(op(c), strconv.Itoa(code)).Inc()
			return err
		}
	}
}
