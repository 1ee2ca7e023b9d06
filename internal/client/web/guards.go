// Package web serves a small local HTTP shell in front of the session
// controller. Its area routes sit behind echo middleware built from the
// role gate decisions.
package web

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/suraj-driod/swa-antarang/internal/client/rolegate"
	"github.com/suraj-driod/swa-antarang/internal/client/session"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

const (
	// LoginPath is where guards send signed-out visitors.
	LoginPath = "/login"

	identityKey = "identity"
	retryAfter  = 1 // seconds
)

// StateSource exposes the session state guards decide on.
type StateSource interface {
	Snapshot() session.State
}

// Protected admits any signed-in user.
func Protected(src StateSource) echo.MiddlewareFunc {
	return guard(src, rolegate.Protected)
}

// RoleRoute admits only users whose role is allowed.
func RoleRoute(src StateSource, allowed models.Role) echo.MiddlewareFunc {
	return guard(src, func(s session.State) rolegate.Decision {
		return rolegate.RequireRole(s, allowed)
	})
}

func guard(src StateSource, decide func(session.State) rolegate.Decision) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := src.Snapshot()
			switch decide(st) {
			case rolegate.Loading:
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
			case rolegate.Redirect:
				return c.Redirect(http.StatusFound, LoginPath)
			default:
				c.Set(identityKey, st.Identity)
				return next(c)
			}
		}
	}
}

// IdentityFrom returns the identity a guard stored on c, or nil.
func IdentityFrom(c echo.Context) *models.Identity {
	id, _ := c.Get(identityKey).(*models.Identity)
	return id
}
