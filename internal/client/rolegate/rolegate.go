// Package rolegate derives role flags from the current identity and decides
// what a protected area should do with the current session state.
package rolegate

import (
	"github.com/suraj-driod/swa-antarang/internal/client/session"
	"github.com/suraj-driod/swa-antarang/internal/metrics"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

// Flags are the role booleans of an identity. Role is empty when signed out.
type Flags struct {
	Role       models.Role `json:"role,omitempty"`
	IsMerchant bool        `json:"is_merchant"`
	IsDriver   bool        `json:"is_driver"`
	IsCustomer bool        `json:"is_customer"`
}

// Derive computes the flags of id; a nil id yields all-false flags.
func Derive(id *models.Identity) Flags {
	if id == nil {
		return Flags{}
	}
	f := Flags{Role: id.Role}
	switch id.Role {
	case models.RoleMerchant:
		f.IsMerchant = true
	case models.RoleDriver:
		f.IsDriver = true
	case models.RoleCustomer:
		f.IsCustomer = true
	}
	return f
}

// Decision is what a guard tells the caller to do.
type Decision int

const (
	Render Decision = iota
	Loading
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Protected admits any signed-in user. It waits only while loading with no
// identity yet; a known identity renders even during a refresh.
func Protected(s session.State) Decision {
	var d Decision
	switch {
	case s.Loading && s.Identity == nil:
		d = Loading
	case s.Identity == nil:
		d = Redirect
	default:
		d = Render
	}
	metrics.GuardDecisions.WithLabelValues("protected", d.String()).Inc()
	return d
}

// RequireRole admits only identities with role allowed. It waits whenever
// loading, even with an identity present, so role is never judged on stale data.
func RequireRole(s session.State, allowed models.Role) Decision {
	var d Decision
	switch {
	case s.Loading:
		d = Loading
	case s.Identity == nil, s.Identity.Role != allowed:
		d = Redirect
	default:
		d = Render
	}
	metrics.GuardDecisions.WithLabelValues("role", d.String()).Inc()
	return d
}
