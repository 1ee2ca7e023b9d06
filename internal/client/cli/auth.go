package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/suraj-driod/swa-antarang/internal/client/client"
	"github.com/suraj-driod/swa-antarang/internal/client/rolegate"
	"github.com/suraj-driod/swa-antarang/internal/client/session"
	"github.com/suraj-driod/swa-antarang/internal/common"
	"github.com/suraj-driod/swa-antarang/internal/models"
	"github.com/suraj-driod/swa-antarang/internal/validation"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var metaValidator = validation.New()

var errNoStore = errors.New("no session store configured")

// Login prompts for credentials and signs in through the session controller.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.sessions.Login(ctx, email, string(password))
	if err != nil {
		a.log.Info(ctx, "login failed", "email", email, "error", err)
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", res.Identity.Email, res.Identity.Role)
	return nil
}

// SignUp prompts for account details, including the role specific ones,
// and registers the account.
func (a *App) SignUp(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	roleText, err := getSimpleText(a.reader, "Role (merchant, driver, customer)", a.out)
	if err != nil {
		return err
	}
	role, err := models.ParseRole(strings.ToLower(roleText))
	if err != nil {
		return err
	}

	meta := models.SignUpMetadata{Role: role}
	if meta.FullName, err = getSimpleText(a.reader, "Full name", a.out); err != nil {
		return err
	}
	if meta.Phone, err = getSimpleText(a.reader, "Phone (optional)", a.out); err != nil {
		return err
	}
	switch role {
	case models.RoleMerchant:
		if meta.BusinessName, err = getSimpleText(a.reader, "Business name", a.out); err != nil {
			return err
		}
	case models.RoleDriver:
		if meta.VehicleNumber, err = getSimpleText(a.reader, "Vehicle number (optional)", a.out); err != nil {
			return err
		}
	}
	if err := metaValidator.Validate(&meta); err != nil {
		return err
	}

	res, err := a.sessions.SignUp(ctx, email, string(password), meta)
	if err != nil {
		return err
	}

	switch {
	case res.Session == nil:
		fmt.Fprintln(a.out, "Account created. Confirm your email, then log in.")
	case res.Identity == nil:
		fmt.Fprintln(a.out, "Account created. Your profile is not ready yet; try login in a moment.")
	default:
		fmt.Fprintf(a.out, "Signed up as %s (%s)\n", res.Identity.Email, res.Identity.Role)
	}
	return nil
}

// Logout signs out everywhere. Local state is cleared even when the
// backend call fails.
func (a *App) Logout(ctx context.Context) error {
	r := a.sessions.Logout(ctx)
	if err := r.Err(); err != nil {
		a.log.Warn(ctx, "logout finished with errors", "error", err)
		fmt.Fprintln(a.out, "Signed out locally; the server could not be reached.")
		return nil
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// WhoAmI prints the current identity.
func (a *App) WhoAmI(_ context.Context) error {
	st := a.sessions.Snapshot()
	switch rolegate.Protected(st) {
	case rolegate.Loading:
		fmt.Fprintln(a.out, "Restoring session, try again in a moment.")
	case rolegate.Redirect:
		fmt.Fprintln(a.out, "Not signed in. Use 'login' or 'signup'.")
	default:
		id := st.Identity
		fmt.Fprintf(a.out, "id:    %s\nemail: %s\nrole:  %s\n", id.ID, id.Email, id.Role)
		if id.FullName != "" {
			fmt.Fprintf(a.out, "name:  %s\n", id.FullName)
		}
		if id.MerchantProfileID != "" {
			fmt.Fprintf(a.out, "merchant profile: %s\n", id.MerchantProfileID)
		}
		if id.DriverProfileID != "" {
			fmt.Fprintf(a.out, "driver profile: %s\n", id.DriverProfileID)
		}
	}
	return nil
}

// WhoAmIOffline prints the user id of the persisted session. It reads the
// local store only, so it works while the backend is unreachable.
func (a *App) WhoAmIOffline(ctx context.Context) error {
	if a.stored == nil {
		return errNoStore
	}
	id, err := a.stored.UserID(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		fmt.Fprintln(a.out, "No stored session.")
		return nil
	}
	fmt.Fprintf(a.out, "stored user: %s\n", id)
	return nil
}

// Refresh rotates the stored tokens now. The controller picks up the new
// session from the TOKEN_REFRESHED event the backend emits.
func (a *App) Refresh(ctx context.Context) error {
	if a.tokens == nil {
		return errNoStore
	}
	s, err := a.tokens.RefreshSession(ctx)
	if err != nil {
		return err
	}
	if s.ExpiresAt.IsZero() {
		fmt.Fprintln(a.out, "Session refreshed")
		return nil
	}
	fmt.Fprintf(a.out, "Session refreshed, valid until %s\n", s.ExpiresAt.Local().Format(time.RFC3339))
	return nil
}

// Role prints the role flags, or with an argument whether the current user
// may enter that role's area.
func (a *App) Role(_ context.Context, want string) error {
	st := a.sessions.Snapshot()

	if want == "" {
		f := rolegate.Derive(st.Identity)
		fmt.Fprintf(a.out, "role=%q merchant=%t driver=%t customer=%t\n", f.Role, f.IsMerchant, f.IsDriver, f.IsCustomer)
		return nil
	}

	role, err := models.ParseRole(strings.ToLower(want))
	if err != nil {
		return err
	}
	switch rolegate.RequireRole(st, role) {
	case rolegate.Loading:
		fmt.Fprintln(a.out, "Restoring session, try again in a moment.")
	case rolegate.Redirect:
		fmt.Fprintf(a.out, "Access to the %s area denied.\n", role)
	default:
		fmt.Fprintf(a.out, "Access to the %s area granted.\n", role)
	}
	return nil
}

// describe turns command errors into a line for the user.
func describe(err error) string {
	var ae *client.AuthError
	switch {
	case errors.Is(err, session.ErrProfileNotFound):
		return err.Error()
	case errors.Is(err, client.ErrNoSession):
		return "Not signed in. Use 'login' or 'signup'."
	case errors.As(err, &ae):
		return ae.Error()
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable, try again later."
	default:
		return err.Error()
	}
}
