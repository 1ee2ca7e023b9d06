package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/suraj-driod/swa-antarang/internal/metrics"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

// RefreshSession exchanges the stored refresh token for a new session.
func (b *HTTPBackend) RefreshSession(ctx context.Context) (*models.Session, error) {
	s, err := b.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil || s.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return b.refresh(ctx, s.RefreshToken)
}

// refresh is single-flight: concurrent callers share one request. A
// rejected refresh token clears the store and signs the client out.
func (b *HTTPBackend) refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	v, err, _ := b.flight.Do("refresh", func() (any, error) {
		var tr tokenResponse
		q := url.Values{"grant_type": {"refresh_token"}}
		body := map[string]string{"refresh_token": refreshToken}

		if err := b.do(ctx, http.MethodPost, "/auth/v1/token", q, "", body, &tr); err != nil {
			var ae *AuthError
			if errors.As(err, &ae) && ae.Status < http.StatusInternalServerError {
				metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
				b.log.Warn(ctx, "refresh token rejected, signing out", "status", ae.Status, "error", ae.Message)
				if cerr := b.store.Clear(ctx); cerr != nil {
					b.log.Error(ctx, "clear session after rejected refresh", "error", cerr)
				}
				b.events.emit(models.AuthEvent{Type: models.EventSignedOut})
				return nil, err
			}
			metrics.TokenRefreshes.WithLabelValues("error").Inc()
			return nil, err
		}

		s := tr.session(b.now())
		if err := b.store.Save(ctx, s); err != nil {
			metrics.TokenRefreshes.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.TokenRefreshes.WithLabelValues("ok").Inc()
		b.log.Debug(ctx, "access token refreshed", "user_id", s.UserID(), "expires_at", s.ExpiresAt)
		b.events.emit(models.AuthEvent{Type: models.EventTokenRefreshed, Session: s})

		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Session), nil
}

// RefreshIfExpiring refreshes the stored session when it is within the
// refresh margin of expiry. It reports whether a refresh was attempted.
func (b *HTTPBackend) RefreshIfExpiring(ctx context.Context) (bool, error) {
	s, err := b.store.Load(ctx)
	if err != nil || s == nil {
		return false, err
	}
	if !b.expiring(s) || s.RefreshToken == "" {
		return false, nil
	}
	_, err = b.refresh(ctx, s.RefreshToken)
	return true, err
}

// StartAutoRefresh checks the stored session every interval until ctx is done.
func (b *HTTPBackend) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := b.RefreshIfExpiring(ctx); err != nil {
					b.log.Warn(ctx, "auto refresh failed", "error", err)
				}
			}
		}
	}()
}
