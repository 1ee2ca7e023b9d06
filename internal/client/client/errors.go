package client

import (
	"errors"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("identity backend unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrNoSession    = errors.New("no session")
)

// AuthError is a rejection returned by the backend. Message is the backend's
// own text and is what Error returns, so it can be shown to the user as-is.
type AuthError struct {
	Status  int
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest, e.Status == http.StatusUnauthorized, e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= 500:
		return ErrUnavailable
	default:
		return nil
	}
}

func isTokenRejected(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}
