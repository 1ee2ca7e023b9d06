// Package client is the client side of the identity backend.
//
// # Overview
//
// The package provides:
//  1. The Backend contract the session controller depends on: session read,
//     user revalidation, password sign-in, sign-up, scoped sign-out, profile
//     row lookups and a push subscription for auth state changes.
//  2. HTTPBackend, an implementation speaking the hosted auth (/auth/v1) and
//     REST (/rest/v1) APIs. It persists issued sessions in a store.Store,
//     refreshes expiring access tokens (single-flight), retries a rejected
//     call once after a refresh, and publishes auth events.
//  3. InitDatabase, which opens the local SQLite database used by
//     store.SQLiteStore and applies the embedded goose migrations.
//
// # Error Handling
//
// Transport problems and 5xx answers match ErrUnavailable. Backend rejections
// are *AuthError values carrying the backend's message; 400/401/403 also match
// ErrUnauthorized and 404 matches ErrNotFound. Missing profile rows return
// ErrNotFound. Calls needing a session when none is stored return ErrNoSession.
//
// All methods are safe for concurrent use.
package client
