package common

// Header names understood by the identity backend.
const (
	APIKeyHeaderName        = "apikey"
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
)

// Sign-out scopes accepted by the logout endpoint.
const (
	ScopeLocal  = "local"
	ScopeGlobal = "global"
)
